package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const riderColumns = `rider_id, name, passenger_only, home_radius_km, work_radius_km,
	vehicle_label, seats, created_at, updated_at`

func (s *PostgresStore) CreateRider(ctx context.Context, r *Rider) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO riders (name, passenger_only, home_radius_km, work_radius_km, vehicle_label, seats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING rider_id, created_at, updated_at`,
		r.Name, r.PassengerOnly, r.HomeRadiusKm, r.WorkRadiusKm, nullString(r.VehicleLabel), r.Seats,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *PostgresStore) GetRider(ctx context.Context, id uuid.UUID) (*Rider, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+riderColumns+` FROM riders WHERE rider_id = $1`, id)
	r, err := scanRider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) UpdateRider(ctx context.Context, r *Rider) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE riders SET
			name = $2, passenger_only = $3, home_radius_km = $4, work_radius_km = $5,
			vehicle_label = $6, seats = $7, updated_at = now()
		WHERE rider_id = $1
		RETURNING updated_at`,
		r.ID, r.Name, r.PassengerOnly, r.HomeRadiusKm, r.WorkRadiusKm, nullString(r.VehicleLabel), r.Seats,
	).Scan(&r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRiderNotFound
	}
	return err
}

func (s *PostgresStore) ListRiders(ctx context.Context, filter RiderFilter) ([]*Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.PassengerOnly != nil {
		n++
		query += fmt.Sprintf(" AND passenger_only = $%d", n)
		args = append(args, *filter.PassengerOnly)
	}

	query += " ORDER BY created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*Rider
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, r)
	}
	return riders, rows.Err()
}

// ListDirectory returns entries in insertion order; the engine relies on it.
func (s *PostgresStore) ListDirectory(ctx context.Context, riderID uuid.UUID) ([]*DirectoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rider_id, candidate_id, name, home_distance_km, work_distance_km,
			has_vehicle, vehicle_label, seats, joined_at, position
		FROM rider_directory WHERE rider_id = $1
		ORDER BY position ASC`, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*DirectoryEntry
	for rows.Next() {
		e := &DirectoryEntry{}
		var label sql.NullString
		var seats sql.NullInt32
		if err := rows.Scan(
			&e.RiderID, &e.CandidateID, &e.Name, &e.HomeDistanceKm, &e.WorkDistanceKm,
			&e.HasVehicle, &label, &seats, &e.JoinedAt, &e.Position,
		); err != nil {
			return nil, err
		}
		if label.Valid {
			e.VehicleLabel = label.String
		}
		if seats.Valid {
			e.Seats = int(seats.Int32)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertDirectoryEntry keeps an existing entry's position so updates do not
// reorder the directory.
func (s *PostgresStore) UpsertDirectoryEntry(ctx context.Context, e *DirectoryEntry) error {
	var seats *int
	if e.HasVehicle {
		seats = &e.Seats
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO rider_directory (rider_id, candidate_id, name, home_distance_km, work_distance_km,
			has_vehicle, vehicle_label, seats, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rider_id, candidate_id) DO UPDATE SET
			name = EXCLUDED.name,
			home_distance_km = EXCLUDED.home_distance_km,
			work_distance_km = EXCLUDED.work_distance_km,
			has_vehicle = EXCLUDED.has_vehicle,
			vehicle_label = EXCLUDED.vehicle_label,
			seats = EXCLUDED.seats,
			joined_at = EXCLUDED.joined_at
		RETURNING position`,
		e.RiderID, e.CandidateID, e.Name, e.HomeDistanceKm, e.WorkDistanceKm,
		e.HasVehicle, nullString(e.VehicleLabel), seats, e.JoinedAt,
	).Scan(&e.Position)
}

func (s *PostgresStore) DeleteDirectoryEntry(ctx context.Context, riderID uuid.UUID, candidateID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rider_directory WHERE rider_id = $1 AND candidate_id = $2`, riderID, candidateID)
	return err
}

func (s *PostgresStore) RecordEvaluation(ctx context.Context, e *Evaluation) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO match_evaluations (rider_id, kind, candidate_count, match_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.RiderID, e.Kind, e.CandidateCount, e.MatchCount,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM riders),
			(SELECT COUNT(*) FROM rider_directory),
			(SELECT COUNT(*) FROM match_evaluations),
			(SELECT COALESCE(AVG(match_count), 0)::float8 FROM match_evaluations)`,
	).Scan(&stats.Riders, &stats.DirectoryEntries, &stats.Evaluations, &stats.AvgMatchCount)
	return stats, err
}

func scanRider(row pgx.Row) (*Rider, error) {
	r := &Rider{}
	var label sql.NullString
	if err := row.Scan(
		&r.ID, &r.Name, &r.PassengerOnly, &r.HomeRadiusKm, &r.WorkRadiusKm,
		&label, &r.Seats, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if label.Valid {
		r.VehicleLabel = label.String
	}
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
