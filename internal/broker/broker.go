package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Carpool/internal/config"
	"github.com/MikeSquared-Agency/Carpool/internal/hermes"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
	"github.com/MikeSquared-Agency/Carpool/internal/metrics"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

// ErrRiderNotFound is returned when an operation names a rider the store does
// not know.
var ErrRiderNotFound = store.ErrRiderNotFound

const digestPageSize = 100

// Broker runs the matching engine against stored rider directories and
// publishes the outcome. Cache and hermes are optional and may be nil.
type Broker struct {
	store  store.Store
	cache  store.PoolCache
	hermes hermes.Client
	engine *matching.Engine
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, c store.PoolCache, h hermes.Client, e *matching.Engine, cfg *config.Config, logger *slog.Logger) *Broker {
	return &Broker{
		store:  s,
		cache:  c,
		hermes: h,
		engine: e,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

func (b *Broker) Start(ctx context.Context) {
	if !b.cfg.Digest.Enabled {
		return
	}
	b.wg.Add(1)
	go b.digestLoop(ctx)
}

func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}

// Evaluate runs FilterNearby on caller-supplied data without touching storage.
func (b *Broker) Evaluate(profile matching.RiderProfile, candidates []matching.Candidate) (matching.RecommendationSet, error) {
	set, err := b.engine.FilterNearby(profile, candidates)
	metrics.ObserveEvaluation(string(store.KindNearby), len(set), err)
	return set, err
}

// EvaluateRecent runs FilterRecent on caller-supplied data.
func (b *Broker) EvaluateRecent(candidates []matching.Candidate, maxDistanceKm float64) ([]matching.Candidate, error) {
	out, err := b.engine.FilterRecent(candidates, maxDistanceKm)
	metrics.ObserveEvaluation(string(store.KindRecent), len(out), err)
	return out, err
}

// Nearby evaluates a stored rider against their directory.
func (b *Broker) Nearby(ctx context.Context, riderID uuid.UUID) (matching.RecommendationSet, error) {
	rider, err := b.rider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	entries, err := b.pool(ctx, riderID)
	if err != nil {
		return nil, err
	}
	candidates := store.Candidates(entries, b.now())

	set, err := b.engine.FilterNearby(rider.Profile(), candidates)
	metrics.ObserveEvaluation(string(store.KindNearby), len(set), err)
	if err != nil {
		return nil, err
	}

	evalID := b.record(ctx, riderID, store.KindNearby, len(candidates), len(set))
	b.publish("nearby", hermes.SubjectNearbyEvaluated(riderID.String()), hermes.NearbyEvaluatedEvent{
		RiderID:        riderID.String(),
		EvaluationID:   evalID,
		CandidateCount: len(candidates),
		MatchCount:     len(set),
		CandidateIDs:   set.IDs(),
	})

	b.logger.Info("nearby evaluated", "rider_id", riderID, "candidates", len(candidates), "matches", len(set))
	return set, nil
}

// Recent lists new users close to a stored rider's home. A zero
// joined-within window falls back to distance only.
func (b *Broker) Recent(ctx context.Context, riderID uuid.UUID) ([]matching.Candidate, error) {
	if _, err := b.rider(ctx, riderID); err != nil {
		return nil, err
	}
	entries, err := b.pool(ctx, riderID)
	if err != nil {
		return nil, err
	}
	candidates := store.Candidates(entries, b.now())

	out, err := b.recentFilter(candidates)
	metrics.ObserveEvaluation(string(store.KindRecent), len(out), err)
	if err != nil {
		return nil, err
	}

	evalID := b.record(ctx, riderID, store.KindRecent, len(candidates), len(out))
	b.publish("recent", hermes.SubjectRecentEvaluated(riderID.String()), hermes.RecentEvaluatedEvent{
		RiderID:        riderID.String(),
		EvaluationID:   evalID,
		MaxDistanceKm:  b.cfg.Matching.NewUserMaxDistanceKm,
		CandidateCount: len(candidates),
		MatchCount:     len(out),
		CandidateIDs:   candidateIDs(out),
	})
	return out, nil
}

// UpdateRider persists profile changes and announces them.
func (b *Broker) UpdateRider(ctx context.Context, r *store.Rider) error {
	if err := b.store.UpdateRider(ctx, r); err != nil {
		return err
	}
	b.publish("rider_updated", hermes.SubjectRiderUpdated(r.ID.String()), hermes.RiderUpdatedEvent{
		RiderID:       r.ID.String(),
		PassengerOnly: r.PassengerOnly,
		HomeRadiusKm:  r.HomeRadiusKm,
		WorkRadiusKm:  r.WorkRadiusKm,
	})
	return nil
}

func (b *Broker) PutDirectoryEntry(ctx context.Context, e *store.DirectoryEntry) error {
	if err := b.store.UpsertDirectoryEntry(ctx, e); err != nil {
		return err
	}
	b.invalidate(ctx, e.RiderID)
	return nil
}

func (b *Broker) RemoveDirectoryEntry(ctx context.Context, riderID uuid.UUID, candidateID string) error {
	if err := b.store.DeleteDirectoryEntry(ctx, riderID, candidateID); err != nil {
		return err
	}
	b.invalidate(ctx, riderID)
	return nil
}

func (b *Broker) recentFilter(candidates []matching.Candidate) ([]matching.Candidate, error) {
	m := b.cfg.Matching
	if m.NewUserJoinedWithinDays == 0 {
		return b.engine.FilterRecent(candidates, m.NewUserMaxDistanceKm)
	}
	return b.engine.FilterNewUsers(candidates, m.NewUserMaxDistanceKm, m.NewUserJoinedWithinDays)
}

func (b *Broker) rider(ctx context.Context, riderID uuid.UUID) (*store.Rider, error) {
	rider, err := b.store.GetRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if rider == nil {
		return nil, ErrRiderNotFound
	}
	return rider, nil
}

// pool loads a rider's directory, preferring the cache. Cache failures are
// logged and fall through to the store. A snapshot is written back only if no
// directory write landed while it was being read.
func (b *Broker) pool(ctx context.Context, riderID uuid.UUID) ([]*store.DirectoryEntry, error) {
	var gen int64
	cacheable := false
	if b.cache != nil {
		entries, ok, err := b.cache.GetPool(ctx, riderID)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			b.logger.Warn("pool cache read failed", "rider_id", riderID, "error", err)
		case ok:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return entries, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}

		if gen, err = b.cache.Generation(ctx, riderID); err != nil {
			b.logger.Warn("pool cache generation read failed", "rider_id", riderID, "error", err)
		} else {
			cacheable = true
		}
	}

	entries, err := b.store.ListDirectory(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if cacheable {
		err := b.cache.SetPool(ctx, riderID, gen, entries)
		switch {
		case errors.Is(err, store.ErrStalePool):
			b.logger.Debug("directory changed during load, snapshot not cached", "rider_id", riderID)
		case err != nil:
			b.logger.Warn("pool cache write failed", "rider_id", riderID, "error", err)
		}
	}
	return entries, nil
}

func (b *Broker) invalidate(ctx context.Context, riderID uuid.UUID) {
	if b.cache == nil {
		return
	}
	if err := b.cache.InvalidatePool(ctx, riderID); err != nil {
		b.logger.Warn("pool cache invalidate failed", "rider_id", riderID, "error", err)
	}
}

// record writes the audit row. A failed write is logged; the evaluation
// result stands.
func (b *Broker) record(ctx context.Context, riderID uuid.UUID, kind store.EvaluationKind, candidates, matches int) string {
	e := &store.Evaluation{RiderID: riderID, Kind: kind, CandidateCount: candidates, MatchCount: matches}
	if err := b.store.RecordEvaluation(ctx, e); err != nil {
		b.logger.Warn("failed to record evaluation", "rider_id", riderID, "kind", kind, "error", err)
		return ""
	}
	return e.ID.String()
}

func (b *Broker) publish(event, subject string, data interface{}) {
	if b.hermes == nil {
		return
	}
	if err := b.hermes.Publish(subject, data); err != nil {
		metrics.EventsPublished.WithLabelValues(event, "error").Inc()
		b.logger.Warn("failed to publish event", "subject", subject, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(event, "ok").Inc()
}

func candidateIDs(cs []matching.Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}
