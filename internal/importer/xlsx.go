// Package importer reads directory exports produced by the back office.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Column order of a directory export. The first row is a header.
const (
	colCandidateID = iota
	colName
	colHomeKm
	colWorkKm
	colVehicle
	colSeats
	colJoined
)

// GetRows drops trailing empty cells, so passenger rows may stop after the
// work distance.
const requiredColumns = colWorkKm + 1

const joinedLayout = "2006-01-02"

// Entry is one parsed directory row.
type Entry struct {
	CandidateID    string     `json:"-"`
	Name           string     `json:"name"`
	HomeDistanceKm float64    `json:"home_distance_km"`
	WorkDistanceKm float64    `json:"work_distance_km"`
	HasVehicle     bool       `json:"has_vehicle"`
	VehicleLabel   string     `json:"vehicle_label,omitempty"`
	Seats          int        `json:"seats,omitempty"`
	JoinedAt       *time.Time `json:"joined_at,omitempty"`
	Row            int        `json:"-"`
}

// RowError reports a row that could not be parsed.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func OpenFile(path string) (*excelize.File, error) {
	return excelize.OpenFile(path)
}

// ReadDirectory parses a sheet. Bad rows are skipped and reported; an empty
// sheet name reads the first sheet.
func ReadDirectory(f *excelize.File, sheet string) ([]Entry, []RowError, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}

	var entries []Entry
	var rowErrs []RowError
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if isBlank(row) {
			continue
		}
		e, err := parseRow(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: err})
			continue
		}
		e.Row = i + 1
		entries = append(entries, e)
	}
	return entries, rowErrs, nil
}

func parseRow(row []string) (Entry, error) {
	if len(row) < requiredColumns {
		return Entry{}, fmt.Errorf("expected at least %d columns, got %d", requiredColumns, len(row))
	}
	e := Entry{
		CandidateID: strings.TrimSpace(row[colCandidateID]),
		Name:        strings.TrimSpace(row[colName]),
	}
	if e.CandidateID == "" {
		return Entry{}, fmt.Errorf("candidate id is empty")
	}

	var err error
	if e.HomeDistanceKm, err = parseKm(row[colHomeKm]); err != nil {
		return Entry{}, fmt.Errorf("home distance: %w", err)
	}
	if e.WorkDistanceKm, err = parseKm(row[colWorkKm]); err != nil {
		return Entry{}, fmt.Errorf("work distance: %w", err)
	}

	if s := cell(row, colSeats); s != "" {
		seats, err := strconv.Atoi(s)
		if err != nil {
			return Entry{}, fmt.Errorf("seats: %w", err)
		}
		if seats > 0 {
			e.HasVehicle = true
			e.Seats = seats
			e.VehicleLabel = cell(row, colVehicle)
		}
	}

	if s := cell(row, colJoined); s != "" {
		t, err := time.Parse(joinedLayout, s)
		if err != nil {
			return Entry{}, fmt.Errorf("joined date: %w", err)
		}
		e.JoinedAt = &t
	}
	return e, nil
}

// parseKm accepts a decimal comma.
func parseKm(val string) (float64, error) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
