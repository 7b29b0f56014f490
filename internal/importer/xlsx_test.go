package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newSheet(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	header := []interface{}{"id", "name", "home_km", "work_km", "vehicle", "seats", "joined"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		r := row
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &r))
	}
	return f
}

func TestReadDirectory(t *testing.T) {
	f := newSheet(t, [][]interface{}{
		{"1", "Sarah Johnson", "2.3", "1.5", "Honda CLS", "3"},
		{"2", "Mike Chen", "3,1", "2,9"},
		{"9", "New Neighbour", "2.1", "3.5", "", "", "2026-03-08"},
	})

	entries, rowErrs, err := ReadDirectory(f, "")
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, entries, 3)

	assert.Equal(t, "1", entries[0].CandidateID)
	assert.True(t, entries[0].HasVehicle)
	assert.Equal(t, 3, entries[0].Seats)
	assert.Equal(t, "Honda CLS", entries[0].VehicleLabel)
	assert.Equal(t, 2, entries[0].Row)

	assert.False(t, entries[1].HasVehicle)
	assert.Equal(t, 3.1, entries[1].HomeDistanceKm)
	assert.Equal(t, 2.9, entries[1].WorkDistanceKm)

	require.NotNil(t, entries[2].JoinedAt)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), *entries[2].JoinedAt)
	assert.False(t, entries[2].HasVehicle)
}

func TestReadDirectorySkipsBadRows(t *testing.T) {
	f := newSheet(t, [][]interface{}{
		{"", "No ID", "1", "1"},
		{"3", "Emma Davis", "far", "0.9"},
		{"4", "Short"},
		{"5", "Lisa Brown", "1.8", "1.8", "Mazda 3", "one"},
		{"6", "David Lee", "2.9", "2.9", "", "", "08/03/2026"},
		{"8", "Kate Miller", "0.9", "0.9", "Kia Rio", "2"},
	})

	entries, rowErrs, err := ReadDirectory(f, "Sheet1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "8", entries[0].CandidateID)

	require.Len(t, rowErrs, 5)
	assert.Equal(t, 2, rowErrs[0].Row)
	assert.Contains(t, rowErrs[1].Error(), "row 3: home distance")
}

func TestReadDirectoryUnknownSheet(t *testing.T) {
	f := newSheet(t, nil)
	_, _, err := ReadDirectory(f, "Missing")
	assert.Error(t, err)
}
