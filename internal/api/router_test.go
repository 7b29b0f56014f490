package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Carpool/internal/broker"
	"github.com/MikeSquared-Agency/Carpool/internal/config"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

// MockStore implements store.Store for handler tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRider(ctx context.Context, r *store.Rider) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockStore) GetRider(ctx context.Context, id uuid.UUID) (*store.Rider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Rider), args.Error(1)
}

func (m *MockStore) UpdateRider(ctx context.Context, r *store.Rider) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockStore) ListRiders(ctx context.Context, f store.RiderFilter) ([]*store.Rider, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Rider), args.Error(1)
}

func (m *MockStore) ListDirectory(ctx context.Context, riderID uuid.UUID) ([]*store.DirectoryEntry, error) {
	args := m.Called(ctx, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.DirectoryEntry), args.Error(1)
}

func (m *MockStore) UpsertDirectoryEntry(ctx context.Context, e *store.DirectoryEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockStore) DeleteDirectoryEntry(ctx context.Context, riderID uuid.UUID, candidateID string) error {
	args := m.Called(ctx, riderID, candidateID)
	return args.Error(0)
}

func (m *MockStore) RecordEvaluation(ctx context.Context, e *store.Evaluation) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockStore) GetStats(ctx context.Context) (*store.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Stats), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// MockHermes implements hermes.Client.
type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	return nil
}

func (m *MockHermes) Close() {}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RateLimitPerMin: 1000},
		Matching: config.MatchingConfig{
			PassengerDefaultRadiusKm: 3,
			MinRadiusKm:              1,
			MaxRadiusKm:              3,
			MaxSeats:                 7,
			NewUserMaxDistanceKm:     5,
			NewUserJoinedWithinDays:  14,
		},
	}
}

func setupRouter(t *testing.T) (*MockStore, *MockHermes, http.Handler) {
	t.Helper()
	ms := &MockStore{}
	mh := &MockHermes{}
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := matching.NewEngine(matching.WithPassengerRadius(cfg.Matching.PassengerDefaultRadiusKm))
	require.NoError(t, err)
	b := broker.New(ms, nil, mh, engine, cfg, logger)
	return ms, mh, NewRouter(ms, b, cfg, logger)
}

func doRequest(h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Rider-ID", "rider-test")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	r := NewMetricsRouter()
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMetricsRouter()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestMissingRiderHeader(t *testing.T) {
	_, _, router := setupRouter(t)
	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStats(t *testing.T) {
	ms, _, router := setupRouter(t)
	ms.On("GetStats", mock.Anything).Return(&store.Stats{Riders: 2, Evaluations: 5, AvgMatchCount: 1.5}, nil)

	w := doRequest(router, "GET", "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats store.Stats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Riders)
	assert.Equal(t, 1.5, stats.AvgMatchCount)
}

func TestStatsStoreFailure(t *testing.T) {
	ms, _, router := setupRouter(t)
	ms.On("GetStats", mock.Anything).Return(nil, errors.New("connection refused"))

	w := doRequest(router, "GET", "/api/v1/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
