package broker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Carpool/internal/hermes"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

// SetupSubscriptions registers NATS subscriptions for directory feeds.
func (b *Broker) SetupSubscriptions() {
	if b.hermes == nil {
		return
	}
	if err := b.hermes.Subscribe(hermes.SubjectDirectoryUpsertAll, b.handleDirectoryUpsert); err != nil {
		b.logger.Warn("failed to subscribe", "subject", hermes.SubjectDirectoryUpsertAll, "error", err)
	}
}

// handleDirectoryUpsert stores an entry from commute.directory.<rider>.upsert.
// Malformed events are logged and dropped.
func (b *Broker) handleDirectoryUpsert(subject string, data []byte) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 {
		return
	}
	riderID, err := uuid.Parse(parts[2])
	if err != nil {
		b.logger.Warn("invalid rider id in subject", "subject", subject)
		return
	}

	var evt hermes.DirectoryUpsertEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		b.logger.Warn("invalid directory upsert event", "rider_id", riderID, "error", err)
		return
	}

	entry := &store.DirectoryEntry{
		RiderID:        riderID,
		CandidateID:    evt.CandidateID,
		Name:           evt.Name,
		HomeDistanceKm: evt.HomeDistanceKm,
		WorkDistanceKm: evt.WorkDistanceKm,
		HasVehicle:     evt.HasVehicle,
		JoinedAt:       evt.JoinedAt,
	}
	if evt.HasVehicle {
		entry.VehicleLabel = evt.VehicleLabel
		entry.Seats = evt.Seats
	}
	if err := matching.ValidateCandidates([]matching.Candidate{entry.Candidate(b.now())}); err != nil {
		b.logger.Warn("rejected directory upsert", "rider_id", riderID, "error", err)
		return
	}

	ctx := context.Background()
	if _, err := b.rider(ctx, riderID); err != nil {
		b.logger.Warn("directory upsert for unknown rider", "rider_id", riderID, "error", err)
		return
	}
	if err := b.PutDirectoryEntry(ctx, entry); err != nil {
		b.logger.Error("failed to store directory entry", "rider_id", riderID, "candidate_id", entry.CandidateID, "error", err)
		return
	}
	b.logger.Info("directory entry upserted from feed", "rider_id", riderID, "candidate_id", entry.CandidateID)
}
