package broker

import (
	"context"
	"time"

	"github.com/MikeSquared-Agency/Carpool/internal/hermes"
	"github.com/MikeSquared-Agency/Carpool/internal/metrics"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

func (b *Broker) digestLoop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runDigest(ctx)
		}
	}
}

// runDigest publishes a new-users digest for every rider whose directory has
// recent joiners nearby. It shares Recent's filter, so a zero joined-within
// window matches on distance alone.
func (b *Broker) runDigest(ctx context.Context) {
	published := 0
	for offset := 0; ; offset += digestPageSize {
		riders, err := b.store.ListRiders(ctx, store.RiderFilter{Limit: digestPageSize, Offset: offset})
		if err != nil {
			b.logger.Error("failed to list riders for digest", "error", err)
			return
		}
		for _, r := range riders {
			if b.digestRider(ctx, r) {
				published++
			}
		}
		if len(riders) < digestPageSize {
			break
		}
	}
	b.logger.Info("digest complete", "published", published)
}

func (b *Broker) digestRider(ctx context.Context, r *store.Rider) bool {
	entries, err := b.pool(ctx, r.ID)
	if err != nil {
		b.logger.Warn("failed to load pool for digest", "rider_id", r.ID, "error", err)
		return false
	}
	candidates := store.Candidates(entries, b.now())
	out, err := b.recentFilter(candidates)
	metrics.ObserveEvaluation(string(store.KindDigest), len(out), err)
	if err != nil {
		b.logger.Warn("digest evaluation failed", "rider_id", r.ID, "error", err)
		return false
	}
	if len(out) == 0 {
		return false
	}

	evalID := b.record(ctx, r.ID, store.KindDigest, len(candidates), len(out))
	b.publish("digest", hermes.SubjectNewUsersDigest(r.ID.String()), hermes.NewUsersDigestEvent{
		RiderID:          r.ID.String(),
		EvaluationID:     evalID,
		JoinedWithinDays: b.cfg.Matching.NewUserJoinedWithinDays,
		CandidateIDs:     candidateIDs(out),
		Timestamp:        b.now(),
	})
	return true
}
