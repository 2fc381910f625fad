// workers/snapshot_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"nft-wager-arena/models"
	"nft-wager-arena/services"

	"github.com/sirupsen/logrus"
)

// SnapshotSource produces a consistent copy of the arena state.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (models.ArenaState, error)
	ID() models.ActorID
}

// SnapshotSink persists a state copy.
type SnapshotSink interface {
	Save(ctx context.Context, actorID models.ActorID, state models.ArenaState) error
}

// PollSnapshots persists the arena state every interval until ctx is done.
// Unchanged states are skipped; a failed write is retried on the next tick.
func PollSnapshots(ctx context.Context, src SnapshotSource, sink SnapshotSink, interval time.Duration, log *logrus.Entry) {
	log.WithField("interval", interval).Info("Starting arena snapshot polling (DB-backed)...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			log.Info("Arena snapshot polling stopped.")
			return
		case <-ticker.C:
			state, err := src.Snapshot(ctx)
			if err != nil {
				log.WithError(err).Warn("❌ Error taking arena snapshot")
				continue
			}

			encoded, err := json.Marshal(state)
			if err != nil {
				log.WithError(err).Warn("❌ Error encoding arena snapshot")
				continue
			}
			if bytes.Equal(encoded, last) {
				log.Debug("➡️ No arena changes since last snapshot.")
				continue
			}

			err = sink.Save(ctx, src.ID(), state)
			services.RecordSnapshot("postgres", err)
			if err != nil {
				log.WithError(err).Error("❌ Failed to persist arena snapshot")
				continue
			}

			last = encoded
			log.WithFields(logrus.Fields{"transaction_id": state.TransactionID, "matches": len(state.Matches)}).
				Info("✅ Arena snapshot persisted")
		}
	}
}
