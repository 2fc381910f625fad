// services/snapshot_store.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nft-wager-arena/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotStore keeps the latest state dump of each arena in Postgres.
type SnapshotStore struct {
	DB *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{DB: db}
}

// Save upserts the snapshot row for actorID.
func (s *SnapshotStore) Save(ctx context.Context, actorID models.ActorID, state models.ArenaState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode arena state: %w", err)
	}

	row := models.ArenaSnapshot{
		ID:            uuid.NewString(),
		ActorID:       string(actorID),
		TransactionID: state.TransactionID,
		MatchCount:    len(state.Matches),
		PendingCount:  len(state.PendingTransfers),
		Payload:       string(payload),
		TakenAt:       time.Now().UTC(),
	}

	err = s.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "actor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transaction_id",
				"match_count",
				"pending_count",
				"payload",
				"taken_at",
				"updated_at",
			}),
		},
	).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for %s: %w", actorID, err)
	}
	return nil
}

// Latest returns the stored state for actorID; found is false when none exists.
func (s *SnapshotStore) Latest(ctx context.Context, actorID models.ActorID) (state models.ArenaState, found bool, err error) {
	var row models.ArenaSnapshot
	if err := s.DB.WithContext(ctx).Where("actor_id = ?", string(actorID)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return state, false, nil
		}
		return state, false, fmt.Errorf("failed to load snapshot for %s: %w", actorID, err)
	}
	if err := json.Unmarshal([]byte(row.Payload), &state); err != nil {
		return state, false, fmt.Errorf("failed to decode snapshot for %s: %w", actorID, err)
	}
	return state, true, nil
}
