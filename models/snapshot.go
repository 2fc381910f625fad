// models/snapshot.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// ArenaSnapshot stores the latest state dump of one arena actor.
// Table name: arena_snapshots
type ArenaSnapshot struct {
	ID            string    `gorm:"primaryKey;type:uuid;not null" json:"id"`
	ActorID       string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"actor_id"` // upsert target
	TransactionID uint64    `gorm:"not null;default:0" json:"transaction_id"`
	MatchCount    int       `gorm:"not null;default:0" json:"match_count"`
	PendingCount  int       `gorm:"not null;default:0" json:"pending_count"`
	Payload       string    `gorm:"type:jsonb;not null" json:"payload"` // JSON-encoded ArenaState
	TakenAt       time.Time `gorm:"not null" json:"taken_at"`

	Timestamps
}

func (ArenaSnapshot) TableName() string {
	return "arena_snapshots"
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
