package domain

import "time"

// SyncControl carries the durable watermark of each entity type across
// jobs: the last fully synchronized date and cursor. Incremental imports
// start from here instead of re-scanning from the epoch.
type SyncControl struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	EntityType EntityType `json:"entity_type" gorm:"not null;uniqueIndex"`

	LastSyncDate     time.Time `json:"last_sync_date"`
	LastID           int64     `json:"last_id"`
	RecordsProcessed int64     `json:"records_processed"`

	UpdatedAt time.Time `json:"updated_at"`
}
