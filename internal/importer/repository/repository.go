package repository

import (
	"time"

	"desguace-backend/internal/importer/domain"
)

// JobRepository persists import jobs. The store is the source of truth
// for mutual exclusion and for cooperative pause/cancel: the running
// loop re-reads its own status from here between batches.
type JobRepository interface {
	Create(job *domain.ImportJob) error
	Update(job *domain.ImportJob) error
	FindByID(id string) (*domain.ImportJob, error)

	// GetStatus reads only the current status, cheap enough to call
	// between every batch.
	GetStatus(id string) (domain.Status, error)

	// CreateExclusive inserts the job only if no non-terminal job exists
	// for any of the conflicting entity types. The check and insert run
	// under one serialization point, so two concurrent starters cannot
	// both slip past the gate. Returns the blocking job when the insert
	// was refused, nil when the job was created.
	CreateExclusive(job *domain.ImportJob, conflicting []domain.EntityType) (*domain.ImportJob, error)

	// FindStuck returns in_progress jobs whose last update predates the
	// deadline; the watchdog force-finalizes them.
	FindStuck(startedBefore time.Time) ([]*domain.ImportJob, error)

	// FindInProgress returns every non-terminal job, used at startup to
	// recover orphans from a crashed process.
	FindInProgress() ([]*domain.ImportJob, error)

	FindRecent(limit int) ([]*domain.ImportJob, error)
}

// ScheduleRepository persists recurring import schedules.
type ScheduleRepository interface {
	Create(schedule *domain.ImportSchedule) error
	Update(schedule *domain.ImportSchedule) error
	Delete(id string) error
	FindByID(id string) (*domain.ImportSchedule, error)
	FindAll() ([]*domain.ImportSchedule, error)
	FindDue(now time.Time) ([]*domain.ImportSchedule, error)
}

// SyncControlRepository persists the per-entity-type sync watermark.
type SyncControlRepository interface {
	GetOrCreate(entityType domain.EntityType) (*domain.SyncControl, error)
	Update(control *domain.SyncControl) error
	Reset(entityType domain.EntityType) error
}
