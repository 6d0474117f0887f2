package domain

import (
	"fmt"
	"time"
)

// EntityType selects what an import job synchronizes.
type EntityType string

const (
	EntityVehicles EntityType = "vehicles"
	EntityParts    EntityType = "parts"
	// EntityAll runs vehicles, then parts, then pending-relation
	// resolution, strictly in that order.
	EntityAll EntityType = "all"
)

// Mode distinguishes a full catalog re-scan from a changes-since scan.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// Status is the job state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPartial    Status = "partial"
	StatusFailed     Status = "failed"
	StatusPaused     Status = "paused"
	StatusCancelled  Status = "cancelled"
)

const (
	// MaxStoredErrors caps the per-job error list; older entries are
	// dropped first.
	MaxStoredErrors = 100

	// MaxConsecutiveBatchErrors aborts a job that cannot make progress.
	MaxConsecutiveBatchErrors = 20

	// PartialErrorRatio downgrades completed to partial when exceeded.
	PartialErrorRatio = 0.10
)

// allowTransition is the directed graph of legal status changes.
// completed, partial, failed and cancelled are terminal.
var allowTransition = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusPartial, StatusFailed, StatusPaused, StatusCancelled},
	StatusPaused:     {StatusInProgress, StatusCancelled},
	StatusCompleted:  {},
	StatusPartial:    {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

// ImportJob is one synchronization run, persisted so that it can be
// resumed after a pause or a process restart.
type ImportJob struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	EntityType EntityType `json:"entity_type" gorm:"not null;index"`
	Mode       Mode       `json:"mode" gorm:"not null"`
	Status     Status     `json:"status" gorm:"not null;index"`

	// Cursor is the pagination watermark (lastId); non-decreasing
	// within a phase.
	Cursor       int64     `json:"cursor"`
	LastSyncDate time.Time `json:"last_sync_date"`

	// Phase marks which entity a combined job is currently importing, so
	// a resume continues where the pause happened instead of re-scanning
	// finished phases. Empty until the first phase starts.
	Phase EntityType `json:"phase,omitempty"`

	TotalItems       int `json:"total_items"`
	ProcessedItems   int `json:"processed_items"`
	NewItems         int `json:"new_items"`
	UpdatedItems     int `json:"updated_items"`
	DeactivatedItems int `json:"deactivated_items"`

	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors" gorm:"serializer:json"`

	ProcessingItem string `json:"processing_item"`
	Resumable      bool   `json:"resumable" gorm:"default:true"`
	Notes          string `json:"notes"`

	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Terminal reports whether the job reached a final state.
func (j *ImportJob) Terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusPartial, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, allowed := range allowTransition[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves the job to a new status and maintains the end
// timestamp on terminal states. Rejects illegal transitions.
func (j *ImportJob) ApplyTransition(to Status, now time.Time) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("invalid import job transition: %s -> %s", j.Status, to)
	}
	j.Status = to
	j.LastUpdated = now
	if j.Terminal() && j.EndTime == nil {
		t := now
		j.EndTime = &t
	}
	if to == StatusCancelled || to == StatusFailed {
		j.Resumable = false
	}
	return nil
}

// RecordError appends to the capped error list, keeping the most recent
// entries.
func (j *ImportJob) RecordError(msg string) {
	j.ErrorCount++
	j.Errors = append(j.Errors, msg)
	if len(j.Errors) > MaxStoredErrors {
		j.Errors = j.Errors[len(j.Errors)-MaxStoredErrors:]
	}
}

// AdvanceCursor enforces cursor monotonicity within a run.
func (j *ImportJob) AdvanceCursor(next int64) {
	if next > j.Cursor {
		j.Cursor = next
	}
}

// FinalStatus decides between completed and partial when the run ends
// without a fatal error.
func (j *ImportJob) FinalStatus() Status {
	if j.ProcessedItems > 0 && float64(j.ErrorCount) > PartialErrorRatio*float64(j.ProcessedItems) {
		return StatusPartial
	}
	return StatusCompleted
}

// ProgressPercent estimates completion for operator display.
func (j *ImportJob) ProgressPercent() int {
	if j.Terminal() {
		return 100
	}
	if j.TotalItems > 0 {
		p := j.ProcessedItems * 100 / j.TotalItems
		if p > 99 {
			p = 99
		}
		return p
	}
	if j.ProcessedItems > 0 {
		// No total from the feed; show a moving estimate under 95.
		p := j.ProcessedItems * 100 / (j.ProcessedItems + 100)
		if p > 95 {
			p = 95
		}
		return p
	}
	return 0
}
