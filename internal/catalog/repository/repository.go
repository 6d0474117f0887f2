package repository

import (
	"time"

	"desguace-backend/internal/catalog/domain"
)

// UpsertResult reports what a bulk upsert did. Errors holds per-chunk
// failure messages; a failed chunk never aborts the remaining chunks.
type UpsertResult struct {
	Inserted int
	Updated  int
	Errors   []string
}

// VehicleListFilter narrows the catalog read path.
type VehicleListFilter struct {
	Make       string
	Model      string
	Year       int
	ActiveOnly bool
}

// PartListFilter narrows the part listing.
type PartListFilter struct {
	FamilyCode string
	VehicleID  string
	ActiveOnly bool
}

// VehicleRepository is the vehicle store.
type VehicleRepository interface {
	// UpsertBatch inserts or updates vehicles keyed by
	// (company_id, external_id). Idempotent: re-applying the same batch
	// is a no-op.
	UpsertBatch(vehicles []*domain.Vehicle) (*UpsertResult, error)

	FindByID(id string) (*domain.Vehicle, error)
	FindByExternalIDs(companyID int64, externalIDs []int64) ([]*domain.Vehicle, error)
	FindAllActive(companyID int64) ([]*domain.Vehicle, error)
	List(filter VehicleListFilter, limit, offset int) ([]*domain.Vehicle, int64, error)

	// DeactivateStale flips active=false on every active vehicle of the
	// company not touched by the feed since before. UpsertBatch stamps
	// last_synced on every sighting, so the cutoff survives pauses and
	// process restarts. Used only by the full-import reconciliation sweep.
	DeactivateStale(companyID int64, before time.Time) (int64, error)
}

// PartRepository is the part store.
type PartRepository interface {
	UpsertBatch(parts []*domain.Part) (*UpsertResult, error)

	FindByID(id string) (*domain.Part, error)
	FindByExternalIDs(companyID int64, externalIDs []int64) ([]*domain.Part, error)
	List(filter PartListFilter, limit, offset int) ([]*domain.Part, int64, error)

	// UpdateActivation flips the active/pending flags of one part.
	UpdateActivation(partID string, active, pendingRelation bool) error

	DeactivateStale(companyID int64, before time.Time) (int64, error)
}

// RelationRepository is the vehicle-part relation store.
type RelationRepository interface {
	// UpsertResolved records a resolved relation, deduplicating on the
	// (vehicle_id, part_id) unique key. Returns true when a new row was
	// created.
	UpsertResolved(vehicleID, partID string, externalRef int64) (bool, error)

	// CreatePending records a relation whose vehicle is not imported
	// yet. Deduplicates on (part_id, external_ref) among pending rows.
	CreatePending(partID string, externalRef int64) (bool, error)

	FindPending() ([]*domain.VehiclePartRelation, error)
	FindResolvedByPart(partID string) ([]*domain.VehiclePartRelation, error)

	// Promote converts a pending relation into a resolved one. If an
	// equal resolved row already exists the pending row is dropped
	// instead, so resolution never duplicates.
	Promote(relation *domain.VehiclePartRelation, vehicleID string) error
}
