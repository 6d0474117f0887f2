package usecase

import (
	"fmt"
	"log"
	"time"

	"desguace-backend/internal/catalog/repository"
)

// Reconciler deactivates entities that a completed full import did not
// see. It must never run for incremental imports: an incremental pass
// only observes changed records, so absence means nothing there.
type Reconciler struct {
	vehicleRepo repository.VehicleRepository
	partRepo    repository.PartRepository
}

func NewReconciler(vehicleRepo repository.VehicleRepository, partRepo repository.PartRepository) *Reconciler {
	return &Reconciler{
		vehicleRepo: vehicleRepo,
		partRepo:    partRepo,
	}
}

// Sweep flips active=false on every entity of the type whose last_synced
// predates the cutoff. Every upsert stamps last_synced, so passing the
// run's start time deactivates exactly what the full pass did not see,
// including sightings made before a pause or process restart.
func (r *Reconciler) Sweep(companyID int64, entityType string, before time.Time) (int64, error) {
	var deactivated int64
	var err error

	switch entityType {
	case "vehicles":
		deactivated, err = r.vehicleRepo.DeactivateStale(companyID, before)
	case "parts":
		deactivated, err = r.partRepo.DeactivateStale(companyID, before)
	default:
		return 0, fmt.Errorf("reconciler: unknown entity type %q", entityType)
	}
	if err != nil {
		return 0, err
	}

	log.Printf("[Reconciler] %s sweep: %d deactivated (cutoff %s)", entityType, deactivated, before.Format(time.RFC3339))
	return deactivated, nil
}
