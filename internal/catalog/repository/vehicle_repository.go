package repository

import (
	"fmt"
	"log"
	"time"

	"desguace-backend/internal/catalog/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lookupChunkSize keeps IN-list lookups under the driver's parameter
// limit.
const lookupChunkSize = 1000

// writeChunkSize bounds one bulk INSERT statement.
const writeChunkSize = 500

// vehicleUpdateColumns are the columns refreshed when an existing row is
// re-sighted; id and created_at survive the conflict.
var vehicleUpdateColumns = []string{
	"make", "model", "version", "year", "fuel", "doors",
	"description", "images", "active", "last_synced", "updated_at",
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) UpsertBatch(vehicles []*domain.Vehicle) (*UpsertResult, error) {
	result := &UpsertResult{}
	if len(vehicles) == 0 {
		return result, nil
	}

	companyID := vehicles[0].CompanyID
	externalIDs := make([]int64, 0, len(vehicles))
	for _, v := range vehicles {
		externalIDs = append(externalIDs, v.ExternalID)
	}

	existing, err := r.existingIDs(companyID, externalIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inserts := make([]*domain.Vehicle, 0, len(vehicles))
	updates := make([]*domain.Vehicle, 0)
	for _, v := range vehicles {
		v.UpdatedAt = now
		if id, ok := existing[v.ExternalID]; ok {
			v.ID = id
			updates = append(updates, v)
		} else {
			v.ID = uuid.New().String()
			v.CreatedAt = now
			inserts = append(inserts, v)
		}
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(vehicleUpdateColumns),
	}

	for start := 0; start < len(inserts); start += writeChunkSize {
		chunk := inserts[start:min(start+writeChunkSize, len(inserts))]
		if err := r.db.Clauses(onConflict).Create(chunk).Error; err != nil {
			msg := fmt.Sprintf("vehicle insert chunk at %d: %v", start, err)
			log.Printf("[VehicleRepo] [ERROR] %s", msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.Inserted += len(chunk)
	}

	for start := 0; start < len(updates); start += writeChunkSize {
		chunk := updates[start:min(start+writeChunkSize, len(updates))]
		if err := r.db.Clauses(onConflict).Create(chunk).Error; err != nil {
			msg := fmt.Sprintf("vehicle update chunk at %d: %v", start, err)
			log.Printf("[VehicleRepo] [ERROR] %s", msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.Updated += len(chunk)
	}

	return result, nil
}

// existingIDs maps external id -> row id for the batch, looked up in
// chunks.
func (r *vehicleRepository) existingIDs(companyID int64, externalIDs []int64) (map[int64]string, error) {
	existing := make(map[int64]string, len(externalIDs))
	for start := 0; start < len(externalIDs); start += lookupChunkSize {
		chunk := externalIDs[start:min(start+lookupChunkSize, len(externalIDs))]
		var rows []struct {
			ID         string
			ExternalID int64
		}
		err := r.db.Model(&domain.Vehicle{}).
			Select("id", "external_id").
			Where("company_id = ? AND external_id IN ?", companyID, chunk).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			existing[row.ExternalID] = row.ID
		}
	}
	return existing, nil
}

func (r *vehicleRepository) FindByID(id string) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	err := r.db.Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) FindByExternalIDs(companyID int64, externalIDs []int64) ([]*domain.Vehicle, error) {
	var vehicles []*domain.Vehicle
	for start := 0; start < len(externalIDs); start += lookupChunkSize {
		chunk := externalIDs[start:min(start+lookupChunkSize, len(externalIDs))]
		var rows []*domain.Vehicle
		err := r.db.Where("company_id = ? AND external_id IN ?", companyID, chunk).Find(&rows).Error
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, rows...)
	}
	return vehicles, nil
}

func (r *vehicleRepository) FindAllActive(companyID int64) ([]*domain.Vehicle, error) {
	var vehicles []*domain.Vehicle
	err := r.db.Where("company_id = ? AND active = ?", companyID, true).Find(&vehicles).Error
	return vehicles, err
}

func (r *vehicleRepository) List(filter VehicleListFilter, limit, offset int) ([]*domain.Vehicle, int64, error) {
	var vehicles []*domain.Vehicle
	var total int64

	query := r.db.Model(&domain.Vehicle{})
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.Make != "" {
		query = query.Where("LOWER(make) = LOWER(?)", filter.Make)
	}
	if filter.Model != "" {
		query = query.Where("LOWER(model) = LOWER(?)", filter.Model)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("make, model, year DESC").Limit(limit).Offset(offset).Find(&vehicles).Error
	return vehicles, total, err
}

func (r *vehicleRepository) DeactivateStale(companyID int64, before time.Time) (int64, error) {
	return deactivateStale(r.db, &domain.Vehicle{}, companyID, before)
}

// deactivateStale flips active on rows the feed has not touched since the
// cutoff, shared by the vehicle and part sweeps. UpsertBatch stamps
// last_synced on every sighting, so a run paused and resumed later keeps
// its earlier sightings out of the sweep.
func deactivateStale(db *gorm.DB, model interface{}, companyID int64, before time.Time) (int64, error) {
	res := db.Model(model).
		Where("company_id = ? AND active = ? AND last_synced < ?", companyID, true, before).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
