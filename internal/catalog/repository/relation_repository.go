package repository

import (
	"time"

	"desguace-backend/internal/catalog/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) UpsertResolved(vehicleID, partID string, externalRef int64) (bool, error) {
	var existing domain.VehiclePartRelation
	err := r.db.Where("vehicle_id = ? AND part_id = ?", vehicleID, partID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}

	now := time.Now()
	relation := domain.VehiclePartRelation{
		ID:                 uuid.New().String(),
		VehicleID:          &vehicleID,
		PartID:             partID,
		ExternalVehicleRef: externalRef,
		CreatedAt:          now,
		ResolvedAt:         &now,
	}
	if err := r.db.Create(&relation).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *relationRepository) CreatePending(partID string, externalRef int64) (bool, error) {
	var existing domain.VehiclePartRelation
	err := r.db.Where("part_id = ? AND external_vehicle_ref = ? AND vehicle_id IS NULL", partID, externalRef).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}

	relation := domain.VehiclePartRelation{
		ID:                 uuid.New().String(),
		PartID:             partID,
		ExternalVehicleRef: externalRef,
		CreatedAt:          time.Now(),
	}
	if err := r.db.Create(&relation).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *relationRepository) FindPending() ([]*domain.VehiclePartRelation, error) {
	var relations []*domain.VehiclePartRelation
	err := r.db.Where("vehicle_id IS NULL").Find(&relations).Error
	return relations, err
}

func (r *relationRepository) FindResolvedByPart(partID string) ([]*domain.VehiclePartRelation, error) {
	var relations []*domain.VehiclePartRelation
	err := r.db.Where("part_id = ? AND vehicle_id IS NOT NULL", partID).Find(&relations).Error
	return relations, err
}

func (r *relationRepository) Promote(relation *domain.VehiclePartRelation, vehicleID string) error {
	// A resolved row for the same pair may already exist (the part was
	// re-imported after the vehicle arrived). Drop the pending row
	// instead of creating a duplicate.
	var existing domain.VehiclePartRelation
	err := r.db.Where("vehicle_id = ? AND part_id = ?", vehicleID, relation.PartID).First(&existing).Error
	if err == nil {
		return r.db.Delete(&domain.VehiclePartRelation{}, "id = ?", relation.ID).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	now := time.Now()
	return r.db.Model(&domain.VehiclePartRelation{}).
		Where("id = ? AND vehicle_id IS NULL", relation.ID).
		Updates(map[string]interface{}{
			"vehicle_id":  vehicleID,
			"resolved_at": now,
		}).Error
}
