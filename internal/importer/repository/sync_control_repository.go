package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"desguace-backend/internal/importer/domain"
)

type syncControlRepository struct {
	db *gorm.DB
}

func NewSyncControlRepository(db *gorm.DB) SyncControlRepository {
	return &syncControlRepository{db: db}
}

func (r *syncControlRepository) GetOrCreate(entityType domain.EntityType) (*domain.SyncControl, error) {
	var control domain.SyncControl
	err := r.db.Where("entity_type = ?", entityType).First(&control).Error
	if err == nil {
		return &control, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	control = domain.SyncControl{
		ID:         uuid.New().String(),
		EntityType: entityType,
		UpdatedAt:  time.Now(),
	}
	if err := r.db.Create(&control).Error; err != nil {
		return nil, err
	}
	return &control, nil
}

func (r *syncControlRepository) Update(control *domain.SyncControl) error {
	control.UpdatedAt = time.Now()
	return r.db.Save(control).Error
}

func (r *syncControlRepository) Reset(entityType domain.EntityType) error {
	return r.db.Model(&domain.SyncControl{}).
		Where("entity_type = ?", entityType).
		Updates(map[string]interface{}{
			"last_sync_date":    time.Time{},
			"last_id":           0,
			"records_processed": 0,
			"updated_at":        time.Now(),
		}).Error
}
