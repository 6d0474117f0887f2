package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"desguace-backend/internal/importer/domain"
)

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(job *domain.ImportJob) error {
	return r.db.Create(job).Error
}

func (r *jobRepository) Update(job *domain.ImportJob) error {
	job.LastUpdated = time.Now()
	return r.db.Save(job).Error
}

func (r *jobRepository) FindByID(id string) (*domain.ImportJob, error) {
	var job domain.ImportJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) GetStatus(id string) (domain.Status, error) {
	var status domain.Status
	err := r.db.Model(&domain.ImportJob{}).
		Select("status").
		Where("id = ?", id).
		Scan(&status).Error
	if err != nil {
		return "", err
	}
	return status, nil
}

// jobStartLockKey serializes import-job creation across connections via
// a Postgres advisory lock. Arbitrary but stable.
const jobStartLockKey int64 = 0x6465736a6f6273 // "desjobs"

func (r *jobRepository) CreateExclusive(job *domain.ImportJob, conflicting []domain.EntityType) (*domain.ImportJob, error) {
	var active *domain.ImportJob
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Held until commit; a concurrent starter blocks here and then
		// sees this transaction's row.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", jobStartLockKey).Error; err != nil {
			return err
		}

		var existing domain.ImportJob
		err := tx.
			Where("entity_type IN ? AND status IN ?", conflicting, activeStatuses()).
			Order("start_time DESC").
			First(&existing).Error
		if err == nil {
			active = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(job).Error
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

func (r *jobRepository) FindStuck(startedBefore time.Time) ([]*domain.ImportJob, error) {
	var jobs []*domain.ImportJob
	err := r.db.
		Where("status = ? AND last_updated < ?", domain.StatusInProgress, startedBefore).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) FindInProgress() ([]*domain.ImportJob, error) {
	var jobs []*domain.ImportJob
	err := r.db.
		Where("status IN ?", []domain.Status{domain.StatusPending, domain.StatusInProgress}).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) FindRecent(limit int) ([]*domain.ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobs []*domain.ImportJob
	err := r.db.
		Order("start_time DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func activeStatuses() []domain.Status {
	return []domain.Status{
		domain.StatusPending,
		domain.StatusInProgress,
		domain.StatusPaused,
	}
}
