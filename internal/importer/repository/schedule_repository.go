package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"desguace-backend/internal/importer/domain"
)

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(schedule *domain.ImportSchedule) error {
	return r.db.Create(schedule).Error
}

func (r *scheduleRepository) Update(schedule *domain.ImportSchedule) error {
	return r.db.Save(schedule).Error
}

func (r *scheduleRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.ImportSchedule{}).Error
}

func (r *scheduleRepository) FindByID(id string) (*domain.ImportSchedule, error) {
	var schedule domain.ImportSchedule
	if err := r.db.Where("id = ?", id).First(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindAll() ([]*domain.ImportSchedule, error) {
	var schedules []*domain.ImportSchedule
	if err := r.db.Order("created_at ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) FindDue(now time.Time) ([]*domain.ImportSchedule, error) {
	var schedules []*domain.ImportSchedule
	err := r.db.
		Where("active = ? AND (next_run IS NULL OR next_run <= ?)", true, now).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}
