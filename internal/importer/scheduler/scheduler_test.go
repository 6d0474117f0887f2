package scheduler

import (
	"errors"
	"strings"
	"testing"
	"time"

	"desguace-backend/internal/importer/domain"
	"desguace-backend/internal/importer/usecase"
)

type fakeJobRepo struct {
	jobs    map[string]*domain.ImportJob
	updated []*domain.ImportJob
}

func newFakeJobRepo(jobs ...*domain.ImportJob) *fakeJobRepo {
	repo := &fakeJobRepo{jobs: make(map[string]*domain.ImportJob)}
	for _, job := range jobs {
		repo.jobs[job.ID] = job
	}
	return repo
}

func (f *fakeJobRepo) Create(job *domain.ImportJob) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Update(job *domain.ImportJob) error {
	f.jobs[job.ID] = job
	f.updated = append(f.updated, job)
	return nil
}

func (f *fakeJobRepo) FindByID(id string) (*domain.ImportJob, error) {
	return f.jobs[id], nil
}

func (f *fakeJobRepo) GetStatus(id string) (domain.Status, error) {
	if job, ok := f.jobs[id]; ok {
		return job.Status, nil
	}
	return "", errors.New("not found")
}

func (f *fakeJobRepo) CreateExclusive(job *domain.ImportJob, conflicting []domain.EntityType) (*domain.ImportJob, error) {
	for _, existing := range f.jobs {
		if existing.Terminal() {
			continue
		}
		for _, t := range conflicting {
			if existing.EntityType == t {
				return existing, nil
			}
		}
	}
	f.jobs[job.ID] = job
	return nil, nil
}

func (f *fakeJobRepo) FindStuck(startedBefore time.Time) ([]*domain.ImportJob, error) {
	var stuck []*domain.ImportJob
	for _, job := range f.jobs {
		if job.Status == domain.StatusInProgress && job.LastUpdated.Before(startedBefore) {
			stuck = append(stuck, job)
		}
	}
	return stuck, nil
}

func (f *fakeJobRepo) FindInProgress() ([]*domain.ImportJob, error) { return nil, nil }

func (f *fakeJobRepo) FindRecent(limit int) ([]*domain.ImportJob, error) { return nil, nil }

type fakeScheduleRepo struct {
	schedules []*domain.ImportSchedule
	updated   []*domain.ImportSchedule
}

func (f *fakeScheduleRepo) Create(s *domain.ImportSchedule) error { return nil }
func (f *fakeScheduleRepo) Update(s *domain.ImportSchedule) error {
	f.updated = append(f.updated, s)
	return nil
}
func (f *fakeScheduleRepo) Delete(string) error { return nil }
func (f *fakeScheduleRepo) FindByID(string) (*domain.ImportSchedule, error) {
	return nil, nil
}
func (f *fakeScheduleRepo) FindAll() ([]*domain.ImportSchedule, error) { return f.schedules, nil }
func (f *fakeScheduleRepo) FindDue(now time.Time) ([]*domain.ImportSchedule, error) {
	var due []*domain.ImportSchedule
	for _, s := range f.schedules {
		if s.Due(now) {
			due = append(due, s)
		}
	}
	return due, nil
}

type fakeImporter struct {
	started []struct {
		entityType domain.EntityType
		mode       domain.Mode
	}
	err error
}

func (f *fakeImporter) StartImport(entityType domain.EntityType, mode domain.Mode) (*domain.ImportJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, struct {
		entityType domain.EntityType
		mode       domain.Mode
	}{entityType, mode})
	return &domain.ImportJob{ID: "job", EntityType: entityType, Mode: mode}, nil
}

func (f *fakeImporter) PauseImport(string) error { return nil }
func (f *fakeImporter) ResumeImport(string) (*domain.ImportJob, error) {
	return nil, nil
}
func (f *fakeImporter) CancelImport(string) error                   { return nil }
func (f *fakeImporter) GetJob(string) (*domain.ImportJob, error)    { return nil, nil }
func (f *fakeImporter) RecentJobs(int) ([]*domain.ImportJob, error) { return nil, nil }
func (f *fakeImporter) ResolvePendingRelations() (int, error)       { return 0, nil }
func (f *fakeImporter) RecoverOrphans() error                       { return nil }

var _ usecase.ImportUsecase = (*fakeImporter)(nil)

func TestFinalizeStuckCompletesStaleJob(t *testing.T) {
	stale := &domain.ImportJob{
		ID:          "stale",
		EntityType:  domain.EntityVehicles,
		Status:      domain.StatusInProgress,
		LastUpdated: time.Now().Add(-90 * time.Minute),
	}
	fresh := &domain.ImportJob{
		ID:          "fresh",
		EntityType:  domain.EntityParts,
		Status:      domain.StatusInProgress,
		LastUpdated: time.Now().Add(-5 * time.Minute),
	}
	jobRepo := newFakeJobRepo(stale, fresh)

	s := NewScheduler(&fakeScheduleRepo{}, jobRepo, &fakeImporter{}, 10*time.Minute, time.Hour)
	s.finalizeStuck()

	if stale.Status != domain.StatusCompleted {
		t.Errorf("stale job status = %s, want completed", stale.Status)
	}
	if !strings.Contains(stale.Notes, "auto-finalized") {
		t.Errorf("stale job notes = %q, want auto-finalized marker", stale.Notes)
	}
	if stale.EndTime == nil {
		t.Error("stale job should have an end time")
	}
	if fresh.Status != domain.StatusInProgress {
		t.Errorf("fresh job status = %s, must stay in_progress", fresh.Status)
	}
}

func TestRunDueFiresSchedule(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	schedule := &domain.ImportSchedule{
		ID:         "s1",
		EntityType: domain.EntityAll,
		Frequency:  "12h",
		StartTime:  "02:00",
		FullImport: true,
		Active:     true,
		NextRun:    &past,
	}
	scheduleRepo := &fakeScheduleRepo{schedules: []*domain.ImportSchedule{schedule}}
	importer := &fakeImporter{}

	s := NewScheduler(scheduleRepo, newFakeJobRepo(), importer, 10*time.Minute, time.Hour)
	s.runDue()

	if len(importer.started) != 1 {
		t.Fatalf("started = %d imports, want 1", len(importer.started))
	}
	if importer.started[0].entityType != domain.EntityAll || importer.started[0].mode != domain.ModeFull {
		t.Errorf("started %+v, want full import of all", importer.started[0])
	}
	if schedule.LastRun == nil || schedule.NextRun == nil || !schedule.NextRun.After(time.Now()) {
		t.Errorf("schedule runs not advanced: last=%v next=%v", schedule.LastRun, schedule.NextRun)
	}
	if len(scheduleRepo.updated) != 1 {
		t.Errorf("schedule not persisted after firing")
	}
}

func TestRunDueSkipsWhenImportActive(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	schedule := &domain.ImportSchedule{
		ID:         "s1",
		EntityType: domain.EntityVehicles,
		Frequency:  "6h",
		Active:     true,
		NextRun:    &past,
	}
	scheduleRepo := &fakeScheduleRepo{schedules: []*domain.ImportSchedule{schedule}}
	importer := &fakeImporter{err: usecase.ErrImportActive}

	s := NewScheduler(scheduleRepo, newFakeJobRepo(), importer, 10*time.Minute, time.Hour)
	s.runDue()

	if len(importer.started) != 0 {
		t.Errorf("no import should start while one is active")
	}
	// The next run time is untouched, so the schedule retries next tick.
	if len(scheduleRepo.updated) != 0 {
		t.Errorf("colliding schedule must not be rewritten")
	}
}
