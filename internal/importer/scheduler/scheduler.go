package scheduler

import (
	"log"
	"time"

	"desguace-backend/internal/importer/domain"
	"desguace-backend/internal/importer/repository"
	"desguace-backend/internal/importer/usecase"
)

const tickInterval = 1 * time.Minute

// Scheduler fires recurring imports and watches for jobs that stopped
// reporting progress. One instance runs for the whole process.
type Scheduler struct {
	scheduleRepo repository.ScheduleRepository
	jobRepo      repository.JobRepository
	importer     usecase.ImportUsecase

	watchdogInterval time.Duration
	stuckTimeout     time.Duration

	stopChan chan struct{}
}

func NewScheduler(
	scheduleRepo repository.ScheduleRepository,
	jobRepo repository.JobRepository,
	importer usecase.ImportUsecase,
	watchdogInterval, stuckTimeout time.Duration,
) *Scheduler {
	return &Scheduler{
		scheduleRepo:     scheduleRepo,
		jobRepo:          jobRepo,
		importer:         importer,
		watchdogInterval: watchdogInterval,
		stuckTimeout:     stuckTimeout,
		stopChan:         make(chan struct{}),
	}
}

// Start launches the schedule loop and the watchdog. Both run one pass
// immediately so a restart does not wait a full interval.
func (s *Scheduler) Start() {
	log.Println("[Scheduler] Started")

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		s.runDue()
		for {
			select {
			case <-ticker.C:
				s.runDue()
			case <-s.stopChan:
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(s.watchdogInterval)
		defer ticker.Stop()

		s.finalizeStuck()
		for {
			select {
			case <-ticker.C:
				s.finalizeStuck()
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("[Scheduler] Stopped")
}

// runDue fires every schedule whose next run has arrived. The mutual
// exclusion check lives in the importer; a schedule that collides with
// a running job just skips this tick and keeps its next run time.
func (s *Scheduler) runDue() {
	now := time.Now()
	due, err := s.scheduleRepo.FindDue(now)
	if err != nil {
		log.Printf("[Scheduler] [ERROR] loading due schedules: %v", err)
		return
	}

	for _, schedule := range due {
		mode := domain.ModeIncremental
		if schedule.FullImport {
			mode = domain.ModeFull
		}

		_, err := s.importer.StartImport(schedule.EntityType, mode)
		if err != nil {
			log.Printf("[Scheduler] [WARN] schedule %s skipped: %v", schedule.ID, err)
			continue
		}

		t := now
		schedule.LastRun = &t
		next := domain.ComputeNextRun(now, schedule.Frequency, schedule.StartTime)
		schedule.NextRun = &next
		if err := s.scheduleRepo.Update(schedule); err != nil {
			log.Printf("[Scheduler] [ERROR] updating schedule %s: %v", schedule.ID, err)
			continue
		}
		log.Printf("[Scheduler] Fired %s import of %s, next run %s",
			mode, schedule.EntityType, next.Format(time.RFC3339))
	}
}

// finalizeStuck force-completes in_progress jobs whose last update is
// older than the stuck timeout. Their goroutine is gone or wedged;
// without this they would block new imports of the same type forever.
func (s *Scheduler) finalizeStuck() {
	deadline := time.Now().Add(-s.stuckTimeout)
	stuck, err := s.jobRepo.FindStuck(deadline)
	if err != nil {
		log.Printf("[Scheduler] [ERROR] watchdog query: %v", err)
		return
	}

	for _, job := range stuck {
		job.Notes = "auto-finalized: no progress for " + s.stuckTimeout.String()
		if err := job.ApplyTransition(domain.StatusCompleted, time.Now()); err != nil {
			log.Printf("[Scheduler] [ERROR] finalizing job %s: %v", job.ID, err)
			continue
		}
		if err := s.jobRepo.Update(job); err != nil {
			log.Printf("[Scheduler] [ERROR] finalizing job %s: %v", job.ID, err)
			continue
		}
		log.Printf("[Scheduler] [WARN] Auto-finalized stuck job %s (%s), last update %s",
			job.ID, job.EntityType, job.LastUpdated.Format(time.RFC3339))
	}
}
