package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	catalogdomain "desguace-backend/internal/catalog/domain"
	catalogrepo "desguace-backend/internal/catalog/repository"
	catalog "desguace-backend/internal/catalog/usecase"
	"desguace-backend/internal/importer/domain"
	"desguace-backend/internal/importer/repository"
	"desguace-backend/pkg/metasync"
)

var (
	ErrImportActive = errors.New("an import for this entity type is already active")
	ErrJobNotFound  = errors.New("import job not found")
	ErrNotResumable = errors.New("import job cannot be resumed")
)

// errInterrupted signals that an operator paused or cancelled the job
// while a phase was running. The status row is already updated by the
// pause/cancel handler; the loop just has to stop touching it.
var errInterrupted = errors.New("import interrupted")

// importEpoch is the "since" date of a full import: early enough that
// the feed returns its entire catalog.
var importEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

type ImportUsecase interface {
	StartImport(entityType domain.EntityType, mode domain.Mode) (*domain.ImportJob, error)
	PauseImport(id string) error
	ResumeImport(id string) (*domain.ImportJob, error)
	CancelImport(id string) error
	GetJob(id string) (*domain.ImportJob, error)
	RecentJobs(limit int) ([]*domain.ImportJob, error)

	// ResolvePendingRelations retries every part still waiting for its
	// donor vehicle. Also runs at the tail of each import.
	ResolvePendingRelations() (int, error)

	// RecoverOrphans handles jobs left non-terminal by a previous
	// process: in_progress jobs are paused so they can be resumed,
	// pending ones are cancelled. Called once at startup.
	RecoverOrphans() error
}

type importUsecase struct {
	jobRepo     repository.JobRepository
	syncRepo    repository.SyncControlRepository
	client      *metasync.Client
	normalizer  *catalog.Normalizer
	vehicleRepo catalogrepo.VehicleRepository
	partRepo    catalogrepo.PartRepository
	resolver    *catalog.Resolver
	reconciler  *catalog.Reconciler

	companyID       int64
	batchSize       int
	interBatchDelay time.Duration
}

func NewImportUsecase(
	jobRepo repository.JobRepository,
	syncRepo repository.SyncControlRepository,
	client *metasync.Client,
	normalizer *catalog.Normalizer,
	vehicleRepo catalogrepo.VehicleRepository,
	partRepo catalogrepo.PartRepository,
	resolver *catalog.Resolver,
	reconciler *catalog.Reconciler,
	companyID int64,
	batchSize int,
	interBatchDelay time.Duration,
) ImportUsecase {
	if batchSize <= 0 || batchSize > metasync.MaxPageSize {
		batchSize = metasync.MaxPageSize
	}
	return &importUsecase{
		jobRepo:         jobRepo,
		syncRepo:        syncRepo,
		client:          client,
		normalizer:      normalizer,
		vehicleRepo:     vehicleRepo,
		partRepo:        partRepo,
		resolver:        resolver,
		reconciler:      reconciler,
		companyID:       companyID,
		batchSize:       batchSize,
		interBatchDelay: interBatchDelay,
	}
}

// StartImport creates and launches a job. At most one non-terminal job
// may exist per entity type; a combined job conflicts with every type.
// The check and insert are one atomic operation in the repository, so a
// scheduler tick and an HTTP request racing each other cannot both win.
// Conflicting requests are rejected, not queued.
func (u *importUsecase) StartImport(entityType domain.EntityType, mode domain.Mode) (*domain.ImportJob, error) {
	now := time.Now()
	job := &domain.ImportJob{
		ID:          uuid.New().String(),
		EntityType:  entityType,
		Mode:        mode,
		Status:      domain.StatusPending,
		Resumable:   true,
		StartTime:   now,
		LastUpdated: now,
	}
	active, err := u.jobRepo.CreateExclusive(job, conflictingTypes(entityType))
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: job %s is %s", ErrImportActive, active.ID, active.Status)
	}

	log.Printf("[Importer] Starting %s import of %s (job %s)", mode, entityType, job.ID)
	go u.run(job)
	return job, nil
}

// conflictingTypes lists the entity types whose active jobs block a new
// one: the type itself plus "all", which overlaps every type.
func conflictingTypes(entityType domain.EntityType) []domain.EntityType {
	if entityType == domain.EntityAll {
		return []domain.EntityType{domain.EntityAll, domain.EntityVehicles, domain.EntityParts}
	}
	return []domain.EntityType{entityType, domain.EntityAll}
}

func (u *importUsecase) PauseImport(id string) error {
	job, err := u.jobRepo.FindByID(id)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrJobNotFound
	}
	if err := job.ApplyTransition(domain.StatusPaused, time.Now()); err != nil {
		return err
	}
	return u.jobRepo.Update(job)
}

// ResumeImport relaunches a paused job from its persisted cursor. An
// incremental job keeps its original since date; it never restarts the
// scan from zero.
func (u *importUsecase) ResumeImport(id string) (*domain.ImportJob, error) {
	job, err := u.jobRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Status != domain.StatusPaused || !job.Resumable {
		return nil, ErrNotResumable
	}
	if err := job.ApplyTransition(domain.StatusInProgress, time.Now()); err != nil {
		return nil, err
	}
	if err := u.jobRepo.Update(job); err != nil {
		return nil, err
	}
	log.Printf("[Importer] Resuming job %s at cursor %d", job.ID, job.Cursor)
	go u.resume(job)
	return job, nil
}

func (u *importUsecase) CancelImport(id string) error {
	job, err := u.jobRepo.FindByID(id)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrJobNotFound
	}
	if err := job.ApplyTransition(domain.StatusCancelled, time.Now()); err != nil {
		return err
	}
	return u.jobRepo.Update(job)
}

func (u *importUsecase) GetJob(id string) (*domain.ImportJob, error) {
	job, err := u.jobRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (u *importUsecase) RecentJobs(limit int) ([]*domain.ImportJob, error) {
	return u.jobRepo.FindRecent(limit)
}

func (u *importUsecase) ResolvePendingRelations() (int, error) {
	return u.resolver.ResolvePending(u.companyID)
}

// RecoverOrphans handles jobs left non-terminal by a previous process.
// The goroutine that owned them died, so nothing will ever finish them:
// in_progress jobs are paused (their cursor survives, an operator can
// resume), jobs that never started are cancelled.
func (u *importUsecase) RecoverOrphans() error {
	orphans, err := u.jobRepo.FindInProgress()
	if err != nil {
		return err
	}
	for _, job := range orphans {
		to := domain.StatusPaused
		if job.Status == domain.StatusPending {
			to = domain.StatusCancelled
		}
		job.Notes = "interrupted by process restart"
		if err := job.ApplyTransition(to, time.Now()); err != nil {
			continue
		}
		if err := u.jobRepo.Update(job); err != nil {
			return err
		}
		log.Printf("[Importer] [WARN] Orphaned job %s (%s) marked %s after restart", job.ID, job.EntityType, to)
	}
	return nil
}

func (u *importUsecase) run(job *domain.ImportJob) {
	if err := job.ApplyTransition(domain.StatusInProgress, time.Now()); err != nil {
		log.Printf("[Importer] [ERROR] job %s: %v", job.ID, err)
		return
	}
	if err := u.jobRepo.Update(job); err != nil {
		log.Printf("[Importer] [ERROR] job %s: %v", job.ID, err)
		return
	}
	u.resume(job)
}

// resume drives an in_progress job to a terminal state. It is the body
// of both a fresh run and a resumed one.
func (u *importUsecase) resume(job *domain.ImportJob) {
	var err error
	switch job.EntityType {
	case domain.EntityVehicles:
		err = u.runPhase(job, domain.EntityVehicles)
	case domain.EntityParts:
		err = u.runPhase(job, domain.EntityParts)
	case domain.EntityAll:
		err = u.runAll(job)
	default:
		err = fmt.Errorf("unknown entity type %q", job.EntityType)
	}

	if errors.Is(err, errInterrupted) {
		log.Printf("[Importer] Job %s interrupted by operator", job.ID)
		return
	}

	now := time.Now()
	if err != nil {
		job.RecordError(err.Error())
		if terr := job.ApplyTransition(domain.StatusFailed, now); terr != nil {
			log.Printf("[Importer] [ERROR] job %s: %v", job.ID, terr)
			return
		}
	} else {
		if _, perr := u.ResolvePendingRelations(); perr != nil {
			job.RecordError(fmt.Sprintf("pending relation pass: %v", perr))
		}
		if terr := job.ApplyTransition(job.FinalStatus(), now); terr != nil {
			log.Printf("[Importer] [ERROR] job %s: %v", job.ID, terr)
			return
		}
	}
	job.ProcessingItem = ""
	if uerr := u.jobRepo.Update(job); uerr != nil {
		log.Printf("[Importer] [ERROR] job %s: %v", job.ID, uerr)
		return
	}
	log.Printf("[Importer] Job %s finished: %s (%d processed, %d new, %d updated, %d deactivated, %d errors)",
		job.ID, job.Status, job.ProcessedItems, job.NewItems, job.UpdatedItems, job.DeactivatedItems, job.ErrorCount)
}

// runAll imports vehicles first so that the parts phase resolves
// against a catalog that already holds this run's vehicles. The current
// phase is persisted on the job: a resumed job skips finished phases
// and keeps the cursor of the one the pause landed in.
func (u *importUsecase) runAll(job *domain.ImportJob) error {
	if job.Phase == "" || job.Phase == domain.EntityVehicles {
		if job.Phase == "" {
			job.Phase = domain.EntityVehicles
			job.Cursor = 0
		}
		if err := u.runPhase(job, domain.EntityVehicles); err != nil {
			return err
		}
		job.Phase = domain.EntityParts
		job.Cursor = 0
		if err := u.jobRepo.Update(job); err != nil {
			return err
		}
	}
	return u.runPhase(job, domain.EntityParts)
}

func (u *importUsecase) runPhase(job *domain.ImportJob, entity domain.EntityType) error {
	control, err := u.syncRepo.GetOrCreate(entity)
	if err != nil {
		return err
	}

	since := importEpoch
	if job.Mode == domain.ModeIncremental && !control.LastSyncDate.IsZero() {
		since = control.LastSyncDate
	}
	job.LastSyncDate = since

	runStart := time.Now()
	ctx := context.Background()

	processed := 0
	consecutiveEmpty := 0
	consecutiveFailures := 0

	for {
		if err := u.checkInterrupted(job.ID); err != nil {
			return err
		}

		page, err := u.fetch(ctx, entity, since, job.Cursor)
		if err != nil {
			if errors.Is(err, metasync.ErrAuth) {
				return err
			}
			consecutiveFailures++
			job.RecordError(fmt.Sprintf("%s fetch at cursor %d: %v", entity, job.Cursor, err))
			if consecutiveFailures >= domain.MaxConsecutiveBatchErrors {
				return fmt.Errorf("%s import aborted after %d consecutive batch failures", entity, consecutiveFailures)
			}
			if uerr := u.jobRepo.Update(job); uerr != nil {
				return uerr
			}
			time.Sleep(u.interBatchDelay)
			continue
		}
		consecutiveFailures = 0

		var count int
		var maxID int64
		if entity == domain.EntityVehicles {
			count, maxID = u.processVehiclePage(job, page)
		} else {
			count, maxID = u.processPartPage(job, page)
		}
		processed += count

		if page.Total > 0 {
			job.TotalItems = int(page.Total)
		}

		records := len(pageRecords(page, entity))
		if records == 0 {
			consecutiveEmpty++
		} else {
			consecutiveEmpty = 0
		}
		job.AdvanceCursor(resolveNextCursor(job.Cursor, page.LastID, maxID, u.batchSize))

		if err := u.checkInterrupted(job.ID); err != nil {
			return err
		}
		if err := u.jobRepo.Update(job); err != nil {
			return err
		}

		if exhausted(records, u.batchSize, consecutiveEmpty, page.HasMore) {
			break
		}
		time.Sleep(u.interBatchDelay)
	}

	if job.Mode == domain.ModeFull {
		// Cutoff is the job's original start, not this call's: a resumed
		// run must not sweep away what it synced before the pause.
		deactivated, err := u.reconciler.Sweep(u.companyID, string(entity), job.StartTime)
		if err != nil {
			job.RecordError(fmt.Sprintf("%s reconciliation sweep: %v", entity, err))
		} else {
			job.DeactivatedItems += int(deactivated)
		}
	}

	control.LastSyncDate = runStart
	control.LastID = job.Cursor
	control.RecordsProcessed += int64(processed)
	if err := u.syncRepo.Update(control); err != nil {
		return err
	}

	log.Printf("[Importer] %s phase done: %d records this run", entity, processed)
	return nil
}

func (u *importUsecase) fetch(ctx context.Context, entity domain.EntityType, since time.Time, cursor int64) (*metasync.Page, error) {
	if entity == domain.EntityVehicles {
		return u.client.FetchVehicles(ctx, since, cursor, u.batchSize)
	}
	return u.client.FetchParts(ctx, since, cursor, u.batchSize)
}

// processVehiclePage normalizes and upserts one page of vehicles.
// Returns the processed count and the highest external id seen.
func (u *importUsecase) processVehiclePage(job *domain.ImportJob, page *metasync.Page) (int, int64) {
	now := time.Now()
	vehicles := make([]*catalogdomain.Vehicle, 0, len(page.Vehicles))
	var maxID int64
	for _, rec := range page.Vehicles {
		v, err := u.normalizer.NormalizeVehicle(rec, now)
		if err != nil {
			job.RecordError(err.Error())
			continue
		}
		if v.ExternalID > maxID {
			maxID = v.ExternalID
		}
		vehicles = append(vehicles, v)
	}
	if len(vehicles) == 0 {
		return 0, maxID
	}

	job.ProcessingItem = fmt.Sprintf("vehicle %d", vehicles[len(vehicles)-1].ExternalID)
	result, err := u.vehicleRepo.UpsertBatch(vehicles)
	if err != nil {
		job.RecordError(fmt.Sprintf("vehicle batch at cursor %d: %v", job.Cursor, err))
		return 0, maxID
	}
	for _, msg := range result.Errors {
		job.RecordError(msg)
	}
	job.NewItems += result.Inserted
	job.UpdatedItems += result.Updated
	job.ProcessedItems += len(vehicles)
	return len(vehicles), maxID
}

// processPartPage handles one page of parts plus the donor vehicles the
// feed embeds alongside them, then resolves relations for the batch.
func (u *importUsecase) processPartPage(job *domain.ImportJob, page *metasync.Page) (int, int64) {
	now := time.Now()

	// Donor vehicles arrive in the same page; upsert them first so the
	// resolver can match against them immediately.
	embedded := make(map[int64]*catalogdomain.Vehicle, len(page.Vehicles))
	if len(page.Vehicles) > 0 {
		vehicles := make([]*catalogdomain.Vehicle, 0, len(page.Vehicles))
		for _, rec := range page.Vehicles {
			v, err := u.normalizer.NormalizeVehicle(rec, now)
			if err != nil {
				continue
			}
			vehicles = append(vehicles, v)
			embedded[v.ExternalID] = v
		}
		if _, err := u.vehicleRepo.UpsertBatch(vehicles); err != nil {
			job.RecordError(fmt.Sprintf("embedded vehicles at cursor %d: %v", job.Cursor, err))
		}
	}

	parts := make([]*catalogdomain.Part, 0, len(page.Parts))
	var maxID int64
	for _, rec := range page.Parts {
		info := embedded[absRef(rec)]
		p, err := u.normalizer.NormalizePart(rec, info, now)
		if err != nil {
			job.RecordError(err.Error())
			continue
		}
		if p.ExternalID > maxID {
			maxID = p.ExternalID
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return 0, maxID
	}

	job.ProcessingItem = fmt.Sprintf("part %d", parts[len(parts)-1].ExternalID)
	result, err := u.partRepo.UpsertBatch(parts)
	if err != nil {
		job.RecordError(fmt.Sprintf("part batch at cursor %d: %v", job.Cursor, err))
		return 0, maxID
	}
	for _, msg := range result.Errors {
		job.RecordError(msg)
	}
	job.NewItems += result.Inserted
	job.UpdatedItems += result.Updated
	job.ProcessedItems += len(parts)

	resolved, err := u.resolver.ResolveBatch(u.companyID, parts)
	if err != nil {
		job.RecordError(fmt.Sprintf("relation batch at cursor %d: %v", job.Cursor, err))
	} else {
		for _, msg := range resolved.Errors {
			job.RecordError(msg)
		}
	}
	return len(parts), maxID
}

// checkInterrupted re-reads the persisted status. Pause and cancel work
// by writing the status row; the loop observes it between batches.
func (u *importUsecase) checkInterrupted(jobID string) error {
	status, err := u.jobRepo.GetStatus(jobID)
	if err != nil {
		return err
	}
	if status == domain.StatusPaused || status == domain.StatusCancelled {
		return errInterrupted
	}
	return nil
}

func pageRecords(page *metasync.Page, entity domain.EntityType) []metasync.RawRecord {
	if entity == domain.EntityVehicles {
		return page.Vehicles
	}
	return page.Parts
}

// absRef extracts the donor vehicle id of a raw part record, dropping
// the sign that marks unverified candidates.
func absRef(rec metasync.RawRecord) int64 {
	for _, key := range []string{"idVehiculo", "IdVehiculo"} {
		if f, ok := rec[key].(float64); ok {
			if f < 0 {
				return int64(-f)
			}
			return int64(f)
		}
	}
	return 0
}
