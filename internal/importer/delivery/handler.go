package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"desguace-backend/internal/importer/domain"
	"desguace-backend/internal/importer/repository"
	"desguace-backend/internal/importer/usecase"
)

type ImportHandler struct {
	importUsecase usecase.ImportUsecase
	scheduleRepo  repository.ScheduleRepository
}

func NewImportHandler(importUsecase usecase.ImportUsecase, scheduleRepo repository.ScheduleRepository) *ImportHandler {
	return &ImportHandler{
		importUsecase: importUsecase,
		scheduleRepo:  scheduleRepo,
	}
}

// jobResponse is the operator view of a job.
type jobResponse struct {
	*domain.ImportJob
	Progress int `json:"progress"`
}

func toJobResponse(job *domain.ImportJob) jobResponse {
	return jobResponse{ImportJob: job, Progress: job.ProgressPercent()}
}

func (h *ImportHandler) StartVehiclesImport(c *gin.Context) {
	h.start(c, domain.EntityVehicles)
}

func (h *ImportHandler) StartPartsImport(c *gin.Context) {
	h.start(c, domain.EntityParts)
}

func (h *ImportHandler) StartFullImport(c *gin.Context) {
	h.start(c, domain.EntityAll)
}

func (h *ImportHandler) start(c *gin.Context, entityType domain.EntityType) {
	mode := domain.ModeIncremental
	if c.Query("full") == "true" {
		mode = domain.ModeFull
	}

	job, err := h.importUsecase.StartImport(entityType, mode)
	if err != nil {
		if errors.Is(err, usecase.ErrImportActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, toJobResponse(job))
}

func (h *ImportHandler) GetJob(c *gin.Context) {
	job, err := h.importUsecase.GetJob(c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "import job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *ImportHandler) GetJobHistory(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	jobs, err := h.importUsecase.RecentJobs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toJobResponse(job))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": responses})
}

func (h *ImportHandler) PauseJob(c *gin.Context) {
	if err := h.importUsecase.PauseImport(c.Param("id")); err != nil {
		h.jobActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "import paused"})
}

func (h *ImportHandler) ResumeJob(c *gin.Context) {
	job, err := h.importUsecase.ResumeImport(c.Param("id"))
	if err != nil {
		h.jobActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *ImportHandler) CancelJob(c *gin.Context) {
	if err := h.importUsecase.CancelImport(c.Param("id")); err != nil {
		h.jobActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "import cancelled"})
}

func (h *ImportHandler) jobActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "import job not found"})
	case errors.Is(err, usecase.ErrNotResumable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		// Illegal transitions surface here (pausing a finished job etc).
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	}
}

func (h *ImportHandler) ResolvePending(c *gin.Context) {
	resolved, err := h.importUsecase.ResolvePendingRelations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": resolved})
}

type scheduleRequest struct {
	EntityType domain.EntityType `json:"entity_type" binding:"required"`
	Frequency  string            `json:"frequency"`
	StartTime  string            `json:"start_time"`
	FullImport bool              `json:"full_import"`
	Active     *bool             `json:"active"`
}

func (h *ImportHandler) GetSchedules(c *gin.Context) {
	schedules, err := h.scheduleRepo.FindAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (h *ImportHandler) CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validEntityType(req.EntityType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type must be vehicles, parts or all"})
		return
	}

	now := time.Now()
	schedule := &domain.ImportSchedule{
		ID:         uuid.New().String(),
		EntityType: req.EntityType,
		Frequency:  req.Frequency,
		StartTime:  req.StartTime,
		FullImport: req.FullImport,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Active != nil {
		schedule.Active = *req.Active
	}
	if schedule.Frequency == "" {
		schedule.Frequency = "12h"
	}
	next := domain.ComputeNextRun(now, schedule.Frequency, schedule.StartTime)
	schedule.NextRun = &next

	if err := h.scheduleRepo.Create(schedule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *ImportHandler) UpdateSchedule(c *gin.Context) {
	schedule, err := h.scheduleRepo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if schedule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validEntityType(req.EntityType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type must be vehicles, parts or all"})
		return
	}

	schedule.EntityType = req.EntityType
	if req.Frequency != "" {
		schedule.Frequency = req.Frequency
	}
	if req.StartTime != "" {
		schedule.StartTime = req.StartTime
	}
	schedule.FullImport = req.FullImport
	if req.Active != nil {
		schedule.Active = *req.Active
	}
	schedule.UpdatedAt = time.Now()
	next := domain.ComputeNextRun(schedule.UpdatedAt, schedule.Frequency, schedule.StartTime)
	schedule.NextRun = &next

	if err := h.scheduleRepo.Update(schedule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ImportHandler) DeleteSchedule(c *gin.Context) {
	schedule, err := h.scheduleRepo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if schedule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}

	if err := h.scheduleRepo.Delete(schedule.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

func validEntityType(t domain.EntityType) bool {
	switch t {
	case domain.EntityVehicles, domain.EntityParts, domain.EntityAll:
		return true
	}
	return false
}
