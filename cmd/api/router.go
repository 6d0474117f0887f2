package api

import (
	"net/http"

	"desguace-backend/internal/auth/delivery"
	authUsecase "desguace-backend/internal/auth/usecase"
	catalogDelivery "desguace-backend/internal/catalog/delivery"
	catalogUsecase "desguace-backend/internal/catalog/usecase"
	importerDelivery "desguace-backend/internal/importer/delivery"
	importerRepo "desguace-backend/internal/importer/repository"
	importerUsecase "desguace-backend/internal/importer/usecase"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUc authUsecase.AuthUsecase,
	catalogUc catalogUsecase.CatalogUsecase,
	importUc importerUsecase.ImportUsecase,
	scheduleRepo importerRepo.ScheduleRepository,
) {
	authHandler := delivery.NewAuthHandler(authUc)
	catalogHandler := catalogDelivery.NewCatalogHandler(catalogUc)
	importHandler := importerDelivery.NewImportHandler(importUc, scheduleRepo)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// Catalog routes (public, active records only)
		catalog := api.Group("/catalog")
		{
			catalog.GET("/vehicles", catalogHandler.GetVehicles)
			catalog.GET("/vehicles/:id", catalogHandler.GetVehicleByID)
			catalog.GET("/vehicles/:id/parts", catalogHandler.GetVehicleParts)
			catalog.GET("/parts", catalogHandler.GetParts)
			catalog.GET("/parts/:id", catalogHandler.GetPartByID)
		}

		// Import routes (protected) - operator surface
		imports := api.Group("/import")
		imports.Use(delivery.AuthMiddleware(authUc))
		{
			imports.POST("/vehicles", importHandler.StartVehiclesImport)
			imports.POST("/parts", importHandler.StartPartsImport)
			imports.POST("/all", importHandler.StartFullImport)
			imports.POST("/resolve-pending", importHandler.ResolvePending)

			imports.GET("/jobs", importHandler.GetJobHistory)
			imports.GET("/jobs/:id", importHandler.GetJob)
			imports.POST("/jobs/:id/pause", importHandler.PauseJob)
			imports.POST("/jobs/:id/resume", importHandler.ResumeJob)
			imports.POST("/jobs/:id/cancel", importHandler.CancelJob)
		}

		// Schedule routes (protected)
		schedules := api.Group("/schedules")
		schedules.Use(delivery.AuthMiddleware(authUc))
		{
			schedules.GET("", importHandler.GetSchedules)
			schedules.POST("", importHandler.CreateSchedule)
			schedules.PUT("/:id", importHandler.UpdateSchedule)
			schedules.DELETE("/:id", importHandler.DeleteSchedule)
		}
	}
}
