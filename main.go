package main

import (
	"log"

	"desguace-backend/cmd/api"
	authUsecase "desguace-backend/internal/auth/usecase"
	catalogDomain "desguace-backend/internal/catalog/domain"
	catalogRepo "desguace-backend/internal/catalog/repository"
	catalogUsecase "desguace-backend/internal/catalog/usecase"
	importerDomain "desguace-backend/internal/importer/domain"
	importerRepo "desguace-backend/internal/importer/repository"
	importerScheduler "desguace-backend/internal/importer/scheduler"
	importerUsecase "desguace-backend/internal/importer/usecase"
	"desguace-backend/pkg/config"
	"desguace-backend/pkg/database"
	"desguace-backend/pkg/metasync"
)

func main() {
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&catalogDomain.Vehicle{},
		&catalogDomain.Part{},
		&catalogDomain.VehiclePartRelation{},
		&importerDomain.ImportJob{},
		&importerDomain.ImportSchedule{},
		&importerDomain.SyncControl{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Repositories
	vehicleRepo := catalogRepo.NewVehicleRepository(db)
	partRepo := catalogRepo.NewPartRepository(db)
	relationRepo := catalogRepo.NewRelationRepository(db)
	jobRepo := importerRepo.NewJobRepository(db)
	scheduleRepo := importerRepo.NewScheduleRepository(db)
	syncRepo := importerRepo.NewSyncControlRepository(db)

	// Feed client
	client := metasync.NewClient(cfg.MetasyncAPIURL, cfg.MetasyncAPIKey, cfg.MetasyncChannel, cfg.CompanyID)

	// Usecases
	authUc := authUsecase.NewAuthUsecase(cfg)
	catalogUc := catalogUsecase.NewCatalogUsecase(vehicleRepo, partRepo)
	normalizer := catalogUsecase.NewNormalizer(cfg.CompanyID)
	resolver := catalogUsecase.NewResolver(vehicleRepo, partRepo, relationRepo)
	reconciler := catalogUsecase.NewReconciler(vehicleRepo, partRepo)
	importUc := importerUsecase.NewImportUsecase(
		jobRepo, syncRepo, client, normalizer,
		vehicleRepo, partRepo, resolver, reconciler,
		cfg.CompanyID, cfg.ImportBatchSize, cfg.InterBatchDelay,
	)

	// Jobs orphaned by a previous process would block new imports.
	if err := importUc.RecoverOrphans(); err != nil {
		log.Printf("[Main] [WARN] Orphan recovery failed: %v", err)
	}

	scheduler := importerScheduler.NewScheduler(scheduleRepo, jobRepo, importUc, cfg.WatchdogInterval, cfg.JobStuckTimeout)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(authUc, catalogUc, importUc, scheduleRepo)

	log.Printf("[Main] Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
