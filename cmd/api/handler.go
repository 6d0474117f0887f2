package api

import (
	authUsecase "desguace-backend/internal/auth/usecase"
	catalogUsecase "desguace-backend/internal/catalog/usecase"
	importerRepo "desguace-backend/internal/importer/repository"
	importerUsecase "desguace-backend/internal/importer/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	catalogUsecase catalogUsecase.CatalogUsecase
	importUsecase  importerUsecase.ImportUsecase
	scheduleRepo   importerRepo.ScheduleRepository
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	catalogUc catalogUsecase.CatalogUsecase,
	importUc importerUsecase.ImportUsecase,
	scheduleRepo importerRepo.ScheduleRepository,
) *Handler {
	return &Handler{
		authUsecase:    authUc,
		catalogUsecase: catalogUc,
		importUsecase:  importUc,
		scheduleRepo:   scheduleRepo,
	}
}

func (h *Handler) Start(addr string) error {
	return h.engine().Run(addr)
}

// engine builds the router. The mode must be set before gin.Default()
// constructs the engine, or it has no effect.
func (h *Handler) engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.catalogUsecase, h.importUsecase, h.scheduleRepo)

	return r
}
