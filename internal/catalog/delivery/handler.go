package delivery

import (
	"net/http"
	"strconv"

	"desguace-backend/internal/catalog/repository"
	"desguace-backend/internal/catalog/usecase"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUsecase
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase}
}

func (h *CatalogHandler) GetVehicles(c *gin.Context) {
	filter := repository.VehicleListFilter{
		Make:  c.Query("make"),
		Model: c.Query("model"),
	}
	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.Year = year
		}
	}
	limit, offset := pagination(c)

	vehicles, total, err := h.catalogUsecase.ListVehicles(filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *CatalogHandler) GetVehicleByID(c *gin.Context) {
	vehicle, err := h.catalogUsecase.GetVehicle(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if vehicle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *CatalogHandler) GetVehicleParts(c *gin.Context) {
	limit, offset := pagination(c)

	parts, total, err := h.catalogUsecase.PartsForVehicle(c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parts":  parts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *CatalogHandler) GetParts(c *gin.Context) {
	filter := repository.PartListFilter{
		FamilyCode: c.Query("family"),
	}
	limit, offset := pagination(c)

	parts, total, err := h.catalogUsecase.ListParts(filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parts":  parts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *CatalogHandler) GetPartByID(c *gin.Context) {
	part, err := h.catalogUsecase.GetPart(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if part == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "part not found"})
		return
	}
	c.JSON(http.StatusOK, part)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 0
	offset = 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
