package usecase

import (
	"desguace-backend/internal/catalog/domain"
	"desguace-backend/internal/catalog/repository"
)

// CatalogUsecase is the read path served to the shop front: active
// entities only, never blocked by a running import.
type CatalogUsecase interface {
	ListVehicles(filter repository.VehicleListFilter, limit, offset int) ([]*domain.Vehicle, int64, error)
	GetVehicle(id string) (*domain.Vehicle, error)
	ListParts(filter repository.PartListFilter, limit, offset int) ([]*domain.Part, int64, error)
	GetPart(id string) (*domain.Part, error)
	PartsForVehicle(vehicleID string, limit, offset int) ([]*domain.Part, int64, error)
}

type catalogUsecase struct {
	vehicleRepo repository.VehicleRepository
	partRepo    repository.PartRepository
}

func NewCatalogUsecase(vehicleRepo repository.VehicleRepository, partRepo repository.PartRepository) CatalogUsecase {
	return &catalogUsecase{
		vehicleRepo: vehicleRepo,
		partRepo:    partRepo,
	}
}

func (u *catalogUsecase) ListVehicles(filter repository.VehicleListFilter, limit, offset int) ([]*domain.Vehicle, int64, error) {
	filter.ActiveOnly = true
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return u.vehicleRepo.List(filter, limit, offset)
}

func (u *catalogUsecase) GetVehicle(id string) (*domain.Vehicle, error) {
	return u.vehicleRepo.FindByID(id)
}

func (u *catalogUsecase) ListParts(filter repository.PartListFilter, limit, offset int) ([]*domain.Part, int64, error) {
	filter.ActiveOnly = true
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return u.partRepo.List(filter, limit, offset)
}

func (u *catalogUsecase) GetPart(id string) (*domain.Part, error) {
	return u.partRepo.FindByID(id)
}

func (u *catalogUsecase) PartsForVehicle(vehicleID string, limit, offset int) ([]*domain.Part, int64, error) {
	return u.ListParts(repository.PartListFilter{VehicleID: vehicleID}, limit, offset)
}
