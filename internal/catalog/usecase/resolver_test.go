package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"desguace-backend/internal/catalog/domain"
	"desguace-backend/internal/catalog/repository"
)

func vehicle(id string, externalID int64, make, model, version string, year, doors int) *domain.Vehicle {
	return &domain.Vehicle{
		ID:         id,
		ExternalID: externalID,
		CompanyID:  1236,
		Make:       make,
		Model:      model,
		Version:    version,
		Year:       year,
		Doors:      doors,
		Active:     true,
	}
}

func TestMatchVehicleExactReference(t *testing.T) {
	candidates := []*domain.Vehicle{
		vehicle("v1", 100, "Seat", "Ibiza", "", 2010, 5),
		vehicle("v2", 200, "Seat", "Leon", "", 2012, 5),
	}
	part := &domain.Part{
		VehicleRef: domain.ExternalVehicleRef{ID: 200, Verified: true},
	}

	match := MatchVehicle(part, candidates)
	if match == nil || match.ID != "v2" {
		t.Fatalf("MatchVehicle = %v, want v2", match)
	}
}

func TestMatchVehicleVerifiedUnknownStaysUnmatched(t *testing.T) {
	candidates := []*domain.Vehicle{
		vehicle("v1", 100, "Seat", "Ibiza", "", 2010, 5),
	}
	part := &domain.Part{
		VehicleRef:   domain.ExternalVehicleRef{ID: 999, Verified: true},
		VehicleMake:  "Seat",
		VehicleModel: "Ibiza",
		VehicleYear:  2010,
	}

	if match := MatchVehicle(part, candidates); match != nil {
		t.Fatalf("verified reference to unknown vehicle must not match heuristically, got %s", match.ID)
	}
}

func TestMatchVehicleHeuristic(t *testing.T) {
	candidates := []*domain.Vehicle{
		vehicle("v1", 300, "Peugeot", "207", "1.4 HDI XS", 2008, 5),
		vehicle("v2", 100, "Peugeot", "207", "1.4 HDI", 2008, 3),
		vehicle("v3", 200, "Peugeot", "208", "1.2", 2015, 5),
	}
	part := &domain.Part{
		VehicleRef:     domain.ExternalVehicleRef{ID: 999, Verified: false},
		VehicleMake:    "PEUGEOT",
		VehicleModel:   "207",
		VehicleVersion: "1.4 HDI",
		VehicleYear:    2008,
	}

	// Two candidates survive the make/model/version filter; the exact
	// year matches both, so the lowest external id wins.
	match := MatchVehicle(part, candidates)
	if match == nil || match.ID != "v2" {
		t.Fatalf("MatchVehicle = %v, want v2", match)
	}
}

func TestMatchVehicleYearRange(t *testing.T) {
	candidates := []*domain.Vehicle{
		vehicle("v1", 100, "Ford", "Focus", "", 2003, 5),
		vehicle("v2", 200, "Ford", "Focus", "", 2009, 5),
	}
	part := &domain.Part{
		VehicleRef:   domain.ExternalVehicleRef{ID: 999, Verified: false},
		VehicleMake:  "Ford",
		VehicleModel: "Focus",
		YearStart:    2008,
		YearEnd:      2012,
	}

	match := MatchVehicle(part, candidates)
	if match == nil || match.ID != "v2" {
		t.Fatalf("MatchVehicle = %v, want v2", match)
	}
}

func TestMatchVehicleByBrandDescription(t *testing.T) {
	candidates := []*domain.Vehicle{
		vehicle("v1", 100, "Renault", "Megane", "", 2011, 5),
		vehicle("v2", 200, "Renault", "Clio", "", 2013, 5),
	}
	part := &domain.Part{
		VehicleRef:         domain.ExternalVehicleRef{ID: 999, Verified: false},
		FamilyDescription:  "Carrocería",
		ArticleDescription: "Paragolpes delantero RENAULT CLIO IV",
	}

	match := MatchVehicle(part, candidates)
	if match == nil || match.ID != "v2" {
		t.Fatalf("MatchVehicle = %v, want v2", match)
	}
}

func TestMatchVehicleBrandWithoutModelStaysUnmatched(t *testing.T) {
	candidates := []*domain.Vehicle{
		vehicle("v1", 100, "Renault", "Megane", "", 2011, 5),
	}
	part := &domain.Part{
		VehicleRef:         domain.ExternalVehicleRef{ID: 999, Verified: false},
		ArticleDescription: "Faro derecho RENAULT",
	}

	if match := MatchVehicle(part, candidates); match != nil {
		t.Fatalf("bare brand mention must not match, got %s", match.ID)
	}
}

func TestExtractBrand(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"puerta delantera vw golf", "VOLKSWAGEN"},
		{"retrovisor citroën c4", "CITROEN"},
		{"pieza generica sin marca", ""},
		{"llanta de aluminio 16 pulgadas", ""},
		{"paragolpes mercedes-benz clase a", "MERCEDES"},
		{"radiador volvo compatible renault", "RENAULT"},
		{"capo mini cooper", "MINI"},
	}
	for _, tt := range tests {
		if got := ExtractBrand(tt.text); got != tt.want {
			t.Errorf("ExtractBrand(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

// fakeVehicleRepo and friends record calls; only what ResolveBatch
// touches is implemented with behavior.

type fakeVehicleRepo struct {
	active []*domain.Vehicle
}

func (f *fakeVehicleRepo) UpsertBatch([]*domain.Vehicle) (*repository.UpsertResult, error) {
	return &repository.UpsertResult{}, nil
}
func (f *fakeVehicleRepo) FindByID(string) (*domain.Vehicle, error) { return nil, nil }
func (f *fakeVehicleRepo) FindByExternalIDs(int64, []int64) ([]*domain.Vehicle, error) {
	return nil, nil
}
func (f *fakeVehicleRepo) FindAllActive(int64) ([]*domain.Vehicle, error) { return f.active, nil }
func (f *fakeVehicleRepo) List(repository.VehicleListFilter, int, int) ([]*domain.Vehicle, int64, error) {
	return nil, 0, nil
}
func (f *fakeVehicleRepo) DeactivateStale(int64, time.Time) (int64, error) { return 0, nil }

type activationCall struct {
	partID  string
	active  bool
	pending bool
}

type fakePartRepo struct {
	activations []activationCall
}

func (f *fakePartRepo) UpsertBatch([]*domain.Part) (*repository.UpsertResult, error) {
	return &repository.UpsertResult{}, nil
}
func (f *fakePartRepo) FindByID(string) (*domain.Part, error) { return nil, nil }
func (f *fakePartRepo) FindByExternalIDs(int64, []int64) ([]*domain.Part, error) {
	return nil, nil
}
func (f *fakePartRepo) List(repository.PartListFilter, int, int) ([]*domain.Part, int64, error) {
	return nil, 0, nil
}
func (f *fakePartRepo) UpdateActivation(partID string, active, pending bool) error {
	f.activations = append(f.activations, activationCall{partID, active, pending})
	return nil
}
func (f *fakePartRepo) DeactivateStale(int64, time.Time) (int64, error) { return 0, nil }

type fakeRelationRepo struct {
	resolved []string
	pending  []string
}

func (f *fakeRelationRepo) UpsertResolved(vehicleID, partID string, externalRef int64) (bool, error) {
	f.resolved = append(f.resolved, partID)
	return true, nil
}
func (f *fakeRelationRepo) CreatePending(partID string, externalRef int64) (bool, error) {
	f.pending = append(f.pending, partID)
	return true, nil
}
func (f *fakeRelationRepo) FindPending() ([]*domain.VehiclePartRelation, error) { return nil, nil }
func (f *fakeRelationRepo) FindResolvedByPart(string) ([]*domain.VehiclePartRelation, error) {
	return nil, nil
}
func (f *fakeRelationRepo) Promote(*domain.VehiclePartRelation, string) error { return nil }

func TestResolveBatch(t *testing.T) {
	vehicles := &fakeVehicleRepo{active: []*domain.Vehicle{
		vehicle("v1", 100, "Seat", "Ibiza", "", 2010, 5),
	}}
	parts := &fakePartRepo{}
	relations := &fakeRelationRepo{}
	resolver := NewResolver(vehicles, parts, relations)

	batch := []*domain.Part{
		{
			ID:         "p1",
			ExternalID: 1,
			Price:      decimal.NewFromInt(50),
			VehicleRef: domain.ExternalVehicleRef{ID: 100, Verified: true},
		},
		{
			ID:         "p2",
			ExternalID: 2,
			Price:      decimal.NewFromInt(30),
			VehicleRef: domain.ExternalVehicleRef{ID: 999, Verified: true},
		},
		{
			ID:         "p3",
			ExternalID: 3,
			Price:      decimal.Zero,
			VehicleRef: domain.ExternalVehicleRef{ID: 100, Verified: true},
		},
	}

	result, err := resolver.ResolveBatch(1236, batch)
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if result.Resolved != 2 || result.Pending != 1 {
		t.Fatalf("result = %+v, want 2 resolved, 1 pending", result)
	}

	// p1 resolves with a positive price and activates; p3 resolves but
	// its zero price keeps it inactive; p2 waits for its vehicle.
	want := []activationCall{
		{"p1", true, false},
		{"p2", false, true},
		{"p3", false, false},
	}
	if len(parts.activations) != len(want) {
		t.Fatalf("activations = %+v", parts.activations)
	}
	for i, call := range parts.activations {
		if call != want[i] {
			t.Errorf("activation[%d] = %+v, want %+v", i, call, want[i])
		}
	}
	if len(relations.pending) != 1 || relations.pending[0] != "p2" {
		t.Errorf("pending relations = %v, want [p2]", relations.pending)
	}
}
