package usecase

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"

	"desguace-backend/internal/catalog/domain"
	"desguace-backend/internal/catalog/repository"
	"desguace-backend/pkg/fuzzy"
)

// knownBrands is the table used by the last-resort description matcher.
// Keys are canonical makes, values the spellings seen in feed text.
var knownBrands = map[string][]string{
	"AUDI":       {"AUDI"},
	"BMW":        {"BMW"},
	"CITROEN":    {"CITROEN", "CITROËN"},
	"DACIA":      {"DACIA"},
	"FIAT":       {"FIAT"},
	"FORD":       {"FORD"},
	"HONDA":      {"HONDA"},
	"HYUNDAI":    {"HYUNDAI"},
	"KIA":        {"KIA"},
	"MERCEDES":   {"MERCEDES", "MERCEDES-BENZ", "MERCEDESBENZ"},
	"NISSAN":     {"NISSAN"},
	"OPEL":       {"OPEL"},
	"PEUGEOT":    {"PEUGEOT"},
	"RENAULT":    {"RENAULT"},
	"SEAT":       {"SEAT"},
	"SKODA":      {"SKODA", "ŠKODA"},
	"SUZUKI":     {"SUZUKI"},
	"TOYOTA":     {"TOYOTA"},
	"VOLKSWAGEN": {"VOLKSWAGEN", "VW"},
	"VOLVO":      {"VOLVO"},
	"MAZDA":      {"MAZDA"},
	"MITSUBISHI": {"MITSUBISHI"},
	"MINI":       {"MINI"},
	"SMART":      {"SMART"},
	"PORSCHE":    {"PORSCHE"},
	"JAGUAR":     {"JAGUAR"},
	"LAND ROVER": {"LAND ROVER", "LANDROVER"},
	"LEXUS":      {"LEXUS"},
	"ALFA ROMEO": {"ALFA ROMEO", "ALFA"},
	"JEEP":       {"JEEP"},
	"CHEVROLET":  {"CHEVROLET"},
	"SSANGYONG":  {"SSANGYONG"},
}

// Resolver links parts to their donor vehicles and keeps the activation
// invariant: a part is active only with a positive price and a resolved
// relation.
type Resolver struct {
	vehicleRepo  repository.VehicleRepository
	partRepo     repository.PartRepository
	relationRepo repository.RelationRepository
}

func NewResolver(vehicleRepo repository.VehicleRepository, partRepo repository.PartRepository, relationRepo repository.RelationRepository) *Resolver {
	return &Resolver{
		vehicleRepo:  vehicleRepo,
		partRepo:     partRepo,
		relationRepo: relationRepo,
	}
}

// ResolveBatchResult summarizes one resolution pass over a part batch.
type ResolveBatchResult struct {
	Resolved int
	Pending  int
	Errors   []string
}

// ResolveBatch links every part of a freshly upserted batch. Parts whose
// vehicle is unknown are recorded as pending relations and left inactive.
func (r *Resolver) ResolveBatch(companyID int64, parts []*domain.Part) (*ResolveBatchResult, error) {
	result := &ResolveBatchResult{}
	if len(parts) == 0 {
		return result, nil
	}

	candidates, err := r.vehicleRepo.FindAllActive(companyID)
	if err != nil {
		return nil, err
	}

	for _, part := range parts {
		vehicle := MatchVehicle(part, candidates)
		if vehicle != nil {
			if _, err := r.relationRepo.UpsertResolved(vehicle.ID, part.ID, part.VehicleRef.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("relation for part %d: %v", part.ExternalID, err))
				continue
			}
			if err := r.partRepo.UpdateActivation(part.ID, part.Activatable(), false); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("activation for part %d: %v", part.ExternalID, err))
				continue
			}
			result.Resolved++
			continue
		}

		if part.VehicleRef.ID == 0 {
			// No reference at all; nothing to wait for.
			if err := r.partRepo.UpdateActivation(part.ID, false, false); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("activation for part %d: %v", part.ExternalID, err))
			}
			continue
		}

		if _, err := r.relationRepo.CreatePending(part.ID, part.VehicleRef.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pending relation for part %d: %v", part.ExternalID, err))
			continue
		}
		if err := r.partRepo.UpdateActivation(part.ID, false, true); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("activation for part %d: %v", part.ExternalID, err))
			continue
		}
		result.Pending++
	}

	return result, nil
}

// ResolvePending retries every pending relation against the current
// vehicle catalog, typically after a vehicle import. Each promotion
// happens exactly once; duplicates are dropped inside Promote.
func (r *Resolver) ResolvePending(companyID int64) (int, error) {
	pending, err := r.relationRepo.FindPending()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	// Group by referenced vehicle so each external id is looked up once.
	byRef := make(map[int64][]*domain.VehiclePartRelation)
	refs := make([]int64, 0)
	for _, relation := range pending {
		if relation.ExternalVehicleRef == 0 {
			continue
		}
		if _, seen := byRef[relation.ExternalVehicleRef]; !seen {
			refs = append(refs, relation.ExternalVehicleRef)
		}
		byRef[relation.ExternalVehicleRef] = append(byRef[relation.ExternalVehicleRef], relation)
	}

	vehicles, err := r.vehicleRepo.FindByExternalIDs(companyID, refs)
	if err != nil {
		return 0, err
	}
	vehicleByRef := make(map[int64]*domain.Vehicle, len(vehicles))
	for _, v := range vehicles {
		vehicleByRef[v.ExternalID] = v
	}

	resolved := 0
	for ref, relations := range byRef {
		vehicle, ok := vehicleByRef[ref]
		if !ok {
			continue // still waiting
		}
		for _, relation := range relations {
			if err := r.relationRepo.Promote(relation, vehicle.ID); err != nil {
				log.Printf("[Resolver] [ERROR] promoting relation %s: %v", relation.ID, err)
				continue
			}
			part, err := r.partRepo.FindByID(relation.PartID)
			if err != nil || part == nil {
				log.Printf("[Resolver] [WARN] part %s missing for promoted relation: %v", relation.PartID, err)
				continue
			}
			if err := r.partRepo.UpdateActivation(part.ID, part.Activatable(), false); err != nil {
				log.Printf("[Resolver] [ERROR] activating part %s: %v", part.ID, err)
				continue
			}
			resolved++
		}
	}

	if resolved > 0 {
		log.Printf("[Resolver] Resolved %d pending relations", resolved)
	}
	return resolved, nil
}

// MatchVehicle finds the donor vehicle for a part among candidates:
// exact external-id match first; for unverified references a heuristic
// pass over make/model/version/year; finally a brand extracted from the
// part description. Returns nil when nothing matches.
func MatchVehicle(part *domain.Part, candidates []*domain.Vehicle) *domain.Vehicle {
	if part.VehicleRef.ID != 0 {
		for _, v := range candidates {
			if v.ExternalID == part.VehicleRef.ID {
				return v
			}
		}
	}

	if part.VehicleRef.Verified {
		// A verified reference to an unknown vehicle stays pending; a
		// heuristic guess would link the part to the wrong donor.
		return nil
	}

	if match := matchHeuristic(part, candidates); match != nil {
		return match
	}
	return matchByBrand(part, candidates)
}

// matchHeuristic narrows candidates by make and model, then by version
// prefix, then by year (exact, else the part's year range, else door
// count). Ties break toward the lowest external id.
func matchHeuristic(part *domain.Part, candidates []*domain.Vehicle) *domain.Vehicle {
	if part.VehicleMake == "" || part.VehicleModel == "" {
		return nil
	}

	var pool []*domain.Vehicle
	for _, v := range candidates {
		if !fuzzy.Equal(v.Make, part.VehicleMake) {
			continue
		}
		if !fuzzy.Similar(v.Model, part.VehicleModel, 1) {
			continue
		}
		if part.VehicleVersion != "" && v.Version != "" && !fuzzy.HasPrefix(v.Version, part.VehicleVersion) {
			continue
		}
		pool = append(pool, v)
	}
	if len(pool) == 0 {
		return nil
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ExternalID < pool[j].ExternalID })

	if part.VehicleYear > 0 {
		for _, v := range pool {
			if v.Year == part.VehicleYear {
				return v
			}
		}
	}
	if part.YearStart > 0 || part.YearEnd > 0 {
		for _, v := range pool {
			if v.Year == 0 {
				continue
			}
			if (part.YearStart == 0 || v.Year >= part.YearStart) && (part.YearEnd == 0 || v.Year <= part.YearEnd) {
				return v
			}
		}
	}
	if part.Doors > 0 {
		for _, v := range pool {
			if v.Doors == part.Doors {
				return v
			}
		}
	}
	return nil
}

// matchByBrand extracts a brand from the part's description text and
// pairs it with a candidate of the same make, requiring the model to
// appear in the text too so a bare brand mention cannot mislink.
func matchByBrand(part *domain.Part, candidates []*domain.Vehicle) *domain.Vehicle {
	text := strings.ToUpper(part.FamilyDescription + " " + part.ArticleDescription)
	brand := ExtractBrand(text)
	if brand == "" {
		return nil
	}

	var pool []*domain.Vehicle
	for _, v := range candidates {
		if !fuzzy.Equal(v.Make, brand) {
			continue
		}
		if v.Model == "" || !strings.Contains(fuzzy.Normalize(text), fuzzy.Normalize(v.Model)) {
			continue
		}
		pool = append(pool, v)
	}
	if len(pool) == 0 {
		return nil
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ExternalID < pool[j].ExternalID })
	return pool[0]
}

// brandNames holds the canonical makes in alphabetical order, so a text
// mentioning two brands always extracts the same one.
var brandNames = func() []string {
	names := make([]string, 0, len(knownBrands))
	for name := range knownBrands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// ExtractBrand returns the canonical make found in free text, or "".
// Spellings match on word boundaries only, so MINI never fires inside
// ALUMINIO.
func ExtractBrand(text string) string {
	padded := " " + brandWords(strings.ToUpper(text)) + " "
	for _, brand := range brandNames {
		for _, spelling := range knownBrands[brand] {
			if strings.Contains(padded, " "+brandWords(spelling)+" ") {
				return brand
			}
		}
	}
	return ""
}

// brandWords replaces every non-letter, non-digit rune with a space, so
// hyphenated and punctuated spellings compare word by word.
func brandWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
