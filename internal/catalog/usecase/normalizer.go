package usecase

import (
	"fmt"
	"strings"
	"time"

	"desguace-backend/internal/catalog/domain"
	"desguace-backend/pkg/metasync"

	"github.com/shopspring/decimal"
)

// MalformedRecordError marks a feed record that cannot be mapped to the
// canonical model. It is caught per record: one bad record never aborts
// a batch.
type MalformedRecordError struct {
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return "malformed record: " + e.Reason
}

// Normalizer maps the feed's raw record variants onto the canonical
// Vehicle/Part models. Pure transformation, no I/O.
type Normalizer struct {
	companyID int64
}

func NewNormalizer(companyID int64) *Normalizer {
	return &Normalizer{companyID: companyID}
}

// NormalizeVehicle converts one raw vehicle record. Records without a
// usable external id are rejected as malformed.
func (n *Normalizer) NormalizeVehicle(rec metasync.RawRecord, now time.Time) (*domain.Vehicle, error) {
	externalID := pickInt64(rec, "idLocal", "IdLocal", "id")
	if externalID == 0 {
		return nil, &MalformedRecordError{Reason: "vehicle without idLocal"}
	}

	v := &domain.Vehicle{
		ExternalID: externalID,
		CompanyID:  pickInt64Default(rec, n.companyID, "idEmpresa"),
		Make:       pickString(rec, "nombreMarca", "marca", "Marca", "brand"),
		Model:      pickString(rec, "nombreModelo", "modelo", "Modelo", "model"),
		Version:    pickString(rec, "nombreVersion", "version", "Version", "codVersion"),
		Year:       int(pickInt64(rec, "anyoVehiculo", "anyo", "Anyo", "year")),
		Fuel:       pickString(rec, "combustible", "Combustible", "fuel"),
		Doors:      int(pickInt64(rec, "puertas", "Puertas", "doors")),
		Images:     pickImages(rec),
		Active:     true,
		LastSynced: now,
	}
	v.Description = synthesizeDescription(v)
	return v, nil
}

// NormalizePart converts one raw part record. vehicleInfo, when non-nil,
// supplies the donor vehicle fields that the parts endpoint delivers in a
// separate array of the same page.
func (n *Normalizer) NormalizePart(rec metasync.RawRecord, vehicleInfo *domain.Vehicle, now time.Time) (*domain.Part, error) {
	externalID := pickInt64(rec, "refLocal", "RefLocal", "id")
	if externalID == 0 {
		return nil, &MalformedRecordError{Reason: "part without refLocal"}
	}

	p := &domain.Part{
		ExternalID:         externalID,
		CompanyID:          pickInt64Default(rec, n.companyID, "idEmpresa"),
		FamilyCode:         pickString(rec, "codFamilia", "familia"),
		FamilyDescription:  pickString(rec, "descripcionFamilia"),
		ArticleCode:        pickString(rec, "codArticulo"),
		ArticleDescription: pickString(rec, "descripcionArticulo", "descripcion"),
		Price:              normalizePrice(rec),
		Weight:             parseDecimal(pickString(rec, "peso", "Peso", "weight")),
		Images:             pickImages(rec),
		VehicleRef:         normalizeVehicleRef(pickInt64(rec, "idVehiculo", "IdVehiculo")),
		YearStart:          int(pickInt64(rec, "anyoInicio")),
		YearEnd:            int(pickInt64(rec, "anyoFin")),
		Doors:              int(pickInt64(rec, "puertas", "Puertas")),
		LastSynced:         now,
	}

	if p.FamilyDescription == "" {
		p.FamilyDescription = "General"
	}
	if len(p.ArticleDescription) < 3 {
		p.ArticleDescription = fmt.Sprintf("Pieza %d", externalID)
	}

	if vehicleInfo != nil {
		p.VehicleMake = vehicleInfo.Make
		p.VehicleModel = vehicleInfo.Model
		p.VehicleVersion = vehicleInfo.Version
		p.VehicleYear = vehicleInfo.Year
	}

	return p, nil
}

// normalizeVehicleRef decodes the feed's sign convention: negative ids are
// candidate vehicles that remote operators have not verified yet.
func normalizeVehicleRef(raw int64) domain.ExternalVehicleRef {
	if raw < 0 {
		return domain.ExternalVehicleRef{ID: -raw, Verified: false}
	}
	return domain.ExternalVehicleRef{ID: raw, Verified: true}
}

// normalizePrice parses the feed price (sent as text, comma or dot
// decimal separator). Missing, unparsable or non-positive prices collapse
// to zero, which blocks activation later.
func normalizePrice(rec metasync.RawRecord) decimal.Decimal {
	raw := pickString(rec, "precio", "Precio", "price")
	if raw == "" {
		if f, ok := rec["precio"].(float64); ok {
			return clampPrice(decimal.NewFromFloat(f))
		}
		return decimal.Zero
	}
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return clampPrice(d)
}

func clampPrice(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() {
		return decimal.Zero
	}
	return d.Round(2)
}

func parseDecimal(raw string) decimal.Decimal {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// synthesizeDescription builds the human-readable listing title.
func synthesizeDescription(v *domain.Vehicle) string {
	fields := make([]string, 0, 4)
	for _, f := range []string{v.Make, v.Model, v.Version} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	title := strings.Join(fields, " ")
	if title == "" {
		title = fmt.Sprintf("Vehículo %d", v.ExternalID)
	}
	if v.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, v.Year)
	}
	return title
}

func pickString(rec metasync.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s, ok := rec[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func pickInt64(rec metasync.RawRecord, keys ...string) int64 {
	for _, key := range keys {
		switch v := rec[key].(type) {
		case float64:
			if v != 0 {
				return int64(v)
			}
		case string:
			// Some feed versions quote numeric fields.
			var n int64
			if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}

func pickInt64Default(rec metasync.RawRecord, def int64, keys ...string) int64 {
	if v := pickInt64(rec, keys...); v != 0 {
		return v
	}
	return def
}

func pickImages(rec metasync.RawRecord) []string {
	for _, key := range []string{"imagenes", "Imagenes", "UrlsImgs", "urlsImgs", "images"} {
		switch v := rec[key].(type) {
		case []any:
			urls := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					urls = append(urls, s)
				}
			}
			if len(urls) > 0 {
				return urls
			}
		case string:
			// Single URL or pipe-separated list in older feed versions.
			parts := strings.Split(v, "|")
			urls := make([]string, 0, len(parts))
			for _, s := range parts {
				if s = strings.TrimSpace(s); s != "" {
					urls = append(urls, s)
				}
			}
			if len(urls) > 0 {
				return urls
			}
		}
	}
	return []string{}
}
