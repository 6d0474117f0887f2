package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalVehicleRef is the feed's pointer from a part to its donor
// vehicle. The remote system encodes candidate (not yet verified) vehicles
// as negative ids; that sign bit is decoded exactly once, at normalization,
// into the Verified flag so nothing downstream re-interprets raw signs.
type ExternalVehicleRef struct {
	ID       int64 `json:"id"`
	Verified bool  `json:"verified"`
}

// Part is one salvaged part from the remote inventory, scoped like
// vehicles by (company_id, external_id).
type Part struct {
	ID         string `json:"id" gorm:"primaryKey"`
	ExternalID int64  `json:"external_id" gorm:"not null;uniqueIndex:idx_parts_company_external"`
	CompanyID  int64  `json:"company_id" gorm:"not null;uniqueIndex:idx_parts_company_external"`

	FamilyCode         string `json:"family_code"`
	FamilyDescription  string `json:"family_description"`
	ArticleCode        string `json:"article_code"`
	ArticleDescription string `json:"article_description"`

	// Price <= 0 means the feed price was missing or unparsable; such
	// parts are never activated.
	Price  decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Weight decimal.Decimal `json:"weight" gorm:"type:numeric(10,3)"`

	Images []string `json:"images" gorm:"serializer:json"`

	VehicleRef ExternalVehicleRef `json:"vehicle_ref" gorm:"embedded;embeddedPrefix:vehicle_ref_"`

	// Denormalized donor vehicle fields for listing and for heuristic
	// matching of unverified references.
	VehicleMake    string `json:"vehicle_make"`
	VehicleModel   string `json:"vehicle_model"`
	VehicleVersion string `json:"vehicle_version"`
	VehicleYear    int    `json:"vehicle_year"`
	YearStart      int    `json:"year_start"`
	YearEnd        int    `json:"year_end"`
	Doors          int    `json:"doors"`

	Active          bool `json:"active" gorm:"default:false;index"`
	PendingRelation bool `json:"pending_relation" gorm:"default:false;index"`

	LastSynced time.Time `json:"last_synced"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Activatable reports whether the part may be switched on once a resolved
// vehicle relation exists.
func (p *Part) Activatable() bool {
	return p.Price.IsPositive()
}
