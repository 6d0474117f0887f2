package domain

import "time"

// Vehicle is one donor vehicle from the remote inventory. Rows are scoped
// by (company_id, external_id): re-sighting the same pair updates in place,
// and vehicles are deactivated rather than deleted.
type Vehicle struct {
	ID         string `json:"id" gorm:"primaryKey"`
	ExternalID int64  `json:"external_id" gorm:"not null;uniqueIndex:idx_vehicles_company_external"`
	CompanyID  int64  `json:"company_id" gorm:"not null;uniqueIndex:idx_vehicles_company_external"`

	Make    string `json:"make" gorm:"not null"`
	Model   string `json:"model" gorm:"not null"`
	Version string `json:"version"`
	Year    int    `json:"year"`
	Fuel    string `json:"fuel"`
	Doors   int    `json:"doors"`

	// Description is synthesized from make/model/version/year at
	// normalization time; the feed has no equivalent field.
	Description string   `json:"description"`
	Images      []string `json:"images" gorm:"serializer:json"`

	Active     bool      `json:"active" gorm:"default:true;index"`
	LastSynced time.Time `json:"last_synced"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
