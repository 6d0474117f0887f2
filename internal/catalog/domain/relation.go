package domain

import "time"

// VehiclePartRelation links a part to its donor vehicle. A row with a nil
// VehicleID is pending: the referenced vehicle has not been imported yet
// and ExternalVehicleRef records which one to wait for. Postgres treats
// NULLs as distinct in unique indexes, so pending rows do not collide on
// the (vehicle_id, part_id) constraint.
type VehiclePartRelation struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	VehicleID *string `json:"vehicle_id" gorm:"uniqueIndex:idx_relations_vehicle_part"`
	PartID    string  `json:"part_id" gorm:"not null;uniqueIndex:idx_relations_vehicle_part;index"`

	ExternalVehicleRef int64 `json:"external_vehicle_ref" gorm:"index"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Pending reports whether the relation still waits for its vehicle.
func (r *VehiclePartRelation) Pending() bool {
	return r.VehicleID == nil
}
