package repository

import (
	"fmt"
	"log"
	"time"

	"desguace-backend/internal/catalog/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var partUpdateColumns = []string{
	"family_code", "family_description", "article_code", "article_description",
	"price", "weight", "images",
	"vehicle_ref_id", "vehicle_ref_verified",
	"vehicle_make", "vehicle_model", "vehicle_version", "vehicle_year",
	"year_start", "year_end", "doors",
	"last_synced", "updated_at",
}

type partRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) PartRepository {
	return &partRepository{db: db}
}

func (r *partRepository) UpsertBatch(parts []*domain.Part) (*UpsertResult, error) {
	result := &UpsertResult{}
	if len(parts) == 0 {
		return result, nil
	}

	companyID := parts[0].CompanyID
	externalIDs := make([]int64, 0, len(parts))
	for _, p := range parts {
		externalIDs = append(externalIDs, p.ExternalID)
	}

	existing := make(map[int64]string, len(externalIDs))
	for start := 0; start < len(externalIDs); start += lookupChunkSize {
		chunk := externalIDs[start:min(start+lookupChunkSize, len(externalIDs))]
		var rows []struct {
			ID         string
			ExternalID int64
		}
		err := r.db.Model(&domain.Part{}).
			Select("id", "external_id").
			Where("company_id = ? AND external_id IN ?", companyID, chunk).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			existing[row.ExternalID] = row.ID
		}
	}

	now := time.Now()
	inserts := make([]*domain.Part, 0, len(parts))
	updates := make([]*domain.Part, 0)
	for _, p := range parts {
		p.UpdatedAt = now
		if id, ok := existing[p.ExternalID]; ok {
			p.ID = id
			updates = append(updates, p)
		} else {
			p.ID = uuid.New().String()
			p.CreatedAt = now
			inserts = append(inserts, p)
		}
	}

	// The activation flags are deliberately absent from the update list:
	// they belong to the relation resolver, and a later feed page must
	// not undo a resolution from an earlier one.
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(partUpdateColumns),
	}

	for start := 0; start < len(inserts); start += writeChunkSize {
		chunk := inserts[start:min(start+writeChunkSize, len(inserts))]
		if err := r.db.Clauses(onConflict).Create(chunk).Error; err != nil {
			msg := fmt.Sprintf("part insert chunk at %d: %v", start, err)
			log.Printf("[PartRepo] [ERROR] %s", msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.Inserted += len(chunk)
	}

	for start := 0; start < len(updates); start += writeChunkSize {
		chunk := updates[start:min(start+writeChunkSize, len(updates))]
		if err := r.db.Clauses(onConflict).Create(chunk).Error; err != nil {
			msg := fmt.Sprintf("part update chunk at %d: %v", start, err)
			log.Printf("[PartRepo] [ERROR] %s", msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.Updated += len(chunk)
	}

	return result, nil
}

func (r *partRepository) FindByID(id string) (*domain.Part, error) {
	var part domain.Part
	err := r.db.Where("id = ?", id).First(&part).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &part, nil
}

func (r *partRepository) FindByExternalIDs(companyID int64, externalIDs []int64) ([]*domain.Part, error) {
	var parts []*domain.Part
	for start := 0; start < len(externalIDs); start += lookupChunkSize {
		chunk := externalIDs[start:min(start+lookupChunkSize, len(externalIDs))]
		var rows []*domain.Part
		err := r.db.Where("company_id = ? AND external_id IN ?", companyID, chunk).Find(&rows).Error
		if err != nil {
			return nil, err
		}
		parts = append(parts, rows...)
	}
	return parts, nil
}

func (r *partRepository) List(filter PartListFilter, limit, offset int) ([]*domain.Part, int64, error) {
	var parts []*domain.Part
	var total int64

	query := r.db.Model(&domain.Part{})
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.FamilyCode != "" {
		query = query.Where("family_code = ?", filter.FamilyCode)
	}
	if filter.VehicleID != "" {
		query = query.Where(
			"id IN (SELECT part_id FROM vehicle_part_relations WHERE vehicle_id = ?)",
			filter.VehicleID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("family_code, article_description").Limit(limit).Offset(offset).Find(&parts).Error
	return parts, total, err
}

func (r *partRepository) UpdateActivation(partID string, active, pendingRelation bool) error {
	return r.db.Model(&domain.Part{}).Where("id = ?", partID).
		Updates(map[string]interface{}{
			"active":           active,
			"pending_relation": pendingRelation,
			"updated_at":       time.Now(),
		}).Error
}

func (r *partRepository) DeactivateStale(companyID int64, before time.Time) (int64, error) {
	return deactivateStale(r.db, &domain.Part{}, companyID, before)
}
