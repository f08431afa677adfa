package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VariantRepository is read-only: the catalog service owns variant writes,
// the ledger just resolves ids and search strings against them.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Variant, error)
	Search(ctx context.Context, search string, limit int) ([]model.Variant, error)
}

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Variant, error) {
	var variant model.Variant
	if err := GetDB(ctx, r.db).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) Search(ctx context.Context, search string, limit int) ([]model.Variant, error) {
	var variants []model.Variant
	db := GetDB(ctx, r.db).Model(&model.Variant{})
	if search != "" {
		pattern := "%" + search + "%"
		db = db.Where("LOWER(sku) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?)", pattern, pattern)
	}
	err := db.Order("sku asc").Limit(limit).Find(&variants).Error
	return variants, err
}
