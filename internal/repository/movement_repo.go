package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	ListByVariant(ctx context.Context, variantID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
	FindByIdempotencyKey(ctx context.Context, key, movementType string) (*model.StockMovement, error)
	SumOnHandDeltas(ctx context.Context, variantID, locationID uuid.UUID) (int, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) ListByVariant(ctx context.Context, variantID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("variant_id = ?", variantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("FromLocation").Preload("ToLocation").Preload("Actor").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// FindByIdempotencyKey resolves a retried mutation to the movement it
// already produced. Returns nil without error when the key is unseen.
func (r *movementRepository) FindByIdempotencyKey(ctx context.Context, key, movementType string) (*model.StockMovement, error) {
	var movement model.StockMovement
	err := GetDB(ctx, r.db).
		Where("idempotency_key = ? AND type = ?", key, movementType).
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

// SumOnHandDeltas re-derives the on-hand quantity for a (variant, location)
// pair from the ledger alone. RESERVE and RELEASE rows are excluded: they
// move stock between available and reserved, not in or out of the location.
func (r *movementRepository) SumOnHandDeltas(ctx context.Context, variantID, locationID uuid.UUID) (int, error) {
	var sum struct {
		Total int
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select(`COALESCE(SUM(CASE
			WHEN type = ? AND to_location_id = ? THEN quantity
			WHEN type = ? AND from_location_id = ? THEN -quantity
			WHEN type IN (?, ?) AND to_location_id = ? THEN quantity
			WHEN type = ? AND from_location_id = ? THEN quantity
			ELSE 0 END), 0) as total`,
			model.MovementTransfer, locationID,
			model.MovementTransfer, locationID,
			model.MovementReceive, model.MovementAdjust, locationID,
			model.MovementShip, locationID).
		Where("variant_id = ?", variantID).
		Scan(&sum).Error
	return sum.Total, err
}
