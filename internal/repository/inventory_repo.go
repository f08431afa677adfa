package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryFilters narrows the warehouse-facing inventory listing
type InventoryFilters struct {
	Search     string // SKU or name substring
	LocationID *uuid.UUID
	Stock      string // "all", "low", "out"
	Page       int
	Limit      int
}

const (
	StockFilterAll = "all"
	StockFilterLow = "low"
	StockFilterOut = "out"
)

// lowStockPredicate compares two columns on the same row, so it stays raw SQL
const lowStockPredicate = "inventory_records.quantity <= inventory_records.minimum OR inventory_records.quantity - inventory_records.reserved <= inventory_records.minimum"

type InventoryRepository interface {
	Create(ctx context.Context, rec *model.InventoryRecord) error
	FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*model.InventoryRecord, error)
	FindByVariant(ctx context.Context, variantID uuid.UUID) ([]model.InventoryRecord, error)
	FindMostStocked(ctx context.Context, variantID uuid.UUID) (*model.InventoryRecord, error)
	FindMostReserved(ctx context.Context, variantID uuid.UUID) (*model.InventoryRecord, error)
	TotalsByVariant(ctx context.Context, variantID uuid.UUID) (quantity, reserved int, err error)
	AddQuantity(ctx context.Context, id uuid.UUID, qty int) error
	Reserve(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	ReleaseReserved(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	Ship(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	DeductAvailable(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	SetQuantity(ctx context.Context, id uuid.UUID, qty int) error
	SetMinimum(ctx context.Context, id uuid.UUID, minimum int) error
	List(ctx context.Context, f InventoryFilters) ([]model.InventoryRecord, int64, error)
	LowStock(ctx context.Context) ([]model.InventoryRecord, error)
	CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, rec *model.InventoryRecord) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

// FindByVariantAndLocation returns nil without error when no record exists;
// callers decide whether that means lazy creation or ErrNoInventory.
func (r *inventoryRepository) FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := GetDB(ctx, r.db).
		Where("variant_id = ? AND location_id = ?", variantID, locationID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *inventoryRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := GetDB(ctx, r.db).
		Preload("Location").
		Where("variant_id = ?", variantID).
		Order("quantity desc").
		Find(&recs).Error
	return recs, err
}

// FindMostStocked picks the reservation candidate when the caller names no
// location: the record holding the most on-hand stock.
func (r *inventoryRepository) FindMostStocked(ctx context.Context, variantID uuid.UUID) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := GetDB(ctx, r.db).
		Where("variant_id = ?", variantID).
		Order("quantity desc").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *inventoryRepository) FindMostReserved(ctx context.Context, variantID uuid.UUID) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := GetDB(ctx, r.db).
		Where("variant_id = ?", variantID).
		Order("reserved desc").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *inventoryRepository) TotalsByVariant(ctx context.Context, variantID uuid.UUID) (int, int, error) {
	var sums struct {
		Quantity int
		Reserved int
	}
	err := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Select("COALESCE(SUM(quantity), 0) as quantity, COALESCE(SUM(reserved), 0) as reserved").
		Where("variant_id = ?", variantID).
		Scan(&sums).Error
	return sums.Quantity, sums.Reserved, err
}

func (r *inventoryRepository) AddQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	return GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

// Reserve folds the sufficiency check into the UPDATE itself: concurrent
// reservations cannot both pass the WHERE clause once available stock runs
// out. A false return means the guard matched zero rows.
func (r *inventoryRepository) Reserve(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ? AND quantity - reserved >= ?", id, qty).
		Update("reserved", gorm.Expr("reserved + ?", qty))
	return res.RowsAffected > 0, res.Error
}

func (r *inventoryRepository) ReleaseReserved(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ? AND reserved >= ?", id, qty).
		Update("reserved", gorm.Expr("reserved - ?", qty))
	return res.RowsAffected > 0, res.Error
}

// Ship decrements on-hand stock and clears up to qty of the reservation that
// presumably backed it. Shipping unreserved stock is tolerated; reserved
// just never goes below zero.
func (r *inventoryRepository) Ship(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity - ?", qty),
			"reserved": gorm.Expr("CASE WHEN reserved > ? THEN reserved - ? ELSE 0 END", qty, qty),
		})
	return res.RowsAffected > 0, res.Error
}

// DeductAvailable removes on-hand stock only if it is not reserved; used by
// the source side of a transfer.
func (r *inventoryRepository) DeductAvailable(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ? AND quantity - reserved >= ?", id, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	return res.RowsAffected > 0, res.Error
}

func (r *inventoryRepository) SetQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	return GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ?", id).
		Update("quantity", qty).Error
}

func (r *inventoryRepository) SetMinimum(ctx context.Context, id uuid.UUID, minimum int) error {
	return GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("id = ?", id).
		Update("minimum", minimum).Error
}

func (r *inventoryRepository) List(ctx context.Context, f InventoryFilters) ([]model.InventoryRecord, int64, error) {
	var recs []model.InventoryRecord
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Joins("JOIN variants ON variants.id = inventory_records.variant_id")

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		db = db.Where("LOWER(variants.sku) LIKE LOWER(?) OR LOWER(variants.name) LIKE LOWER(?)", pattern, pattern)
	}
	if f.LocationID != nil {
		db = db.Where("inventory_records.location_id = ?", *f.LocationID)
	}
	switch f.Stock {
	case StockFilterLow:
		db = db.Where(lowStockPredicate)
	case StockFilterOut:
		db = db.Where("inventory_records.quantity - inventory_records.reserved <= 0")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	err := db.Preload("Variant").Preload("Location").
		Order("inventory_records.updated_at desc").
		Offset(offset).Limit(f.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	return recs, total, nil
}

func (r *inventoryRepository) LowStock(ctx context.Context) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := GetDB(ctx, r.db).
		Preload("Variant").Preload("Location").
		Where(lowStockPredicate).
		Order("quantity asc").
		Find(&recs).Error
	return recs, err
}

func (r *inventoryRepository) CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.InventoryRecord{}).
		Where("location_id = ?", locationID).
		Count(&count).Error
	return count, err
}
