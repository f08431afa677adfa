package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository interface {
	Create(ctx context.Context, location *model.Location) error
	Update(ctx context.Context, location *model.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	FindByCode(ctx context.Context, code string) (*model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
	Roots(ctx context.Context) ([]model.Location, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, location *model.Location) error {
	return GetDB(ctx, r.db).Create(location).Error
}

func (r *locationRepository) Update(ctx context.Context, location *model.Location) error {
	return GetDB(ctx, r.db).Save(location).Error
}

func (r *locationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Location{}).Error
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var location model.Location
	if err := GetDB(ctx, r.db).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *locationRepository) FindByCode(ctx context.Context, code string) (*model.Location, error) {
	var location model.Location
	err := GetDB(ctx, r.db).Where("code = ?", code).First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

func (r *locationRepository) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := GetDB(ctx, r.db).Preload("Parent").Order("code asc").Find(&locations).Error
	return locations, err
}

// Roots returns top-level locations with the whole subtree preloaded. The
// hierarchy is at most four levels deep (warehouse -> zone -> shelf -> bin).
func (r *locationRepository) Roots(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := GetDB(ctx, r.db).
		Preload("Children.Children.Children").
		Where("parent_id IS NULL").
		Order("code asc").
		Find(&locations).Error
	return locations, err
}

func (r *locationRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Location{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}
