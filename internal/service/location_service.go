package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxLocationDepth bounds the ancestor walk; the hierarchy is
// warehouse -> zone -> shelf -> bin, so anything deeper is corrupt data.
const maxLocationDepth = 16

// DTOs
type CreateLocationRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Type     string `json:"type" binding:"required"`
	ParentID string `json:"parent_id"`
}

type UpdateLocationRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	ParentID string `json:"parent_id"`
}

type LocationResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Code       string             `json:"code"`
	Type       string             `json:"type"`
	ParentID   string             `json:"parent_id,omitempty"`
	ParentCode string             `json:"parent_code,omitempty"`
	Children   []LocationResponse `json:"children,omitempty"`
}

type LocationService interface {
	Create(ctx context.Context, req CreateLocationRequest) (LocationResponse, error)
	Update(ctx context.Context, id string, req UpdateLocationRequest) (LocationResponse, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]LocationResponse, error)
	Tree(ctx context.Context) ([]LocationResponse, error)
}

type locationService struct {
	locationRepo  repository.LocationRepository
	inventoryRepo repository.InventoryRepository
	txManager     repository.TransactionManager
}

func NewLocationService(
	locationRepo repository.LocationRepository,
	inventoryRepo repository.InventoryRepository,
	txManager repository.TransactionManager,
) LocationService {
	return &locationService{
		locationRepo:  locationRepo,
		inventoryRepo: inventoryRepo,
		txManager:     txManager,
	}
}

func (s *locationService) Create(ctx context.Context, req CreateLocationRequest) (LocationResponse, error) {
	if !model.ValidLocationType(req.Type) {
		return LocationResponse{}, fmt.Errorf("invalid location type: %s", req.Type)
	}

	existing, err := s.locationRepo.FindByCode(ctx, req.Code)
	if err != nil {
		return LocationResponse{}, err
	}
	if existing != nil {
		return LocationResponse{}, fmt.Errorf("location code already in use: %s", req.Code)
	}

	location := model.Location{
		Name: req.Name,
		Code: req.Code,
		Type: req.Type,
	}
	if req.ParentID != "" {
		pid, err := uuid.Parse(req.ParentID)
		if err != nil {
			return LocationResponse{}, fmt.Errorf("invalid parent id: %w", err)
		}
		if _, err := s.locationRepo.FindByID(ctx, pid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return LocationResponse{}, ErrLocationNotFound
			}
			return LocationResponse{}, err
		}
		location.ParentID = &pid
	}

	if err := s.locationRepo.Create(ctx, &location); err != nil {
		return LocationResponse{}, fmt.Errorf("failed to create location: %w", err)
	}

	return toLocationResponse(&location), nil
}

func (s *locationService) Update(ctx context.Context, id string, req UpdateLocationRequest) (LocationResponse, error) {
	lid, err := uuid.Parse(id)
	if err != nil {
		return LocationResponse{}, fmt.Errorf("invalid location id: %w", err)
	}

	location, err := s.locationRepo.FindByID(ctx, lid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LocationResponse{}, ErrLocationNotFound
		}
		return LocationResponse{}, err
	}

	if req.Code != location.Code {
		existing, err := s.locationRepo.FindByCode(ctx, req.Code)
		if err != nil {
			return LocationResponse{}, err
		}
		if existing != nil && existing.ID != lid {
			return LocationResponse{}, fmt.Errorf("location code already in use: %s", req.Code)
		}
	}

	location.Name = req.Name
	location.Code = req.Code

	if req.ParentID == "" {
		location.ParentID = nil
	} else {
		pid, err := uuid.Parse(req.ParentID)
		if err != nil {
			return LocationResponse{}, fmt.Errorf("invalid parent id: %w", err)
		}
		if err := s.checkCycle(ctx, lid, pid); err != nil {
			return LocationResponse{}, err
		}
		location.ParentID = &pid
	}

	if err := s.locationRepo.Update(ctx, location); err != nil {
		return LocationResponse{}, fmt.Errorf("failed to update location: %w", err)
	}

	return toLocationResponse(location), nil
}

// Delete refuses while the location still owns child locations or inventory
// records, so ledger rows never dangle.
func (s *locationService) Delete(ctx context.Context, id string) error {
	lid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid location id: %w", err)
	}

	if _, err := s.locationRepo.FindByID(ctx, lid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocationNotFound
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		children, err := s.locationRepo.CountChildren(txCtx, lid)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrLocationInUse
		}

		records, err := s.inventoryRepo.CountByLocation(txCtx, lid)
		if err != nil {
			return err
		}
		if records > 0 {
			return ErrLocationInUse
		}

		return s.locationRepo.Delete(txCtx, lid)
	})
}

func (s *locationService) List(ctx context.Context) ([]LocationResponse, error) {
	locations, err := s.locationRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]LocationResponse, 0, len(locations))
	for i := range locations {
		res = append(res, toLocationResponse(&locations[i]))
	}
	return res, nil
}

func (s *locationService) Tree(ctx context.Context) ([]LocationResponse, error) {
	roots, err := s.locationRepo.Roots(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]LocationResponse, 0, len(roots))
	for i := range roots {
		res = append(res, toLocationResponse(&roots[i]))
	}
	return res, nil
}

// checkCycle walks up from the proposed parent; finding the node itself on
// that path means the assignment would close a loop.
func (s *locationService) checkCycle(ctx context.Context, id, parentID uuid.UUID) error {
	if id == parentID {
		return ErrLocationCycle
	}

	current := parentID
	for depth := 0; depth < maxLocationDepth; depth++ {
		node, err := s.locationRepo.FindByID(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		if *node.ParentID == id {
			return ErrLocationCycle
		}
		current = *node.ParentID
	}
	return ErrLocationCycle
}

func toLocationResponse(location *model.Location) LocationResponse {
	res := LocationResponse{
		ID:   location.ID.String(),
		Name: location.Name,
		Code: location.Code,
		Type: location.Type,
	}
	if location.ParentID != nil {
		res.ParentID = location.ParentID.String()
	}
	if location.Parent != nil {
		res.ParentCode = location.Parent.Code
	}
	for i := range location.Children {
		res.Children = append(res.Children, toLocationResponse(&location.Children[i]))
	}
	return res
}
