package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type ReceiveRequest struct {
	VariantID      string `json:"variant_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	ToLocationID   string `json:"to_location_id"`
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type ShipRequest struct {
	VariantID      string `json:"variant_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	FromLocationID string `json:"from_location_id"`
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type ReserveRequest struct {
	VariantID      string `json:"variant_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	ToLocationID   string `json:"to_location_id"` // optional: picks the fullest record when empty
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type ReleaseRequest struct {
	VariantID      string `json:"variant_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	FromLocationID string `json:"from_location_id"` // optional: picks the most reserved record when empty
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type TransferRequest struct {
	VariantID      string `json:"variant_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type AdjustRequest struct {
	VariantID      string `json:"variant_id" binding:"required"`
	ToLocationID   string `json:"to_location_id"`
	NewQuantity    int    `json:"new_quantity" binding:"gte=0"`
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type SetMinimumRequest struct {
	VariantID  string `json:"variant_id" binding:"required"`
	LocationID string `json:"location_id" binding:"required"`
	Minimum    int    `json:"minimum" binding:"gte=0"`
}

type StockRecordResponse struct {
	ID           string `json:"id"`
	VariantID    string `json:"variant_id"`
	LocationID   string `json:"location_id"`
	LocationCode string `json:"location_code,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	Quantity     int    `json:"quantity"`
	Reserved     int    `json:"reserved"`
	Available    int    `json:"available"`
	Minimum      int    `json:"minimum"`
}

type TotalStockResponse struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}

type MovementResponse struct {
	ID             string `json:"id"`
	VariantID      string `json:"variant_id"`
	Type           string `json:"type"`
	Quantity       int    `json:"quantity"`
	FromLocationID string `json:"from_location_id,omitempty"`
	ToLocationID   string `json:"to_location_id,omitempty"`
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
	ActorID        string `json:"actor_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type LowStockItem struct {
	VariantID    string `json:"variant_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	LocationID   string `json:"location_id"`
	LocationCode string `json:"location_code"`
	LocationName string `json:"location_name"`
	Quantity     int    `json:"quantity"`
	Reserved     int    `json:"reserved"`
	Available    int    `json:"available"`
	Minimum      int    `json:"minimum"`
}

type InventoryListItem struct {
	VariantID    string `json:"variant_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	LocationID   string `json:"location_id"`
	LocationCode string `json:"location_code"`
	LocationName string `json:"location_name"`
	Quantity     int    `json:"quantity"`
	Reserved     int    `json:"reserved"`
	Available    int    `json:"available"`
	Minimum      int    `json:"minimum"`
	StockValue   string `json:"stock_value"` // price * quantity
}

type VariantStockResponse struct {
	ID        string                `json:"id"`
	SKU       string                `json:"sku"`
	Name      string                `json:"name"`
	Price     string                `json:"price"`
	Quantity  int                   `json:"quantity"`
	Reserved  int                   `json:"reserved"`
	Available int                   `json:"available"`
	Stock     []StockRecordResponse `json:"stock"`
}

// Websocket Payload
type InventoryEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

type InventoryQuery struct {
	Search     string
	LocationID string
	Stock      string // "all", "low", "out"
	Page       int
	Limit      int
}

type InventoryService interface {
	GetStock(ctx context.Context, variantID, locationID string) ([]StockRecordResponse, error)
	GetTotalAvailableStock(ctx context.Context, variantID string) (TotalStockResponse, error)
	Receive(ctx context.Context, userID string, req ReceiveRequest) (MovementResponse, error)
	Ship(ctx context.Context, userID string, req ShipRequest) (MovementResponse, error)
	Reserve(ctx context.Context, userID string, req ReserveRequest) (MovementResponse, error)
	Release(ctx context.Context, userID string, req ReleaseRequest) (MovementResponse, error)
	Transfer(ctx context.Context, userID string, req TransferRequest) (MovementResponse, error)
	Adjust(ctx context.Context, userID string, req AdjustRequest) (MovementResponse, error)
	SetMinimumStock(ctx context.Context, req SetMinimumRequest) (StockRecordResponse, error)
	GetLowStock(ctx context.Context) ([]LowStockItem, error)
	GetMovementHistory(ctx context.Context, variantID string, page, limit int) ([]MovementResponse, int64, error)
	GetAllInventory(ctx context.Context, q InventoryQuery) ([]InventoryListItem, int64, error)
	GetVariantsForInventory(ctx context.Context, search string) ([]VariantStockResponse, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	movementRepo  repository.MovementRepository
	variantRepo   repository.VariantRepository
	locationRepo  repository.LocationRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	movementRepo repository.MovementRepository,
	variantRepo repository.VariantRepository,
	locationRepo repository.LocationRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		variantRepo:   variantRepo,
		locationRepo:  locationRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

func (s *inventoryService) GetStock(ctx context.Context, variantID, locationID string) ([]StockRecordResponse, error) {
	vid, err := uuid.Parse(variantID)
	if err != nil {
		return nil, fmt.Errorf("invalid variant id: %w", err)
	}

	if locationID != "" {
		lid, err := uuid.Parse(locationID)
		if err != nil {
			return nil, fmt.Errorf("invalid location id: %w", err)
		}
		rec, err := s.inventoryRepo.FindByVariantAndLocation(ctx, vid, lid)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return []StockRecordResponse{}, nil
		}
		return []StockRecordResponse{toStockRecordResponse(rec)}, nil
	}

	recs, err := s.inventoryRepo.FindByVariant(ctx, vid)
	if err != nil {
		return nil, err
	}

	res := make([]StockRecordResponse, 0, len(recs))
	for i := range recs {
		res = append(res, toStockRecordResponse(&recs[i]))
	}
	return res, nil
}

func (s *inventoryService) GetTotalAvailableStock(ctx context.Context, variantID string) (TotalStockResponse, error) {
	vid, err := uuid.Parse(variantID)
	if err != nil {
		return TotalStockResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}

	quantity, reserved, err := s.inventoryRepo.TotalsByVariant(ctx, vid)
	if err != nil {
		return TotalStockResponse{}, err
	}

	return TotalStockResponse{
		VariantID: variantID,
		Quantity:  quantity,
		Reserved:  reserved,
		Available: quantity - reserved,
	}, nil
}

func (s *inventoryService) Receive(ctx context.Context, userID string, req ReceiveRequest) (MovementResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return MovementResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	toID, err := requireLocation(req.ToLocationID)
	if err != nil {
		return MovementResponse{}, err
	}
	if err := s.checkLocation(ctx, toID); err != nil {
		return MovementResponse{}, err
	}

	var movement *model.StockMovement
	replayed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, replayErr := s.replay(txCtx, req.IdempotencyKey, model.MovementReceive); replayErr != nil {
			return replayErr
		} else if existing != nil {
			movement, replayed = existing, true
			return nil
		}

		rec, err := s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, toID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &model.InventoryRecord{VariantID: vid, LocationID: toID, Quantity: req.Quantity}
			if err := s.inventoryRepo.Create(txCtx, rec); err != nil {
				return fmt.Errorf("failed to create inventory record: %w", err)
			}
		} else if err := s.inventoryRepo.AddQuantity(txCtx, rec.ID, req.Quantity); err != nil {
			return fmt.Errorf("failed to increment stock: %w", err)
		}

		movement = &model.StockMovement{
			VariantID:      vid,
			Type:           model.MovementReceive,
			Quantity:       req.Quantity,
			ToLocationID:   &toID,
			Reference:      req.Reference,
			Notes:          req.Notes,
			IdempotencyKey: optionalKey(req.IdempotencyKey),
			ActorID:        parseActor(userID),
		}
		return s.movementRepo.Create(txCtx, movement)
	})
	if err != nil {
		return MovementResponse{}, err
	}

	if !replayed {
		s.broadcast("stock.changed", movement)
	}
	return toMovementResponse(movement), nil
}

func (s *inventoryService) Ship(ctx context.Context, userID string, req ShipRequest) (MovementResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return MovementResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	fromID, err := requireLocation(req.FromLocationID)
	if err != nil {
		return MovementResponse{}, err
	}

	var movement *model.StockMovement
	replayed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, replayErr := s.replay(txCtx, req.IdempotencyKey, model.MovementShip); replayErr != nil {
			return replayErr
		} else if existing != nil {
			movement, replayed = existing, true
			return nil
		}

		rec, err := s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, fromID)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrNoInventory
		}

		ok, err := s.inventoryRepo.Ship(txCtx, rec.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}

		movement = &model.StockMovement{
			VariantID:      vid,
			Type:           model.MovementShip,
			Quantity:       -req.Quantity,
			FromLocationID: &fromID,
			Reference:      req.Reference,
			Notes:          req.Notes,
			IdempotencyKey: optionalKey(req.IdempotencyKey),
			ActorID:        parseActor(userID),
		}
		return s.movementRepo.Create(txCtx, movement)
	})
	if err != nil {
		return MovementResponse{}, err
	}

	if !replayed {
		s.broadcast("stock.changed", movement)
		s.alertIfLow(ctx, vid, fromID)
	}
	return toMovementResponse(movement), nil
}

func (s *inventoryService) Reserve(ctx context.Context, userID string, req ReserveRequest) (MovementResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return MovementResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	toID, err := optionalLocation(req.ToLocationID)
	if err != nil {
		return MovementResponse{}, err
	}

	var movement *model.StockMovement
	var lockedLocation uuid.UUID
	replayed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, replayErr := s.replay(txCtx, req.IdempotencyKey, model.MovementReserve); replayErr != nil {
			return replayErr
		} else if existing != nil {
			movement, replayed = existing, true
			return nil
		}

		var rec *model.InventoryRecord
		var err error
		if toID != nil {
			rec, err = s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, *toID)
		} else {
			// No target location: hold against the fullest record to keep
			// reservations from fragmenting across bins.
			rec, err = s.inventoryRepo.FindMostStocked(txCtx, vid)
		}
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrNoInventory
		}

		ok, err := s.inventoryRepo.Reserve(txCtx, rec.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}
		lockedLocation = rec.LocationID

		movement = &model.StockMovement{
			VariantID:      vid,
			Type:           model.MovementReserve,
			Quantity:       -req.Quantity,
			ToLocationID:   &rec.LocationID,
			Reference:      req.Reference,
			Notes:          req.Notes,
			IdempotencyKey: optionalKey(req.IdempotencyKey),
			ActorID:        parseActor(userID),
		}
		return s.movementRepo.Create(txCtx, movement)
	})
	if err != nil {
		return MovementResponse{}, err
	}

	if !replayed {
		s.broadcast("stock.changed", movement)
		s.alertIfLow(ctx, vid, lockedLocation)
	}
	return toMovementResponse(movement), nil
}

func (s *inventoryService) Release(ctx context.Context, userID string, req ReleaseRequest) (MovementResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return MovementResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	fromID, err := optionalLocation(req.FromLocationID)
	if err != nil {
		return MovementResponse{}, err
	}

	var movement *model.StockMovement
	replayed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, replayErr := s.replay(txCtx, req.IdempotencyKey, model.MovementRelease); replayErr != nil {
			return replayErr
		} else if existing != nil {
			movement, replayed = existing, true
			return nil
		}

		var rec *model.InventoryRecord
		var err error
		if fromID != nil {
			rec, err = s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, *fromID)
		} else {
			rec, err = s.inventoryRepo.FindMostReserved(txCtx, vid)
		}
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrNoInventory
		}

		ok, err := s.inventoryRepo.ReleaseReserved(txCtx, rec.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOverRelease
		}

		movement = &model.StockMovement{
			VariantID:      vid,
			Type:           model.MovementRelease,
			Quantity:       req.Quantity,
			FromLocationID: &rec.LocationID,
			Reference:      req.Reference,
			Notes:          req.Notes,
			IdempotencyKey: optionalKey(req.IdempotencyKey),
			ActorID:        parseActor(userID),
		}
		return s.movementRepo.Create(txCtx, movement)
	})
	if err != nil {
		return MovementResponse{}, err
	}

	if !replayed {
		s.broadcast("stock.changed", movement)
	}
	return toMovementResponse(movement), nil
}

func (s *inventoryService) Transfer(ctx context.Context, userID string, req TransferRequest) (MovementResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return MovementResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	fromID, err := requireLocation(req.FromLocationID)
	if err != nil {
		return MovementResponse{}, err
	}
	toID, err := requireLocation(req.ToLocationID)
	if err != nil {
		return MovementResponse{}, err
	}
	if fromID == toID {
		return MovementResponse{}, ErrSameLocation
	}
	if err := s.checkLocation(ctx, toID); err != nil {
		return MovementResponse{}, err
	}

	var movement *model.StockMovement
	replayed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, replayErr := s.replay(txCtx, req.IdempotencyKey, model.MovementTransfer); replayErr != nil {
			return replayErr
		} else if existing != nil {
			movement, replayed = existing, true
			return nil
		}

		src, err := s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, fromID)
		if err != nil {
			return err
		}
		if src == nil {
			return ErrNoInventory
		}

		// Reserved stock stays put: only quantity - reserved may move.
		ok, err := s.inventoryRepo.DeductAvailable(txCtx, src.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}

		dst, err := s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, toID)
		if err != nil {
			return err
		}
		if dst == nil {
			dst = &model.InventoryRecord{VariantID: vid, LocationID: toID, Quantity: req.Quantity}
			if err := s.inventoryRepo.Create(txCtx, dst); err != nil {
				return fmt.Errorf("failed to create destination record: %w", err)
			}
		} else if err := s.inventoryRepo.AddQuantity(txCtx, dst.ID, req.Quantity); err != nil {
			return fmt.Errorf("failed to increment destination stock: %w", err)
		}

		movement = &model.StockMovement{
			VariantID:      vid,
			Type:           model.MovementTransfer,
			Quantity:       req.Quantity,
			FromLocationID: &fromID,
			ToLocationID:   &toID,
			Reference:      req.Reference,
			Notes:          req.Notes,
			IdempotencyKey: optionalKey(req.IdempotencyKey),
			ActorID:        parseActor(userID),
		}
		return s.movementRepo.Create(txCtx, movement)
	})
	if err != nil {
		return MovementResponse{}, err
	}

	if !replayed {
		s.broadcast("stock.changed", movement)
		s.alertIfLow(ctx, vid, fromID)
	}
	return toMovementResponse(movement), nil
}

// Adjust is the stock-take correction: the only operation allowed to set
// quantity directly. Reserved is untouched.
func (s *inventoryService) Adjust(ctx context.Context, userID string, req AdjustRequest) (MovementResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return MovementResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	toID, err := requireLocation(req.ToLocationID)
	if err != nil {
		return MovementResponse{}, err
	}
	if req.NewQuantity < 0 {
		return MovementResponse{}, fmt.Errorf("new quantity must not be negative")
	}
	if err := s.checkLocation(ctx, toID); err != nil {
		return MovementResponse{}, err
	}

	var movement *model.StockMovement
	replayed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, replayErr := s.replay(txCtx, req.IdempotencyKey, model.MovementAdjust); replayErr != nil {
			return replayErr
		} else if existing != nil {
			movement, replayed = existing, true
			return nil
		}

		rec, err := s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, toID)
		if err != nil {
			return err
		}

		oldQuantity := 0
		if rec == nil {
			rec = &model.InventoryRecord{VariantID: vid, LocationID: toID, Quantity: req.NewQuantity}
			if err := s.inventoryRepo.Create(txCtx, rec); err != nil {
				return fmt.Errorf("failed to create inventory record: %w", err)
			}
		} else {
			oldQuantity = rec.Quantity
			if err := s.inventoryRepo.SetQuantity(txCtx, rec.ID, req.NewQuantity); err != nil {
				return fmt.Errorf("failed to set quantity: %w", err)
			}
		}

		movement = &model.StockMovement{
			VariantID:      vid,
			Type:           model.MovementAdjust,
			Quantity:       req.NewQuantity - oldQuantity,
			ToLocationID:   &toID,
			Reference:      req.Reference,
			Notes:          req.Notes,
			IdempotencyKey: optionalKey(req.IdempotencyKey),
			ActorID:        parseActor(userID),
		}
		return s.movementRepo.Create(txCtx, movement)
	})
	if err != nil {
		return MovementResponse{}, err
	}

	if !replayed {
		s.broadcast("stock.changed", movement)
		s.alertIfLow(ctx, vid, toID)
	}
	return toMovementResponse(movement), nil
}

func (s *inventoryService) SetMinimumStock(ctx context.Context, req SetMinimumRequest) (StockRecordResponse, error) {
	vid, err := uuid.Parse(req.VariantID)
	if err != nil {
		return StockRecordResponse{}, fmt.Errorf("invalid variant id: %w", err)
	}
	lid, err := requireLocation(req.LocationID)
	if err != nil {
		return StockRecordResponse{}, err
	}

	var rec *model.InventoryRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.inventoryRepo.FindByVariantAndLocation(txCtx, vid, lid)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &model.InventoryRecord{VariantID: vid, LocationID: lid, Minimum: req.Minimum}
			return s.inventoryRepo.Create(txCtx, rec)
		}
		rec.Minimum = req.Minimum
		return s.inventoryRepo.SetMinimum(txCtx, rec.ID, req.Minimum)
	})
	if err != nil {
		return StockRecordResponse{}, err
	}

	return toStockRecordResponse(rec), nil
}

func (s *inventoryService) GetLowStock(ctx context.Context) ([]LowStockItem, error) {
	recs, err := s.inventoryRepo.LowStock(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]LowStockItem, 0, len(recs))
	for _, rec := range recs {
		res = append(res, LowStockItem{
			VariantID:    rec.VariantID.String(),
			SKU:          rec.Variant.SKU,
			Name:         rec.Variant.Name,
			LocationID:   rec.LocationID.String(),
			LocationCode: rec.Location.Code,
			LocationName: rec.Location.Name,
			Quantity:     rec.Quantity,
			Reserved:     rec.Reserved,
			Available:    rec.Available(),
			Minimum:      rec.Minimum,
		})
	}
	return res, nil
}

func (s *inventoryService) GetMovementHistory(ctx context.Context, variantID string, page, limit int) ([]MovementResponse, int64, error) {
	vid, err := uuid.Parse(variantID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid variant id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	movements, total, err := s.movementRepo.ListByVariant(ctx, vid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toMovementResponse(&movements[i]))
	}
	return res, total, nil
}

func (s *inventoryService) GetAllInventory(ctx context.Context, q InventoryQuery) ([]InventoryListItem, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Stock == "" {
		q.Stock = repository.StockFilterAll
	}

	filters := repository.InventoryFilters{
		Search: q.Search,
		Stock:  q.Stock,
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if q.LocationID != "" {
		lid, err := uuid.Parse(q.LocationID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid location id: %w", err)
		}
		filters.LocationID = &lid
	}

	recs, total, err := s.inventoryRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InventoryListItem, 0, len(recs))
	for _, rec := range recs {
		value := rec.Variant.Price.Mul(decimal.NewFromInt(int64(rec.Quantity)))
		res = append(res, InventoryListItem{
			VariantID:    rec.VariantID.String(),
			SKU:          rec.Variant.SKU,
			Name:         rec.Variant.Name,
			Price:        rec.Variant.Price.StringFixed(2),
			LocationID:   rec.LocationID.String(),
			LocationCode: rec.Location.Code,
			LocationName: rec.Location.Name,
			Quantity:     rec.Quantity,
			Reserved:     rec.Reserved,
			Available:    rec.Available(),
			Minimum:      rec.Minimum,
			StockValue:   value.StringFixed(2),
		})
	}
	return res, total, nil
}

func (s *inventoryService) GetVariantsForInventory(ctx context.Context, search string) ([]VariantStockResponse, error) {
	variants, err := s.variantRepo.Search(ctx, search, 20)
	if err != nil {
		return nil, err
	}

	res := make([]VariantStockResponse, 0, len(variants))
	for _, v := range variants {
		recs, err := s.inventoryRepo.FindByVariant(ctx, v.ID)
		if err != nil {
			return nil, err
		}

		item := VariantStockResponse{
			ID:    v.ID.String(),
			SKU:   v.SKU,
			Name:  v.Name,
			Price: v.Price.StringFixed(2),
			Stock: make([]StockRecordResponse, 0, len(recs)),
		}
		for i := range recs {
			item.Quantity += recs[i].Quantity
			item.Reserved += recs[i].Reserved
			item.Stock = append(item.Stock, toStockRecordResponse(&recs[i]))
		}
		item.Available = item.Quantity - item.Reserved
		res = append(res, item)
	}
	return res, nil
}

// replay looks up a prior movement for the caller's idempotency key so a
// retried request does not double-apply a quantity mutation.
func (s *inventoryService) replay(ctx context.Context, key, movementType string) (*model.StockMovement, error) {
	if key == "" {
		return nil, nil
	}
	return s.movementRepo.FindByIdempotencyKey(ctx, key, movementType)
}

func (s *inventoryService) checkLocation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.locationRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocationNotFound
		}
		return err
	}
	return nil
}

func (s *inventoryService) broadcast(event string, movement *model.StockMovement) {
	if s.hub == nil {
		return
	}
	payload := InventoryEvent{
		Event: event,
		Data: map[string]interface{}{
			"movement_id": movement.ID.String(),
			"variant_id":  movement.VariantID.String(),
			"type":        movement.Type,
			"quantity":    movement.Quantity,
			"reference":   movement.Reference,
		},
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Println("failed to marshal inventory event:", err)
		return
	}
	s.hub.Broadcast <- msg
}

// alertIfLow pushes a stock.low event after a committed mutation dropped a
// record to or below its reorder threshold.
func (s *inventoryService) alertIfLow(ctx context.Context, variantID, locationID uuid.UUID) {
	if s.hub == nil {
		return
	}
	rec, err := s.inventoryRepo.FindByVariantAndLocation(ctx, variantID, locationID)
	if err != nil || rec == nil {
		return
	}
	if rec.Quantity > rec.Minimum && rec.Available() > rec.Minimum {
		return
	}
	payload := InventoryEvent{
		Event: "stock.low",
		Data: map[string]interface{}{
			"variant_id":  variantID.String(),
			"location_id": locationID.String(),
			"quantity":    rec.Quantity,
			"available":   rec.Available(),
			"minimum":     rec.Minimum,
		},
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.hub.Broadcast <- msg
}

func toStockRecordResponse(rec *model.InventoryRecord) StockRecordResponse {
	res := StockRecordResponse{
		ID:         rec.ID.String(),
		VariantID:  rec.VariantID.String(),
		LocationID: rec.LocationID.String(),
		Quantity:   rec.Quantity,
		Reserved:   rec.Reserved,
		Available:  rec.Available(),
		Minimum:    rec.Minimum,
	}
	if rec.Location.ID != uuid.Nil {
		res.LocationCode = rec.Location.Code
		res.LocationName = rec.Location.Name
	}
	return res
}

func toMovementResponse(m *model.StockMovement) MovementResponse {
	res := MovementResponse{
		ID:        m.ID.String(),
		VariantID: m.VariantID.String(),
		Type:      m.Type,
		Quantity:  m.Quantity,
		Reference: m.Reference,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if m.FromLocationID != nil {
		res.FromLocationID = m.FromLocationID.String()
	}
	if m.ToLocationID != nil {
		res.ToLocationID = m.ToLocationID.String()
	}
	if m.ActorID != nil {
		res.ActorID = m.ActorID.String()
	}
	return res
}

func requireLocation(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.Nil, ErrMissingLocation
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid location id: %w", err)
	}
	return parsed, nil
}

func optionalLocation(id string) (*uuid.UUID, error) {
	if id == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid location id: %w", err)
	}
	return &parsed, nil
}

func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

func parseActor(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
