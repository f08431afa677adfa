package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	svc       InventoryService
	records   repository.InventoryRepository
	movements repository.MovementRepository
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	records := repository.NewInventoryRepository(db)
	movements := repository.NewMovementRepository(db)
	svc := NewInventoryService(
		records,
		movements,
		repository.NewVariantRepository(db),
		repository.NewLocationRepository(db),
		repository.NewTransactionManager(db),
		nil,
	)

	return &testEnv{db: db, svc: svc, records: records, movements: movements}
}

func (e *testEnv) createVariant(t *testing.T, sku, name, price string) *model.Variant {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	v := &model.Variant{SKU: sku, Name: name, Price: p}
	require.NoError(t, e.db.Create(v).Error)
	return v
}

func (e *testEnv) createLocation(t *testing.T, code, locType string) *model.Location {
	t.Helper()
	l := &model.Location{Name: "Location " + code, Code: code, Type: locType}
	require.NoError(t, e.db.Create(l).Error)
	return l
}

func (e *testEnv) record(t *testing.T, variantID, locationID uuid.UUID) *model.InventoryRecord {
	t.Helper()
	rec, err := e.records.FindByVariantAndLocation(context.Background(), variantID, locationID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func (e *testEnv) movementCount(t *testing.T, variantID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.StockMovement{}).Where("variant_id = ?", variantID).Count(&count).Error)
	return count
}

// checkInvariants asserts 0 <= reserved <= quantity on every record.
func checkInvariants(t *testing.T, db *gorm.DB) {
	t.Helper()
	var recs []model.InventoryRecord
	require.NoError(t, db.Find(&recs).Error)
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.Quantity, 0, "quantity must never go negative")
		assert.GreaterOrEqual(t, r.Reserved, 0, "reserved must never go negative")
		assert.LessOrEqual(t, r.Reserved, r.Quantity, "reserved must never exceed quantity")
	}
}

func TestReceive_CreatesRecordAndMovement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "9.99")
	loc := env.createLocation(t, "WH-A", model.LocationTypeWarehouse)

	movement, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID:    v.ID.String(),
		Quantity:     30,
		ToLocationID: loc.ID.String(),
		Reference:    "GRN-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovementReceive, movement.Type)
	assert.Equal(t, 30, movement.Quantity)
	assert.Equal(t, "GRN-1001", movement.Reference)

	rec := env.record(t, v.ID, loc.ID)
	assert.Equal(t, 30, rec.Quantity)
	assert.Equal(t, 0, rec.Reserved)
	assert.Equal(t, 0, rec.Minimum)
	checkInvariants(t, env.db)
}

func TestReceive_MissingLocation(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")

	_, err := env.svc.Receive(context.Background(), "", ReceiveRequest{
		VariantID: v.ID.String(),
		Quantity:  5,
	})
	assert.ErrorIs(t, err, ErrMissingLocation)
	assert.Zero(t, env.movementCount(t, v.ID))
}

func TestReceive_UnknownLocation(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")

	_, err := env.svc.Receive(context.Background(), "", ReceiveRequest{
		VariantID:    v.ID.String(),
		Quantity:     5,
		ToLocationID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

// The end-to-end scenario from the warehouse playbook: receive, reserve,
// release, ship, transfer, adjust, verifying quantities at each step.
func TestStockLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-V1", "Gadget", "25.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 30, ToLocationID: locA.ID.String(),
	})
	require.NoError(t, err)
	rec := env.record(t, v.ID, locA.ID)
	assert.Equal(t, 30, rec.Quantity)
	assert.Equal(t, 0, rec.Reserved)

	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 5, ToLocationID: locA.ID.String(),
	})
	require.NoError(t, err)
	rec = env.record(t, v.ID, locA.ID)
	assert.Equal(t, 5, rec.Reserved)
	assert.Equal(t, 25, rec.Available())

	_, err = env.svc.Release(ctx, "", ReleaseRequest{
		VariantID: v.ID.String(), Quantity: 5, FromLocationID: locA.ID.String(),
	})
	require.NoError(t, err)
	rec = env.record(t, v.ID, locA.ID)
	assert.Equal(t, 0, rec.Reserved)
	assert.Equal(t, 30, rec.Available())

	_, err = env.svc.Ship(ctx, "", ShipRequest{
		VariantID: v.ID.String(), Quantity: 10, FromLocationID: locA.ID.String(),
	})
	require.NoError(t, err)
	rec = env.record(t, v.ID, locA.ID)
	assert.Equal(t, 20, rec.Quantity)
	assert.Equal(t, 0, rec.Reserved)

	_, err = env.svc.Transfer(ctx, "", TransferRequest{
		VariantID: v.ID.String(), Quantity: 5,
		FromLocationID: locA.ID.String(), ToLocationID: locB.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, env.record(t, v.ID, locA.ID).Quantity)
	assert.Equal(t, 5, env.record(t, v.ID, locB.ID).Quantity)

	total, err := env.svc.GetTotalAvailableStock(ctx, v.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 20, total.Quantity, "transfer must conserve total on-hand stock")

	adjust, err := env.svc.Adjust(ctx, "", AdjustRequest{
		VariantID: v.ID.String(), ToLocationID: locA.ID.String(),
		NewQuantity: 12, Reference: "count",
	})
	require.NoError(t, err)
	assert.Equal(t, -3, adjust.Quantity)
	assert.Equal(t, 12, env.record(t, v.ID, locA.ID).Quantity)

	checkInvariants(t, env.db)
}

func TestReserve_InsufficientStockLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	before := env.movementCount(t, v.ID)

	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 11, ToLocationID: loc.ID.String(),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	rec := env.record(t, v.ID, loc.ID)
	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, 0, rec.Reserved)
	assert.Equal(t, before, env.movementCount(t, v.ID), "failed reserve must not append to the ledger")
}

func TestReserve_NoInventory(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")

	_, err := env.svc.Reserve(context.Background(), "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrNoInventory)
}

func TestReserve_PicksFullestLocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	for loc, qty := range map[*model.Location]int{locA: 3, locB: 50} {
		_, err := env.svc.Receive(ctx, "", ReceiveRequest{
			VariantID: v.ID.String(), Quantity: qty, ToLocationID: loc.ID.String(),
		})
		require.NoError(t, err)
	}

	_, err := env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, env.record(t, v.ID, locB.ID).Reserved)
	assert.Equal(t, 0, env.record(t, v.ID, locA.ID).Reserved)
}

// N requests against (N-1)*q of available stock: exactly one must fail,
// regardless of interleaving. The guard lives in the conditional UPDATE.
func TestReserve_NeverOversells(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	const n, q = 5, 10
	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: (n - 1) * q, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	failures := 0
	for i := 0; i < n; i++ {
		_, err := env.svc.Reserve(ctx, "", ReserveRequest{
			VariantID: v.ID.String(), Quantity: q, ToLocationID: loc.ID.String(),
		})
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientStock)
			failures++
		}
	}

	assert.Equal(t, 1, failures)
	rec := env.record(t, v.ID, loc.ID)
	assert.Equal(t, (n-1)*q, rec.Reserved)
	checkInvariants(t, env.db)
}

func TestRelease_OverRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 4, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Release(ctx, "", ReleaseRequest{
		VariantID: v.ID.String(), Quantity: 5, FromLocationID: loc.ID.String(),
	})
	assert.ErrorIs(t, err, ErrOverRelease)
	assert.Equal(t, 4, env.record(t, v.ID, loc.ID).Reserved)
}

func TestRelease_NoInventory(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")

	_, err := env.svc.Release(context.Background(), "", ReleaseRequest{
		VariantID: v.ID.String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrNoInventory)
}

func TestShip_RoundTripReturnsToZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.Ship(ctx, "", ShipRequest{
		VariantID: v.ID.String(), Quantity: 10, FromLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, env.record(t, v.ID, loc.ID).Quantity)
}

// Shipping more than was reserved is tolerated: reserved drops to zero
// instead of going negative.
func TestShip_ClampsReserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 3, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Ship(ctx, "", ShipRequest{
		VariantID: v.ID.String(), Quantity: 8, FromLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	rec := env.record(t, v.ID, loc.ID)
	assert.Equal(t, 2, rec.Quantity)
	assert.Equal(t, 0, rec.Reserved)
	checkInvariants(t, env.db)
}

func TestShip_Insufficient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 5, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Ship(ctx, "", ShipRequest{
		VariantID: v.ID.String(), Quantity: 6, FromLocationID: loc.ID.String(),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, env.record(t, v.ID, loc.ID).Quantity)
}

func TestTransfer_SameLocation(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Transfer(context.Background(), "", TransferRequest{
		VariantID: v.ID.String(), Quantity: 1,
		FromLocationID: loc.ID.String(), ToLocationID: loc.ID.String(),
	})
	assert.ErrorIs(t, err, ErrSameLocation)
}

// Reserved stock may not move between locations.
func TestTransfer_ReservedStockStaysPut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: locA.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 7, ToLocationID: locA.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Transfer(ctx, "", TransferRequest{
		VariantID: v.ID.String(), Quantity: 4,
		FromLocationID: locA.ID.String(), ToLocationID: locB.ID.String(),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = env.svc.Transfer(ctx, "", TransferRequest{
		VariantID: v.ID.String(), Quantity: 3,
		FromLocationID: locA.ID.String(), ToLocationID: locB.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, env.record(t, v.ID, locA.ID).Quantity)
	assert.Equal(t, 3, env.record(t, v.ID, locB.ID).Quantity)
	checkInvariants(t, env.db)
}

func TestAdjust_CreatesMissingRecord(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	movement, err := env.svc.Adjust(context.Background(), "", AdjustRequest{
		VariantID: v.ID.String(), ToLocationID: loc.ID.String(), NewQuantity: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, movement.Quantity, "delta from an absent record is the full count")
	assert.Equal(t, 7, env.record(t, v.ID, loc.ID).Quantity)
}

func TestAdjust_DoesNotTouchReserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 2, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Adjust(ctx, "", AdjustRequest{
		VariantID: v.ID.String(), ToLocationID: loc.ID.String(), NewQuantity: 15,
	})
	require.NoError(t, err)

	rec := env.record(t, v.ID, loc.ID)
	assert.Equal(t, 15, rec.Quantity)
	assert.Equal(t, 2, rec.Reserved)
}

// Replaying a mutation with the same idempotency key must not double-apply.
func TestIdempotentRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	req := ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
		Reference: "GRN-7", IdempotencyKey: "retry-abc",
	}
	first, err := env.svc.Receive(ctx, "", req)
	require.NoError(t, err)
	second, err := env.svc.Receive(ctx, "", req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 10, env.record(t, v.ID, loc.ID).Quantity)
	assert.EqualValues(t, 1, env.movementCount(t, v.ID))
}

// The ledger must independently re-derive on-hand quantity: the sum of
// movement deltas for a (variant, location) pair equals the stored quantity.
func TestLedgerConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	steps := []func() error{
		func() error {
			_, err := env.svc.Receive(ctx, "", ReceiveRequest{VariantID: v.ID.String(), Quantity: 40, ToLocationID: locA.ID.String()})
			return err
		},
		func() error {
			_, err := env.svc.Reserve(ctx, "", ReserveRequest{VariantID: v.ID.String(), Quantity: 10, ToLocationID: locA.ID.String()})
			return err
		},
		func() error {
			_, err := env.svc.Ship(ctx, "", ShipRequest{VariantID: v.ID.String(), Quantity: 8, FromLocationID: locA.ID.String()})
			return err
		},
		func() error {
			_, err := env.svc.Transfer(ctx, "", TransferRequest{VariantID: v.ID.String(), Quantity: 12, FromLocationID: locA.ID.String(), ToLocationID: locB.ID.String()})
			return err
		},
		func() error {
			_, err := env.svc.Adjust(ctx, "", AdjustRequest{VariantID: v.ID.String(), ToLocationID: locB.ID.String(), NewQuantity: 9})
			return err
		},
		func() error {
			_, err := env.svc.Release(ctx, "", ReleaseRequest{VariantID: v.ID.String(), Quantity: 2, FromLocationID: locA.ID.String()})
			return err
		},
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
	}

	for _, loc := range []*model.Location{locA, locB} {
		derived, err := env.movements.SumOnHandDeltas(ctx, v.ID, loc.ID)
		require.NoError(t, err)
		assert.Equal(t, env.record(t, v.ID, loc.ID).Quantity, derived,
			"ledger-derived quantity must match the record at %s", loc.Code)
	}
	checkInvariants(t, env.db)
}

func TestGetStock_FiltersByLocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	for loc, qty := range map[*model.Location]int{locA: 5, locB: 9} {
		_, err := env.svc.Receive(ctx, "", ReceiveRequest{
			VariantID: v.ID.String(), Quantity: qty, ToLocationID: loc.ID.String(),
		})
		require.NoError(t, err)
	}

	all, err := env.svc.GetStock(ctx, v.ID.String(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := env.svc.GetStock(ctx, v.ID.String(), locB.ID.String())
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, 9, one[0].Quantity)
	assert.Equal(t, 9, one[0].Available)
}

func TestGetTotalAvailableStock_AggregatesLocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	for loc, qty := range map[*model.Location]int{locA: 5, locB: 9} {
		_, err := env.svc.Receive(ctx, "", ReceiveRequest{
			VariantID: v.ID.String(), Quantity: qty, ToLocationID: loc.ID.String(),
		})
		require.NoError(t, err)
	}
	_, err := env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 3, ToLocationID: locA.ID.String(),
	})
	require.NoError(t, err)

	total, err := env.svc.GetTotalAvailableStock(ctx, v.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 14, total.Quantity)
	assert.Equal(t, 3, total.Reserved)
	assert.Equal(t, 11, total.Available)
}

func TestLowStock_Reporting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	low := env.createVariant(t, "SKU-LOW", "Nearly gone", "2.00")
	ok := env.createVariant(t, "SKU-OK", "Plenty", "2.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	for v, qty := range map[*model.Variant]int{low: 3, ok: 50} {
		_, err := env.svc.Receive(ctx, "", ReceiveRequest{
			VariantID: v.ID.String(), Quantity: qty, ToLocationID: loc.ID.String(),
		})
		require.NoError(t, err)
		_, err = env.svc.SetMinimumStock(ctx, SetMinimumRequest{
			VariantID: v.ID.String(), LocationID: loc.ID.String(), Minimum: 5,
		})
		require.NoError(t, err)
	}

	items, err := env.svc.GetLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-LOW", items[0].SKU)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 5, items[0].Minimum)
	assert.Equal(t, loc.Code, items[0].LocationCode)
}

// Reserving down to the threshold counts as low: available is compared to
// the minimum, not just raw quantity.
func TestLowStock_IncludesReservedPressure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "2.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 20, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.SetMinimumStock(ctx, SetMinimumRequest{
		VariantID: v.ID.String(), LocationID: loc.ID.String(), Minimum: 5,
	})
	require.NoError(t, err)
	_, err = env.svc.Reserve(ctx, "", ReserveRequest{
		VariantID: v.ID.String(), Quantity: 16, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)

	items, err := env.svc.GetLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Available)
}

func TestGetMovementHistory_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	for i := 0; i < 5; i++ {
		_, err := env.svc.Receive(ctx, "", ReceiveRequest{
			VariantID: v.ID.String(), Quantity: 1, ToLocationID: loc.ID.String(),
			Reference: fmt.Sprintf("GRN-%d", i),
		})
		require.NoError(t, err)
	}

	page1, total, err := env.svc.GetMovementHistory(ctx, v.ID.String(), 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page1, 3)

	page2, _, err := env.svc.GetMovementHistory(ctx, v.ID.String(), 2, 3)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}

func TestGetAllInventory_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	widget := env.createVariant(t, "SKU-WID", "Widget", "4.00")
	gadget := env.createVariant(t, "SKU-GAD", "Gadget", "3.50")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	_, err := env.svc.Receive(ctx, "", ReceiveRequest{
		VariantID: widget.ID.String(), Quantity: 10, ToLocationID: loc.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.svc.Adjust(ctx, "", AdjustRequest{
		VariantID: gadget.ID.String(), ToLocationID: loc.ID.String(), NewQuantity: 0,
	})
	require.NoError(t, err)

	all, total, err := env.svc.GetAllInventory(ctx, InventoryQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	found, total, err := env.svc.GetAllInventory(ctx, InventoryQuery{Search: "wid"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "SKU-WID", found[0].SKU)
	assert.Equal(t, "40.00", found[0].StockValue)

	out, total, err := env.svc.GetAllInventory(ctx, InventoryQuery{Stock: "out"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, out, 1)
	assert.Equal(t, "SKU-GAD", out[0].SKU)
}

func TestGetVariantsForInventory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.createVariant(t, "SKU-1", "Widget", "2.50")
	env.createVariant(t, "SKU-2", "Gadget", "1.00")
	locA := env.createLocation(t, "A", model.LocationTypeWarehouse)
	locB := env.createLocation(t, "B", model.LocationTypeWarehouse)

	for loc, qty := range map[*model.Location]int{locA: 4, locB: 6} {
		_, err := env.svc.Receive(ctx, "", ReceiveRequest{
			VariantID: v.ID.String(), Quantity: qty, ToLocationID: loc.ID.String(),
		})
		require.NoError(t, err)
	}

	items, err := env.svc.GetVariantsForInventory(ctx, "widget")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-1", items[0].SKU)
	assert.Equal(t, 10, items[0].Quantity)
	assert.Equal(t, 10, items[0].Available)
	assert.Len(t, items[0].Stock, 2)
	assert.Equal(t, "2.50", items[0].Price)
}

func TestSetMinimumStock_CreatesRecordWithoutQuantity(t *testing.T) {
	env := newTestEnv(t)
	v := env.createVariant(t, "SKU-1", "Widget", "1.00")
	loc := env.createLocation(t, "A", model.LocationTypeWarehouse)

	rec, err := env.svc.SetMinimumStock(context.Background(), SetMinimumRequest{
		VariantID: v.ID.String(), LocationID: loc.ID.String(), Minimum: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, rec.Minimum)
	assert.Equal(t, 0, rec.Quantity)
	assert.Zero(t, env.movementCount(t, v.ID), "threshold changes are not stock movements")
}
