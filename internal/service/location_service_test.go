package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type locationTestEnv struct {
	db  *gorm.DB
	svc LocationService
	inv InventoryService
}

func newLocationTestEnv(t *testing.T) *locationTestEnv {
	t.Helper()
	db := newTestDB(t)

	locations := repository.NewLocationRepository(db)
	records := repository.NewInventoryRepository(db)
	tx := repository.NewTransactionManager(db)

	inv := NewInventoryService(
		records,
		repository.NewMovementRepository(db),
		repository.NewVariantRepository(db),
		locations,
		tx,
		nil,
	)

	return &locationTestEnv{
		db:  db,
		svc: NewLocationService(locations, records, tx),
		inv: inv,
	}
}

func (e *locationTestEnv) create(t *testing.T, code, locType, parentID string) LocationResponse {
	t.Helper()
	res, err := e.svc.Create(context.Background(), CreateLocationRequest{
		Name: "Location " + code, Code: code, Type: locType, ParentID: parentID,
	})
	require.NoError(t, err)
	return res
}

func TestLocationCreate_Hierarchy(t *testing.T) {
	env := newLocationTestEnv(t)

	wh := env.create(t, "WH1", model.LocationTypeWarehouse, "")
	zone := env.create(t, "WH1-Z1", model.LocationTypeZone, wh.ID)
	shelf := env.create(t, "WH1-Z1-S1", model.LocationTypeShelf, zone.ID)
	bin := env.create(t, "WH1-Z1-S1-B1", model.LocationTypeBin, shelf.ID)

	assert.Equal(t, shelf.ID, bin.ParentID)

	tree, err := env.svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children[0].Children, 1)
	assert.Equal(t, "WH1-Z1-S1-B1", tree[0].Children[0].Children[0].Children[0].Code)
}

func TestLocationCreate_RejectsBadInput(t *testing.T) {
	env := newLocationTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateLocationRequest{
		Name: "x", Code: "X1", Type: "CONTAINER",
	})
	assert.Error(t, err, "unknown location type must be rejected")

	env.create(t, "DUP", model.LocationTypeWarehouse, "")
	_, err = env.svc.Create(ctx, CreateLocationRequest{
		Name: "another", Code: "DUP", Type: model.LocationTypeWarehouse,
	})
	assert.Error(t, err, "codes are unique")
}

func TestLocationUpdate_RejectsCycle(t *testing.T) {
	env := newLocationTestEnv(t)
	ctx := context.Background()

	a := env.create(t, "A", model.LocationTypeWarehouse, "")
	b := env.create(t, "B", model.LocationTypeZone, a.ID)
	c := env.create(t, "C", model.LocationTypeShelf, b.ID)

	// A under C would close the loop A -> B -> C -> A.
	_, err := env.svc.Update(ctx, a.ID, UpdateLocationRequest{
		Name: "A", Code: "A", ParentID: c.ID,
	})
	assert.ErrorIs(t, err, ErrLocationCycle)

	_, err = env.svc.Update(ctx, a.ID, UpdateLocationRequest{
		Name: "A", Code: "A", ParentID: a.ID,
	})
	assert.ErrorIs(t, err, ErrLocationCycle, "self-parenting is the shortest cycle")

	// Legal reparent still works.
	_, err = env.svc.Update(ctx, c.ID, UpdateLocationRequest{
		Name: "C", Code: "C", ParentID: a.ID,
	})
	assert.NoError(t, err)
}

func TestLocationDelete_Guards(t *testing.T) {
	env := newLocationTestEnv(t)
	ctx := context.Background()

	parent := env.create(t, "P", model.LocationTypeWarehouse, "")
	child := env.create(t, "P-Z", model.LocationTypeZone, parent.ID)

	err := env.svc.Delete(ctx, parent.ID)
	assert.ErrorIs(t, err, ErrLocationInUse, "cannot delete while children exist")

	// Stock at the child blocks deletion too.
	v := model.Variant{SKU: "SKU-1", Name: "Widget"}
	require.NoError(t, env.db.Create(&v).Error)
	_, err = env.inv.Receive(ctx, "", ReceiveRequest{
		VariantID: v.ID.String(), Quantity: 1, ToLocationID: child.ID,
	})
	require.NoError(t, err)

	err = env.svc.Delete(ctx, child.ID)
	assert.ErrorIs(t, err, ErrLocationInUse, "cannot delete while inventory records reference it")

	// Draining the stock is not enough: the zero-quantity record remains.
	_, err = env.inv.Ship(ctx, "", ShipRequest{
		VariantID: v.ID.String(), Quantity: 1, FromLocationID: child.ID,
	})
	require.NoError(t, err)
	err = env.svc.Delete(ctx, child.ID)
	assert.ErrorIs(t, err, ErrLocationInUse)
}

func TestLocationDelete_RemovesLeaf(t *testing.T) {
	env := newLocationTestEnv(t)
	ctx := context.Background()

	parent := env.create(t, "P", model.LocationTypeWarehouse, "")
	child := env.create(t, "P-Z", model.LocationTypeZone, parent.ID)

	require.NoError(t, env.svc.Delete(ctx, child.ID))
	require.NoError(t, env.svc.Delete(ctx, parent.ID))

	locations, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestLocationDelete_NotFound(t *testing.T) {
	env := newLocationTestEnv(t)
	err := env.svc.Delete(context.Background(), "00000000-0000-0000-0000-000000000001")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}
