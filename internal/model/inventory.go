package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementType Enum Simulation
const (
	MovementReceive  = "RECEIVE"
	MovementShip     = "SHIP"
	MovementReserve  = "RESERVE"
	MovementRelease  = "RELEASE"
	MovementTransfer = "TRANSFER"
	MovementAdjust   = "ADJUST"
)

// InventoryRecord holds on-hand stock for one (variant, location) pair.
// Rows are created lazily on the first RECEIVE or ADJUST and are never
// hard-deleted, so zero-quantity rows stay around for history continuity.
// Invariants: quantity >= 0 and 0 <= reserved <= quantity.
type InventoryRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_variant_location" json:"variant_id"`
	Variant    Variant   `gorm:"foreignKey:VariantID" json:"-"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_variant_location" json:"location_id"`
	Location   Location  `gorm:"foreignKey:LocationID" json:"-"`
	Quantity   int       `gorm:"type:int;default:0;not null" json:"quantity"`
	Reserved   int       `gorm:"type:int;default:0;not null" json:"reserved"`
	Minimum    int       `gorm:"type:int;default:0;not null" json:"minimum"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *InventoryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Available is the sellable quantity: on-hand minus reserved. Derived,
// never stored.
func (r *InventoryRecord) Available() int {
	return r.Quantity - r.Reserved
}

// StockMovement records one stock-affecting event as a signed delta.
// Rows are append-only: once written they are never updated or deleted.
// Sign convention: RECEIVE/RELEASE positive, SHIP/RESERVE negative,
// TRANSFER is one row with both locations set, ADJUST carries the signed
// difference between old and new quantity.
type StockMovement struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VariantID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"variant_id"`
	Variant        Variant    `gorm:"foreignKey:VariantID" json:"-"`
	Type           string     `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity       int        `gorm:"type:int;not null" json:"quantity"`
	FromLocationID *uuid.UUID `gorm:"type:uuid;index" json:"from_location_id"`
	FromLocation   *Location  `gorm:"foreignKey:FromLocationID" json:"from_location,omitempty"`
	ToLocationID   *uuid.UUID `gorm:"type:uuid;index" json:"to_location_id"`
	ToLocation     *Location  `gorm:"foreignKey:ToLocationID" json:"to_location,omitempty"`
	Reference      string     `gorm:"type:varchar(255)" json:"reference"`
	Notes          string     `gorm:"type:text" json:"notes"`
	IdempotencyKey *string    `gorm:"type:varchar(100);uniqueIndex" json:"idempotency_key,omitempty"`
	ActorID        *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"` // Nullable for system-generated movements
	Actor          *User      `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
