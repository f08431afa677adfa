package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationType Enum Simulation
const (
	LocationTypeWarehouse = "WAREHOUSE"
	LocationTypeZone      = "ZONE"
	LocationTypeShelf     = "SHELF"
	LocationTypeBin       = "BIN"
)

// ValidLocationType reports whether t is one of the known location types
func ValidLocationType(t string) bool {
	switch t {
	case LocationTypeWarehouse, LocationTypeZone, LocationTypeShelf, LocationTypeBin:
		return true
	}
	return false
}

// Location is a physical place in the warehouse hierarchy (warehouse -> zone -> shelf -> bin)
type Location struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Code      string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Type      string     `gorm:"type:varchar(20);not null" json:"type"` // WAREHOUSE, ZONE, SHELF, BIN
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Parent    *Location  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children  []Location `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
