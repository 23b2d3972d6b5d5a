package inventory

import (
	"fmt"
	"strings"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
)

// LocationType classifies a stock location
type LocationType string

const (
	LocationTypeInternal LocationType = "internal"
	LocationTypeCustomer LocationType = "customer"
	LocationTypeSupplier LocationType = "supplier"
	LocationTypeTransit  LocationType = "transit"
)

// IsValid checks if the location type is valid
func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeInternal, LocationTypeCustomer, LocationTypeSupplier, LocationTypeTransit:
		return true
	}
	return false
}

// StockLocation is a warehouse, shelf, or virtual partner location.
// Parent links are plain foreign keys; the tree is walked by query.
type StockLocation struct {
	shared.BaseEntity
	Code         string       `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name         string       `gorm:"type:varchar(100);not null"`
	LocationType LocationType `gorm:"type:varchar(20);not null;default:'internal'"`
	ParentID     *uuid.UUID   `gorm:"type:uuid;index"`
	IsActive     bool         `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StockLocation) TableName() string {
	return "stock_locations"
}

// NewStockLocation creates a location
func NewStockLocation(code, name string, locationType LocationType, parentID *uuid.UUID) (*StockLocation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInput("location name cannot be empty")
	}
	if locationType == "" {
		locationType = LocationTypeInternal
	}
	if !locationType.IsValid() {
		return nil, shared.NewInvalidInput("invalid location type %q", string(locationType))
	}
	return &StockLocation{
		BaseEntity:   shared.NewBaseEntity(),
		Code:         strings.ToUpper(code),
		Name:         name,
		LocationType: locationType,
		ParentID:     parentID,
		IsActive:     true,
	}, nil
}

// LocationCode formats the sequential location code, e.g. LOC0007.
func LocationCode(seq int64) string {
	return fmt.Sprintf("LOC%04d", seq)
}
