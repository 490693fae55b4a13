package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a catalog entry. The catalog is read-only at runtime; rows are
// created by the seed step.
type Product struct {
	ID          string            `json:"id" gorm:"primaryKey"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description string            `json:"description" gorm:"type:text"`
	Price       float64           `json:"price" gorm:"type:numeric(12,2);not null"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"-" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
