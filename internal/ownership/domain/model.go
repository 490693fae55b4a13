package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Ownership records that a user holds some quantity of a product. Rows are
// only ever written by the fulfillment commit path.
type Ownership struct {
	ID        snowflake.ID `json:"-" gorm:"primaryKey"`
	UserID    string       `json:"user_id" gorm:"type:text;not null;index:ux_ownerships_user_product,priority:1"`
	ProductID string       `json:"product_id" gorm:"type:text;not null;index:ux_ownerships_user_product,priority:2"`
	Quantity  int64        `json:"quantity" gorm:"not null"`
	CreatedAt time.Time    `json:"-" gorm:"not null"`
	UpdatedAt time.Time    `json:"-" gorm:"not null"`
}

func (Ownership) TableName() string { return "ownerships" }

// OwnedProduct is the API shape for a user's holdings.
type OwnedProduct struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}
