package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Increment adds quantity to the (user, product) holding, creating the
	// row on first grant. Safe to call inside a transaction handle.
	Increment(ctx context.Context, db *gorm.DB, id snowflake.ID, userID, productID string, quantity int64) error
	FindByUser(ctx context.Context, db *gorm.DB, userID string) ([]Ownership, error)
}
