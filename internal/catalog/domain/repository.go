package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Product, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Product, error)
}
