package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*User, error)
	// ClaimCustomerRef stores the payment customer reference if and only if
	// none is stored yet. Returns true when this call won the write.
	ClaimCustomerRef(ctx context.Context, db *gorm.DB, id, customerRef string) (bool, error)
}
