package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert records the session as fulfilled unless it already is.
	// Returns true when this call inserted the row.
	Insert(ctx context.Context, db *gorm.DB, record *Record) (bool, error)
	FindBySessionID(ctx context.Context, db *gorm.DB, sessionID string) (*Record, error)
}
