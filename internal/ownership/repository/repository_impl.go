package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/ownership/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Increment(ctx context.Context, db *gorm.DB, id snowflake.ID, userID, productID string, quantity int64) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO ownerships (id, user_id, product_id, quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, product_id)
		 DO UPDATE SET quantity = ownerships.quantity + excluded.quantity, updated_at = excluded.updated_at`,
		id,
		userID,
		productID,
		quantity,
		now,
		now,
	).Error
}

func (r *repo) FindByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Ownership, error) {
	var items []domain.Ownership
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, product_id, quantity, created_at, updated_at
		 FROM ownerships WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
