package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/fulfillment/domain"
	pkgdb "github.com/smallbiznis/storefront/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO fulfillments (id, session_id, user_id, product_id, quantity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`,
		record.ID,
		record.SessionID,
		record.UserID,
		record.ProductID,
		record.Quantity,
		record.CreatedAt,
	)
	if res.Error != nil {
		// Some drivers surface the conflict instead of swallowing it.
		if pkgdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindBySessionID(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Record, error) {
	var item domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, user_id, product_id, quantity, created_at
		 FROM fulfillments WHERE session_id = ? LIMIT 1`,
		sessionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
