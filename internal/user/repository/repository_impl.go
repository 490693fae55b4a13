package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, stripe_customer_id, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

func (r *repo) ClaimCustomerRef(ctx context.Context, db *gorm.DB, id, customerRef string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE users
		 SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')`,
		customerRef,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
