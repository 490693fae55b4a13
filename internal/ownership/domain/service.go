package domain

import (
	"context"
	"errors"
)

type Service interface {
	ListByUser(ctx context.Context, userID string) ([]OwnedProduct, error)
}

var ErrInvalidUser = errors.New("invalid_user")
