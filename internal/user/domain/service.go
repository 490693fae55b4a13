package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (*User, error)
	// EnsureCustomerRef resolves the user's payment customer reference,
	// creating one through the provider on first use. The reference is
	// durably persisted before it is returned.
	EnsureCustomerRef(ctx context.Context, id string) (string, error)
}

// CustomerCreator creates a provider-side customer record for a user.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, name, email, userID string) (string, error)
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
