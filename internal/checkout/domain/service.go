package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Create builds a provider checkout session for one unit of the product
	// and returns the redirect URL the buyer should be sent to.
	Create(ctx context.Context, productID, userID string) (string, error)
}

// SessionParams describes the single-line-item session handed to the provider.
type SessionParams struct {
	CustomerRef        string
	ProductID          string
	ProductName        string
	ProductDescription string
	UserID             string
	Currency           string
	UnitAmount         int64
	SuccessURL         string
	CancelURL          string
}

// SessionCreator creates the provider-side checkout session.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (string, error)
}

// ErrNoRedirectURL means the provider accepted the session but returned no
// redirect target; a misconfiguration, not a user error.
var ErrNoRedirectURL = errors.New("no_redirect_url")
