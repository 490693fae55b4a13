package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/storefront/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Customers domain.CustomerCreator
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	customers domain.CustomerCreator
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("user.service"),
		repo:      p.Repo,
		customers: p.Customers,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// EnsureCustomerRef returns the user's payment customer reference, creating
// and persisting one on first use. At most one provider customer record may
// ever exist per user: the write is a compare-and-swap, and a racing loser
// discards its freshly created customer in favor of the stored one.
func (s *Service) EnsureCustomerRef(ctx context.Context, id string) (string, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if ref := user.CustomerRef(); ref != "" {
		return ref, nil
	}

	created, err := s.customers.CreateCustomer(ctx, user.Name, user.Email, user.ID)
	if err != nil {
		return "", err
	}

	claimed, err := s.repo.ClaimCustomerRef(ctx, s.db, user.ID, created)
	if err != nil {
		return "", err
	}
	if claimed {
		return created, nil
	}

	// Lost the race: another request persisted a reference first. Reuse it.
	stored, err := s.repo.FindByID(ctx, s.db, user.ID)
	if err != nil {
		return "", err
	}
	if stored == nil || stored.CustomerRef() == "" {
		return "", errors.New("customer_ref_unresolved")
	}
	s.log.Warn("discarding duplicate provider customer",
		zap.String("user_id", user.ID),
		zap.String("duplicate_ref", created),
	)
	return stored.CustomerRef(), nil
}
