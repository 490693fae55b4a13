package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/ownership/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("ownership.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.OwnedProduct, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	owned := make([]domain.OwnedProduct, 0, len(items))
	for _, item := range items {
		owned = append(owned, domain.OwnedProduct{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return owned, nil
}
