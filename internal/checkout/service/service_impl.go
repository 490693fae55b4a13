package service

import (
	"context"
	"math"
	"strings"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/checkout/domain"
	"github.com/smallbiznis/storefront/internal/config"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	userdomain "github.com/smallbiznis/storefront/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	CatalogSvc catalogdomain.Service
	UserSvc    userdomain.Service
	Sessions   domain.SessionCreator
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	cfg        config.Config
	catalogSvc catalogdomain.Service
	userSvc    userdomain.Service
	sessions   domain.SessionCreator
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("checkout.service"),
		cfg:        p.Cfg,
		catalogSvc: p.CatalogSvc,
		userSvc:    p.UserSvc,
		sessions:   p.Sessions,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, productID, userID string) (string, error) {
	product, err := s.catalogSvc.Get(ctx, productID)
	if err != nil {
		return "", err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = s.cfg.DemoUserID
	}

	// The customer ref is persisted before the session is created so a
	// retry can never mint a second provider customer for the same user.
	customerRef, err := s.userSvc.EnsureCustomerRef(ctx, userID)
	if err != nil {
		return "", err
	}

	sessionURL, err := s.sessions.CreateCheckoutSession(ctx, domain.SessionParams{
		CustomerRef:        customerRef,
		ProductID:          product.ID,
		ProductName:        product.Name,
		ProductDescription: product.Description,
		UserID:             userID,
		Currency:           s.cfg.CheckoutCurrency,
		UnitAmount:         minorUnits(product.Price),
		SuccessURL:         s.cfg.CheckoutSuccessURL + "?sessionId={CHECKOUT_SESSION_ID}",
		CancelURL:          s.cfg.CheckoutCancelURL,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sessionURL) == "" {
		return "", domain.ErrNoRedirectURL
	}

	s.obsMetrics.RecordCheckoutSession(ctx, product.ID)
	s.log.Info("checkout session created",
		zap.String("product_id", product.ID),
		zap.String("user_id", userID),
	)

	return sessionURL, nil
}

// minorUnits converts a whole-currency-unit price to the provider's integer
// minor-unit representation.
func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
