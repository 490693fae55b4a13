package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/fulfillment/domain"
	"github.com/smallbiznis/storefront/internal/locks"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	ownershipdomain "github.com/smallbiznis/storefront/internal/ownership/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Cfg           config.Config
	GenID         *snowflake.Node
	Repo          domain.Repository
	OwnershipRepo ownershipdomain.Repository
	Resolver      domain.SessionResolver
	Locks         locks.SessionLocker
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	ownershipRepo ownershipdomain.Repository
	resolver      domain.SessionResolver
	locks         locks.SessionLocker
	lookupTimeout time.Duration
	obsMetrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	timeout := p.Cfg.StripeLookupTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("fulfillment.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		ownershipRepo: p.OwnershipRepo,
		resolver:      p.Resolver,
		locks:         p.Locks,
		lookupTimeout: timeout,
		obsMetrics:    p.ObsMetrics,
	}
}

// Fulfill converts a completed checkout session into an ownership grant
// exactly once. Both delivery paths (webhook push, redirect pull) funnel
// into this method; the per-session lock plus the conditional ledger insert
// guarantee a single increment no matter how often or from where the same
// session arrives.
func (s *Service) Fulfill(ctx context.Context, sessionID string) (*domain.Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrInvalidSession
	}

	release, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateSession(session); err != nil {
		return nil, err
	}

	record := &domain.Record{
		ID:        s.genID.Generate(),
		SessionID: sessionID,
		UserID:    session.UserID,
		ProductID: session.ProductID,
		Quantity:  session.LineItemQuantity,
		CreatedAt: time.Now().UTC(),
	}

	result := &domain.Result{
		Verdict:   domain.VerdictFulfilled,
		SessionID: sessionID,
		UserID:    session.UserID,
		ProductID: session.ProductID,
		Quantity:  session.LineItemQuantity,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.Insert(ctx, tx, record)
		if err != nil {
			return err
		}
		if !inserted {
			result.Verdict = domain.VerdictAlreadyHandled
			return nil
		}
		return s.ownershipRepo.Increment(ctx, tx, s.genID.Generate(), session.UserID, session.ProductID, session.LineItemQuantity)
	})
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordFulfillment(ctx, string(result.Verdict))
	if result.Verdict == domain.VerdictFulfilled {
		s.log.Info("session fulfilled",
			zap.String("session_id", sessionID),
			zap.String("user_id", session.UserID),
			zap.String("product_id", session.ProductID),
			zap.Int64("quantity", session.LineItemQuantity),
		)
	}

	return result, nil
}

func (s *Service) resolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	session, err := s.resolver.ResolveSession(lookupCtx, sessionID)
	if err != nil {
		s.log.Warn("session lookup failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, domain.ErrLookupFailed
	}
	if session == nil {
		return nil, domain.ErrLookupFailed
	}
	return session, nil
}

func validateSession(session *domain.Session) error {
	// no_payment_required proceeds: zero-amount sessions still grant ownership.
	if session.PaymentStatus == domain.PaymentStatusUnpaid {
		return domain.ErrUnpaid
	}
	if strings.TrimSpace(session.ProductID) == "" || strings.TrimSpace(session.UserID) == "" {
		return domain.ErrMissingMetadata
	}
	if !session.HasLineItems || session.LineItemQuantity <= 0 {
		return domain.ErrMissingLineItems
	}
	return nil
}
