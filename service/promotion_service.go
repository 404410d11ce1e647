package service

import (
	"context"
	"errors"
	"time"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
)

type PromotionService interface {
	// Validate checks applicability of a code against the order amount
	// (subtotal plus delivery fee) and returns the promotion on
	// success. Each rejection carries its specific reason.
	Validate(ctx context.Context, code string, orderAmount float64) (*models.Promotion, error)
	// Redeem re-validates at submission time and bumps the usage count.
	Redeem(ctx context.Context, code string, orderAmount float64) (*models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	GetAll(ctx context.Context) ([]*models.Promotion, error)
	Delete(ctx context.Context, id int64) error
}

type promotionService struct {
	stg storage.IPromotionStorage
	log logger.ILogger
}

func NewPromotionService(stg storage.IStorage, log logger.ILogger) PromotionService {
	return &promotionService{
		stg: stg.Promotion(),
		log: log,
	}
}

func (s *promotionService) Validate(ctx context.Context, code string, orderAmount float64) (*models.Promotion, error) {
	promo, err := s.stg.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}

	now := time.Now()
	switch {
	case !promo.Active:
		return nil, ErrPromoInactive
	case now.Before(promo.ValidFrom):
		return nil, ErrPromoNotStarted
	case now.After(promo.ValidUntil):
		return nil, ErrPromoExpired
	case promo.UsageLimit != nil && promo.UsedCount >= *promo.UsageLimit:
		return nil, ErrPromoLimitReached
	case promo.MinOrder != nil && orderAmount < *promo.MinOrder:
		return nil, &MinOrderError{Min: *promo.MinOrder}
	}

	return promo, nil
}

func (s *promotionService) Redeem(ctx context.Context, code string, orderAmount float64) (*models.Promotion, error) {
	promo, err := s.Validate(ctx, code, orderAmount)
	if err != nil {
		return nil, err
	}
	ok, err := s.stg.IncrementUsage(ctx, promo.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race for the last redemption.
		return nil, ErrPromoLimitReached
	}
	return promo, nil
}

func (s *promotionService) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	return s.stg.Create(ctx, promo)
}

func (s *promotionService) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	return s.stg.Update(ctx, promo)
}

func (s *promotionService) GetAll(ctx context.Context) ([]*models.Promotion, error) {
	return s.stg.GetAll(ctx)
}

func (s *promotionService) Delete(ctx context.Context, id int64) error {
	return s.stg.Delete(ctx, id)
}
