package postgres

import (
	"context"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type promotionRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewPromotionRepo(db *pgxpool.Pool, log logger.ILogger) storage.IPromotionStorage {
	return &promotionRepo{db: db, log: log}
}

const promoColumns = `id, code, discount_type, value, min_order, max_discount, valid_from, valid_until, usage_limit, used_count, active, created_at, updated_at`

func (r *promotionRepo) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	query := `
		INSERT INTO promotions (code, discount_type, value, min_order, max_discount, valid_from, valid_until, usage_limit, active)
		VALUES (upper($1), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, code, created_at
	`
	err := r.db.QueryRow(ctx, query,
		promo.Code,
		promo.DiscountType,
		promo.Value,
		promo.MinOrder,
		promo.MaxDiscount,
		promo.ValidFrom,
		promo.ValidUntil,
		promo.UsageLimit,
		promo.Active,
	).Scan(&promo.ID, &promo.Code, &promo.CreatedAt)
	if err != nil {
		r.log.Error("failed to create promotion", logger.Error(err))
		return nil, err
	}
	return promo, nil
}

func (r *promotionRepo) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	query := `
		UPDATE promotions
		SET discount_type = $1, value = $2, min_order = $3, max_discount = $4,
			valid_from = $5, valid_until = $6, usage_limit = $7, active = $8, updated_at = now()
		WHERE id = $9
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		promo.DiscountType,
		promo.Value,
		promo.MinOrder,
		promo.MaxDiscount,
		promo.ValidFrom,
		promo.ValidUntil,
		promo.UsageLimit,
		promo.Active,
		promo.ID,
	).Scan(&promo.CreatedAt, &promo.UpdatedAt)
	if err != nil {
		r.log.Error("failed to update promotion", logger.Int64("id", promo.ID), logger.Error(err))
		return nil, err
	}
	return promo, nil
}

func (r *promotionRepo) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	query := `SELECT ` + promoColumns + ` FROM promotions WHERE upper(code) = upper($1)`
	return r.scanPromotion(r.db.QueryRow(ctx, query, code))
}

func (r *promotionRepo) GetByID(ctx context.Context, id int64) (*models.Promotion, error) {
	query := `SELECT ` + promoColumns + ` FROM promotions WHERE id = $1`
	return r.scanPromotion(r.db.QueryRow(ctx, query, id))
}

func (r *promotionRepo) GetAll(ctx context.Context) ([]*models.Promotion, error) {
	query := `SELECT ` + promoColumns + ` FROM promotions ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to query promotions", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var promos []*models.Promotion
	for rows.Next() {
		promo, err := r.scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, promo)
	}
	return promos, rows.Err()
}

// IncrementUsage is guarded so two concurrent submissions cannot push
// used_count past the limit.
func (r *promotionRepo) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE promotions
		SET used_count = used_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`, id)
	if err != nil {
		r.log.Error("failed to increment promotion usage", logger.Int64("id", id), logger.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *promotionRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to delete promotion", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *promotionRepo) scanPromotion(row pgx.Row) (*models.Promotion, error) {
	var promo models.Promotion
	err := row.Scan(
		&promo.ID,
		&promo.Code,
		&promo.DiscountType,
		&promo.Value,
		&promo.MinOrder,
		&promo.MaxDiscount,
		&promo.ValidFrom,
		&promo.ValidUntil,
		&promo.UsageLimit,
		&promo.UsedCount,
		&promo.Active,
		&promo.CreatedAt,
		&promo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &promo, nil
}
