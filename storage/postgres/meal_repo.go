package postgres

import (
	"context"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mealRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewMealRepo(db *pgxpool.Pool, log logger.ILogger) storage.IMealStorage {
	return &mealRepo{db: db, log: log}
}

const mealColumns = `id, name, description, price, category, available, active, image_url, created_at, updated_at`

func (r *mealRepo) Create(ctx context.Context, meal *models.Meal) (*models.Meal, error) {
	query := `
		INSERT INTO meals (name, description, price, category, available, active, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		meal.Name,
		meal.Description,
		meal.Price,
		meal.Category,
		meal.Available,
		meal.Active,
		meal.ImageURL,
	).Scan(&meal.ID, &meal.CreatedAt, &meal.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create meal", logger.Error(err))
		return nil, err
	}
	return meal, nil
}

func (r *mealRepo) Update(ctx context.Context, meal *models.Meal) (*models.Meal, error) {
	query := `
		UPDATE meals
		SET name = $1, description = $2, price = $3, category = $4, available = $5, active = $6, image_url = $7, updated_at = now()
		WHERE id = $8
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		meal.Name,
		meal.Description,
		meal.Price,
		meal.Category,
		meal.Available,
		meal.Active,
		meal.ImageURL,
		meal.ID,
	).Scan(&meal.CreatedAt, &meal.UpdatedAt)
	if err != nil {
		r.log.Error("failed to update meal", logger.Int64("id", meal.ID), logger.Error(err))
		return nil, err
	}
	return meal, nil
}

func (r *mealRepo) GetByID(ctx context.Context, id int64) (*models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = $1`
	return r.scanMeal(r.db.QueryRow(ctx, query, id))
}

func (r *mealRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("failed to query meals by ids", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	meals := make(map[int64]*models.Meal)
	for rows.Next() {
		meal, err := r.scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals[meal.ID] = meal
	}
	return meals, rows.Err()
}

func (r *mealRepo) GetAll(ctx context.Context, onlyActive bool) ([]*models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals ORDER BY category, name`
	if onlyActive {
		query = `SELECT ` + mealColumns + ` FROM meals WHERE active ORDER BY category, name`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to query meals", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		meal, err := r.scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}
	return meals, rows.Err()
}

func (r *mealRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	_, err := r.db.Exec(ctx, `UPDATE meals SET available = $1, updated_at = now() WHERE id = $2`, available, id)
	if err != nil {
		r.log.Error("failed to set meal availability", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *mealRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE meals SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to deactivate meal", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *mealRepo) scanMeal(row pgx.Row) (*models.Meal, error) {
	var meal models.Meal
	err := row.Scan(
		&meal.ID,
		&meal.Name,
		&meal.Description,
		&meal.Price,
		&meal.Category,
		&meal.Available,
		&meal.Active,
		&meal.ImageURL,
		&meal.CreatedAt,
		&meal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &meal, nil
}
