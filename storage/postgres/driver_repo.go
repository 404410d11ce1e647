package postgres

import (
	"context"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

const driverColumns = `id, user_id, full_name, phone, status, vehicle_make, vehicle_model, license_plate, license_number, created_at, updated_at`

func (r *driverRepo) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	query := `
		INSERT INTO drivers (user_id, full_name, phone, status, vehicle_make, vehicle_model, license_plate, license_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		driver.UserID,
		driver.FullName,
		driver.Phone,
		driver.Status,
		driver.VehicleMake,
		driver.VehicleModel,
		driver.LicensePlate,
		driver.LicenseNumber,
	).Scan(&driver.ID, &driver.CreatedAt, &driver.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create driver", logger.Error(err))
		return nil, err
	}
	return driver, nil
}

func (r *driverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.scanDriver(r.db.QueryRow(ctx, query, id))
}

func (r *driverRepo) GetByUserID(ctx context.Context, userID int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	return r.scanDriver(r.db.QueryRow(ctx, query, userID))
}

func (r *driverRepo) GetAll(ctx context.Context, status string) ([]*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY created_at DESC`
	args := []interface{}{}
	if status != "" {
		query = `SELECT ` + driverColumns + ` FROM drivers WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, status)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query drivers", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		driver, err := r.scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

func (r *driverRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		r.log.Error("failed to update driver status", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *driverRepo) scanDriver(row pgx.Row) (*models.Driver, error) {
	var driver models.Driver
	err := row.Scan(
		&driver.ID,
		&driver.UserID,
		&driver.FullName,
		&driver.Phone,
		&driver.Status,
		&driver.VehicleMake,
		&driver.VehicleModel,
		&driver.LicensePlate,
		&driver.LicenseNumber,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}
