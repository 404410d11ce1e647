package postgres

import (
	"context"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepo(db *pgxpool.Pool, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

const userColumns = `id, email, password_hash, full_name, phone, role, push_token, email_opt_out, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Phone,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create user", logger.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) GetAll(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("failed to query users", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) UpdatePushToken(ctx context.Context, id int64, token *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`, token, id)
	if err != nil {
		r.log.Error("failed to update push token", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *userRepo) UpdateEmailOptOut(ctx context.Context, id int64, optOut bool) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET email_opt_out = $1, updated_at = now() WHERE id = $2`, optOut, id)
	if err != nil {
		r.log.Error("failed to update email opt-out", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *userRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, role, id)
	if err != nil {
		r.log.Error("failed to update user role", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.PushToken,
		&user.EmailOptOut,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
