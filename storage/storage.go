package storage

import (
	"context"
	"time"

	"dishdash/pkg/lifecycle"
	"dishdash/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type IStorage interface {
	User() IUserStorage
	Order() IOrderStorage
	Meal() IMealStorage
	Promotion() IPromotionStorage
	Driver() IDriverStorage
	Notification() INotificationStorage
	Close()
	GetPool() *pgxpool.Pool
}

type IUserStorage interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdatePushToken(ctx context.Context, id int64, token *string) error
	UpdateEmailOptOut(ctx context.Context, id int64, optOut bool) error
	UpdateRole(ctx context.Context, id int64, role string) error
}

type IOrderStorage interface {
	// Create writes the order, its items, the initial status-log row and
	// the initial notification record in a single transaction. createdBy
	// identifies the actor for the status log, same as UpdateStatus.
	Create(ctx context.Context, order *models.Order, initial *models.Notification, createdBy string) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error)
	GetByStatus(ctx context.Context, status lifecycle.Status, limit, offset int) ([]*models.Order, error)
	GetUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error)
	GetDriverOrders(ctx context.Context, driverID int64) ([]*models.Order, error)
	// UpdateStatus is the authoritative status write: it sets the new
	// status, records the per-status timestamp only if not already set,
	// and appends a status-log row, atomically.
	UpdateStatus(ctx context.Context, id int64, status lifecycle.Status, changedBy string) error
	AssignDriver(ctx context.Context, orderID, driverID int64) error
	SetPaymentStatus(ctx context.Context, orderID int64, status string) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	NextDailySequence(ctx context.Context, day time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	Revenue(ctx context.Context, since time.Time) (float64, error)
}

type IMealStorage interface {
	Create(ctx context.Context, meal *models.Meal) (*models.Meal, error)
	Update(ctx context.Context, meal *models.Meal) (*models.Meal, error)
	GetByID(ctx context.Context, id int64) (*models.Meal, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Meal, error)
	GetAll(ctx context.Context, onlyActive bool) ([]*models.Meal, error)
	SetAvailability(ctx context.Context, id int64, available bool) error
	Deactivate(ctx context.Context, id int64) error
}

type IPromotionStorage interface {
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
	GetByID(ctx context.Context, id int64) (*models.Promotion, error)
	GetAll(ctx context.Context) ([]*models.Promotion, error)
	// IncrementUsage bumps used_count atomically and reports false when
	// the usage limit has already been reached.
	IncrementUsage(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type IDriverStorage interface {
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Driver, error)
	GetAll(ctx context.Context, status string) ([]*models.Driver, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type INotificationStorage interface {
	// Ensure inserts the record if no record exists for the same
	// (order, type, user); a duplicate is a silent no-op.
	Ensure(ctx context.Context, n *models.Notification) error
	// Claim marks the record as dispatched and returns its id. claimed
	// is false when another delivery already claimed it, which is how
	// duplicate queue deliveries are deduplicated.
	Claim(ctx context.Context, orderID int64, typ string, userID int64) (id string, claimed bool, err error)
	MarkOutcome(ctx context.Context, id string, emailSent, pushSent bool) error
	GetUserNotifications(ctx context.Context, userID int64, limit, offset int) ([]*models.Notification, error)
}
