package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"dishdash/pkg/events"
	"dishdash/pkg/lifecycle"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeStorage is an in-memory storage.IStorage for service tests.
type fakeStorage struct {
	users         *fakeUserStorage
	orders        *fakeOrderStorage
	meals         *fakeMealStorage
	promotions    *fakePromotionStorage
	drivers       *fakeDriverStorage
	notifications *fakeNotificationStorage
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:         &fakeUserStorage{byID: map[int64]*models.User{}},
		orders:        &fakeOrderStorage{byID: map[int64]*models.Order{}},
		meals:         &fakeMealStorage{byID: map[int64]*models.Meal{}},
		promotions:    &fakePromotionStorage{byID: map[int64]*models.Promotion{}},
		drivers:       &fakeDriverStorage{byID: map[int64]*models.Driver{}},
		notifications: &fakeNotificationStorage{records: map[string]*models.Notification{}},
	}
}

func (f *fakeStorage) User() storage.IUserStorage                 { return f.users }
func (f *fakeStorage) Order() storage.IOrderStorage               { return f.orders }
func (f *fakeStorage) Meal() storage.IMealStorage                 { return f.meals }
func (f *fakeStorage) Promotion() storage.IPromotionStorage       { return f.promotions }
func (f *fakeStorage) Driver() storage.IDriverStorage             { return f.drivers }
func (f *fakeStorage) Notification() storage.INotificationStorage { return f.notifications }
func (f *fakeStorage) Close()                                     {}
func (f *fakeStorage) GetPool() *pgxpool.Pool                     { return nil }

type fakeUserStorage struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

func (f *fakeUserStorage) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return nil, errors.New("duplicate key value violates unique constraint")
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserStorage) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStorage) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStorage) GetAll(_ context.Context, _, _ int) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStorage) UpdatePushToken(_ context.Context, id int64, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PushToken = token
	return nil
}

func (f *fakeUserStorage) UpdateEmailOptOut(_ context.Context, id int64, optOut bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.EmailOptOut = optOut
	return nil
}

func (f *fakeUserStorage) UpdateRole(_ context.Context, id int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}

type fakeOrderStorage struct {
	mu       sync.Mutex
	nextID   int64
	sequence int
	byID     map[int64]*models.Order
	initial  []*models.Notification
	log      []models.OrderStatusLog
}

func (f *fakeOrderStorage) Create(_ context.Context, order *models.Order, initial *models.Notification, createdBy string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	f.byID[order.ID] = order
	if initial != nil {
		initial.OrderID = order.ID
		f.initial = append(f.initial, initial)
	}
	f.log = append(f.log, models.OrderStatusLog{OrderID: order.ID, Status: order.Status, ChangedBy: createdBy})
	return order, nil
}

func (f *fakeOrderStorage) GetByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStorage) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		if o.Number == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrderStorage) GetAll(_ context.Context, _, _ int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Order, 0, len(f.byID))
	for _, o := range f.byID {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderStorage) GetByStatus(_ context.Context, status lifecycle.Status, _, _ int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.byID {
		if o.Status == string(status) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStorage) GetUserOrders(_ context.Context, userID int64, _, _ int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStorage) GetDriverOrders(_ context.Context, driverID int64) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.byID {
		if o.DriverID != nil && *o.DriverID == driverID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStorage) UpdateStatus(_ context.Context, id int64, status lifecycle.Status, changedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = string(status)
	now := time.Now()
	// Mirrors the COALESCE(col, now()) write: set once, never overwrite.
	switch status {
	case lifecycle.StatusConfirmed:
		if o.ConfirmedAt == nil {
			o.ConfirmedAt = &now
		}
	case lifecycle.StatusPreparing:
		if o.PreparingAt == nil {
			o.PreparingAt = &now
		}
	case lifecycle.StatusReady:
		if o.ReadyAt == nil {
			o.ReadyAt = &now
		}
	case lifecycle.StatusPickedUp:
		if o.PickedUpAt == nil {
			o.PickedUpAt = &now
		}
	case lifecycle.StatusOnTheWay:
		if o.OnTheWayAt == nil {
			o.OnTheWayAt = &now
		}
	case lifecycle.StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case lifecycle.StatusCompleted:
		if o.CompletedAt == nil {
			o.CompletedAt = &now
		}
	case lifecycle.StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
	f.log = append(f.log, models.OrderStatusLog{OrderID: id, Status: string(status), ChangedBy: changedBy})
	return nil
}

func (f *fakeOrderStorage) AssignDriver(_ context.Context, orderID, driverID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.DriverID = &driverID
	return nil
}

func (f *fakeOrderStorage) SetPaymentStatus(_ context.Context, orderID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.PaymentStatus = status
	return nil
}

func (f *fakeOrderStorage) DeleteMany(_ context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := f.byID[id]; ok {
			delete(f.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeOrderStorage) NextDailySequence(_ context.Context, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	return f.sequence, nil
}

func (f *fakeOrderStorage) CountByStatus(_ context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, o := range f.byID {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeOrderStorage) Revenue(_ context.Context, since time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0.0
	for _, o := range f.byID {
		if !o.CreatedAt.Before(since) && o.Status == string(lifecycle.StatusCompleted) {
			total += o.Total
		}
	}
	return total, nil
}

type fakeMealStorage struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Meal
}

func (f *fakeMealStorage) add(meal *models.Meal) *models.Meal {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	meal.ID = f.nextID
	f.byID[meal.ID] = meal
	return meal
}

func (f *fakeMealStorage) Create(_ context.Context, meal *models.Meal) (*models.Meal, error) {
	return f.add(meal), nil
}

func (f *fakeMealStorage) Update(_ context.Context, meal *models.Meal) (*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[meal.ID]; !ok {
		return nil, pgx.ErrNoRows
	}
	f.byID[meal.ID] = meal
	return meal, nil
}

func (f *fakeMealStorage) GetByID(_ context.Context, id int64) (*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeMealStorage) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]*models.Meal{}
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeMealStorage) GetAll(_ context.Context, onlyActive bool) ([]*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Meal
	for _, m := range f.byID {
		if onlyActive && !m.Active {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMealStorage) SetAvailability(_ context.Context, id int64, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.Available = available
	return nil
}

func (f *fakeMealStorage) Deactivate(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.Active = false
	return nil
}

type fakePromotionStorage struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Promotion
}

func (f *fakePromotionStorage) add(promo *models.Promotion) *models.Promotion {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	promo.ID = f.nextID
	f.byID[promo.ID] = promo
	return promo
}

func (f *fakePromotionStorage) Create(_ context.Context, promo *models.Promotion) (*models.Promotion, error) {
	return f.add(promo), nil
}

func (f *fakePromotionStorage) Update(_ context.Context, promo *models.Promotion) (*models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[promo.ID]; !ok {
		return nil, pgx.ErrNoRows
	}
	f.byID[promo.ID] = promo
	return promo, nil
}

func (f *fakePromotionStorage) GetByCode(_ context.Context, code string) (*models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if strings.EqualFold(p.Code, code) {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePromotionStorage) GetByID(_ context.Context, id int64) (*models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakePromotionStorage) GetAll(_ context.Context) ([]*models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Promotion, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePromotionStorage) IncrementUsage(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

func (f *fakePromotionStorage) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeDriverStorage struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Driver
}

func (f *fakeDriverStorage) Create(_ context.Context, driver *models.Driver) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	driver.ID = f.nextID
	f.byID[driver.ID] = driver
	return driver, nil
}

func (f *fakeDriverStorage) GetByID(_ context.Context, id int64) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (f *fakeDriverStorage) GetByUserID(_ context.Context, userID int64) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.byID {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeDriverStorage) GetAll(_ context.Context, status string) ([]*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Driver
	for _, d := range f.byID {
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDriverStorage) UpdateStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	d.Status = status
	return nil
}

type fakeNotificationStorage struct {
	mu      sync.Mutex
	records map[string]*models.Notification
}

func notifKey(orderID int64, typ string, userID int64) string {
	return strconv.FormatInt(orderID, 10) + "|" + typ + "|" + strconv.FormatInt(userID, 10)
}

func (f *fakeNotificationStorage) Ensure(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := notifKey(n.OrderID, n.Type, n.UserID)
	if _, ok := f.records[key]; ok {
		return nil
	}
	n.CreatedAt = time.Now()
	f.records[key] = n
	return nil
}

func (f *fakeNotificationStorage) Claim(_ context.Context, orderID int64, typ string, userID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[notifKey(orderID, typ, userID)]
	if !ok {
		return "", false, pgx.ErrNoRows
	}
	if n.EmailSent || n.PushSent {
		return "", false, nil
	}
	return n.ID, true, nil
}

func (f *fakeNotificationStorage) MarkOutcome(_ context.Context, id string, emailSent, pushSent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.records {
		if n.ID == id {
			n.EmailSent = emailSent
			n.PushSent = pushSent
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationStorage) GetUserNotifications(_ context.Context, userID int64, _, _ int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.records {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

// fakeQueue records published jobs; failures are injectable.
type fakeQueue struct {
	mu      sync.Mutex
	jobs    []*models.NotificationJob
	failErr error
}

func (f *fakeQueue) PublishJob(_ context.Context, job *models.NotificationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Consume(_ context.Context) (<-chan amqp.Delivery, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQueue) Close() {}

func (f *fakeQueue) published() []*models.NotificationJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.NotificationJob, len(f.jobs))
	copy(out, f.jobs)
	return out
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (f *fakeEvents) PublishOrderEvent(_ context.Context, ev events.OrderEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeEvents) Subscribe(_ context.Context) (<-chan events.OrderEvent, func(), error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeEvents) Close() error { return nil }
