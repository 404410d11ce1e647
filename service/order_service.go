package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dishdash/config"
	"dishdash/pkg/events"
	"dishdash/pkg/lifecycle"
	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/pkg/pricing"
	"dishdash/pkg/queue"
	"dishdash/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateOrderItem struct {
	MealID       int64               `json:"meal_id"`
	Quantity     int                 `json:"quantity"`
	Extras       []models.OrderExtra `json:"extras,omitempty"`
	Instructions *string             `json:"instructions,omitempty"`
}

type CreateOrderInput struct {
	UserID          int64
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Type            string
	DeliveryAddress *string
	Items           []CreateOrderItem
	Tip             float64
	PromoCode       string
	// DistanceMiles is nil when geolocation was unavailable; the
	// configured default distance is applied and flagged on the order.
	DistanceMiles *float64
	PaymentMethod string
	// AdminCreated orders enter the lifecycle at confirmed instead of
	// received.
	AdminCreated bool
	// CreatedBy is the status-log actor; empty means the storefront.
	CreatedBy string
}

type OrderStats struct {
	CountsByStatus map[string]int `json:"counts_by_status"`
	Revenue30d     float64        `json:"revenue_30d"`
}

// OrderService is the lifecycle authority: the only component permitted
// to create orders and transition their status, and the only source of
// the notification fan-out.
type OrderService interface {
	Create(ctx context.Context, in *CreateOrderInput) (*models.Order, error)
	ChangeStatus(ctx context.Context, orderID int64, newStatus, changedBy string) (*models.Order, error)
	AssignDriver(ctx context.Context, orderID, driverID int64) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]*models.Order, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
	Stats(ctx context.Context) (*OrderStats, error)
}

type orderService struct {
	stg    storage.IStorage
	queue  queue.IQueue
	events events.IPublisher
	promos PromotionService
	cfg    config.Config
	log    logger.ILogger
}

func NewOrderService(stg storage.IStorage, q queue.IQueue, ev events.IPublisher, promos PromotionService, cfg config.Config, log logger.ILogger) OrderService {
	return &orderService{
		stg:    stg,
		queue:  q,
		events: ev,
		promos: promos,
		cfg:    cfg,
		log:    log,
	}
}

func (s *orderService) Create(ctx context.Context, in *CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	items, subtotal, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	distanceKnown := in.DistanceMiles != nil
	distance := 0.0
	if distanceKnown {
		distance = *in.DistanceMiles
	}

	// The promo is re-validated here, at submission time, so a stale
	// client-side discount is never honored past expiry.
	var promo *models.Promotion
	if in.PromoCode != "" {
		fee := pricing.Round2(pricing.DeliveryFee(in.Type, effectiveDistance(in.Type, distance, distanceKnown, s.cfg.DefaultDistanceMiles)))
		promo, err = s.promos.Redeem(ctx, in.PromoCode, subtotal+fee)
		if err != nil {
			return nil, err
		}
	}

	breakdown := pricing.Quote(pricing.QuoteInput{
		Subtotal:        subtotal,
		Tip:             in.Tip,
		OrderType:       in.Type,
		DistanceMiles:   distance,
		DistanceKnown:   distanceKnown,
		DefaultDistance: s.cfg.DefaultDistanceMiles,
		Promo:           promo,
		TaxRate:         s.cfg.TaxRate,
	})

	number, err := s.nextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	status := lifecycle.StatusReceived
	if in.AdminCreated {
		status = lifecycle.StatusConfirmed
	}

	order := &models.Order{
		Number:          number,
		UserID:          in.UserID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		Type:            in.Type,
		DeliveryAddress: in.DeliveryAddress,
		Items:           items,
		Subtotal:        breakdown.Subtotal,
		DeliveryFee:     breakdown.DeliveryFee,
		Tax:             breakdown.Tax,
		Tip:             breakdown.Tip,
		Discount:        breakdown.Discount,
		Total:           breakdown.Total,
		DistanceMiles:   breakdown.DistanceMiles,
		DistanceAssumed: breakdown.DistanceAssumed,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		Status:          string(status),
	}
	if promo != nil {
		order.PromoCode = &promo.Code
	}

	// Order, items, status log and the initial notification record are
	// one all-or-nothing write.
	var initial *models.Notification
	if lifecycle.IsNotifiable(status) {
		initial = &models.Notification{
			ID:     uuid.NewString(),
			UserID: order.UserID,
			Type:   string(status),
			Title:  lifecycle.Title(status),
			Body:   fmt.Sprintf("Your order #%s has been received.", order.Number),
		}
	}
	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = "storefront"
	}
	order, err = s.stg.Order().Create(ctx, order, initial, createdBy)
	if err != nil {
		return nil, err
	}

	s.events.PublishOrderEvent(ctx, events.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		At:          time.Now(),
	})
	if lifecycle.IsNotifiable(status) {
		s.enqueueCustomerJob(ctx, order, status)
	}

	s.log.Info("order created",
		logger.String("number", order.Number),
		logger.String("type", order.Type),
		logger.Float64("total", order.Total),
	)
	return order, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, orderID int64, newStatus, changedBy string) (*models.Order, error) {
	status, err := lifecycle.Normalize(newStatus)
	if err != nil {
		return nil, &ValidationError{Field: "status", Message: err.Error()}
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := lifecycle.Status(order.Status)
	if current == status {
		// Re-saving the same status is an idempotent no-op: no
		// timestamp overwrite, no second fan-out.
		return order, nil
	}
	if !lifecycle.CanTransition(current, status, order.Type) {
		return nil, &TransitionError{From: order.Status, To: string(status)}
	}

	// The status write is authoritative; if it fails the whole
	// transition is rejected. Everything after it is best-effort.
	if err := s.stg.Order().UpdateStatus(ctx, orderID, status, changedBy); err != nil {
		return nil, err
	}

	order, err = s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.events.PublishOrderEvent(ctx, events.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		DriverID:    order.DriverID,
		At:          time.Now(),
	})
	if lifecycle.IsNotifiable(status) {
		s.enqueueCustomerJob(ctx, order, status)
	}

	return order, nil
}

func (s *orderService) AssignDriver(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	driver, err := s.stg.Driver().GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if driver.Status != models.DriverStatusApproved {
		return nil, ErrDriverNotApproved
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DriverID != nil && *order.DriverID == driverID {
		return order, nil
	}

	if err := s.stg.Order().AssignDriver(ctx, orderID, driverID); err != nil {
		return nil, err
	}
	order.DriverID = &driverID

	s.events.PublishOrderEvent(ctx, events.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		DriverID:    &driverID,
		At:          time.Now(),
	})
	s.enqueueDriverJob(ctx, order, driver)

	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.stg.Order().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	return s.stg.Order().GetUserOrders(ctx, userID, limit, offset)
}

func (s *orderService) ListAll(ctx context.Context, status string, limit, offset int) ([]*models.Order, error) {
	if status == "" {
		return s.stg.Order().GetAll(ctx, limit, offset)
	}
	st, err := lifecycle.Normalize(status)
	if err != nil {
		return nil, &ValidationError{Field: "status", Message: err.Error()}
	}
	return s.stg.Order().GetByStatus(ctx, st, limit, offset)
}

func (s *orderService) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	return s.stg.Order().DeleteMany(ctx, ids)
}

func (s *orderService) Stats(ctx context.Context) (*OrderStats, error) {
	counts, err := s.stg.Order().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.stg.Order().Revenue(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	return &OrderStats{CountsByStatus: counts, Revenue30d: revenue}, nil
}

func (s *orderService) priceItems(ctx context.Context, reqItems []CreateOrderItem) ([]models.OrderItem, float64, error) {
	ids := make([]int64, 0, len(reqItems))
	for _, it := range reqItems {
		ids = append(ids, it.MealID)
	}
	meals, err := s.stg.Meal().GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	var items []models.OrderItem
	subtotal := 0.0
	for _, it := range reqItems {
		meal, ok := meals[it.MealID]
		if !ok || !meal.Active {
			return nil, 0, &ValidationError{Field: "items", Message: fmt.Sprintf("meal %d is not on the menu", it.MealID)}
		}
		if !meal.Available {
			return nil, 0, &ValidationError{Field: "items", Message: fmt.Sprintf("%s is currently unavailable", meal.Name)}
		}
		line := meal.Price
		for _, extra := range it.Extras {
			if extra.Price < 0 {
				return nil, 0, &ValidationError{Field: "items", Message: "extra price cannot be negative"}
			}
			line += extra.Price
		}
		subtotal += line * float64(it.Quantity)
		items = append(items, models.OrderItem{
			MealID:       meal.ID,
			Name:         meal.Name,
			UnitPrice:    meal.Price,
			Quantity:     it.Quantity,
			Extras:       it.Extras,
			Instructions: it.Instructions,
		})
	}
	return items, pricing.Round2(subtotal), nil
}

func (s *orderService) nextOrderNumber(ctx context.Context) (string, error) {
	now := time.Now()
	seq, err := s.stg.Order().NextDailySequence(ctx, now)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), seq), nil
}

// enqueueCustomerJob publishes the fan-out job. Queue failure is logged
// and swallowed: the status write already succeeded and must stand.
func (s *orderService) enqueueCustomerJob(ctx context.Context, order *models.Order, status lifecycle.Status) {
	job := &models.NotificationJob{
		OrderID:         order.ID,
		OrderNumber:     order.Number,
		Status:          string(status),
		UserID:          order.UserID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		OrderType:       order.Type,
		DeliveryAddress: order.DeliveryAddress,
	}
	if user, err := s.stg.User().GetByID(ctx, order.UserID); err == nil {
		job.EmailOptOut = user.EmailOptOut
		if user.PushToken != nil {
			job.PushToken = *user.PushToken
		}
	}
	if err := s.queue.PublishJob(ctx, job); err != nil {
		s.log.Error("failed to enqueue notification job",
			logger.String("order", order.Number),
			logger.String("status", string(status)),
			logger.Error(err),
		)
	}
}

func (s *orderService) enqueueDriverJob(ctx context.Context, order *models.Order, driver *models.Driver) {
	job := &models.NotificationJob{
		OrderID:         order.ID,
		OrderNumber:     order.Number,
		Status:          "driver_assigned",
		UserID:          order.UserID,
		CustomerName:    order.CustomerName,
		OrderType:       order.Type,
		DeliveryAddress: order.DeliveryAddress,
		DriverID:        &driver.ID,
		DriverUserID:    driver.UserID,
	}
	if user, err := s.stg.User().GetByID(ctx, driver.UserID); err == nil && user.PushToken != nil {
		job.DriverPushToken = *user.PushToken
	}
	if err := s.queue.PublishJob(ctx, job); err != nil {
		s.log.Error("failed to enqueue driver notification",
			logger.String("order", order.Number),
			logger.Int64("driver_id", driver.ID),
			logger.Error(err),
		)
	}
}

func effectiveDistance(orderType string, distance float64, known bool, fallback float64) float64 {
	if orderType == models.OrderTypeDelivery && !known {
		return fallback
	}
	return distance
}

func validateCreateInput(in *CreateOrderInput) error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		return &ValidationError{Field: "customer_email", Message: "a valid email address is required"}
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return &ValidationError{Field: "customer_phone", Message: "customer phone is required"}
	}
	if in.Type != models.OrderTypeDelivery && in.Type != models.OrderTypePickup {
		return &ValidationError{Field: "type", Message: "order type must be delivery or pickup"}
	}
	if in.Type == models.OrderTypeDelivery && (in.DeliveryAddress == nil || strings.TrimSpace(*in.DeliveryAddress) == "") {
		return &ValidationError{Field: "delivery_address", Message: "delivery address is required for delivery orders"}
	}
	if len(in.Items) == 0 {
		return &ValidationError{Field: "items", Message: "order must contain at least one item"}
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return &ValidationError{Field: "items", Message: "item quantity must be at least 1"}
		}
	}
	if in.Tip < 0 {
		return &ValidationError{Field: "tip", Message: "tip cannot be negative"}
	}
	if in.PaymentMethod != models.PaymentMethodCard && in.PaymentMethod != models.PaymentMethodCash {
		return &ValidationError{Field: "payment_method", Message: "payment method must be card or cash"}
	}
	return nil
}
