// Package worker consumes notification fan-out jobs and performs the
// best-effort delivery: persist the in-app record, attempt push, then
// email with bounded retry. Duplicate queue deliveries are deduplicated
// against the notification record, so the whole pipeline tolerates
// at-least-once semantics.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"dishdash/config"
	"dishdash/pkg/lifecycle"
	"dishdash/pkg/logger"
	"dishdash/pkg/mailer"
	"dishdash/pkg/models"
	"dishdash/pkg/push"
	"dishdash/pkg/queue"
	"dishdash/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
)

const driverAssignedType = "driver_assigned"

type Worker struct {
	queue  queue.IQueue
	stg    storage.INotificationStorage
	push   push.ISender
	mailer mailer.IMailer
	cfg    config.Config
	log    logger.ILogger

	wg sync.WaitGroup
}

func New(q queue.IQueue, stg storage.IStorage, p push.ISender, m mailer.IMailer, cfg config.Config, log logger.ILogger) *Worker {
	return &Worker{
		queue:  q,
		stg:    stg.Notification(),
		push:   p,
		mailer: m,
		cfg:    cfg,
		log:    log,
	}
}

// Run consumes until the context is cancelled, then waits for in-flight
// deliveries to finish.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.queue.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to consume notification queue: %w", err)
	}
	w.log.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.log.Info("notification worker stopped")
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.wg.Add(1)
			go func(msg amqp.Delivery) {
				defer w.wg.Done()
				if err := w.process(ctx, msg); err != nil {
					w.log.Error("failed to process notification job", logger.Error(err))
					if nackErr := msg.Nack(false, true); nackErr != nil {
						w.log.Error("failed to nack", logger.Error(nackErr))
					}
					return
				}
				if err := msg.Ack(false); err != nil {
					w.log.Error("failed to ack", logger.Error(err))
				}
			}(msg)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg amqp.Delivery) error {
	var job models.NotificationJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		// Poison message; acking it via the nil return would loop, so
		// log and drop it instead of requeueing forever.
		w.log.Error("unparseable notification job", logger.Error(err))
		return nil
	}

	var err error
	if job.Status == driverAssignedType {
		err = w.processDriverJob(ctx, &job)
	} else {
		err = w.processCustomerJob(ctx, &job)
	}
	if err != nil && isNonRetryable(err) {
		// A foreign-key violation means the order is gone (bulk delete
		// raced the job); requeueing would spin on it forever.
		w.log.Error("dropping notification job that can never succeed",
			logger.String("order", job.OrderNumber),
			logger.String("status", job.Status),
			logger.Error(err),
		)
		return nil
	}
	return err
}

func isNonRetryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (w *Worker) processCustomerJob(ctx context.Context, job *models.NotificationJob) error {
	status, err := lifecycle.Normalize(job.Status)
	if err != nil || !lifecycle.IsNotifiable(status) {
		w.log.Warning("job for non-notifiable status dropped", logger.String("status", job.Status))
		return nil
	}

	title := lifecycle.Title(status)
	body := statusBody(status, job)

	if err := w.stg.Ensure(ctx, &models.Notification{
		ID:      uuid.NewString(),
		UserID:  job.UserID,
		Type:    string(status),
		Title:   title,
		Body:    body,
		OrderID: job.OrderID,
	}); err != nil {
		return err
	}

	// Claim guards against duplicate queue deliveries: only one
	// consumer ever dispatches for a given (order, status).
	id, claimed, err := w.stg.Claim(ctx, job.OrderID, string(status), job.UserID)
	if err != nil {
		return err
	}
	if !claimed {
		w.log.Debug("duplicate notification delivery skipped",
			logger.String("order", job.OrderNumber),
			logger.String("status", string(status)),
		)
		return nil
	}

	pushSent := false
	if job.PushToken != "" {
		payload := map[string]string{
			"type":    string(status),
			"orderId": fmt.Sprintf("%d", job.OrderID),
			"screen":  "OrderDetails",
		}
		if err := w.push.Send(job.PushToken, title, body, payload); err == nil {
			pushSent = true
		}
	}

	emailSent := false
	if !job.EmailOptOut && job.CustomerEmail != "" {
		data := mailer.TemplateData{
			CustomerName: job.CustomerName,
			OrderNumber:  job.OrderNumber,
		}
		switch status {
		case lifecycle.StatusReceived, lifecycle.StatusPreparing:
			data.EstimatedTime = w.cfg.PrepEstimate
		case lifecycle.StatusReady, lifecycle.StatusPickedUp:
			if job.OrderType == models.OrderTypePickup {
				data.PickupLocation = w.cfg.RestaurantAddress
			}
		case lifecycle.StatusDelivered:
			if job.DeliveryAddress != nil {
				data.DeliveryAddress = *job.DeliveryAddress
			}
		}
		if err := w.mailer.DispatchStatusEmail(ctx, job.CustomerEmail, status, data); err != nil {
			w.log.Warning("email delivery failed permanently",
				logger.String("order", job.OrderNumber),
				logger.String("status", string(status)),
				logger.Error(err),
			)
		} else {
			emailSent = true
		}
	}

	return w.stg.MarkOutcome(ctx, id, emailSent, pushSent)
}

func (w *Worker) processDriverJob(ctx context.Context, job *models.NotificationJob) error {
	title := "New Delivery Assignment"
	body := fmt.Sprintf("Order #%s", job.OrderNumber)
	if job.DeliveryAddress != nil {
		body = fmt.Sprintf("Order #%s to %s", job.OrderNumber, addressSummary(*job.DeliveryAddress))
	}

	if err := w.stg.Ensure(ctx, &models.Notification{
		ID:      uuid.NewString(),
		UserID:  job.DriverUserID,
		Type:    driverAssignedType,
		Title:   title,
		Body:    body,
		OrderID: job.OrderID,
	}); err != nil {
		return err
	}

	id, claimed, err := w.stg.Claim(ctx, job.OrderID, driverAssignedType, job.DriverUserID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	pushSent := false
	if job.DriverPushToken != "" {
		payload := map[string]string{
			"type":    driverAssignedType,
			"orderId": fmt.Sprintf("%d", job.OrderID),
			"screen":  "DeliveryDetails",
		}
		if err := w.push.Send(job.DriverPushToken, title, body, payload); err == nil {
			pushSent = true
		}
	}

	return w.stg.MarkOutcome(ctx, id, false, pushSent)
}

func statusBody(status lifecycle.Status, job *models.NotificationJob) string {
	switch status {
	case lifecycle.StatusReceived:
		return fmt.Sprintf("Your order #%s has been received.", job.OrderNumber)
	case lifecycle.StatusPreparing:
		return fmt.Sprintf("Your order #%s is being prepared.", job.OrderNumber)
	case lifecycle.StatusReady:
		if job.OrderType == models.OrderTypePickup {
			return fmt.Sprintf("Your order #%s is ready for pickup.", job.OrderNumber)
		}
		return fmt.Sprintf("Your order #%s is ready.", job.OrderNumber)
	case lifecycle.StatusPickedUp:
		return fmt.Sprintf("Your order #%s has been picked up.", job.OrderNumber)
	case lifecycle.StatusDelivered:
		return fmt.Sprintf("Your order #%s has been delivered.", job.OrderNumber)
	}
	return fmt.Sprintf("Update for order #%s.", job.OrderNumber)
}

// addressSummary keeps driver pushes short: street line only.
func addressSummary(address string) string {
	for i, r := range address {
		if r == ',' {
			return address[:i]
		}
	}
	return address
}
