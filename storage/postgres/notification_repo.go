package postgres

import (
	"context"
	"errors"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type notificationRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewNotificationRepo(db *pgxpool.Pool, log logger.ILogger) storage.INotificationStorage {
	return &notificationRepo{db: db, log: log}
}

func (r *notificationRepo) Ensure(ctx context.Context, n *models.Notification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id, type, user_id) DO NOTHING
	`, n.ID, n.UserID, n.Type, n.Title, n.Body, n.OrderID)
	if err != nil {
		r.log.Error("failed to ensure notification", logger.Int64("order_id", n.OrderID), logger.Error(err))
	}
	return err
}

func (r *notificationRepo) Claim(ctx context.Context, orderID int64, typ string, userID int64) (string, bool, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		UPDATE notifications
		SET dispatched_at = now()
		WHERE order_id = $1 AND type = $2 AND user_id = $3 AND dispatched_at IS NULL
		RETURNING id
	`, orderID, typ, userID).Scan(&id)
	if err != nil {
		// No claimable row means another delivery got here first.
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		r.log.Error("failed to claim notification", logger.Int64("order_id", orderID), logger.Error(err))
		return "", false, err
	}
	return id, true, nil
}

func (r *notificationRepo) MarkOutcome(ctx context.Context, id string, emailSent, pushSent bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications SET email_sent = $1, push_sent = $2 WHERE id = $3
	`, emailSent, pushSent, id)
	if err != nil {
		r.log.Error("failed to mark notification outcome", logger.String("id", id), logger.Error(err))
	}
	return err
}

func (r *notificationRepo) GetUserNotifications(ctx context.Context, userID int64, limit, offset int) ([]*models.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, title, body, order_id, email_sent, push_sent, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		r.log.Error("failed to query notifications", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.OrderID, &n.EmailSent, &n.PushSent, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}
