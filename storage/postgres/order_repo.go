package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dishdash/pkg/lifecycle"
	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewOrderRepo(db *pgxpool.Pool, log logger.ILogger) storage.IOrderStorage {
	return &orderRepo{db: db, log: log}
}

const orderColumns = `
	id, number, user_id, customer_name, customer_email, customer_phone,
	type, delivery_address, subtotal, delivery_fee, tax, tip, discount, total,
	promo_code, distance_miles, distance_assumed, payment_method, payment_status,
	status, driver_id, confirmed_at, preparing_at, ready_at, picked_up_at,
	on_the_way_at, delivered_at, completed_at, cancelled_at, created_at, updated_at
`

func (r *orderRepo) Create(ctx context.Context, order *models.Order, initial *models.Notification, createdBy string) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("failed to begin order tx", logger.Error(err))
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (number, user_id, customer_name, customer_email, customer_phone,
			type, delivery_address, subtotal, delivery_fee, tax, tip, discount, total,
			promo_code, distance_miles, distance_assumed, payment_method, payment_status, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		order.Number,
		order.UserID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.Type,
		order.DeliveryAddress,
		order.Subtotal,
		order.DeliveryFee,
		order.Tax,
		order.Tip,
		order.Discount,
		order.Total,
		order.PromoCode,
		order.DistanceMiles,
		order.DistanceAssumed,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create order", logger.Error(err))
		return nil, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		extras, err := json.Marshal(item.Extras)
		if err != nil {
			return nil, err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, meal_id, name, unit_price, quantity, extras, instructions)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, order.ID, item.MealID, item.Name, item.UnitPrice, item.Quantity, extras, item.Instructions).Scan(&item.ID)
		if err != nil {
			r.log.Error("failed to create order item", logger.Error(err))
			return nil, err
		}
		item.OrderID = order.ID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, $3)
	`, order.ID, order.Status, createdBy)
	if err != nil {
		r.log.Error("failed to log initial order status", logger.Error(err))
		return nil, err
	}

	if initial != nil {
		initial.OrderID = order.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO notifications (id, user_id, type, title, body, order_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (order_id, type, user_id) DO NOTHING
		`, initial.ID, initial.UserID, initial.Type, initial.Title, initial.Body, initial.OrderID)
		if err != nil {
			r.log.Error("failed to create initial notification", logger.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit order tx", logger.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status lifecycle.Status, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The timestamp column is set only on first entry into the status;
	// re-entering is a no-op for the timestamp.
	query := `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`
	if col := lifecycle.TimestampColumn(status); col != "" {
		query = fmt.Sprintf(
			`UPDATE orders SET status = $1, updated_at = now(), %s = COALESCE(%s, now()) WHERE id = $2`,
			col, col,
		)
	}
	tag, err := tx.Exec(ctx, query, string(status), id)
	if err != nil {
		r.log.Error("failed to update order status", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, $3)
	`, id, string(status), changedBy)
	if err != nil {
		r.log.Error("failed to log order status", logger.Int64("id", id), logger.Error(err))
		return err
	}

	return tx.Commit(ctx)
}

func (r *orderRepo) AssignDriver(ctx context.Context, orderID, driverID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET driver_id = $1, updated_at = now() WHERE id = $2
	`, driverID, orderID)
	if err != nil {
		r.log.Error("failed to assign driver", logger.Int64("order_id", orderID), logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepo) SetPaymentStatus(ctx context.Context, orderID int64, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = now() WHERE id = $2
	`, status, orderID)
	if err != nil {
		r.log.Error("failed to set payment status", logger.Int64("order_id", orderID), logger.Error(err))
	}
	return err
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`
	order, err := r.scanOrder(r.db.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.queryOrders(ctx, query, limit, offset)
}

func (r *orderRepo) GetByStatus(ctx context.Context, status lifecycle.Status, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.queryOrders(ctx, query, string(status), limit, offset)
}

func (r *orderRepo) GetUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.queryOrders(ctx, query, userID, limit, offset)
}

func (r *orderRepo) GetDriverOrders(ctx context.Context, driverID int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, driverID)
}

func (r *orderRepo) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1)`, ids)
	if err != nil {
		r.log.Error("failed to bulk delete orders", logger.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepo) NextDailySequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_sequences (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = order_sequences.seq + 1
		RETURNING seq
	`, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		r.log.Error("failed to advance order sequence", logger.Error(err))
		return 0, err
	}
	return seq, nil
}

func (r *orderRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *orderRepo) Revenue(ctx context.Context, since time.Time) (float64, error) {
	var revenue float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM orders
		WHERE status = 'completed' AND created_at >= $1
	`, since).Scan(&revenue)
	return revenue, err
}

func (r *orderRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query orders", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepo) scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.UserID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.Type,
		&order.DeliveryAddress,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Tax,
		&order.Tip,
		&order.Discount,
		&order.Total,
		&order.PromoCode,
		&order.DistanceMiles,
		&order.DistanceAssumed,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&order.DriverID,
		&order.ConfirmedAt,
		&order.PreparingAt,
		&order.ReadyAt,
		&order.PickedUpAt,
		&order.OnTheWayAt,
		&order.DeliveredAt,
		&order.CompletedAt,
		&order.CancelledAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, meal_id, name, unit_price, quantity, extras, instructions
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, order.ID)
	if err != nil {
		r.log.Error("failed to load order items", logger.Int64("order_id", order.ID), logger.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var extras []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MealID, &item.Name, &item.UnitPrice, &item.Quantity, &extras, &item.Instructions); err != nil {
			return err
		}
		if len(extras) > 0 {
			if err := json.Unmarshal(extras, &item.Extras); err != nil {
				return err
			}
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
