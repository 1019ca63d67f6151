package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/storage"
)

type orderRepo struct {
	db  querier
	log logger.ILogger
}

func NewOrderRepo(db querier, log logger.ILogger) storage.IOrderStorage {
	return &orderRepo{db: db, log: log}
}

const orderColumns = `
	id, number, client_id, driver_id, dispatcher_id, tariff_id, status,
	from_address, from_lat, from_lng, to_address, to_lat, to_lng,
	estimated_price, final_price, payment_method, paid,
	distance_km, duration_min, cancel_reason,
	scheduled_at, started_at, finished_at, created_at`

func (r *orderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	query := `
		INSERT INTO orders (
			number, client_id, driver_id, dispatcher_id, tariff_id, status,
			from_address, from_lat, from_lng, to_address, to_lat, to_lng,
			estimated_price, payment_method, scheduled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		order.Number,
		order.ClientID,
		order.DriverID,
		order.DispatcherID,
		order.TariffID,
		order.Status,
		order.FromAddress,
		order.FromLat,
		order.FromLng,
		order.ToAddress,
		order.ToLat,
		order.ToLng,
		order.EstPrice,
		order.Payment,
		order.ScheduledAt,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		r.log.Error("failed to create order", logger.Error(err))
		return nil, err
	}

	for i, p := range order.RoutePoints {
		p.OrderID = order.ID
		p.Seq = i + 1
		err := r.db.QueryRow(ctx, `
			INSERT INTO order_route_points (order_id, seq, address, lat, lng)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, p.OrderID, p.Seq, p.Address, p.Lat, p.Lng).Scan(&p.ID)
		if err != nil {
			r.log.Error("failed to create route point", logger.Int64("order_id", order.ID), logger.Error(err))
			return nil, err
		}
	}

	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, myerrors.ErrOrderNotFound
		}
		r.log.Error("failed to get order by id", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) GetRoutePoints(ctx context.Context, orderID int64) ([]*models.RoutePoint, error) {
	query := `
		SELECT id, order_id, seq, address, lat, lng, visited
		FROM order_route_points
		WHERE order_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*models.RoutePoint
	for rows.Next() {
		var p models.RoutePoint
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Seq, &p.Address, &p.Lat, &p.Lng, &p.Visited); err != nil {
			return nil, err
		}
		points = append(points, &p)
	}
	return points, rows.Err()
}

func (r *orderRepo) GetClientOrders(ctx context.Context, clientID int64, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.scanOrders(ctx, query, clientID, limit, offset)
}

func (r *orderRepo) GetDriverOrders(ctx context.Context, driverID int64, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.scanOrders(ctx, query, driverID, limit, offset)
}

// TakeOrder assigns the driver and moves the order to driver_assigned,
// but only from status new. Zero rows means the order was already taken,
// cancelled, or never existed.
func (r *orderRepo) TakeOrder(ctx context.Context, orderID, driverID int64) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, driver_id = $2
		WHERE id = $3 AND status = $4 AND driver_id IS NULL
	`, models.StatusDriverAssigned, driverID, orderID, models.StatusNew)
	if err != nil {
		r.log.Error("failed to take order", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *orderRepo) SetOrderArrived(ctx context.Context, orderID int64) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND status = $3
	`, models.StatusDriverArrived, orderID, models.StatusDriverAssigned)
	if err != nil {
		r.log.Error("failed to set order arrived", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *orderRepo) SetOrderInProgress(ctx context.Context, orderID int64, startedAt time.Time) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`, models.StatusInProgress, startedAt, orderID, models.StatusDriverArrived)
	if err != nil {
		r.log.Error("failed to set order in progress", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

// CompleteOrder stamps final price, trip metrics and finished_at in one
// guarded write. Only an in_progress order can complete, so final_price
// and finished_at are set together exactly once.
func (r *orderRepo) CompleteOrder(ctx context.Context, orderID int64, finalPrice decimal.Decimal, distanceKm, durationMin float64, finishedAt time.Time, paid bool) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, final_price = $2, distance_km = $3, duration_min = $4,
		    finished_at = $5, paid = $6
		WHERE id = $7 AND status = $8
	`, models.StatusCompleted, finalPrice, distanceKm, durationMin,
		finishedAt, paid, orderID, models.StatusInProgress)
	if err != nil {
		r.log.Error("failed to complete order", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *orderRepo) CancelOrder(ctx context.Context, orderID int64, reason string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, cancel_reason = $2
		WHERE id = $3 AND status NOT IN ($4, $5)
	`, models.StatusCancelled, reason, orderID, models.StatusCompleted, models.StatusCancelled)
	if err != nil {
		r.log.Error("failed to cancel order", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *orderRepo) scanOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
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
	return orders, rows.Err()
}

func (r *orderRepo) scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.ClientID, &o.DriverID, &o.DispatcherID, &o.TariffID, &o.Status,
		&o.FromAddress, &o.FromLat, &o.FromLng, &o.ToAddress, &o.ToLat, &o.ToLng,
		&o.EstPrice, &o.FinalPrice, &o.Payment, &o.Paid,
		&o.DistanceKm, &o.DurationMin, &o.CancelReason,
		&o.ScheduledAt, &o.StartedAt, &o.FinishedAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
