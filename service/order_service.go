package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/pkg/notify"
	"jolaman/storage"
)

// Fallback trip estimate used when the caller supplies none. A routing
// collaborator would normally provide these.
const (
	defaultEstDistanceKm  = 5.0
	defaultEstDurationMin = 15.0
)

type RoutePointInput struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type CreateOrderInput struct {
	ClientID     int64             `json:"client_id"`
	DispatcherID *int64            `json:"dispatcher_id"`
	TariffID     int64             `json:"tariff_id"`
	FromAddress  string            `json:"from_address"`
	FromLat      float64           `json:"from_lat"`
	FromLng      float64           `json:"from_lng"`
	ToAddress    string            `json:"to_address"`
	ToLat        float64           `json:"to_lat"`
	ToLng        float64           `json:"to_lng"`
	Payment      models.PaymentMethod `json:"payment_method"`
	ScheduledAt  *time.Time        `json:"scheduled_at"`
	EstDistanceKm  float64         `json:"est_distance_km"`
	EstDurationMin float64         `json:"est_duration_min"`
	RoutePoints  []RoutePointInput `json:"route_points"`
}

type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*models.Order, error)
	Accept(ctx context.Context, orderID, driverID int64) (*models.Order, error)
	AdvanceStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error)
	Finish(ctx context.Context, orderID int64, distanceKm, durationMin float64) (*models.Order, error)
	Cancel(ctx context.Context, orderID int64, reason string) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ClientOrders(ctx context.Context, clientID int64, page, limit int) ([]*models.Order, error)
	DriverOrders(ctx context.Context, driverID int64, page, limit int) ([]*models.Order, error)
}

type orderService struct {
	stg               storage.IStorage
	notifier          notify.Notifier
	log               logger.ILogger
	commissionPercent decimal.Decimal
}

func NewOrderService(stg storage.IStorage, notifier notify.Notifier, commissionPercent float64, log logger.ILogger) OrderService {
	return &orderService{
		stg:               stg,
		notifier:          notifier,
		log:               log,
		commissionPercent: decimal.NewFromFloat(commissionPercent),
	}
}

func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.ClientID <= 0 {
		return nil, fmt.Errorf("%w: client_id is required", myerrors.ErrValidation)
	}
	if in.FromAddress == "" || in.ToAddress == "" {
		return nil, fmt.Errorf("%w: from and to addresses are required", myerrors.ErrValidation)
	}
	if in.Payment == "" {
		in.Payment = models.PaymentCash
	}
	if !in.Payment.Known() {
		return nil, fmt.Errorf("%w: unknown payment method %q", myerrors.ErrValidation, in.Payment)
	}

	tariff, err := s.stg.Tariff().GetActiveByID(ctx, in.TariffID)
	if err != nil {
		return nil, err
	}

	distance := in.EstDistanceKm
	duration := in.EstDurationMin
	if distance <= 0 {
		distance = defaultEstDistanceKm
	}
	if duration <= 0 {
		duration = defaultEstDurationMin
	}

	order := &models.Order{
		Number:       newOrderNumber(),
		ClientID:     in.ClientID,
		DispatcherID: in.DispatcherID,
		TariffID:     tariff.ID,
		Status:       models.StatusNew,
		FromAddress:  in.FromAddress,
		FromLat:      in.FromLat,
		FromLng:      in.FromLng,
		ToAddress:    in.ToAddress,
		ToLat:        in.ToLat,
		ToLng:        in.ToLng,
		EstPrice:     CalculatePrice(tariff, distance, duration),
		Payment:      in.Payment,
		ScheduledAt:  in.ScheduledAt,
	}
	for _, p := range in.RoutePoints {
		order.RoutePoints = append(order.RoutePoints, &models.RoutePoint{
			Address: p.Address,
			Lat:     p.Lat,
			Lng:     p.Lng,
		})
	}

	// Order and its route points persist atomically.
	err = s.stg.WithinTx(ctx, func(tx storage.IStorage) error {
		_, err := tx.Order().Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		logger.Int64("order_id", order.ID),
		logger.String("number", order.Number),
		logger.Int64("client_id", order.ClientID),
	)
	s.notifier.OrderEvent(order.ID, order.Number, "created")
	return order, nil
}

func (s *orderService) Accept(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	if driverID <= 0 {
		return nil, fmt.Errorf("%w: driver_id is required", myerrors.ErrValidation)
	}
	if _, err := s.stg.Driver().GetByID(ctx, driverID); err != nil {
		return nil, err
	}

	ok, err := s.stg.Order().TakeOrder(ctx, orderID, driverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing order from one already taken or cancelled.
		if _, err := s.stg.Order().GetByID(ctx, orderID); err != nil {
			return nil, err
		}
		return nil, myerrors.ErrInvalidTransition
	}

	order, err := s.stg.Order().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("order accepted",
		logger.Int64("order_id", orderID),
		logger.Int64("driver_id", driverID),
	)
	s.notifier.OrderEvent(order.ID, order.Number, "driver_assigned")
	return order, nil
}

// AdvanceStatus moves an order forward along the driver flow. Completion
// goes only through Finish (it owns the price and commission path) and
// cancellation only through Cancel (it records the reason), so both are
// rejected here.
func (s *orderService) AdvanceStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	if !status.Known() {
		return nil, fmt.Errorf("%w: unknown status %q", myerrors.ErrValidation, status)
	}

	current, err := s.stg.Order().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, status) {
		return nil, myerrors.ErrInvalidTransition
	}

	var ok bool
	switch status {
	case models.StatusDriverArrived:
		ok, err = s.stg.Order().SetOrderArrived(ctx, orderID)
	case models.StatusInProgress:
		ok, err = s.stg.Order().SetOrderInProgress(ctx, orderID, time.Now())
	default:
		return nil, myerrors.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		// The order moved between the check and the guarded update.
		return nil, myerrors.ErrInvalidTransition
	}

	order, err := s.stg.Order().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.notifier.OrderEvent(order.ID, order.Number, string(status))
	return order, nil
}

// Finish completes an in_progress order and debits the driver's
// commission in one transactional scope: the order is never marked
// completed without its commission recorded, and the driver is never
// charged for an order that failed to complete.
func (s *orderService) Finish(ctx context.Context, orderID int64, distanceKm, durationMin float64) (*models.Order, error) {
	if distanceKm < 0 || durationMin < 0 {
		return nil, fmt.Errorf("%w: trip metrics must be non-negative", myerrors.ErrValidation)
	}

	var order *models.Order
	err := s.stg.WithinTx(ctx, func(tx storage.IStorage) error {
		o, err := tx.Order().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !models.CanTransition(o.Status, models.StatusCompleted) {
			return myerrors.ErrInvalidTransition
		}

		tariff, err := tx.Tariff().GetByID(ctx, o.TariffID)
		if err != nil {
			return err
		}
		finalPrice := CalculatePrice(tariff, distanceKm, durationMin)
		paid := o.Payment == models.PaymentBonus

		ok, err := tx.Order().CompleteOrder(ctx, orderID, finalPrice, distanceKm, durationMin, time.Now(), paid)
		if err != nil {
			return err
		}
		if !ok {
			return myerrors.ErrInvalidTransition
		}

		if o.DriverID != nil {
			commission := finalPrice.Mul(s.commissionPercent).Div(decimal.NewFromInt(100)).Round(2)
			if commission.IsPositive() {
				_, err := applyTransaction(ctx, tx, ApplyTransactionInput{
					DriverID:    *o.DriverID,
					Amount:      commission,
					Type:        models.TxOrderCommission,
					Description: fmt.Sprintf("Commission for order #%s", o.Number),
					OrderID:     &o.ID,
				})
				if err != nil {
					return err
				}
			}
		}

		order, err = tx.Order().GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order finished",
		logger.Int64("order_id", order.ID),
		logger.String("final_price", order.FinalPrice.String()),
	)
	s.notifier.OrderEvent(order.ID, order.Number, "completed")
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, orderID int64, reason string) (*models.Order, error) {
	current, err := s.stg.Order().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, myerrors.ErrInvalidTransition
	}

	ok, err := s.stg.Order().CancelOrder(ctx, orderID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, myerrors.ErrInvalidTransition
	}

	order, err := s.stg.Order().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled",
		logger.Int64("order_id", orderID),
		logger.String("reason", reason),
	)
	s.notifier.OrderEvent(order.ID, order.Number, "cancelled")
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.stg.Order().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	points, err := s.stg.Order().GetRoutePoints(ctx, id)
	if err != nil {
		return nil, err
	}
	order.RoutePoints = points
	return order, nil
}

func (s *orderService) ClientOrders(ctx context.Context, clientID int64, page, limit int) ([]*models.Order, error) {
	limit, offset := pageToRange(page, limit)
	return s.stg.Order().GetClientOrders(ctx, clientID, limit, offset)
}

func (s *orderService) DriverOrders(ctx context.Context, driverID int64, page, limit int) ([]*models.Order, error) {
	limit, offset := pageToRange(page, limit)
	return s.stg.Order().GetDriverOrders(ctx, driverID, limit, offset)
}

func pageToRange(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

// newOrderNumber draws a random 4-digit display code. It is cosmetic
// only and not a key; collisions are tolerated.
func newOrderNumber() string {
	return fmt.Sprintf("%04d", rand.IntN(10000))
}
