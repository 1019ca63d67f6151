package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusNew            OrderStatus = "new"
	StatusDriverAssigned OrderStatus = "driver_assigned"
	StatusDriverArrived  OrderStatus = "driver_arrived"
	StatusInProgress     OrderStatus = "in_progress"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentBonus PaymentMethod = "bonus"
)

// allowedTransitions is the order state flow as code. Cancellation is
// reachable from every non-terminal state.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:            {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusDriverArrived, StatusCancelled},
	StatusDriverArrived:  {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) Known() bool {
	switch s {
	case StatusNew, StatusDriverAssigned, StatusDriverArrived,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (m PaymentMethod) Known() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentBonus:
		return true
	}
	return false
}

type Order struct {
	ID           int64            `json:"id"`
	Number       string           `json:"number"`
	ClientID     int64            `json:"client_id"`
	DriverID     *int64           `json:"driver_id"`
	DispatcherID *int64           `json:"dispatcher_id"`
	TariffID     int64            `json:"tariff_id"`
	Status       OrderStatus      `json:"status"`
	FromAddress  string           `json:"from_address"`
	FromLat      float64          `json:"from_lat"`
	FromLng      float64          `json:"from_lng"`
	ToAddress    string           `json:"to_address"`
	ToLat        float64          `json:"to_lat"`
	ToLng        float64          `json:"to_lng"`
	EstPrice     decimal.Decimal  `json:"estimated_price"`
	FinalPrice   *decimal.Decimal `json:"final_price"`
	Payment      PaymentMethod    `json:"payment_method"`
	Paid         bool             `json:"paid"`
	DistanceKm   *float64         `json:"distance_km"`
	DurationMin  *float64         `json:"duration_min"`
	CancelReason *string          `json:"cancel_reason"`
	ScheduledAt  *time.Time       `json:"scheduled_at"`
	StartedAt    *time.Time       `json:"started_at"`
	FinishedAt   *time.Time       `json:"finished_at"`
	CreatedAt    time.Time        `json:"created_at"`

	RoutePoints []*RoutePoint `json:"route_points,omitempty"`
}

// RoutePoint is an ordered waypoint owned by one order. Created together
// with the order, no independent lifecycle.
type RoutePoint struct {
	ID      int64   `json:"id"`
	OrderID int64   `json:"order_id"`
	Seq     int     `json:"seq"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Visited bool    `json:"visited"`
}
