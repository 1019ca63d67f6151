package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Driver balance is mutated only through the ledger service; no other
// code path assigns it directly.
type Driver struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	FullName     string          `json:"full_name"`
	Phone        string          `json:"phone"`
	CarModel     string          `json:"car_model"`
	LicensePlate string          `json:"license_plate"`
	Balance      decimal.Decimal `json:"balance"`
	Rating       float64         `json:"rating"`
	Status       string          `json:"status"` // pending_review, active, rejected, blocked
	CreatedAt    time.Time       `json:"created_at"`
}
