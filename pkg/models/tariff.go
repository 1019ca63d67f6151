package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tariff struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	BasePrice    decimal.Decimal `json:"base_price"`
	PricePerKm   decimal.Decimal `json:"price_per_km"`
	PricePerMin  decimal.Decimal `json:"price_per_min"`
	WaitingPrice decimal.Decimal `json:"waiting_price"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}
