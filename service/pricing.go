package service

import (
	"github.com/shopspring/decimal"

	"jolaman/pkg/models"
)

// CalculatePrice computes a trip price from a tariff and trip metrics:
// base + distance*perKm + duration*perMin, floored at the base price
// (minimum fare) and rounded to 2 decimal places. Pure and
// deterministic; both the creation estimate and the final price go
// through here.
func CalculatePrice(tariff *models.Tariff, distanceKm, durationMin float64) decimal.Decimal {
	price := tariff.BasePrice.
		Add(decimal.NewFromFloat(distanceKm).Mul(tariff.PricePerKm)).
		Add(decimal.NewFromFloat(durationMin).Mul(tariff.PricePerMin)).
		Round(2)

	base := tariff.BasePrice.Round(2)
	if price.LessThan(base) {
		return base
	}
	return price
}
