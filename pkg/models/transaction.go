package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit         TransactionType = "deposit"
	TxBonus           TransactionType = "bonus"
	TxOrderCommission TransactionType = "order_commission"
	TxWithdrawal      TransactionType = "withdrawal"
	TxPenalty         TransactionType = "penalty"
	TxSubscription    TransactionType = "subscription"
)

func (t TransactionType) Known() bool {
	switch t {
	case TxDeposit, TxBonus, TxOrderCommission, TxWithdrawal, TxPenalty, TxSubscription:
		return true
	}
	return false
}

// Credit reports whether the type increases the driver balance.
func (t TransactionType) Credit() bool {
	return t == TxDeposit || t == TxBonus
}

// Signed returns the amount with the polarity of the type applied.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t.Credit() {
		return amount
	}
	return amount.Neg()
}

// DriverTransaction is an append-only ledger entry. Amount is a positive
// magnitude; BalanceAfter snapshots the driver balance right after the
// entry was applied, which makes the history replayable for audit.
type DriverTransaction struct {
	ID           int64           `json:"id"`
	DriverID     int64           `json:"driver_id"`
	OrderID      *int64          `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TransactionWithRefs carries display fields for admin review listings.
type TransactionWithRefs struct {
	DriverTransaction
	DriverName  string  `json:"driver_name"`
	OrderNumber *string `json:"order_number"`
}
