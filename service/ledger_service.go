package service

import (
	"context"

	"github.com/shopspring/decimal"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/storage"
)

type ApplyTransactionInput struct {
	DriverID    int64
	Amount      decimal.Decimal
	Type        models.TransactionType
	Description string
	OrderID     *int64
}

type ApplyTransactionResult struct {
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	TransactionID   int64           `json:"transaction_id"`
}

// LedgerReport is the outcome of replaying a driver's history.
type LedgerReport struct {
	DriverID        int64            `json:"driver_id"`
	Entries         int              `json:"entries"`
	Consistent      bool             `json:"consistent"`
	DriverBalance   decimal.Decimal  `json:"driver_balance"`
	ReplayedBalance decimal.Decimal  `json:"replayed_balance"`
	BrokenTxID      *int64           `json:"broken_tx_id,omitempty"`
	Expected        *decimal.Decimal `json:"expected,omitempty"`
}

type LedgerService interface {
	Apply(ctx context.Context, in ApplyTransactionInput) (*ApplyTransactionResult, error)
	History(ctx context.Context, driverID int64, page, limit int) ([]*models.DriverTransaction, int, error)
	AllTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.TransactionWithRefs, error)
	VerifyDriverLedger(ctx context.Context, driverID int64) (*LedgerReport, error)
}

type ledgerService struct {
	stg storage.IStorage
	log logger.ILogger
}

func NewLedgerService(stg storage.IStorage, log logger.ILogger) LedgerService {
	return &ledgerService{stg: stg, log: log}
}

func (s *ledgerService) Apply(ctx context.Context, in ApplyTransactionInput) (*ApplyTransactionResult, error) {
	if !in.Amount.IsPositive() {
		return nil, myerrors.ErrInvalidAmount
	}
	if !in.Type.Known() {
		return nil, myerrors.ErrUnknownOperationType
	}

	var result *ApplyTransactionResult
	err := s.stg.WithinTx(ctx, func(tx storage.IStorage) error {
		var err error
		result, err = applyTransaction(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("driver transaction applied",
		logger.Int64("driver_id", in.DriverID),
		logger.String("type", string(in.Type)),
		logger.String("amount", in.Amount.String()),
		logger.Int64("transaction_id", result.TransactionID),
	)
	return result, nil
}

// applyTransaction is the one place a driver balance changes. It must
// run inside a transactional scope: the row lock taken by GetForUpdate
// serializes concurrent mutations for the same driver, and the balance
// write and ledger append commit together or not at all.
func applyTransaction(ctx context.Context, tx storage.IStorage, in ApplyTransactionInput) (*ApplyTransactionResult, error) {
	driver, err := tx.Driver().GetForUpdate(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}

	amount := in.Amount.Round(2)
	newBalance := driver.Balance.Add(in.Type.Signed(amount)).Round(2)

	if err := tx.Driver().UpdateBalance(ctx, driver.ID, newBalance); err != nil {
		return nil, err
	}

	entry := &models.DriverTransaction{
		DriverID:     driver.ID,
		OrderID:      in.OrderID,
		Amount:       amount,
		Type:         in.Type,
		Description:  in.Description,
		BalanceAfter: newBalance,
	}
	if _, err := tx.Transaction().Create(ctx, entry); err != nil {
		return nil, err
	}

	return &ApplyTransactionResult{
		PreviousBalance: driver.Balance,
		NewBalance:      newBalance,
		TransactionID:   entry.ID,
	}, nil
}

func (s *ledgerService) History(ctx context.Context, driverID int64, page, limit int) ([]*models.DriverTransaction, int, error) {
	if _, err := s.stg.Driver().GetByID(ctx, driverID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	txs, err := s.stg.Transaction().GetByDriver(ctx, driverID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.stg.Transaction().CountByDriver(ctx, driverID)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (s *ledgerService) AllTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.TransactionWithRefs, error) {
	return s.stg.Transaction().GetAll(ctx, filter)
}

// VerifyDriverLedger replays the driver's history from a zero balance
// and checks every stored balance_after against the recomputed running
// balance, then the final running balance against the driver record.
func (s *ledgerService) VerifyDriverLedger(ctx context.Context, driverID int64) (*LedgerReport, error) {
	driver, err := s.stg.Driver().GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	txs, err := s.stg.Transaction().GetByDriverAsc(ctx, driverID)
	if err != nil {
		return nil, err
	}

	report := &LedgerReport{
		DriverID:      driverID,
		Entries:       len(txs),
		DriverBalance: driver.Balance,
	}

	running := decimal.Zero
	for _, t := range txs {
		running = running.Add(t.Type.Signed(t.Amount)).Round(2)
		if !running.Equal(t.BalanceAfter) {
			id := t.ID
			expected := running
			report.BrokenTxID = &id
			report.Expected = &expected
			report.ReplayedBalance = running
			s.log.Warning("ledger chain mismatch",
				logger.Int64("driver_id", driverID),
				logger.Int64("transaction_id", t.ID),
				logger.String("stored", t.BalanceAfter.String()),
				logger.String("expected", expected.String()),
			)
			return report, nil
		}
	}

	report.ReplayedBalance = running
	report.Consistent = running.Equal(driver.Balance)
	if !report.Consistent {
		s.log.Warning("ledger drift against driver balance",
			logger.Int64("driver_id", driverID),
			logger.String("driver_balance", driver.Balance.String()),
			logger.String("replayed", running.String()),
		)
	}
	return report, nil
}
