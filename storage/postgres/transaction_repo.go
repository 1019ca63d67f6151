package postgres

import (
	"context"
	"fmt"
	"strings"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/storage"
)

type transactionRepo struct {
	db  querier
	log logger.ILogger
}

func NewTransactionRepo(db querier, log logger.ILogger) storage.ITransactionStorage {
	return &transactionRepo{db: db, log: log}
}

const txColumns = `id, driver_id, order_id, amount, type, description, balance_after, created_at`

// Create appends one ledger row. There is deliberately no Update or
// Delete on this table.
func (r *transactionRepo) Create(ctx context.Context, tx *models.DriverTransaction) (*models.DriverTransaction, error) {
	query := `
		INSERT INTO driver_transactions (driver_id, order_id, amount, type, description, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		tx.DriverID,
		tx.OrderID,
		tx.Amount,
		tx.Type,
		tx.Description,
		tx.BalanceAfter,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		r.log.Error("failed to create driver transaction", logger.Int64("driver_id", tx.DriverID), logger.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *transactionRepo) GetByDriver(ctx context.Context, driverID int64, limit, offset int) ([]*models.DriverTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM driver_transactions
		WHERE driver_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.scanTransactions(ctx, query, driverID, limit, offset)
}

func (r *transactionRepo) CountByDriver(ctx context.Context, driverID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM driver_transactions WHERE driver_id = $1`, driverID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GetByDriverAsc returns the full history in creation order, for ledger
// replay verification.
func (r *transactionRepo) GetByDriverAsc(ctx context.Context, driverID int64) ([]*models.DriverTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM driver_transactions
		WHERE driver_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.scanTransactions(ctx, query, driverID)
}

func (r *transactionRepo) GetAll(ctx context.Context, filter storage.TransactionFilter) ([]*models.TransactionWithRefs, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != nil {
		add("t.type = $%d", *filter.Type)
	}
	if filter.DriverID != nil {
		add("t.driver_id = $%d", *filter.DriverID)
	}
	if filter.From != nil {
		add("t.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("t.created_at <= $%d", *filter.To)
	}
	if filter.Search != "" {
		add("t.description ILIKE $%d", "%"+filter.Search+"%")
	}

	query := `
		SELECT t.id, t.driver_id, t.order_id, t.amount, t.type, t.description,
		       t.balance_after, t.created_at,
		       d.full_name AS driver_name,
		       o.number AS order_number
		FROM driver_transactions t
		JOIN drivers d ON d.id = t.driver_id
		LEFT JOIN orders o ON o.id = t.order_id
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list transactions", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var txs []*models.TransactionWithRefs
	for rows.Next() {
		var t models.TransactionWithRefs
		err := rows.Scan(
			&t.ID, &t.DriverID, &t.OrderID, &t.Amount, &t.Type, &t.Description,
			&t.BalanceAfter, &t.CreatedAt, &t.DriverName, &t.OrderNumber,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

func (r *transactionRepo) scanTransactions(ctx context.Context, query string, args ...interface{}) ([]*models.DriverTransaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.DriverTransaction
	for rows.Next() {
		var t models.DriverTransaction
		err := rows.Scan(
			&t.ID, &t.DriverID, &t.OrderID, &t.Amount, &t.Type,
			&t.Description, &t.BalanceAfter, &t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
