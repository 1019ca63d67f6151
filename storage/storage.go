package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"jolaman/pkg/models"
)

type IStorage interface {
	User() IUserStorage
	Order() IOrderStorage
	Tariff() ITariffStorage
	Driver() IDriverStorage
	Transaction() ITransactionStorage

	// WithinTx runs fn against a transaction-bound view of the storage.
	// Everything fn writes commits together or not at all; any error
	// (including context cancellation) rolls the whole scope back.
	WithinTx(ctx context.Context, fn func(tx IStorage) error) error

	Close()
}

type IUserStorage interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type IOrderStorage interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetRoutePoints(ctx context.Context, orderID int64) ([]*models.RoutePoint, error)
	GetClientOrders(ctx context.Context, clientID int64, limit, offset int) ([]*models.Order, error)
	GetDriverOrders(ctx context.Context, driverID int64, limit, offset int) ([]*models.Order, error)

	// Guarded status updates: each mutates only when the order is in the
	// expected source status and reports whether a row was touched, so a
	// stale caller fails closed instead of overwriting newer state.
	TakeOrder(ctx context.Context, orderID, driverID int64) (bool, error)
	SetOrderArrived(ctx context.Context, orderID int64) (bool, error)
	SetOrderInProgress(ctx context.Context, orderID int64, startedAt time.Time) (bool, error)
	CompleteOrder(ctx context.Context, orderID int64, finalPrice decimal.Decimal, distanceKm, durationMin float64, finishedAt time.Time, paid bool) (bool, error)
	CancelOrder(ctx context.Context, orderID int64, reason string) (bool, error)
}

type ITariffStorage interface {
	GetAll(ctx context.Context, activeOnly bool) ([]*models.Tariff, error)
	GetByID(ctx context.Context, id int64) (*models.Tariff, error)
	GetActiveByID(ctx context.Context, id int64) (*models.Tariff, error)
	Create(ctx context.Context, tariff *models.Tariff) (*models.Tariff, error)
	Update(ctx context.Context, tariff *models.Tariff) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type IDriverStorage interface {
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Driver, error)

	// GetForUpdate takes a row-level exclusive lock on the driver and is
	// only meaningful inside WithinTx; the lock serializes concurrent
	// balance mutations for the same driver.
	GetForUpdate(ctx context.Context, id int64) (*models.Driver, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type TransactionFilter struct {
	Type     *models.TransactionType
	DriverID *int64
	From     *time.Time
	To       *time.Time
	Search   string
	Limit    int
	Offset   int
}

type ITransactionStorage interface {
	// Create appends a ledger entry. Entries are never updated or deleted.
	Create(ctx context.Context, tx *models.DriverTransaction) (*models.DriverTransaction, error)
	GetByDriver(ctx context.Context, driverID int64, limit, offset int) ([]*models.DriverTransaction, error)
	CountByDriver(ctx context.Context, driverID int64) (int, error)
	GetByDriverAsc(ctx context.Context, driverID int64) ([]*models.DriverTransaction, error)
	GetAll(ctx context.Context, filter TransactionFilter) ([]*models.TransactionWithRefs, error)
}
