package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/storage"
)

type driverRepo struct {
	db  querier
	log logger.ILogger
}

func NewDriverRepo(db querier, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

const driverColumns = `id, user_id, full_name, phone, car_model, license_plate, balance, rating, status, created_at`

func (r *driverRepo) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	query := `
		INSERT INTO drivers (user_id, full_name, phone, car_model, license_plate, balance, rating, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		driver.UserID,
		driver.FullName,
		driver.Phone,
		driver.CarModel,
		driver.LicensePlate,
		driver.Balance,
		driver.Rating,
		driver.Status,
	).Scan(&driver.ID, &driver.CreatedAt)
	if err != nil {
		r.log.Error("failed to create driver", logger.Error(err))
		return nil, err
	}
	return driver, nil
}

func (r *driverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *driverRepo) GetByUserID(ctx context.Context, userID int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

// GetForUpdate locks the driver row until the enclosing transaction
// ends. Two concurrent balance mutations for the same driver serialize
// here; the second reads the balance the first committed.
func (r *driverRepo) GetForUpdate(ctx context.Context, id int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *driverRepo) getOne(ctx context.Context, query string, id int64) (*models.Driver, error) {
	var d models.Driver
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.FullName, &d.Phone, &d.CarModel, &d.LicensePlate,
		&d.Balance, &d.Rating, &d.Status, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, myerrors.ErrDriverNotFound
		}
		r.log.Error("failed to get driver", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return &d, nil
}

func (r *driverRepo) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	res, err := r.db.Exec(ctx, `UPDATE drivers SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		r.log.Error("failed to update driver balance", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return myerrors.ErrDriverNotFound
	}
	return nil
}

func (r *driverRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.Exec(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.log.Error("failed to update driver status", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return myerrors.ErrDriverNotFound
	}
	return nil
}
