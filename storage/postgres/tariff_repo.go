package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/storage"
)

type tariffRepo struct {
	db  querier
	log logger.ILogger
}

func NewTariffRepo(db querier, log logger.ILogger) storage.ITariffStorage {
	return &tariffRepo{db: db, log: log}
}

const tariffColumns = `id, name, category, base_price, price_per_km, price_per_min, waiting_price, is_active, created_at`

func (r *tariffRepo) GetAll(ctx context.Context, activeOnly bool) ([]*models.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tariffs []*models.Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		tariffs = append(tariffs, t)
	}
	return tariffs, rows.Err()
}

func (r *tariffRepo) GetByID(ctx context.Context, id int64) (*models.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *tariffRepo) GetActiveByID(ctx context.Context, id int64) (*models.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE id = $1 AND is_active`
	return r.getOne(ctx, query, id)
}

func (r *tariffRepo) getOne(ctx context.Context, query string, id int64) (*models.Tariff, error) {
	t, err := scanTariff(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, myerrors.ErrTariffNotFound
		}
		r.log.Error("failed to get tariff", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *tariffRepo) Create(ctx context.Context, tariff *models.Tariff) (*models.Tariff, error) {
	query := `
		INSERT INTO tariffs (name, category, base_price, price_per_km, price_per_min, waiting_price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		tariff.Name,
		tariff.Category,
		tariff.BasePrice,
		tariff.PricePerKm,
		tariff.PricePerMin,
		tariff.WaitingPrice,
		tariff.IsActive,
	).Scan(&tariff.ID, &tariff.CreatedAt)
	if err != nil {
		r.log.Error("failed to create tariff", logger.Error(err))
		return nil, err
	}
	return tariff, nil
}

func (r *tariffRepo) Update(ctx context.Context, tariff *models.Tariff) error {
	res, err := r.db.Exec(ctx, `
		UPDATE tariffs
		SET name = $1, category = $2, base_price = $3, price_per_km = $4,
		    price_per_min = $5, waiting_price = $6
		WHERE id = $7
	`, tariff.Name, tariff.Category, tariff.BasePrice, tariff.PricePerKm,
		tariff.PricePerMin, tariff.WaitingPrice, tariff.ID)
	if err != nil {
		r.log.Error("failed to update tariff", logger.Int64("id", tariff.ID), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return myerrors.ErrTariffNotFound
	}
	return nil
}

func (r *tariffRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.Exec(ctx, `UPDATE tariffs SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		r.log.Error("failed to toggle tariff", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return myerrors.ErrTariffNotFound
	}
	return nil
}

func scanTariff(row pgx.Row) (*models.Tariff, error) {
	var t models.Tariff
	err := row.Scan(
		&t.ID, &t.Name, &t.Category,
		&t.BasePrice, &t.PricePerKm, &t.PricePerMin, &t.WaitingPrice,
		&t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
