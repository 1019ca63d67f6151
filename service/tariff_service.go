package service

import (
	"context"
	"fmt"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/storage"
)

type TariffService interface {
	List(ctx context.Context, activeOnly bool) ([]*models.Tariff, error)
	Get(ctx context.Context, id int64) (*models.Tariff, error)
	Create(ctx context.Context, tariff *models.Tariff) (*models.Tariff, error)
	Update(ctx context.Context, tariff *models.Tariff) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type tariffService struct {
	stg storage.ITariffStorage
	log logger.ILogger
}

func NewTariffService(stg storage.IStorage, log logger.ILogger) TariffService {
	return &tariffService{
		stg: stg.Tariff(),
		log: log,
	}
}

func (s *tariffService) List(ctx context.Context, activeOnly bool) ([]*models.Tariff, error) {
	return s.stg.GetAll(ctx, activeOnly)
}

func (s *tariffService) Get(ctx context.Context, id int64) (*models.Tariff, error) {
	return s.stg.GetByID(ctx, id)
}

func (s *tariffService) Create(ctx context.Context, tariff *models.Tariff) (*models.Tariff, error) {
	if err := validateTariff(tariff); err != nil {
		return nil, err
	}
	return s.stg.Create(ctx, tariff)
}

func (s *tariffService) Update(ctx context.Context, tariff *models.Tariff) error {
	if err := validateTariff(tariff); err != nil {
		return err
	}
	// Edits never touch existing orders: each order keeps the estimate
	// computed from the tariff state at creation time.
	return s.stg.Update(ctx, tariff)
}

func (s *tariffService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.stg.SetActive(ctx, id, active)
}

func validateTariff(t *models.Tariff) error {
	if t.Name == "" {
		return fmt.Errorf("%w: tariff name is required", myerrors.ErrValidation)
	}
	if t.BasePrice.IsNegative() || t.PricePerKm.IsNegative() ||
		t.PricePerMin.IsNegative() || t.WaitingPrice.IsNegative() {
		return fmt.Errorf("%w: tariff prices must be non-negative", myerrors.ErrValidation)
	}
	return nil
}
