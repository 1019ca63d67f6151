package service

import (
	"jolaman/config"
	"jolaman/pkg/logger"
	"jolaman/pkg/notify"
	"jolaman/pkg/security"
	"jolaman/storage"
)

type IServiceManager interface {
	Auth() AuthService
	Order() OrderService
	Ledger() LedgerService
	Tariff() TariffService
}

type serviceManager struct {
	authService   AuthService
	orderService  OrderService
	ledgerService LedgerService
	tariffService TariffService
}

func New(stg storage.IStorage, cfg config.Config, jwt *security.JWTManager, notifier notify.Notifier, log logger.ILogger) IServiceManager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &serviceManager{
		authService:   NewAuthService(stg, jwt, log),
		orderService:  NewOrderService(stg, notifier, cfg.CommissionPercent, log),
		ledgerService: NewLedgerService(stg, log),
		tariffService: NewTariffService(stg, log),
	}
}

func (s *serviceManager) Auth() AuthService     { return s.authService }
func (s *serviceManager) Order() OrderService   { return s.orderService }
func (s *serviceManager) Ledger() LedgerService { return s.ledgerService }
func (s *serviceManager) Tariff() TariffService { return s.tariffService }
