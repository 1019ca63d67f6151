package myerrors

import "errors"

// Sentinel errors shared by storage and service layers. Callers match
// with errors.Is; the HTTP layer maps them onto status codes.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrTariffNotFound = errors.New("tariff not found")
	ErrDriverNotFound = errors.New("driver not found")

	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrInvalidAmount        = errors.New("transaction amount must be positive")
	ErrUnknownOperationType = errors.New("unknown transaction operation type")
	ErrValidation           = errors.New("validation failed")

	ErrInvalidCredentials = errors.New("invalid phone or password")
)
