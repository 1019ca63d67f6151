package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/pkg/security"
	"jolaman/service"
	"jolaman/storage"
)

type nopLog struct{}

func (nopLog) Debug(string, ...logger.Field)   {}
func (nopLog) Info(string, ...logger.Field)    {}
func (nopLog) Error(string, ...logger.Field)   {}
func (nopLog) Warning(string, ...logger.Field) {}

type stubServices struct {
	auth   service.AuthService
	order  service.OrderService
	ledger service.LedgerService
	tariff service.TariffService
}

func (s *stubServices) Auth() service.AuthService     { return s.auth }
func (s *stubServices) Order() service.OrderService   { return s.order }
func (s *stubServices) Ledger() service.LedgerService { return s.ledger }
func (s *stubServices) Tariff() service.TariffService { return s.tariff }

type stubAuth struct {
	jwt *security.JWTManager
}

func (s *stubAuth) Login(ctx context.Context, phone, password string) (security.Tokens, error) {
	if password != "good" {
		return security.Tokens{}, myerrors.ErrInvalidCredentials
	}
	return s.jwt.Issue(models.RoleClient, 1)
}

type stubOrders struct {
	lastCreate service.CreateOrderInput
}

func (s *stubOrders) Create(ctx context.Context, in service.CreateOrderInput) (*models.Order, error) {
	s.lastCreate = in
	return &models.Order{ID: 1, Number: "0042", ClientID: in.ClientID, Status: models.StatusNew}, nil
}

func (s *stubOrders) Accept(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	return nil, myerrors.ErrInvalidTransition
}

func (s *stubOrders) AdvanceStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	return nil, myerrors.ErrOrderNotFound
}

func (s *stubOrders) Finish(ctx context.Context, orderID int64, distanceKm, durationMin float64) (*models.Order, error) {
	return nil, myerrors.ErrOrderNotFound
}

func (s *stubOrders) Cancel(ctx context.Context, orderID int64, reason string) (*models.Order, error) {
	return nil, myerrors.ErrOrderNotFound
}

func (s *stubOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return nil, myerrors.ErrOrderNotFound
}

func (s *stubOrders) ClientOrders(ctx context.Context, clientID int64, page, limit int) ([]*models.Order, error) {
	return nil, nil
}

func (s *stubOrders) DriverOrders(ctx context.Context, driverID int64, page, limit int) ([]*models.Order, error) {
	return nil, nil
}

type stubLedger struct {
	lastFilter storage.TransactionFilter
}

func (s *stubLedger) Apply(ctx context.Context, in service.ApplyTransactionInput) (*service.ApplyTransactionResult, error) {
	if !in.Amount.IsPositive() {
		return nil, myerrors.ErrInvalidAmount
	}
	return &service.ApplyTransactionResult{NewBalance: in.Amount}, nil
}

func (s *stubLedger) History(ctx context.Context, driverID int64, page, limit int) ([]*models.DriverTransaction, int, error) {
	return nil, 0, myerrors.ErrDriverNotFound
}

func (s *stubLedger) AllTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.TransactionWithRefs, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubLedger) VerifyDriverLedger(ctx context.Context, driverID int64) (*service.LedgerReport, error) {
	return &service.LedgerReport{DriverID: driverID, Consistent: true}, nil
}

type stubTariffs struct{}

func (stubTariffs) List(ctx context.Context, activeOnly bool) ([]*models.Tariff, error) {
	return []*models.Tariff{{ID: 1, Name: "Standard", IsActive: true}}, nil
}

func (stubTariffs) Get(ctx context.Context, id int64) (*models.Tariff, error) {
	if id != 1 {
		return nil, myerrors.ErrTariffNotFound
	}
	return &models.Tariff{ID: 1, Name: "Standard", IsActive: true}, nil
}

func (stubTariffs) Create(ctx context.Context, tariff *models.Tariff) (*models.Tariff, error) {
	return tariff, nil
}

func (stubTariffs) Update(ctx context.Context, tariff *models.Tariff) error { return nil }

func (stubTariffs) SetActive(ctx context.Context, id int64, active bool) error { return nil }

type routerTestEnv struct {
	router *gin.Engine
	jwt    *security.JWTManager
	orders *stubOrders
	ledger *stubLedger
}

func newRouterTestEnv(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := security.NewJWTManager("test-secret", time.Hour)
	orders := &stubOrders{}
	ledger := &stubLedger{}
	router := NewRouter(RouterDeps{
		Services: &stubServices{
			auth:   &stubAuth{jwt: jwtManager},
			order:  orders,
			ledger: ledger,
			tariff: stubTariffs{},
		},
		JWT: jwtManager,
		Log: nopLog{},
	})
	return &routerTestEnv{router: router, jwt: jwtManager, orders: orders, ledger: ledger}
}

func (e *routerTestEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *routerTestEnv) tokenFor(t *testing.T, role string, userID int64) string {
	t.Helper()
	tokens, err := e.jwt.Issue(role, userID)
	require.NoError(t, err)
	return tokens.AccessToken
}

func TestHealth(t *testing.T) {
	env := newRouterTestEnv(t)
	w := env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	env := newRouterTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/auth/login", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", "", `{"phone":"+1","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", "", `{"phone":"+1","password":"good"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var tokens security.Tokens
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestAuthRequired(t *testing.T) {
	env := newRouterTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/orders/my", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/orders/my", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGate(t *testing.T) {
	env := newRouterTestEnv(t)

	// Drivers cannot create orders.
	token := env.tokenFor(t, models.RoleDriver, 5)
	w := env.do(http.MethodPost, "/api/v1/orders", token, `{"tariff_id":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Only admins reach the ledger apply endpoint.
	w = env.do(http.MethodPost, "/api/v1/admin/transactions", token, `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateOrderBindsClientFromToken(t *testing.T) {
	env := newRouterTestEnv(t)

	token := env.tokenFor(t, models.RoleClient, 77)
	w := env.do(http.MethodPost, "/api/v1/orders", token,
		`{"client_id":999,"tariff_id":1,"from_address":"a","to_address":"b"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// The token identity wins over whatever the body claims.
	assert.Equal(t, int64(77), env.orders.lastCreate.ClientID)
	assert.Nil(t, env.orders.lastCreate.DispatcherID)
}

func TestErrorMapping(t *testing.T) {
	env := newRouterTestEnv(t)

	// Conflict on an impossible transition.
	token := env.tokenFor(t, models.RoleDriver, 5)
	w := env.do(http.MethodPost, "/api/v1/orders/1/accept", token, `{"driver_id":5}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing order.
	w = env.do(http.MethodPost, "/api/v1/orders/1/finish", token, `{"distance_km":1,"duration_min":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Bad amount on a ledger operation.
	admin := env.tokenFor(t, models.RoleAdmin, 1)
	w = env.do(http.MethodPost, "/api/v1/admin/transactions", admin,
		`{"driver_id":1,"amount":"-5","type":"deposit"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicTariffList(t *testing.T) {
	env := newRouterTestEnv(t)
	w := env.do(http.MethodGet, "/api/v1/tariffs", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Standard")
}

func TestPublicTariffGet(t *testing.T) {
	env := newRouterTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/tariffs/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Standard")

	w = env.do(http.MethodGet, "/api/v1/tariffs/999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/tariffs/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminTransactionsPaginationClamped(t *testing.T) {
	env := newRouterTestEnv(t)
	admin := env.tokenFor(t, models.RoleAdmin, 1)

	w := env.do(http.MethodGet, "/api/v1/admin/transactions?page=0&limit=-5", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.ledger.lastFilter.Offset)
	assert.Equal(t, 20, env.ledger.lastFilter.Limit)

	w = env.do(http.MethodGet, "/api/v1/admin/transactions?page=3&limit=10", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, env.ledger.lastFilter.Offset)
	assert.Equal(t, 10, env.ledger.lastFilter.Limit)
}

func TestCancelBodyValidation(t *testing.T) {
	env := newRouterTestEnv(t)
	token := env.tokenFor(t, models.RoleClient, 7)

	// An empty body is allowed (reason is optional); the stub then
	// reports the order missing.
	w := env.do(http.MethodPost, "/api/v1/orders/1/cancel", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/v1/orders/1/cancel", token, `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerVerifyEndpoint(t *testing.T) {
	env := newRouterTestEnv(t)
	admin := env.tokenFor(t, models.RoleAdmin, 1)
	w := env.do(http.MethodGet, "/api/v1/admin/drivers/9/ledger", admin, "")
	require.Equal(t, http.StatusOK, w.Code)

	var report service.LedgerReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, int64(9), report.DriverID)
	assert.True(t, report.Consistent)
}
