package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/myerrors"
	"jolaman/storage"
)

// fakeStorage is an in-memory storage.IStorage for service tests.
// WithinTx stages writes on a deep copy and swaps it in on success,
// which mirrors commit/rollback; the single mutex held for the whole
// scope stands in for the driver row lock.
type fakeStorage struct {
	mu    *sync.Mutex
	state *fakeState
	inTx  bool

	// Test hook: make ledger appends fail to exercise rollback.
	failTxCreate bool
}

type fakeState struct {
	users   map[int64]*models.User
	orders  map[int64]*models.Order
	points  map[int64][]*models.RoutePoint
	tariffs map[int64]*models.Tariff
	drivers map[int64]*models.Driver
	txs     []*models.DriverTransaction
	nextID  int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		mu: &sync.Mutex{},
		state: &fakeState{
			users:   map[int64]*models.User{},
			orders:  map[int64]*models.Order{},
			points:  map[int64][]*models.RoutePoint{},
			tariffs: map[int64]*models.Tariff{},
			drivers: map[int64]*models.Driver{},
		},
	}
}

func (f *fakeStorage) User() storage.IUserStorage               { return (*fakeUsers)(f) }
func (f *fakeStorage) Order() storage.IOrderStorage             { return (*fakeOrders)(f) }
func (f *fakeStorage) Tariff() storage.ITariffStorage           { return (*fakeTariffs)(f) }
func (f *fakeStorage) Driver() storage.IDriverStorage           { return (*fakeDrivers)(f) }
func (f *fakeStorage) Transaction() storage.ITransactionStorage { return (*fakeTxs)(f) }
func (f *fakeStorage) Close()                                   {}

func (f *fakeStorage) WithinTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	if f.inTx {
		return fn(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	staged := &fakeStorage{
		mu:           f.mu,
		state:        f.state.clone(),
		inTx:         true,
		failTxCreate: f.failTxCreate,
	}
	if err := fn(staged); err != nil {
		return err
	}
	f.state = staged.state
	return nil
}

func (f *fakeStorage) lock() func() {
	if f.inTx {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		users:   map[int64]*models.User{},
		orders:  map[int64]*models.Order{},
		points:  map[int64][]*models.RoutePoint{},
		tariffs: map[int64]*models.Tariff{},
		drivers: map[int64]*models.Driver{},
		nextID:  s.nextID,
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		c.orders[id] = &cp
	}
	for id, ps := range s.points {
		for _, p := range ps {
			cp := *p
			c.points[id] = append(c.points[id], &cp)
		}
	}
	for id, t := range s.tariffs {
		cp := *t
		c.tariffs[id] = &cp
	}
	for id, d := range s.drivers {
		cp := *d
		c.drivers[id] = &cp
	}
	for _, t := range s.txs {
		cp := *t
		c.txs = append(c.txs, &cp)
	}
	return c
}

func (s *fakeState) id() int64 {
	s.nextID++
	return s.nextID
}

// --- users ---

type fakeUsers fakeStorage

func (f *fakeUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	defer (*fakeStorage)(f).lock()()
	user.ID = f.state.id()
	user.CreatedAt = time.Now()
	cp := *user
	f.state.users[user.ID] = &cp
	return user, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer (*fakeStorage)(f).lock()()
	u, ok := f.state.users[id]
	if !ok {
		return nil, myerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	defer (*fakeStorage)(f).lock()()
	for _, u := range f.state.users {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, myerrors.ErrUserNotFound
}

func (f *fakeUsers) UpdateStatus(ctx context.Context, id int64, status string) error {
	defer (*fakeStorage)(f).lock()()
	u, ok := f.state.users[id]
	if !ok {
		return myerrors.ErrUserNotFound
	}
	u.Status = status
	return nil
}

// --- orders ---

type fakeOrders fakeStorage

func (f *fakeOrders) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	defer (*fakeStorage)(f).lock()()
	order.ID = f.state.id()
	order.CreatedAt = time.Now()
	cp := *order
	cp.RoutePoints = nil
	f.state.orders[order.ID] = &cp
	for i, p := range order.RoutePoints {
		p.ID = f.state.id()
		p.OrderID = order.ID
		p.Seq = i + 1
		pc := *p
		f.state.points[order.ID] = append(f.state.points[order.ID], &pc)
	}
	return order, nil
}

func (f *fakeOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	defer (*fakeStorage)(f).lock()()
	o, ok := f.state.orders[id]
	if !ok {
		return nil, myerrors.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetRoutePoints(ctx context.Context, orderID int64) ([]*models.RoutePoint, error) {
	defer (*fakeStorage)(f).lock()()
	var out []*models.RoutePoint
	for _, p := range f.state.points[orderID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeOrders) GetClientOrders(ctx context.Context, clientID int64, limit, offset int) ([]*models.Order, error) {
	return f.list(func(o *models.Order) bool { return o.ClientID == clientID }, limit, offset)
}

func (f *fakeOrders) GetDriverOrders(ctx context.Context, driverID int64, limit, offset int) ([]*models.Order, error) {
	return f.list(func(o *models.Order) bool { return o.DriverID != nil && *o.DriverID == driverID }, limit, offset)
}

func (f *fakeOrders) list(match func(*models.Order) bool, limit, offset int) ([]*models.Order, error) {
	defer (*fakeStorage)(f).lock()()
	var out []*models.Order
	for _, o := range f.state.orders {
		if match(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrders) TakeOrder(ctx context.Context, orderID, driverID int64) (bool, error) {
	defer (*fakeStorage)(f).lock()()
	o, ok := f.state.orders[orderID]
	if !ok || o.Status != models.StatusNew || o.DriverID != nil {
		return false, nil
	}
	o.Status = models.StatusDriverAssigned
	o.DriverID = &driverID
	return true, nil
}

func (f *fakeOrders) SetOrderArrived(ctx context.Context, orderID int64) (bool, error) {
	defer (*fakeStorage)(f).lock()()
	o, ok := f.state.orders[orderID]
	if !ok || o.Status != models.StatusDriverAssigned {
		return false, nil
	}
	o.Status = models.StatusDriverArrived
	return true, nil
}

func (f *fakeOrders) SetOrderInProgress(ctx context.Context, orderID int64, startedAt time.Time) (bool, error) {
	defer (*fakeStorage)(f).lock()()
	o, ok := f.state.orders[orderID]
	if !ok || o.Status != models.StatusDriverArrived {
		return false, nil
	}
	o.Status = models.StatusInProgress
	o.StartedAt = &startedAt
	return true, nil
}

func (f *fakeOrders) CompleteOrder(ctx context.Context, orderID int64, finalPrice decimal.Decimal, distanceKm, durationMin float64, finishedAt time.Time, paid bool) (bool, error) {
	defer (*fakeStorage)(f).lock()()
	o, ok := f.state.orders[orderID]
	if !ok || o.Status != models.StatusInProgress {
		return false, nil
	}
	o.Status = models.StatusCompleted
	o.FinalPrice = &finalPrice
	o.DistanceKm = &distanceKm
	o.DurationMin = &durationMin
	o.FinishedAt = &finishedAt
	o.Paid = paid
	return true, nil
}

func (f *fakeOrders) CancelOrder(ctx context.Context, orderID int64, reason string) (bool, error) {
	defer (*fakeStorage)(f).lock()()
	o, ok := f.state.orders[orderID]
	if !ok || o.Status.Terminal() {
		return false, nil
	}
	o.Status = models.StatusCancelled
	o.CancelReason = &reason
	return true, nil
}

// --- tariffs ---

type fakeTariffs fakeStorage

func (f *fakeTariffs) GetAll(ctx context.Context, activeOnly bool) ([]*models.Tariff, error) {
	defer (*fakeStorage)(f).lock()()
	var out []*models.Tariff
	for _, t := range f.state.tariffs {
		if activeOnly && !t.IsActive {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTariffs) GetByID(ctx context.Context, id int64) (*models.Tariff, error) {
	defer (*fakeStorage)(f).lock()()
	t, ok := f.state.tariffs[id]
	if !ok {
		return nil, myerrors.ErrTariffNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTariffs) GetActiveByID(ctx context.Context, id int64) (*models.Tariff, error) {
	t, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, myerrors.ErrTariffNotFound
	}
	return t, nil
}

func (f *fakeTariffs) Create(ctx context.Context, tariff *models.Tariff) (*models.Tariff, error) {
	defer (*fakeStorage)(f).lock()()
	tariff.ID = f.state.id()
	tariff.CreatedAt = time.Now()
	cp := *tariff
	f.state.tariffs[tariff.ID] = &cp
	return tariff, nil
}

func (f *fakeTariffs) Update(ctx context.Context, tariff *models.Tariff) error {
	defer (*fakeStorage)(f).lock()()
	existing, ok := f.state.tariffs[tariff.ID]
	if !ok {
		return myerrors.ErrTariffNotFound
	}
	active := existing.IsActive
	cp := *tariff
	cp.IsActive = active
	f.state.tariffs[tariff.ID] = &cp
	return nil
}

func (f *fakeTariffs) SetActive(ctx context.Context, id int64, active bool) error {
	defer (*fakeStorage)(f).lock()()
	t, ok := f.state.tariffs[id]
	if !ok {
		return myerrors.ErrTariffNotFound
	}
	t.IsActive = active
	return nil
}

// --- drivers ---

type fakeDrivers fakeStorage

func (f *fakeDrivers) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	defer (*fakeStorage)(f).lock()()
	driver.ID = f.state.id()
	driver.CreatedAt = time.Now()
	cp := *driver
	f.state.drivers[driver.ID] = &cp
	return driver, nil
}

func (f *fakeDrivers) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	defer (*fakeStorage)(f).lock()()
	d, ok := f.state.drivers[id]
	if !ok {
		return nil, myerrors.ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDrivers) GetByUserID(ctx context.Context, userID int64) (*models.Driver, error) {
	defer (*fakeStorage)(f).lock()()
	for _, d := range f.state.drivers {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, myerrors.ErrDriverNotFound
}

func (f *fakeDrivers) GetForUpdate(ctx context.Context, id int64) (*models.Driver, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeDrivers) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	defer (*fakeStorage)(f).lock()()
	d, ok := f.state.drivers[id]
	if !ok {
		return myerrors.ErrDriverNotFound
	}
	d.Balance = balance
	return nil
}

func (f *fakeDrivers) UpdateStatus(ctx context.Context, id int64, status string) error {
	defer (*fakeStorage)(f).lock()()
	d, ok := f.state.drivers[id]
	if !ok {
		return myerrors.ErrDriverNotFound
	}
	d.Status = status
	return nil
}

// --- transactions ---

type fakeTxs fakeStorage

var errFakeTxCreate = errors.New("transaction insert failed")

func (f *fakeTxs) Create(ctx context.Context, tx *models.DriverTransaction) (*models.DriverTransaction, error) {
	if f.failTxCreate {
		return nil, errFakeTxCreate
	}
	defer (*fakeStorage)(f).lock()()
	tx.ID = f.state.id()
	tx.CreatedAt = time.Now()
	cp := *tx
	f.state.txs = append(f.state.txs, &cp)
	return tx, nil
}

func (f *fakeTxs) GetByDriver(ctx context.Context, driverID int64, limit, offset int) ([]*models.DriverTransaction, error) {
	all, err := f.GetByDriverAsc(ctx, driverID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeTxs) CountByDriver(ctx context.Context, driverID int64) (int, error) {
	defer (*fakeStorage)(f).lock()()
	n := 0
	for _, t := range f.state.txs {
		if t.DriverID == driverID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTxs) GetByDriverAsc(ctx context.Context, driverID int64) ([]*models.DriverTransaction, error) {
	defer (*fakeStorage)(f).lock()()
	var out []*models.DriverTransaction
	for _, t := range f.state.txs {
		if t.DriverID == driverID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTxs) GetAll(ctx context.Context, filter storage.TransactionFilter) ([]*models.TransactionWithRefs, error) {
	defer (*fakeStorage)(f).lock()()
	var out []*models.TransactionWithRefs
	for _, t := range f.state.txs {
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.DriverID != nil && t.DriverID != *filter.DriverID {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.CreatedAt.After(*filter.To) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *t
		ref := &models.TransactionWithRefs{DriverTransaction: cp}
		if d, ok := f.state.drivers[t.DriverID]; ok {
			ref.DriverName = d.FullName
		}
		if t.OrderID != nil {
			if o, ok := f.state.orders[*t.OrderID]; ok {
				ref.OrderNumber = &o.Number
			}
		}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// nopLog discards everything; tests assert on behavior, not logs.
type nopLog struct{}

func (nopLog) Debug(string, ...logger.Field)   {}
func (nopLog) Info(string, ...logger.Field)    {}
func (nopLog) Error(string, ...logger.Field)   {}
func (nopLog) Warning(string, ...logger.Field) {}
