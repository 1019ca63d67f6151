package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jolaman/config"
	"jolaman/pkg/logger"
	"jolaman/storage"
)

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx, so
// every repo works the same inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   querier
	log  logger.ILogger

	user        storage.IUserStorage
	order       storage.IOrderStorage
	tariff      storage.ITariffStorage
	driver      storage.IDriverStorage
	transaction storage.ITransactionStorage
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresDB,
	)

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err := runMigrations(url, log); err != nil {
		pool.Close()
		return nil, err
	}

	return newStore(pool, pool, log), nil
}

func newStore(pool *pgxpool.Pool, db querier, log logger.ILogger) *Store {
	return &Store{
		pool:        pool,
		db:          db,
		log:         log,
		user:        NewUserRepo(db, log),
		order:       NewOrderRepo(db, log),
		tariff:      NewTariffRepo(db, log),
		driver:      NewDriverRepo(db, log),
		transaction: NewTransactionRepo(db, log),
	}
}

func runMigrations(url string, log logger.ILogger) error {
	cwd, _ := os.Getwd()
	mPath := filepath.Join(cwd, "migrations")

	m, err := migrate.New("file://"+mPath, url)
	if err != nil {
		log.Error("failed to init migrations", logger.Error(err))
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("failed to apply migrations", logger.Error(err))
		return err
	}
	return nil
}

func (s *Store) User() storage.IUserStorage               { return s.user }
func (s *Store) Order() storage.IOrderStorage             { return s.order }
func (s *Store) Tariff() storage.ITariffStorage           { return s.tariff }
func (s *Store) Driver() storage.IDriverStorage           { return s.driver }
func (s *Store) Transaction() storage.ITransactionStorage { return s.transaction }

func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	// Already transaction-bound: join the enclosing scope.
	if _, ok := s.db.(pgx.Tx); ok {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Error("failed to begin transaction", logger.Error(err))
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newStore(s.pool, tx, s.log)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// GetPool exposes the raw pool for one-shot tooling (seed scripts).
func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}
