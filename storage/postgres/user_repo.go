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

type userRepo struct {
	db  querier
	log logger.ILogger
}

func NewUserRepo(db querier, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (phone, full_name, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Phone,
		user.FullName,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		r.log.Error("failed to create user", logger.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, phone, full_name, password_hash, role, status, created_at FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `SELECT id, phone, full_name, password_hash, role, status, created_at FROM users WHERE phone = $1`
	return r.getOne(ctx, query, phone)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Phone, &u.FullName, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, myerrors.ErrUserNotFound
		}
		r.log.Error("failed to get user", logger.Error(err))
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.log.Error("failed to update user status", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return myerrors.ErrUserNotFound
	}
	return nil
}
