package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"jolaman/pkg/logger"
	"jolaman/pkg/myerrors"
	"jolaman/pkg/security"
	"jolaman/storage"
)

type AuthService interface {
	Login(ctx context.Context, phone, password string) (security.Tokens, error)
}

type authService struct {
	stg storage.IUserStorage
	jwt *security.JWTManager
	log logger.ILogger
}

func NewAuthService(stg storage.IStorage, jwt *security.JWTManager, log logger.ILogger) AuthService {
	return &authService{
		stg: stg.User(),
		jwt: jwt,
		log: log,
	}
}

func (s *authService) Login(ctx context.Context, phone, password string) (security.Tokens, error) {
	user, err := s.stg.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, myerrors.ErrUserNotFound) {
			return security.Tokens{}, myerrors.ErrInvalidCredentials
		}
		return security.Tokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return security.Tokens{}, myerrors.ErrInvalidCredentials
	}

	tokens, err := s.jwt.Issue(user.Role, user.ID)
	if err != nil {
		s.log.Error("failed to issue token", logger.Int64("user_id", user.ID), logger.Error(err))
		return security.Tokens{}, err
	}
	return tokens, nil
}
