package service

import (
	"context"
	"errors"
	"strings"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/storage"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, email, password, fullName string, phone *string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	RegisterPushToken(ctx context.Context, userID int64, token *string) error
	SetEmailOptOut(ctx context.Context, userID int64, optOut bool) error
}

type userService struct {
	stg storage.IUserStorage
	log logger.ILogger
}

func NewUserService(stg storage.IStorage, log logger.ILogger) UserService {
	return &userService{
		stg: stg.User(),
		log: log,
	}
}

func (s *userService) Register(ctx context.Context, email, password, fullName string, phone *string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Message: "a valid email address is required"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, &ValidationError{Field: "full_name", Message: "full name is required"}
	}

	if _, err := s.stg.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.stg.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Phone:        phone,
		Role:         models.RoleCustomer,
	})
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.stg.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.stg.GetByID(ctx, id)
}

func (s *userService) RegisterPushToken(ctx context.Context, userID int64, token *string) error {
	return s.stg.UpdatePushToken(ctx, userID, token)
}

func (s *userService) SetEmailOptOut(ctx context.Context, userID int64, optOut bool) error {
	return s.stg.UpdateEmailOptOut(ctx, userID, optOut)
}
