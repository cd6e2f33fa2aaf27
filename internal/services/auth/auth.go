// Package auth содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/jwt"
	"github.com/magabrotheeeer/billing-core/internal/lib/password"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Порог и окно учёта неудачных попыток входа.
const (
	maxLoginAttempts   = 5
	loginAttemptWindow = 15 * time.Minute
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AttemptCounter учитывает неудачные попытки входа с TTL.
type AttemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Invalidate(key string) error
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	attempts AttemptCounter
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, attempts AttemptCounter) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		attempts: attempts,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной ролью viewer.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         models.RoleViewer,
	}
	return s.users.RegisterUser(ctx, user)
}

// Login проверяет пароль пользователя и генерирует JWT.
// После пяти неудачных попыток подряд вход блокируется на окно учёта.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	attemptsKey := "login_attempts:" + username

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		count, cntErr := s.attempts.IncrWithTTL(ctx, attemptsKey, loginAttemptWindow)
		if cntErr == nil && count > maxLoginAttempts {
			return "", "", fmt.Errorf("%w: too many failed login attempts", apperr.ErrConflict)
		}
		return "", "", fmt.Errorf("%w: invalid credentials", apperr.ErrValidation)
	}
	_ = s.attempts.Invalidate(attemptsKey)

	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UUID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Username: claims.Username,
		Role:     claims.Role,
		UUID:     claims.UserUID,
	}, nil
}
