package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// PasswordHasher is implemented by AuthService
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type UserService struct {
	querier UserQuerier
	hasher  PasswordHasher
	logger  *slog.Logger
}

func NewUserService(querier UserQuerier, hasher PasswordHasher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		querier: querier,
		hasher:  hasher,
		logger:  logger,
	}
}

// CreateUser adds a staff account with a hashed password
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if !models.EmailPattern.MatchString(req.Email) {
		return nil, validationError(models.ErrInvalidEmail)
	}
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, validationError(err)
	}

	row, err := s.querier.CreateUser(ctx, queries.CreateUserParams{
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         string(req.Role),
	})
	if err != nil {
		if queries.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username or email already in use", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", row.ID, "role", row.Role)
	return row.ToModel(), nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int32) (*models.User, error) {
	row, err := s.querier.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return row.ToModel(), nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.querier.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*models.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToModel()
	}
	return users, nil
}
