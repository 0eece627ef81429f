package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/auth"
	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// Repository is the persistence surface of the user service.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) error
	// UserExists reports whether any user holds username, phone or a non-empty email.
	UserExists(ctx context.Context, username, phone, email string) (bool, error)
	// FindByIdentifier returns the user whose email or username equals identifier.
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate, updatedAt time.Time) (models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(user models.User) (string, error)
	TTL() time.Duration
}

// Sweep is an idempotent housekeeping task run after each successful login.
type Sweep struct {
	Name string
	Run  func(ctx context.Context) error
}

// RegisterInput carries a sign-up request.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// Service handles registration, login and user administration.
type Service struct {
	repo   Repository
	tokens TokenIssuer
	sweeps []Sweep
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a user service. sweeps run in order after each login.
func NewService(repository Repository, tokens TokenIssuer, logger *zap.Logger, sweeps ...Sweep) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repository,
		tokens: tokens,
		sweeps: sweeps,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" || in.Phone == "" || in.Username == "" || in.Password == "" {
		return models.User{}, apperr.Validation("all fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return models.User{}, apperr.Validation("passwords do not match")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return models.User{}, apperr.Validation("invalid role %q", in.Role)
	}

	exists, err := s.repo.UserExists(ctx, in.Username, in.Phone, in.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return models.User{}, apperr.Conflict("username, email or phone already in use")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal("hash password", err)
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return models.User{}, apperr.Conflict("username, email or phone already in use")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, apperr.Unauthorized("invalid credentials")
	}

	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Session{}, apperr.Unauthorized("invalid credentials")
		}
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return Session{}, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, apperr.Internal("issue token", err)
	}

	for _, sweep := range s.sweeps {
		if err := sweep.Run(ctx); err != nil {
			s.logger.Warn("login sweep failed", zap.String("sweep", sweep.Name), zap.Error(err))
		}
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return Session{Token: token, ExpiresAt: s.now().Add(s.tokens.TTL()), User: user}, nil
}

// Me returns the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (models.User, error) {
	return s.Get(ctx, userID)
}

// List returns every user, newest first.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update applies the non-nil fields of update.
func (s *Service) Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if update.Role != nil {
		role, ok := models.ParseRole(string(*update.Role))
		if !ok {
			return models.User{}, apperr.Validation("invalid role %q", *update.Role)
		}
		update.Role = &role
	}
	for _, field := range []*string{update.Name, update.Phone, update.Username} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return models.User{}, apperr.Validation("name, phone and username cannot be empty")
		}
	}

	user, err := s.repo.UpdateUser(ctx, id, update, s.now())
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound:
			return models.User{}, apperr.NotFound("user not found")
		case apperr.KindConflict:
			return models.User{}, apperr.Conflict("email, phone or username already exists")
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
