package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and login
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterInput carries the registration fields
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Town     string
	Role     string
}

// AuthResult is the register/login response payload
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new client or landlord account. Passwords are always
// stored as bcrypt hashes. Clients are approved immediately; landlords wait
// for admin approval.
func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = domain.RoleClient
	}
	if role != domain.RoleClient && role != domain.RoleLandlord {
		return nil, errors.New("role must be client or landlord")
	}

	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.ErrInternal
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Phone:        input.Phone,
		Town:         input.Town,
		Role:         role,
		Approved:     role == domain.RoleClient,
		Suspended:    false,
	}

	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, domain.ErrInternal
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, domain.ErrInternal
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns the user and a signed token
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		// Generic error to prevent user enumeration
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, errors.New("invalid credentials")
	}

	if user.Suspended {
		return nil, errors.New("account suspended")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, domain.ErrInternal
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return &AuthResult{User: user, Token: token}, nil
}
