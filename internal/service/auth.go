package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/taskdeck/taskdeck-go/internal/crypto"
	"github.com/taskdeck/taskdeck-go/internal/repository"
	"github.com/taskdeck/taskdeck-go/pkg/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInvalid       = errors.New("a valid email address is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// AuthService handles signup, login, and identity resolution.
type AuthService struct {
	repo      *repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Signup creates a new account and returns a signed token bound to it.
// The password is stored only as an Argon2id hash.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.AuthResponse, error) {
	if !emailRegexp.MatchString(req.Email) {
		return model.AuthResponse{}, ErrEmailInvalid
	}
	if len(req.Password) < 8 {
		return model.AuthResponse{}, ErrPasswordTooShort
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		IsDemo:       req.IsDemo,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{Token: token, Data: model.UserFromRow(user)}, nil
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same ErrInvalidCredentials, never revealing which
// part failed.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{Token: token, Data: model.UserFromRow(user)}, nil
}

// GetUser resolves a user id (taken from a verified token) to its stored row.
func (s *AuthService) GetUser(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return model.UserFromRow(user), nil
}
