// Package services provides business logic layer for the school schedule service.
// This file implements administrator bootstrap and password hashing using bcrypt.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/repository"
	"github.com/unnme/school-schedule/internal/validation"
)

// bcryptCost of 12 gives 2^12 = 4096 iterations.
const bcryptCost = 12

// AuthService manages administrator accounts.
//
// Dependencies:
//   - UserRepository: Database access for user records
//   - bcrypt: Secure password hashing and verification
//
// Security Notes:
//   - Never stores or logs plaintext passwords
type AuthService struct {
	db       database.Querier
	userRepo *repository.UserRepository
	log      zerolog.Logger
}

// NewAuthService creates and returns a new AuthService instance.
//
// Example:
//
//	authService := services.NewAuthService(pool, repository.NewUserRepository(), log)
//	created, err := authService.EnsureSuperuser(ctx, email, password)
func NewAuthService(db database.Querier, userRepo *repository.UserRepository, log zerolog.Logger) *AuthService {
	return &AuthService{db: db, userRepo: userRepo, log: log.With().Str("component", "auth").Logger()}
}

// EnsureSuperuser creates an active superuser with the given credentials unless
// a user with that email already exists.
//
// Returns:
//   - bool: true if a user was created
//   - error: Weak password, hashing or database error
func (s *AuthService) EnsureSuperuser(ctx context.Context, email, password string) (bool, error) {
	_, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err == nil {
		s.log.Info().Str("email", email).Msg("Superuser already exists")
		return false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return false, fmt.Errorf("look up user: %w", err)
	}

	if err := validation.ValidatePassword(password); err != nil {
		return false, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash, IsActive: true, IsSuperuser: true}
	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		return false, fmt.Errorf("create superuser: %w", err)
	}

	s.log.Info().Int("user_id", user.ID).Str("email", email).Msg("Superuser created")
	return true, nil
}

// HashPassword generates a bcrypt hash of the provided plaintext password.
//
// Returns:
//   - string: bcrypt hash including salt and cost (60 characters)
//   - error: Hashing error (e.g. password longer than 72 bytes)
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hash), err
}

// CheckPassword reports whether password matches the user's stored hash.
// bcrypt.CompareHashAndPassword is constant-time.
func (s *AuthService) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
