package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

// ErrUserNotFound is returned when no user matches a lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles administrator accounts.
type UserRepository struct{}

// NewUserRepository creates a new instance of UserRepository.
//
// Returns:
//   - *UserRepository: Initialized repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// FindByEmail retrieves a user by their email address.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - q: Pool or transaction to run on
//   - email: User's email address (unique identifier)
//
// Returns:
//   - *models.User: User including password hash
//   - error: ErrUserNotFound if email doesn't exist, database error otherwise
//
// Database: Uses parameterized query to prevent SQL injection
func (r *UserRepository) FindByEmail(ctx context.Context, q database.Querier, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, is_active, is_superuser, created_at FROM users WHERE email = $1`

	var user models.User
	err := q.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.IsSuperuser, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Create inserts a new user.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - q: Pool or transaction to run on
//   - user: User with Email, PasswordHash and flags set
//
// Returns:
//   - error: Database error if insertion fails (e.g., duplicate email), nil on success
//
// Side Effects: Populates user.ID and user.CreatedAt with database values
func (r *UserRepository) Create(ctx context.Context, q database.Querier, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, is_active, is_superuser)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return q.QueryRow(ctx, query, user.Email, user.PasswordHash, user.IsActive, user.IsSuperuser).
		Scan(&user.ID, &user.CreatedAt)
}
