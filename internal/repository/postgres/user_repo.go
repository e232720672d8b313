package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

const constraintUsersEmail = "uq_users_email"

const userColumns = `id, username, email, password_hash, salt, role, payout_reference, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, salt, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.Salt, u.Role, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintUsersEmail {
		return domain.ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(conn(ctx, r.DB).QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
}

func (r *userRepository) UpdatePayoutReference(ctx context.Context, userID, reference string) error {
	query := `
		UPDATE users SET payout_reference = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, reference, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateProfile rewrites username and email and refreshes u from the stored row.
func (r *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users SET username = $1, email = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + userColumns
	updated, err := r.scanOne(conn(ctx, r.DB).QueryRowContext(ctx, query, u.Username, u.Email, u.UpdatedAt, u.ID))
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintUsersEmail {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	*u = *updated
	return nil
}

func (r *userRepository) scanOne(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	var payout sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt, &u.Role, &payout, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if payout.Valid {
		u.PayoutReference = &payout.String
	}
	return u, nil
}
