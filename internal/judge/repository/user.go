package repository

import (
	"context"
	"errors"

	"huebre/internal/common/db"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository updates per-user submission counters.
type UserRepository interface {
	// IncrementCounters bumps the user's total submission count and, when
	// accepted is true, the accepted count. Atomic SET n = n + 1 updates,
	// same as the problem counters.
	IncrementCounters(ctx context.Context, tx db.Transaction, userID int64, accepted bool) error
}

// MySQLUserRepository implements UserRepository with MySQL.
type MySQLUserRepository struct {
	db db.Database
}

// NewUserRepository creates a user repository.
func NewUserRepository(database db.Database) UserRepository {
	return &MySQLUserRepository{db: database}
}

// IncrementCounters implements UserRepository.
func (r *MySQLUserRepository) IncrementCounters(ctx context.Context, tx db.Transaction, userID int64, accepted bool) error {
	if userID <= 0 {
		return errors.New("userID is required")
	}
	acceptedDelta := 0
	if accepted {
		acceptedDelta = 1
	}
	query := `UPDATE users
		SET total_submissions = total_submissions + 1,
		    accepted_submissions = accepted_submissions + ?
		WHERE user_id = ?`
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, query, acceptedDelta, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
