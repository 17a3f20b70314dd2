package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// UserRepository is the postgres implementation
type UserRepository struct {
	DB *sql.DB
}

// GetByID fetches a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id, username, password_hash FROM users WHERE id = $1`, id)

	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewUserNotFound(id)
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id, username, password_hash FROM users WHERE username = $1`, username)

	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		u.Username, u.PasswordHash,
	).Scan(&u.ID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return appErrors.NewConflict("user", "username", u.Username)
	}
	return err
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

// NewPostgresStore wires the postgres repositories over one connection pool.
func NewPostgresStore(conn *sql.DB) *Store {
	return &Store{
		Campaigns:   &CampaignRepository{DB: conn},
		CallHistory: &CallHistoryRepository{DB: conn},
		Users:       &UserRepository{DB: conn},
	}
}
