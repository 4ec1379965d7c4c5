package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

const userColumns = `id::text, login, COALESCE(display_name, login), COALESCE(country_code, ''),
	COALESCE(profile_image_url, ''), COALESCE(secret, '')`

// UserRepository reads accounts from the users table.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Connect opens a pool for dsn and checks it is reachable.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func (r *UserRepository) UserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	if !id.IsAccountID() {
		return nil, domain.ErrUserNotFound
	}
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1::bigint`, string(id))
}

func (r *UserRepository) UserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE login=$1`, login)
}

func (r *UserRepository) UserBySecret(ctx context.Context, secret string) (*domain.User, error) {
	if secret == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE secret=$1`, secret)
}

func (r *UserRepository) one(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Login, &u.DisplayName, &u.CountryCode, &u.ProfileImageURL, &u.Secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
