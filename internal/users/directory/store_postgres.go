// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package directory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmthanh-dev/flowdeck/internal/platform/dberr"
	"github.com/nmthanh-dev/flowdeck/internal/users/auth"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// PostgresRepository implements the directory Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the directory Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns a page of accounts, newest first, with the total count.
func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*auth.User, int, error) {
	const countQuery = "SELECT COUNT(*) FROM users.account"

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	const query = `
		SELECT id, name, email, passwordhash, role, isactive, lastlogin, preferences, createdat, updatedat
		FROM users.account
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user := &auth.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.IsActive,
			&user.LastLogin,
			&user.Preferences,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "User")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	return users, total, nil
}

// FindByID resolves an account by primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	const query = `
		SELECT id, name, email, passwordhash, role, isactive, lastlogin, preferences, createdat, updatedat
		FROM users.account
		WHERE id = $1`

	user := &auth.User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.LastLogin,
		&user.Preferences,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

// SetRole replaces an account's role.
func (repository *PostgresRepository) SetRole(context context.Context, id, role string) error {
	const query = "UPDATE users.account SET role = $2, updatedat = $3 WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id, role, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// SetActive flips an account's active flag.
func (repository *PostgresRepository) SetActive(context context.Context, id string, active bool) error {
	const query = "UPDATE users.account SET isactive = $2, updatedat = $3 WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id, active, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}
