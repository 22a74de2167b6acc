// Package repository provides persistence implementations for the user
// records the credential backend keeps.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresUserRepository stores users in a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// UpsertUser registers login or, if it already exists, refreshes its
// last-seen timestamp.
func (r *PostgresUserRepository) UpsertUser(ctx context.Context, login string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (login) VALUES ($1)
		 ON CONFLICT (login) DO UPDATE SET last_seen_at = now()`,
		login,
	)
	if err != nil {
		return fmt.Errorf("UpsertUser: %w", err)
	}
	return nil
}

// ListUsernames returns every known login ordered by name.
func (r *PostgresUserRepository) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT login FROM users ORDER BY login`)
	if err != nil {
		return nil, fmt.Errorf("ListUsernames: %w", err)
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		logins = append(logins, login)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsernames: %w", err)
	}
	return logins, nil
}
