// Package db provides PostgreSQL persistence for user, profile and
// application data. Profile and application documents are stored as JSONB
// rows keyed by user id, matching the load-all/save-one contract the store
// expects.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/job-pilot/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			password_set BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			content JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_user_id ON applications(user_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Load fetches the profile document and all application documents for a user.
// A user with no saved profile yet gets a nil profile and no error.
func (db *DB) Load(ctx context.Context, userID uuid.UUID) (*types.Profile, []types.SavedApplication, error) {
	var profileJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&profileJSON)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile *types.Profile
	if profileJSON != nil {
		profile = &types.Profile{}
		if err := json.Unmarshal(profileJSON, profile); err != nil {
			return nil, nil, fmt.Errorf("failed to decode profile: %w", err)
		}
	}

	// Creation order, matching what the in-memory store promises callers.
	rows, err := db.pool.Query(ctx,
		`SELECT content FROM applications WHERE user_id = $1 ORDER BY (content->>'created_at')::timestamptz`,
		userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load applications: %w", err)
	}
	defer rows.Close()

	var apps []types.SavedApplication
	for rows.Next() {
		var content []byte
		if err := rows.Scan(&content); err != nil {
			return nil, nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		var app types.SavedApplication
		if err := json.Unmarshal(content, &app); err != nil {
			return nil, nil, fmt.Errorf("failed to decode application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate application rows: %w", err)
	}

	return profile, apps, nil
}

// SaveProfile upserts the complete profile document for a user.
func (db *DB) SaveProfile(ctx context.Context, userID uuid.UUID, profile *types.Profile) error {
	content, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, content)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET content = $2, updated_at = NOW()`,
		userID, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveApplication upserts one application document.
func (db *DB) SaveApplication(ctx context.Context, userID uuid.UUID, app *types.SavedApplication) error {
	content, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal application: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO applications (id, user_id, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET content = $3, updated_at = NOW()`,
		app.ID, userID, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

// DeleteApplication removes one application document.
func (db *DB) DeleteApplication(ctx context.Context, userID uuid.UUID, appID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM applications WHERE id = $1 AND user_id = $2`,
		appID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}
