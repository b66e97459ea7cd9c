package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PlayerRecord struct {
	ID        string
	Name      string
	AvatarURL string
	CreatedAt time.Time
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *DB) UpsertPlayer(ctx context.Context, id, name, avatarURL string) error {
	return upsertPlayer(ctx, d.conn, id, name, avatarURL)
}

func upsertPlayer(ctx context.Context, ex execer, id, name, avatarURL string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO players (id, name, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = $2, avatar_url = $3, updated_at = now()
	`, id, name, avatarURL)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

func (d *DB) GetPlayer(ctx context.Context, id string) (*PlayerRecord, error) {
	var p PlayerRecord
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, name, avatar_url, created_at FROM players WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.AvatarURL, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}
