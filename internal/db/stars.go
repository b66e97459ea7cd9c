package db

import (
	"context"
	"fmt"
)

func (d *DB) StarMeme(ctx context.Context, userID, imageURL string) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO starred_memes (user_id, image_url)
		VALUES ($1, $2)
		ON CONFLICT (user_id, image_url) DO NOTHING
	`, userID, imageURL)
	if err != nil {
		return fmt.Errorf("starring meme: %w", err)
	}
	return nil
}

func (d *DB) StarredMemes(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT image_url FROM starred_memes WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting starred memes: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
