package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tablo/internal/model"

	"github.com/google/uuid"
)

// ErrViewNotFound is returned when no saved view has the requested name.
var ErrViewNotFound = errors.New("saved view not found")

// SaveView stores rawQuery under name, replacing the query of an existing
// view with the same name. The stored view is returned.
func SaveView(ctx context.Context, db *sql.DB, name, rawQuery string) (model.SavedView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.SavedView{}, fmt.Errorf("view name is required")
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO views (id, name, raw_query) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET raw_query = excluded.raw_query
	`, uuid.NewString(), name, rawQuery)
	if err != nil {
		return model.SavedView{}, fmt.Errorf("failed to save view: %w", err)
	}
	return GetView(ctx, db, name)
}

// GetView retrieves a saved view by name.
func GetView(ctx context.Context, db *sql.DB, name string) (model.SavedView, error) {
	var v model.SavedView
	var createdAt string
	err := db.QueryRowContext(ctx, `
		SELECT id, name, raw_query, created_at
		FROM views
		WHERE name = ?
	`, strings.TrimSpace(name)).Scan(&v.ID, &v.Name, &v.RawQuery, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavedView{}, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	if err != nil {
		return model.SavedView{}, fmt.Errorf("failed to get view: %w", err)
	}
	v.CreatedAt = parseTimestamp(createdAt)
	return v, nil
}

// ListViews returns all saved views ordered by name.
func ListViews(ctx context.Context, db *sql.DB) ([]model.SavedView, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, raw_query, created_at
		FROM views
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer rows.Close()

	var results []model.SavedView
	for rows.Next() {
		var v model.SavedView
		var createdAt string
		if err := rows.Scan(&v.ID, &v.Name, &v.RawQuery, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan view row: %w", err)
		}
		v.CreatedAt = parseTimestamp(createdAt)
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view rows: %w", err)
	}

	return results, nil
}

// DeleteView removes a saved view by name.
func DeleteView(ctx context.Context, db *sql.DB, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM views WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	return nil
}
