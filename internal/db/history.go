package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tablo/internal/model"
)

// maxHistory bounds the history table; older rows are pruned on insert.
const maxHistory = 500

// RecordHistory appends a query line to the history, skipping it when it
// equals the most recent entry. The check and the insert share one
// transaction.
func RecordHistory(ctx context.Context, db *sql.DB, rawQuery string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	var last string
	err = tx.QueryRowContext(ctx, `SELECT raw_query FROM history ORDER BY id DESC LIMIT 1`).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to get last query: %w", err)
	case last == rawQuery:
		return nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO history (raw_query) VALUES (?)`, rawQuery); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM history
		WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)
	`, maxHistory)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// LastQuery returns the most recently recorded query line, or "" when the
// history is empty.
func LastQuery(ctx context.Context, db *sql.DB) (string, error) {
	var raw string
	err := db.QueryRowContext(ctx, `SELECT raw_query FROM history ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last query: %w", err)
	}
	return raw, nil
}

// ListHistory returns up to limit entries, newest first.
func ListHistory(ctx context.Context, db *sql.DB, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, raw_query, visited_at
		FROM history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var results []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var visitedAt string
		if err := rows.Scan(&e.ID, &e.RawQuery, &visitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.VisitedAt = parseTimestamp(visitedAt)
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return results, nil
}

func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
