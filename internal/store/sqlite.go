package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "stockdash/internal/errors"
)

// SQLiteStore keeps the watchlist as ordered rows in a SQLite database.
// Each namespace is a separate list_name.
type SQLiteStore struct {
	db       *sql.DB
	listName string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath, namespace string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStorageError("sqlite", "open", fmt.Errorf("failed to open database: %w", err))
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db, listName: namespace}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("sqlite", "open", fmt.Errorf("failed to initialize schema: %w", err))
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		list_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, list_name)
	);

	CREATE INDEX IF NOT EXISTS idx_watchlist_list ON watchlist(list_name, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Name returns the backend name.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the list in saved order.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol FROM watchlist WHERE list_name = ? ORDER BY position ASC
	`, s.listName)
	if err != nil {
		return nil, apperrors.NewStorageError("sqlite", "load", fmt.Errorf("failed to query watchlist: %w", err))
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, apperrors.NewStorageError("sqlite", "load", fmt.Errorf("failed to scan watchlist entry: %w", err))
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("sqlite", "load", err)
	}
	return symbols, nil
}

// Save replaces the whole list in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, symbols []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("sqlite", "save", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM watchlist WHERE list_name = ?`, s.listName); err != nil {
		return apperrors.NewStorageError("sqlite", "save", fmt.Errorf("failed to clear watchlist: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO watchlist (symbol, list_name, position, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.NewStorageError("sqlite", "save", fmt.Errorf("failed to prepare statement: %w", err))
	}
	defer stmt.Close()

	now := time.Now()
	for i, symbol := range symbols {
		if _, err := stmt.ExecContext(ctx, symbol, s.listName, i, now); err != nil {
			return apperrors.NewStorageError("sqlite", "save", fmt.Errorf("failed to insert %s: %w", symbol, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("sqlite", "save", fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// Lists returns every namespace stored in the database with its symbols.
func (s *SQLiteStore) Lists(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT list_name, symbol FROM watchlist ORDER BY list_name, position ASC
	`)
	if err != nil {
		return nil, apperrors.NewStorageError("sqlite", "lists", fmt.Errorf("failed to query watchlists: %w", err))
	}
	defer rows.Close()

	lists := make(map[string][]string)
	for rows.Next() {
		var listName, symbol string
		if err := rows.Scan(&listName, &symbol); err != nil {
			return nil, apperrors.NewStorageError("sqlite", "lists", fmt.Errorf("failed to scan watchlist entry: %w", err))
		}
		lists[listName] = append(lists[listName], symbol)
	}

	return lists, rows.Err()
}
