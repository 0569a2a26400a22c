package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"telegram_jump_bot/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStorage хранит документ бота в одной строке таблицы documents
type SQLiteStorage struct {
	db *sql.DB
}

// New создает новое подключение к SQLite базе данных
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite поддерживает только одно write-подключение
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

// migrate выполняет миграции базы данных
func (s *SQLiteStorage) migrate() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			body TEXT NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

// Read возвращает сохраненный документ
func (s *SQLiteStorage) Read(ctx context.Context) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = 1`).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return []byte(body), nil
}

// Write заменяет документ в одной транзакции
func (s *SQLiteStorage) Write(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO documents (id, body, revision, updated_at)
			  VALUES (1, ?, 1, CURRENT_TIMESTAMP)
			  ON CONFLICT(id) DO UPDATE SET
				body = excluded.body,
				revision = documents.revision + 1,
				updated_at = CURRENT_TIMESTAMP`

	if _, err := tx.ExecContext(ctx, query, string(data)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}

	return nil
}

// Revision возвращает количество сохранений документа
func (s *SQLiteStorage) Revision(ctx context.Context) (int64, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM documents WHERE id = 1`).Scan(&revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}
	return revision, nil
}

// Close закрывает подключение к базе данных
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
