package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"telegram_jump_bot/internal/storage"
)

// FileStorage хранит документ в JSON файле.
// Запись идет во временный файл рядом с целевым, затем rename.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// New создает файловое хранилище. Каталог файла создается при необходимости.
func New(path string) (*FileStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStorage{path: path}, nil
}

// Path возвращает путь к файлу документа
func (s *FileStorage) Path() string {
	return s.path
}

// Read читает документ целиком
func (s *FileStorage) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	return data, nil
}

// Write атомарно заменяет документ
func (s *FileStorage) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Временный файл удаляется при любой ошибке до rename
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	committed = true

	return nil
}

// Ping проверяет, что каталог с документом доступен
func (s *FileStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory is not a directory: %s", filepath.Dir(s.path))
	}

	return nil
}

// Close ничего не делает: файл не держится открытым
func (s *FileStorage) Close() error {
	return nil
}
