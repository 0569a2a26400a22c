package testutils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telegram_jump_bot/internal/storage"
	"telegram_jump_bot/internal/storage/sqlite"
	"telegram_jump_bot/pkg/logger"
)

// ErrWriteFailed возвращается MemoryStorage в режиме отказа записи
var ErrWriteFailed = errors.New("write failed")

// MemoryStorage хранит документ в памяти и умеет имитировать отказ записи
type MemoryStorage struct {
	mu         sync.Mutex
	data       []byte
	writes     int
	failWrites bool
}

// NewMemoryStorage создает пустое хранилище; initial может быть nil
func NewMemoryStorage(initial []byte) *MemoryStorage {
	return &MemoryStorage{data: initial}
}

// Read возвращает сохраненный документ
func (m *MemoryStorage) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, storage.ErrDocumentNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// Write сохраняет документ или возвращает ErrWriteFailed
func (m *MemoryStorage) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return ErrWriteFailed
	}
	m.data = append([]byte(nil), data...)
	m.writes++
	return nil
}

// Ping всегда успешен
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close ничего не делает
func (m *MemoryStorage) Close() error {
	return nil
}

// FailWrites включает или выключает отказ записи
func (m *MemoryStorage) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}

// Data возвращает последний записанный документ
func (m *MemoryStorage) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Writes возвращает количество успешных записей
func (m *MemoryStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Clock - управляемые часы для тестов
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock создает часы, показывающие now
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now возвращает текущее время часов
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы вперед
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Date создает дату в UTC
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SetupTestDB создает in-memory SQLite хранилище для тестов
func SetupTestDB(t *testing.T) *sqlite.SQLiteStorage {
	t.Helper()

	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// SetupTestLogger создает тестовый логгер
func SetupTestLogger() *logger.Logger {
	return logger.NewNop()
}

// TestContext создает контекст для тестов
func TestContext() context.Context {
	return context.Background()
}
