package sqlite

import (
	"context"
	"errors"
	"testing"

	"telegram_jump_bot/internal/storage"
)

func TestReadEmptyDatabase(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer s.Close()

	_, err = s.Read(context.Background())
	if !errors.Is(err, storage.ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}
}

func TestWriteReplacesDocument(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if err := s.Write(ctx, []byte(`{"settings":{}}`)); err != nil {
		t.Fatalf("Failed to write first document: %v", err)
	}
	if err := s.Write(ctx, []byte(`{"settings":{"months_ahead":6}}`)); err != nil {
		t.Fatalf("Failed to write second document: %v", err)
	}

	data, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}
	if string(data) != `{"settings":{"months_ahead":6}}` {
		t.Errorf("Unexpected document body: %s", data)
	}

	revision, err := s.Revision(ctx)
	if err != nil {
		t.Fatalf("Failed to read revision: %v", err)
	}
	if revision != 2 {
		t.Errorf("Expected revision 2, got %d", revision)
	}
}

func TestPing(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
