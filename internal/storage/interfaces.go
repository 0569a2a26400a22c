package storage

import (
	"context"
	"errors"
)

// ErrDocumentNotFound возвращается, когда документ еще ни разу не сохранялся
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStorage определяет интерфейс хранилища единственного документа бота.
// Write должен заменять документ целиком: после сбоя читается либо старая,
// либо новая версия.
type DocumentStorage interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
	Ping(ctx context.Context) error
}
