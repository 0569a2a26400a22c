package testutils

import (
	"context"
	"sync"

	tgmodels "github.com/go-telegram/bot/models"
)

// SentMessage - сообщение, записанное RecordingMessenger
type SentMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    tgmodels.ReplyMarkup
	Edited    bool
}

// Inline возвращает inline клавиатуру сообщения или nil
func (m SentMessage) Inline() *tgmodels.InlineKeyboardMarkup {
	kb, _ := m.Markup.(*tgmodels.InlineKeyboardMarkup)
	return kb
}

// CallbackAnswer - ответ на callback query
type CallbackAnswer struct {
	ID    string
	Text  string
	Alert bool
}

// RecordingMessenger запоминает все исходящие сообщения
type RecordingMessenger struct {
	mu       sync.Mutex
	nextID   int
	messages []SentMessage
	answers  []CallbackAnswer
	deleted  []int
	sendErr  error
}

// NewRecordingMessenger создает пустой RecordingMessenger
func NewRecordingMessenger() *RecordingMessenger {
	return &RecordingMessenger{nextID: 100}
}

// FailSends включает ошибку отправки
func (m *RecordingMessenger) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *RecordingMessenger) SendMessage(ctx context.Context, chatID int64, text string, markup tgmodels.ReplyMarkup) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.messages = append(m.messages, SentMessage{ChatID: chatID, MessageID: m.nextID, Text: text, Markup: markup})
	return m.nextID, nil
}

func (m *RecordingMessenger) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *tgmodels.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := SentMessage{ChatID: chatID, MessageID: messageID, Text: text, Edited: true}
	if markup != nil {
		msg.Markup = markup
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *RecordingMessenger) AnswerCallback(ctx context.Context, callbackQueryID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, CallbackAnswer{ID: callbackQueryID, Text: text, Alert: alert})
	return nil
}

func (m *RecordingMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

// Messages возвращает копию отправленных сообщений
func (m *RecordingMessenger) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.messages...)
}

// MessagesTo возвращает сообщения для чата
func (m *RecordingMessenger) MessagesTo(chatID int64) []SentMessage {
	var out []SentMessage
	for _, msg := range m.Messages() {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

// Last возвращает последнее сообщение для чата
func (m *RecordingMessenger) Last(chatID int64) (SentMessage, bool) {
	msgs := m.MessagesTo(chatID)
	if len(msgs) == 0 {
		return SentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

// Answers возвращает ответы на callback query
func (m *RecordingMessenger) Answers() []CallbackAnswer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CallbackAnswer(nil), m.answers...)
}

// Reset очищает записанные сообщения
func (m *RecordingMessenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.answers = nil
	m.deleted = nil
}
