package errors

import (
	stderrors "errors"
	"fmt"
)

// Коды ошибок бота
const (
	CodeValidation       = "VALIDATION"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeCapacityConflict = "CAPACITY_CONFLICT"
	CodePersistence      = "PERSISTENCE"
	CodeAlreadyPending   = "ALREADY_PENDING"
)

// BotError представляет ошибку бота с кодом и контекстом
type BotError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Context interface{} `json:"context,omitempty"`
}

// Error реализует интерфейс error
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *BotError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, поэтому копии из WithContext/WithError
// совпадают с исходными предопределенными ошибками.
func (e *BotError) Is(target error) bool {
	t, ok := target.(*BotError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithContext добавляет контекст к ошибке
func (e *BotError) WithContext(ctx interface{}) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Context: ctx,
	}
}

// WithError добавляет underlying ошибку
func (e *BotError) WithError(err error) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		Context: e.Context,
	}
}

// WithMessage заменяет сообщение, сохраняя код
func (e *BotError) WithMessage(message string) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
		Context: e.Context,
	}
}

// Предопределенные ошибки
var (
	// Ошибки валидации
	ErrValidation = &BotError{
		Code: CodeValidation,
	}

	ErrInvalidDate = &BotError{
		Code:    CodeValidation,
		Message: "некорректная дата",
	}

	ErrInvalidTime = &BotError{
		Code:    CodeValidation,
		Message: "некорректное время",
	}

	ErrInvalidPhoneNumber = &BotError{
		Code:    CodeValidation,
		Message: "некорректный номер телефона",
	}

	ErrInvalidAge = &BotError{
		Code:    CodeValidation,
		Message: "некорректный возраст",
	}

	ErrInvalidWeight = &BotError{
		Code:    CodeValidation,
		Message: "некорректный вес",
	}

	ErrInvalidName = &BotError{
		Code:    CodeValidation,
		Message: "некорректное имя",
	}

	ErrInvalidSlotCount = &BotError{
		Code:    CodeValidation,
		Message: "некорректное количество слотов",
	}

	ErrInvalidWeekday = &BotError{
		Code:    CodeValidation,
		Message: "некорректный день недели",
	}

	ErrInvalidHorizon = &BotError{
		Code:    CodeValidation,
		Message: "некорректный горизонт планирования",
	}

	// Ошибки поиска
	ErrNotFound = &BotError{
		Code: CodeNotFound,
	}

	ErrPendingNotFound = &BotError{
		Code:    CodeNotFound,
		Message: "заявка не найдена",
	}

	ErrBookingNotFound = &BotError{
		Code:    CodeNotFound,
		Message: "запись не найдена",
	}

	// Ошибки доступа
	ErrUnauthorized = &BotError{
		Code:    CodeUnauthorized,
		Message: "доступ запрещён",
	}

	// Ошибки бизнес-логики
	ErrCapacityConflict = &BotError{
		Code:    CodeCapacityConflict,
		Message: "количество слотов меньше числа подтвержденных записей",
	}

	ErrAlreadyPending = &BotError{
		Code:    CodeAlreadyPending,
		Message: "заявка на эту дату уже ожидает подтверждения",
	}

	// Системные ошибки
	ErrPersistence = &BotError{
		Code:    CodePersistence,
		Message: "не удалось сохранить данные",
	}

	ErrConfigurationInvalid = &BotError{
		Code:    "CONFIGURATION_INVALID",
		Message: "некорректная конфигурация",
	}

	ErrTelegramAPI = &BotError{
		Code:    "TELEGRAM_API",
		Message: "ошибка Telegram API",
	}
)

// CapacityConflict описывает минимально допустимое значение слотов
type CapacityConflict struct {
	Target     string `json:"target"`
	Requested  int    `json:"requested"`
	MinAllowed int    `json:"min_allowed"`
}

// NewBotError создает новую ошибку бота
func NewBotError(code, message string) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает обычную ошибку в BotError
func Wrap(err error, code, message string) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is - обертка над errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// IsBotError проверяет, является ли ошибка BotError
func IsBotError(err error) bool {
	var botErr *BotError
	return stderrors.As(err, &botErr)
}

// GetBotError извлекает BotError из ошибки
func GetBotError(err error) (*BotError, bool) {
	var botErr *BotError
	ok := stderrors.As(err, &botErr)
	return botErr, ok
}

// CodeOf возвращает код ошибки или пустую строку
func CodeOf(err error) string {
	if botErr, ok := GetBotError(err); ok {
		return botErr.Code
	}
	return ""
}

// HasCode проверяет код ошибки
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// Conflict извлекает подробности ошибки CAPACITY_CONFLICT
func Conflict(err error) (CapacityConflict, bool) {
	botErr, ok := GetBotError(err)
	if !ok || botErr.Code != CodeCapacityConflict {
		return CapacityConflict{}, false
	}
	conflict, ok := botErr.Context.(CapacityConflict)
	return conflict, ok
}

// MinAllowed извлекает минимально допустимое количество слотов из ошибки CAPACITY_CONFLICT
func MinAllowed(err error) (int, bool) {
	conflict, ok := Conflict(err)
	if !ok {
		return 0, false
	}
	return conflict.MinAllowed, true
}
