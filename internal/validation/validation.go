package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/pkg/errors"
)

// Границы допустимых значений анкеты и настроек
const (
	MinAge       = 18
	MaxAge       = 100
	MinWeight    = 40.0
	MaxWeight    = 150.0
	MaxNameLen   = 100
	MaxSlotCount = 1000
	MaxHorizon   = 24
)

// Регулярные выражения для валидации
var (
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// ValidateName проверяет имя или фамилию и возвращает очищенное значение
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.ErrInvalidName.WithContext("имя не может быть пустым")
	}

	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", errors.ErrInvalidName.WithContext(map[string]interface{}{
			"reason": fmt.Sprintf("имя слишком длинное (максимум %d символов)", MaxNameLen),
		})
	}

	return name, nil
}

// ParseAge разбирает возраст из текста
func ParseAge(input string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errors.ErrInvalidAge.WithError(err).WithContext(map[string]interface{}{
			"input": input,
		})
	}

	if err := CheckAge(age); err != nil {
		return 0, err
	}

	return age, nil
}

// CheckAge проверяет диапазон возраста
func CheckAge(age int) error {
	if age < MinAge || age > MaxAge {
		return errors.ErrInvalidAge.WithContext(map[string]interface{}{
			"age":    age,
			"reason": fmt.Sprintf("возраст должен быть от %d до %d", MinAge, MaxAge),
		})
	}
	return nil
}

// ParseWeight разбирает вес в килограммах, допускается запятая
func ParseWeight(input string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")

	weight, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, errors.ErrInvalidWeight.WithError(err).WithContext(map[string]interface{}{
			"input": input,
		})
	}

	if err := CheckWeight(weight); err != nil {
		return 0, err
	}

	return weight, nil
}

// CheckWeight проверяет диапазон веса
func CheckWeight(weight float64) error {
	// NaN не проходит ни одно сравнение, поэтому условие записано через попадание в диапазон
	if !(weight >= MinWeight && weight <= MaxWeight) {
		return errors.ErrInvalidWeight.WithContext(map[string]interface{}{
			"weight": weight,
			"reason": fmt.Sprintf("вес должен быть от %.0f до %.0f кг", MinWeight, MaxWeight),
		})
	}
	return nil
}

// ValidatePhoneNumber валидирует номер телефона
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.ErrInvalidPhoneNumber.WithContext("номер телефона не может быть пустым")
	}

	if !phoneRegex.MatchString(phone) {
		return errors.ErrInvalidPhoneNumber.WithContext(map[string]interface{}{
			"phone":  phone,
			"reason": "номер должен содержать от 10 до 15 цифр, допускается + в начале",
		})
	}

	return nil
}

// ValidateApplicant проверяет анкету целиком
func ValidateApplicant(a models.Applicant) error {
	if _, err := ValidateName(a.FirstName); err != nil {
		return err
	}
	if _, err := ValidateName(a.LastName); err != nil {
		return err
	}
	if err := CheckAge(a.Age); err != nil {
		return err
	}
	if err := CheckWeight(a.Weight); err != nil {
		return err
	}
	return ValidatePhoneNumber(a.Phone)
}

// ValidateDate валидирует дату в формате YYYY-MM-DD
func ValidateDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, errors.ErrInvalidDate.WithContext("дата не может быть пустой")
	}

	if !dateRegex.MatchString(dateStr) {
		return time.Time{}, errors.ErrInvalidDate.WithContext(map[string]interface{}{
			"date":   dateStr,
			"reason": "дата должна быть в формате YYYY-MM-DD",
		})
	}

	date, err := models.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, errors.ErrInvalidDate.WithError(err).WithContext(map[string]interface{}{
			"date": dateStr,
		})
	}

	return date, nil
}

// ValidateFutureDate валидирует дату и проверяет, что она не в прошлом
func ValidateFutureDate(dateStr string, today time.Time) (time.Time, error) {
	date, err := ValidateDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}

	if date.Before(models.CivilDate(today)) {
		return time.Time{}, errors.ErrInvalidDate.WithContext(map[string]interface{}{
			"date":   dateStr,
			"reason": "нельзя выбрать дату в прошлом",
		})
	}

	return date, nil
}

// ValidateTime валидирует время ЧЧ:ММ и возвращает его в виде "09:05"
func ValidateTime(timeStr string) (string, error) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return "", errors.ErrInvalidTime.WithContext("время не может быть пустым")
	}

	if !timeRegex.MatchString(timeStr) {
		return "", errors.ErrInvalidTime.WithContext(map[string]interface{}{
			"time":   timeStr,
			"reason": "время должно быть в формате ЧЧ:ММ",
		})
	}

	parsed, err := time.Parse(models.TimeLayout, timeStr)
	if err != nil {
		return "", errors.ErrInvalidTime.WithError(err).WithContext(map[string]interface{}{
			"time": timeStr,
		})
	}

	return parsed.Format(models.TimeLayout), nil
}

// ParseSlotCount разбирает количество слотов из текста
func ParseSlotCount(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errors.ErrInvalidSlotCount.WithError(err).WithContext(map[string]interface{}{
			"input": input,
		})
	}

	if err := ValidateSlotCount(n); err != nil {
		return 0, err
	}

	return n, nil
}

// ValidateSlotCount проверяет количество слотов
func ValidateSlotCount(n int) error {
	if n < 0 || n > MaxSlotCount {
		return errors.ErrInvalidSlotCount.WithContext(map[string]interface{}{
			"slots":  n,
			"reason": fmt.Sprintf("количество слотов должно быть от 0 до %d", MaxSlotCount),
		})
	}
	return nil
}

// ValidateWeekday проверяет номер дня недели (0 = понедельник, 6 = воскресенье)
func ValidateWeekday(weekday int) error {
	if weekday < 0 || weekday > 6 {
		return errors.ErrInvalidWeekday.WithContext(map[string]interface{}{
			"weekday": weekday,
			"reason":  "день недели должен быть от 0 (пн) до 6 (вс)",
		})
	}
	return nil
}

// ParseWeekday разбирает номер дня недели из текста
func ParseWeekday(input string) (int, error) {
	weekday, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errors.ErrInvalidWeekday.WithError(err).WithContext(map[string]interface{}{
			"input": input,
		})
	}
	if err := ValidateWeekday(weekday); err != nil {
		return 0, err
	}
	return weekday, nil
}

// ParseWeekdays разбирает список дней недели вида "5,6" или "5 6".
// Повторы удаляются, результат отсортирован.
func ParseWeekdays(input string) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})

	seen := make(map[int]bool, len(fields))
	days := make([]int, 0, len(fields))
	for _, f := range fields {
		weekday, err := ParseWeekday(f)
		if err != nil {
			return nil, err
		}
		if !seen[weekday] {
			seen[weekday] = true
			days = append(days, weekday)
		}
	}

	sort.Ints(days)
	return days, nil
}

// ValidateHorizon проверяет горизонт планирования в месяцах
func ValidateHorizon(months int) error {
	if months < 1 || months > MaxHorizon {
		return errors.ErrInvalidHorizon.WithContext(map[string]interface{}{
			"months": months,
			"reason": fmt.Sprintf("горизонт должен быть от 1 до %d месяцев", MaxHorizon),
		})
	}
	return nil
}

// ParseHorizon разбирает горизонт планирования из текста
func ParseHorizon(input string) (int, error) {
	months, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errors.ErrInvalidHorizon.WithError(err).WithContext(map[string]interface{}{
			"input": input,
		})
	}
	if err := ValidateHorizon(months); err != nil {
		return 0, err
	}
	return months, nil
}

// ValidateChatID валидирует Telegram Chat ID
func ValidateChatID(chatID int64) error {
	if chatID == 0 {
		return errors.ErrValidation.WithMessage("Chat ID не может быть равен нулю")
	}
	return nil
}
