package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/internal/validation"
)

// Поддерживаемые хранилища документа
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Booking  BookingConfig  `json:"booking"`
	Log      LogConfig      `json:"log"`
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	Token       string `json:"token"`
	AdminID     int64  `json:"admin_id"`
	WebhookURL  string `json:"webhook_url"`
	SecretToken string `json:"-"`
	// RateLimit - обновлений в минуту от одного пользователя
	RateLimit int `json:"rate_limit"`
	// GlobalRateLimit - обновлений в секунду от всех пользователей
	GlobalRateLimit int `json:"global_rate_limit"`
}

// UseWebhook сообщает, нужно ли принимать обновления через webhook
func (t TelegramConfig) UseWebhook() bool {
	return t.WebhookURL != ""
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPRateLimit   int           `json:"http_rate_limit"`
}

// StorageConfig содержит настройки хранения документа
type StorageConfig struct {
	Backend  string `json:"backend"`
	DataFile string `json:"data_file"`
	DBFile   string `json:"db_file"`
}

// BookingConfig содержит настройки записи
type BookingConfig struct {
	SettingsFile    string         `json:"settings_file"`
	Defaults        models.Settings `json:"defaults"`
	DefaultTime     string         `json:"default_time"`
	ReminderLead    time.Duration  `json:"reminder_lead"`
	Timezone        string         `json:"timezone"`
	Location        *time.Location `json:"-"`
	ConversationTTL time.Duration  `json:"conversation_ttl"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level string `json:"level"`
	Env   string `json:"env"`
}

// IsProduction проверяет, запущено ли приложение в продакшене
func (l LogConfig) IsProduction() bool {
	return strings.EqualFold(l.Env, "production") || strings.EqualFold(l.Env, "prod")
}

// Load загружает конфигурацию из .env и переменных окружения
func Load() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv читает переменные окружения без валидации
func FromEnv() (*Config, error) {
	adminID, err := getEnvAsInt64("ADMIN_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:           os.Getenv("TELEGRAM_TOKEN"),
			AdminID:         adminID,
			WebhookURL:      os.Getenv("WEBHOOK_URL"),
			SecretToken:     os.Getenv("TELEGRAM_SECRET_TOKEN"),
			RateLimit:       getEnvAsInt("RATE_LIMIT", 30),
			GlobalRateLimit: getEnvAsInt("GLOBAL_RATE_LIMIT", 30),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			HTTPRateLimit:   getEnvAsInt("HTTP_RATE_LIMIT", 100),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(getEnv("STORAGE_BACKEND", StorageFile)),
			DataFile: getEnv("DATA_FILE", "data.json"),
			DBFile:   getEnv("DB_FILE", "jump_bot.db"),
		},
		Booking: BookingConfig{
			SettingsFile:    os.Getenv("SETTINGS_FILE"),
			Defaults:        models.DefaultSettings(),
			DefaultTime:     getEnv("DEFAULT_BOOKING_TIME", models.DefaultBookingTime),
			ReminderLead:    getEnvAsDuration("REMINDER_LEAD", 24*time.Hour),
			Timezone:        getEnv("TIMEZONE", "UTC"),
			ConversationTTL: getEnvAsDuration("CONVERSATION_TTL", 0),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Env:   getEnv("ENV", "development"),
		},
	}

	if cfg.Booking.SettingsFile != "" {
		defaults, err := LoadSettingsFile(cfg.Booking.SettingsFile, cfg.Booking.Defaults)
		if err != nil {
			return nil, err
		}
		cfg.Booking.Defaults = defaults
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.Telegram.AdminID <= 0 {
		return fmt.Errorf("ADMIN_ID is required")
	}
	if c.Telegram.UseWebhook() && !strings.HasPrefix(c.Telegram.WebhookURL, "https://") {
		return fmt.Errorf("WEBHOOK_URL must use https")
	}
	if c.Telegram.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for file storage")
		}
	case StorageSQLite:
		if c.Storage.DBFile == "" {
			return fmt.Errorf("DB_FILE is required for sqlite storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected file or sqlite)", c.Storage.Backend)
	}

	normalized, err := validation.ValidateTime(c.Booking.DefaultTime)
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_BOOKING_TIME (expected HH:MM): %w", err)
	}
	c.Booking.DefaultTime = normalized

	if c.Booking.ReminderLead < 0 {
		return fmt.Errorf("REMINDER_LEAD must be non-negative")
	}
	if c.Booking.ConversationTTL < 0 {
		return fmt.Errorf("CONVERSATION_TTL must be non-negative")
	}

	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	c.Booking.Location = loc

	if err := validateSettings(c.Booking.Defaults); err != nil {
		return fmt.Errorf("invalid default settings: %w", err)
	}

	return nil
}

func validateSettings(s models.Settings) error {
	if err := validation.ValidateHorizon(s.MonthsAhead); err != nil {
		return err
	}
	if err := validation.ValidateSlotCount(s.SlotsPerDay); err != nil {
		return err
	}
	for _, d := range s.WorkingDays {
		if err := validation.ValidateWeekday(d); err != nil {
			return err
		}
	}
	for d, n := range s.DaySlots {
		if err := validation.ValidateWeekday(d); err != nil {
			return err
		}
		if err := validation.ValidateSlotCount(n); err != nil {
			return err
		}
	}
	for date, n := range s.SpecificDays {
		if _, err := validation.ValidateDate(date); err != nil {
			return err
		}
		if err := validation.ValidateSlotCount(n); err != nil {
			return err
		}
	}
	return nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt получает переменную окружения как число
func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

// getEnvAsDuration получает переменную окружения как duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
