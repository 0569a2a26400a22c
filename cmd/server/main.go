package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot"
	"telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/config"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/internal/middleware"
	"telegram_jump_bot/internal/notify"
	"telegram_jump_bot/internal/scheduler/memory"
	"telegram_jump_bot/internal/server"
	"telegram_jump_bot/internal/storage"
	"telegram_jump_bot/internal/storage/file"
	"telegram_jump_bot/internal/storage/sqlite"
	"telegram_jump_bot/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализируем логгер
	level := logger.ParseLevel(cfg.Log.Level)
	appLogger := logger.New(level)
	if cfg.Log.IsProduction() {
		appLogger = logger.NewProduction(level)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Telegram jump bot",
		logger.String("storage", cfg.Storage.Backend),
		logger.String("timezone", cfg.Booking.Timezone),
		logger.Bool("webhook", cfg.Telegram.UseWebhook()),
	)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Bot stopped with error", logger.Error(err))
		os.Exit(1)
	}

	appLogger.Info("Bot stopped gracefully")
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем хранилище
	st, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			appLogger.Error("Error closing storage", logger.Error(err))
		}
	}()

	loc := cfg.Booking.Location
	now := func() time.Time { return time.Now().In(loc) }

	store, err := booking.Open(ctx, st, appLogger.Named("store"),
		booking.WithClock(now),
		booking.WithDefaults(cfg.Booking.Defaults),
		booking.WithDefaultTime(cfg.Booking.DefaultTime),
	)
	if err != nil {
		return fmt.Errorf("failed to open booking store: %w", err)
	}

	// Диспетчер создается после бота, а бот нуждается в обработчике
	var dispatcher *bot.Dispatcher
	telegramBot, err := tgbot.New(cfg.Telegram.Token,
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *tgmodels.Update) {
			dispatcher.HandleUpdate(ctx, b, update)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	messenger := service.NewTelegramMessenger(telegramBot)
	notifier := notify.NewTelegramNotifier(messenger, cfg.Telegram.AdminID, appLogger.Named("notify"))

	// Напоминания о подтвержденных прыжках
	reminders := memory.NewMemoryScheduler(notifier, cfg.Booking.ReminderLead, appLogger.Named("scheduler"),
		memory.WithClock(now),
		memory.WithLocation(loc),
	)
	defer reminders.Stop()

	if err := reminders.ReschedulePending(ctx, store.UpcomingConfirmed()); err != nil {
		appLogger.Warn("Failed to reschedule reminders", logger.Error(err))
	}

	engine := lifecycle.NewEngine(store, lifecycle.NewRegistry(now), notifier, cfg.Telegram.AdminID,
		appLogger.Named("lifecycle"), lifecycle.WithReminders(reminders))

	botService := service.NewService(engine, messenger, appLogger.Named("bot"))

	limiter := middleware.NewTelegramRateLimiter(cfg.Telegram.RateLimit, cfg.Telegram.GlobalRateLimit, appLogger)
	defer limiter.Close()

	dispatcher = bot.NewDispatcher(botService, limiter)

	if cfg.Booking.ConversationTTL > 0 {
		go expireConversations(ctx, engine, cfg.Booking.ConversationTTL, appLogger)
	}

	if cfg.Telegram.UseWebhook() {
		if err := setupWebhook(ctx, telegramBot, cfg.Telegram); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		appLogger.Info("Webhook configured", logger.String("url", cfg.Telegram.WebhookURL))

		srv := server.New(cfg, appLogger.Named("http"), dispatcher, engine, st)
		return srv.Start(ctx)
	}

	// Long polling: HTTP сервер отдает только health, метрики и API
	if _, err := telegramBot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
		appLogger.Warn("Failed to delete webhook", logger.Error(err))
	}

	srv := server.New(cfg, appLogger.Named("http"), nil, engine, st)
	errCh := make(chan error, 1)
	go func() {
		err := srv.Start(ctx)
		if err != nil {
			// без HTTP сервера останавливаем и polling
			stop()
		}
		errCh <- err
	}()

	appLogger.Info("Starting long polling")
	telegramBot.Start(ctx)

	return <-errCh
}

// openStorage создает хранилище документа по настройкам
func openStorage(cfg *config.Config) (storage.DocumentStorage, error) {
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		return sqlite.New(cfg.Storage.DBFile)
	default:
		return file.New(cfg.Storage.DataFile)
	}
}

// setupWebhook настраивает webhook для Telegram бота
func setupWebhook(ctx context.Context, b *tgbot.Bot, cfg config.TelegramConfig) error {
	params := &tgbot.SetWebhookParams{
		URL:            cfg.WebhookURL,
		SecretToken:    cfg.SecretToken,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	_, err := b.SetWebhook(ctx, params)
	return err
}

// expireConversations периодически удаляет заброшенные диалоги
func expireConversations(ctx context.Context, engine *lifecycle.Engine, ttl time.Duration, appLogger *logger.Logger) {
	interval := time.Minute
	if ttl < interval {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := engine.ExpireConversations(ttl); removed > 0 {
				appLogger.Debug("Expired conversations", logger.Int("count", removed))
			}
		}
	}
}
