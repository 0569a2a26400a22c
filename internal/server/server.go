package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telegram_jump_bot/internal/config"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/internal/middleware"
	"telegram_jump_bot/internal/storage"
	"telegram_jump_bot/pkg/logger"
)

// Version - версия, отдаваемая health check
const Version = "1.0.0"

// UpdateHandler обрабатывает обновление Telegram
type UpdateHandler interface {
	Dispatch(ctx context.Context, update *tgmodels.Update)
}

// Server представляет HTTP сервер с middleware
type Server struct {
	httpServer     *http.Server
	config         *config.Config
	logger         *logger.Logger
	rateLimiter    *middleware.RateLimiter
	securityLogger *SecurityLogger
	healthChecker  *HealthChecker
	dispatcher     UpdateHandler
	engine         *lifecycle.Engine
}

// New создает новый HTTP сервер. dispatcher может быть nil, если бот работает
// через long polling, тогда /webhook не регистрируется.
func New(cfg *config.Config, log *logger.Logger, dispatcher UpdateHandler, engine *lifecycle.Engine, st storage.DocumentStorage) *Server {
	s := &Server{
		config:         cfg,
		logger:         log,
		rateLimiter:    middleware.NewRateLimiter(cfg.Server.HTTPRateLimit, time.Minute, log),
		securityLogger: NewSecurityLogger(log),
		healthChecker:  NewHealthChecker(st, Version),
		dispatcher:     dispatcher,
		engine:         engine,
	}

	// Создаем HTTP сервер с таймаутами
	s.httpServer = &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        s.Handler(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return s
}

// Handler возвращает маршрутизатор со всеми middleware
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthChecker.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if s.dispatcher != nil {
		webhook := s.webhookAuthMiddleware(http.HandlerFunc(s.handleWebhook))
		r.Handle("/webhook", webhook).Methods(http.MethodPost)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/availability", s.handleAvailability).Methods(http.MethodGet)
	api.HandleFunc("/months", s.handleMonths).Methods(http.MethodGet)

	r.Use(middleware.PrometheusMiddleware)
	r.Use(s.loggingMiddleware)

	return s.applyMiddleware(r)
}

// applyMiddleware применяет общие middleware (последний применяется первым)
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	h := handler

	// 3. Проверка размера запроса
	h = s.requestValidationMiddleware(h)

	// 2. Rate limiting по IP
	h = middleware.HTTPRateLimitMiddleware(s.rateLimiter)(h)

	// 1. Security headers
	h = s.securityHeadersMiddleware(h)

	return h
}

// handleWebhook обрабатывает Telegram webhook
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Парсим обновление от Telegram используя модели библиотеки
	var update tgmodels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Error("Failed to decode Telegram update", logger.Error(err))
		s.securityLogger.LogValidationError(r, "webhook_body", err.Error())
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if reason := validateUpdate(&update); reason != "" {
		s.securityLogger.LogValidationError(r, "webhook_update", reason)
		// Telegram повторяет доставку при ошибке, поэтому отвечаем 200
		w.WriteHeader(http.StatusOK)
		return
	}

	// Обработка не должна прерываться при разрыве соединения
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.config.Server.WriteTimeout)
	defer cancel()

	s.dispatcher.Dispatch(ctx, &update)

	s.securityLogger.LogTelegramUpdate(&update, time.Since(start))
	w.WriteHeader(http.StatusOK)
}

// Start запускает сервер и блокируется до отмены ctx
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", logger.String("addr", s.httpServer.Addr))

	// Запускаем сервер в отдельной горутине
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	// Ждем завершения контекста или ошибки
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown корректно завершает работу сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	s.securityLogger.LogSystemEvent("server_shutdown", "info")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	s.rateLimiter.Close()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Error during server shutdown", logger.Error(err))
		return err
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
