package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"telegram_jump_bot/internal/storage"
	"telegram_jump_bot/pkg/metrics"
)

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]string      `json:"checks"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// HealthChecker проверяет состояние системы
type HealthChecker struct {
	storage   storage.DocumentStorage
	startTime time.Time
	version   string
}

// NewHealthChecker создает новый health checker
func NewHealthChecker(st storage.DocumentStorage, version string) *HealthChecker {
	return &HealthChecker{
		storage:   st,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthHandler обрабатывает запросы health check
func (h *HealthChecker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	overallStatus := "healthy"

	// Проверка хранилища документа
	if err := h.checkStorage(ctx); err != nil {
		checks["storage"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["storage"] = "healthy"
	}

	if memStatus := h.checkMemory(); memStatus != "healthy" {
		checks["memory"] = memStatus
		if overallStatus == "healthy" {
			overallStatus = "warning"
		}
	} else {
		checks["memory"] = "healthy"
	}

	if goroutineStatus := h.checkGoroutines(); goroutineStatus != "healthy" {
		checks["goroutines"] = goroutineStatus
		if overallStatus == "healthy" {
			overallStatus = "warning"
		}
	} else {
		checks["goroutines"] = "healthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    checks,
		Metrics:   h.collectMetrics(),
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK) // warning тоже 200
	}

	json.NewEncoder(w).Encode(response)
}

// checkStorage проверяет доступность хранилища
func (h *HealthChecker) checkStorage(ctx context.Context) error {
	if h.storage == nil {
		return nil
	}
	return h.storage.Ping(ctx)
}

// checkMemory проверяет использование памяти
func (h *HealthChecker) checkMemory() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics.MemoryUsage.Set(float64(m.Alloc))

	const warningLimit = 256 * 1024 * 1024  // 256MB
	const criticalLimit = 512 * 1024 * 1024 // 512MB

	if m.Alloc > criticalLimit {
		return "critical: memory usage > 512MB"
	} else if m.Alloc > warningLimit {
		return "warning: memory usage > 256MB"
	}

	return "healthy"
}

// checkGoroutines проверяет количество горутин
func (h *HealthChecker) checkGoroutines() string {
	count := runtime.NumGoroutine()

	metrics.GoroutinesCount.Set(float64(count))

	// Каждая напоминалка - отдельный таймер, а не горутина, поэтому лимит небольшой
	const warningLimit = 100
	const criticalLimit = 1000

	if count > criticalLimit {
		return "critical: too many goroutines"
	} else if count > warningLimit {
		return "warning: high goroutine count"
	}

	return "healthy"
}

// collectMetrics собирает основные метрики для health check
func (h *HealthChecker) collectMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"memory": map[string]interface{}{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"runtime": map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"version":    runtime.Version(),
		},
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}
}
