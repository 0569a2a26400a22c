package server

import (
	"encoding/json"
	"net/http"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/pkg/logger"
)

// AvailabilityResponse - открытые даты в выбранном режиме
type AvailabilityResponse struct {
	Mode  string                    `json:"mode"`
	Today string                    `json:"today"`
	Days  []booking.DayAvailability `json:"days"`
}

// MonthsResponse - месяцы горизонта, в которых есть свободные места
type MonthsResponse struct {
	Months []booking.YearMonth `json:"months"`
}

// handleAvailability отдает открытые даты: /api/v1/availability?mode=weekday|specific
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	mode, ok := booking.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be weekday or specific"})
		return
	}

	days := s.engine.ListAvailability(mode)
	if days == nil {
		days = []booking.DayAvailability{}
	}

	s.writeJSON(w, http.StatusOK, AvailabilityResponse{
		Mode:  mode.String(),
		Today: models.FormatDate(s.engine.Store().Today()),
		Days:  days,
	})
}

// handleMonths отдает месяцы со свободными местами
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months := s.engine.MonthsWithAvailability()
	if months == nil {
		months = []booking.YearMonth{}
	}
	s.writeJSON(w, http.StatusOK, MonthsResponse{Months: months})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", logger.Error(err))
	}
}
