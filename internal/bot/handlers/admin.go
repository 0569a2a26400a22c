package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/bot/format"
	botservice "telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/lifecycle"
	storagemodels "telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/internal/validation"
	"telegram_jump_bot/pkg/errors"
)

var errUsage = errors.ErrValidation.WithMessage("неверный формат команды")

// AdminHandler обрабатывает команды администратора
type AdminHandler struct {
	service *botservice.Service
	render  renderer
}

// NewAdminHandler создает новый обработчик команд администратора
func NewAdminHandler(service *botservice.Service) *AdminHandler {
	return &AdminHandler{service: service, render: renderer{service: service}}
}

// Handle обрабатывает команду администратора
func (h *AdminHandler) Handle(ctx context.Context, update *models.Update) {
	if update.Message == nil {
		return
	}

	cmd, args := parseCommand(update.Message.Text)
	chatID := update.Message.Chat.ID
	userID := senderID(update.Message)
	engine := h.service.Engine()

	if !isAdminCommand(cmd) {
		return
	}
	if !engine.IsAdmin(userID) {
		h.service.SendError(ctx, chatID, format.ErrorText(errors.ErrUnauthorized))
		return
	}

	var err error
	switch cmd {
	case "view_bookings":
		var doc *storagemodels.Document
		doc, err = engine.Bookings(userID)
		if err == nil {
			h.render.send(ctx, chatID, format.Bookings(doc), nil)
		}

	case "settings":
		var step lifecycle.Step
		step, err = engine.StartConfig(ctx, userID)
		if err == nil {
			h.render.send(ctx, chatID, format.Settings(engine.Store().Settings()), nil)
			h.render.step(ctx, chatID, 0, step)
		}

	case "setday":
		err = h.setDay(ctx, userID, args)
	case "dayslots":
		err = h.setWeekday(ctx, userID, args)
	case "slots":
		err = h.setDefault(ctx, userID, args)
	case "workdays":
		err = h.setWorkingDays(ctx, userID, args)
	case "horizon":
		err = h.setHorizon(ctx, userID, args)
	}

	if err != nil {
		h.service.SendError(ctx, chatID, format.ErrorText(err))
		return
	}

	if cmd != "view_bookings" && cmd != "settings" {
		h.render.send(ctx, chatID, "✅ Сохранено.\n\n"+format.Settings(engine.Store().Settings()), nil)
	}
}

// /setday 2025-07-05 4
func (h *AdminHandler) setDay(ctx context.Context, adminID int64, args []string) error {
	if len(args) != 2 {
		return usage("/setday ГГГГ-ММ-ДД N")
	}
	if _, err := validation.ValidateDate(args[0]); err != nil {
		return err
	}
	slots, err := validation.ParseSlotCount(args[1])
	if err != nil {
		return err
	}
	return h.service.Engine().SetCapacity(ctx, adminID, lifecycle.CapacityTarget{Date: args[0]}, slots)
}

// /dayslots 5 4
func (h *AdminHandler) setWeekday(ctx context.Context, adminID int64, args []string) error {
	if len(args) != 2 {
		return usage("/dayslots ДЕНЬ N")
	}
	weekday, err := validation.ParseWeekday(args[0])
	if err != nil {
		return err
	}
	slots, err := validation.ParseSlotCount(args[1])
	if err != nil {
		return err
	}
	return h.service.Engine().SetCapacity(ctx, adminID, lifecycle.CapacityTarget{Weekday: &weekday}, slots)
}

// /slots 3
func (h *AdminHandler) setDefault(ctx context.Context, adminID int64, args []string) error {
	if len(args) != 1 {
		return usage("/slots N")
	}
	slots, err := validation.ParseSlotCount(args[0])
	if err != nil {
		return err
	}
	return h.service.Engine().SetCapacity(ctx, adminID, lifecycle.CapacityTarget{}, slots)
}

// /workdays 5,6
func (h *AdminHandler) setWorkingDays(ctx context.Context, adminID int64, args []string) error {
	if len(args) == 0 {
		return usage("/workdays 5,6")
	}
	days, err := validation.ParseWeekdays(strings.Join(args, ","))
	if err != nil {
		return err
	}
	return h.service.Engine().SetWorkingDays(ctx, adminID, days)
}

// /horizon 3
func (h *AdminHandler) setHorizon(ctx context.Context, adminID int64, args []string) error {
	if len(args) != 1 {
		return usage("/horizon N")
	}
	months, err := validation.ParseHorizon(args[0])
	if err != nil {
		return err
	}
	return h.service.Engine().SetHorizon(ctx, adminID, months)
}

func isAdminCommand(cmd string) bool {
	switch cmd {
	case "view_bookings", "settings", "setday", "dayslots", "slots", "workdays", "horizon":
		return true
	}
	return false
}

func usage(example string) error {
	return errUsage.WithContext("пример: " + example)
}
