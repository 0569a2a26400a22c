package config

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"

	"telegram_jump_bot/internal/storage/models"
)

// settingsFile - TOML файл с настройками записи по умолчанию.
// Ключи day_slots - номера дней недели строками ("5" = суббота).
//
//	months_ahead = 3
//	slots_per_day = 3
//	working_days = [5, 6]
//
//	[day_slots]
//	"5" = 3
//	"6" = 5
//
//	[specific_days]
//	"2025-07-05" = 4
type settingsFile struct {
	MonthsAhead  *int            `toml:"months_ahead"`
	SlotsPerDay  *int            `toml:"slots_per_day"`
	WorkingDays  *[]int          `toml:"working_days"`
	DaySlots     map[string]int  `toml:"day_slots"`
	SpecificDays *map[string]int `toml:"specific_days"`
}

// LoadSettingsFile читает TOML файл и накладывает заданные ключи на base
func LoadSettingsFile(path string, base models.Settings) (models.Settings, error) {
	var f settingsFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return models.Settings{}, fmt.Errorf("unknown keys in settings file %s: %v", path, undecoded)
	}

	overrides := models.SettingsOverrides{
		MonthsAhead:  f.MonthsAhead,
		SlotsPerDay:  f.SlotsPerDay,
		WorkingDays:  f.WorkingDays,
		SpecificDays: f.SpecificDays,
	}

	if meta.IsDefined("day_slots") {
		daySlots := make(map[int]int, len(f.DaySlots))
		for key, n := range f.DaySlots {
			weekday, err := strconv.Atoi(key)
			if err != nil {
				return models.Settings{}, fmt.Errorf("invalid day_slots key %q: %w", key, err)
			}
			daySlots[weekday] = n
		}
		overrides.DaySlots = &daySlots
	}

	return models.MergeSettings(base, overrides), nil
}
