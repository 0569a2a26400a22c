package validation

import (
	"math"
	"testing"
	"time"

	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/pkg/errors"
)

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{name: "international with plus", phone: "+79991234567", wantErr: false},
		{name: "without plus", phone: "79991234567", wantErr: false},
		{name: "ten digits", phone: "9991234567", wantErr: false},
		{name: "fifteen digits", phone: "+123456789012345", wantErr: false},
		{name: "too short", phone: "+7999123", wantErr: true},
		{name: "too long", phone: "+1234567890123456", wantErr: true},
		{name: "leading zero", phone: "+0991234567", wantErr: true},
		{name: "with spaces", phone: "+7 999 123 45 67", wantErr: true},
		{name: "empty", phone: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tt.phone)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePhoneNumber(%q) error = %v, wantErr %v", tt.phone, err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.CodeValidation) {
				t.Errorf("expected VALIDATION code, got %v", err)
			}
		})
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "18", want: 18},
		{input: " 100 ", want: 100},
		{input: "17", wantErr: true},
		{input: "101", wantErr: true},
		{input: "двадцать", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAge(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAge(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAge(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "40", want: 40},
		{input: "82.5", want: 82.5},
		{input: "82,5", want: 82.5},
		{input: "150", want: 150},
		{input: "39.9", wantErr: true},
		{input: "150.1", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "nan", wantErr: true},
		{input: "Inf", wantErr: true},
		{input: "-Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeight(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeight(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWeight(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheckWeightRejectsNonFinite(t *testing.T) {
	for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := CheckWeight(w); !errors.Is(err, errors.ErrInvalidWeight) {
			t.Errorf("CheckWeight(%v) error = %v, want ErrInvalidWeight", w, err)
		}
	}
}

func TestValidateTime(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "14:30", want: "14:30"},
		{input: "9:05", want: "09:05"},
		{input: "00:00", want: "00:00"},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "1430", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateTime(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateFutureDate(t *testing.T) {
	today := time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC)

	if _, err := ValidateFutureDate("2025-07-01", today); err != nil {
		t.Errorf("today must be accepted: %v", err)
	}
	if _, err := ValidateFutureDate("2025-06-30", today); err == nil {
		t.Error("past date must be rejected")
	}
	if _, err := ValidateFutureDate("2025-02-30", today); err == nil {
		t.Error("non-existent date must be rejected")
	}
	if _, err := ValidateFutureDate("01.07.2025", today); err == nil {
		t.Error("wrong layout must be rejected")
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays("6, 5,5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("ParseWeekdays() = %v, want [5 6]", got)
	}

	if _, err := ParseWeekdays("1,7"); err == nil {
		t.Error("weekday 7 must be rejected")
	}

	got, err = ParseWeekdays("")
	if err != nil || len(got) != 0 {
		t.Errorf("empty input must give empty set, got %v, %v", got, err)
	}
}

func TestValidateApplicant(t *testing.T) {
	valid := models.Applicant{FirstName: "Иван", LastName: "Петров", Age: 30, Weight: 80, Phone: "+79991234567"}
	if err := ValidateApplicant(valid); err != nil {
		t.Fatalf("valid applicant rejected: %v", err)
	}

	invalid := valid
	invalid.Weight = 151
	if err := ValidateApplicant(invalid); !errors.HasCode(err, errors.CodeValidation) {
		t.Errorf("expected VALIDATION error, got %v", err)
	}
}

func TestValidateHorizonAndSlots(t *testing.T) {
	if err := ValidateHorizon(0); err == nil {
		t.Error("horizon 0 must be rejected")
	}
	if err := ValidateHorizon(MaxHorizon); err != nil {
		t.Errorf("max horizon rejected: %v", err)
	}
	if err := ValidateSlotCount(-1); err == nil {
		t.Error("negative slot count must be rejected")
	}
	if _, err := ParseSlotCount("0"); err != nil {
		t.Errorf("zero slots must be accepted: %v", err)
	}
}
