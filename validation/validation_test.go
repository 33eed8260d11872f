package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/pubqueue/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"pubqueue", false},
		{"", true},
		{"   ", true},
	}
	for _, tt := range tests {
		v := New().Required("name", tt.value)
		if v.HasErrors() != tt.wantErr {
			t.Errorf("Required(%q): expected error=%v", tt.value, tt.wantErr)
		}
	}
}

func TestValidatorOptionalUUID(t *testing.T) {
	if New().OptionalUUID("run_id", "").HasErrors() {
		t.Error("empty value should be accepted")
	}
	if New().OptionalUUID("run_id", uuid.NewString()).HasErrors() {
		t.Error("valid UUID should be accepted")
	}
	if !New().OptionalUUID("run_id", "not-a-uuid").HasErrors() {
		t.Error("expected error for invalid UUID")
	}
}

func TestValidatorNumbers(t *testing.T) {
	tests := []struct {
		name    string
		check   func(v *Validator)
		wantErr bool
	}{
		{"between ok", func(v *Validator) { v.Between("batch", 5, 1, 10) }, false},
		{"between low", func(v *Validator) { v.Between("batch", 0, 1, 10) }, true},
		{"between high", func(v *Validator) { v.Between("batch", 11, 1, 10) }, true},
		{"at least ok", func(v *Validator) { v.AtLeast("producers", 1, 1) }, false},
		{"at least low", func(v *Validator) { v.AtLeast("producers", 0, 1) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			tt.check(v)
			if v.HasErrors() != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, v.Errors())
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	modes := []string{"blocking", "try"}
	if New().OneOf("mode", "try", modes).HasErrors() {
		t.Error("expected allowed value to pass")
	}
	v := New().OneOf("mode", "spin", modes)
	if !v.HasErrors() {
		t.Fatal("expected error for unknown mode")
	}
	if !strings.Contains(v.Errors()[0].Message, "blocking, try") {
		t.Errorf("expected allowed values in message, got %q", v.Errors()[0].Message)
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New().Custom(false, "items", "custom error")
	if !v.HasErrors() || v.Errors()[0].Message != "custom error" {
		t.Errorf("expected custom error, got %v", v.Errors())
	}
	if New().Custom(true, "items", "custom error").HasErrors() {
		t.Error("expected no error for true condition")
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Required("name", "x").Validate(); err != nil {
		t.Errorf("expected nil for valid input, got %v", err)
	}

	err := New().Required("name", "").AtLeast("capacity", 0, 1).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["fields"] == nil {
		t.Fatal("expected field details")
	}
	if !strings.Contains(appErr.Message, "name") || !strings.Contains(appErr.Message, "capacity") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	if v.Required("name", "x").AtLeast("capacity", 4, 1).Between("capacity", 4, 1, 8) != v {
		t.Error("expected chaining to return same validator")
	}
}

func TestStructValidate(t *testing.T) {
	type queueConfig struct {
		Capacity  int    `mapstructure:"capacity" validate:"gt=0"`
		BatchSize int    `mapstructure:"batch_size" validate:"gte=0"`
		Mode      string `yaml:"mode" validate:"oneof=blocking try"`
	}

	tests := []struct {
		name   string
		cfg    queueConfig
		fields []string
	}{
		{"valid", queueConfig{Capacity: 8, Mode: "try"}, nil},
		{"zero capacity", queueConfig{Capacity: 0, Mode: "try"}, []string{"capacity: must be greater than 0"}},
		{"negative batch", queueConfig{Capacity: 1, BatchSize: -1, Mode: "try"}, []string{"batch_size: must be at least 0"}},
		{"bad mode", queueConfig{Capacity: 1, Mode: "spin"}, []string{"mode: must be one of: blocking try"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, f := range tt.fields {
				if !strings.Contains(err.Error(), f) {
					t.Errorf("expected %q in %q", f, err.Error())
				}
			}
		})
	}
}

func TestStructValidateNested(t *testing.T) {
	type inner struct {
		Capacity int `mapstructure:"capacity" validate:"gt=0"`
	}
	type outer struct {
		Queue inner `mapstructure:"queue"`
	}

	err := Validate(outer{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "queue.capacity") {
		t.Errorf("expected nested field path, got %q", err.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Capacity":  "capacity",
		"BatchSize": "batch_size",
		"x":         "x",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
