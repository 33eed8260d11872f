// Package validation checks configuration values.
//
// Struct tag validation (backed by go-playground/validator) suits plain
// config structs:
//
//	type Config struct {
//	    Capacity int `mapstructure:"capacity" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects errors for rules that span fields:
//
//	v := validation.New()
//	v.AtLeast("producers", cfg.Producers, 1).OneOf("mode", cfg.Mode, modes)
//	if err := v.Validate(); err != nil { ... }
//
// Both return an *errors.AppError with code INVALID_INPUT whose details list
// every failing field.
package validation
