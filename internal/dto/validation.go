package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the project's custom tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("flagstyle", validateFlagStyle)
	return v
}

// flagstyle accepts either boolean spelling used by the catalogue.
func validateFlagStyle(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "yes", "no", "true", "false":
		return true
	default:
		return false
	}
}
