package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("device_platform", validateDevicePlatform); err != nil {
		panic(fmt.Sprintf("failed to register device_platform validator: %v", err))
	}
}

// validateDevicePlatform validates that a string is a supported push platform
func validateDevicePlatform(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ios", "macos":
		return true
	default:
		return false
	}
}

// ValidateDevicePlatform validates a device platform string value
func ValidateDevicePlatform(value string) error {
	switch value {
	case "ios", "macos":
		return nil
	default:
		return fmt.Errorf("invalid platform: %s (must be 'ios' or 'macos')", value)
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
