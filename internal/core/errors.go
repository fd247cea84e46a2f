package core

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a novedad is not allowed from the order's current estado.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation wraps input that fails a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrWhatsAppNotConfigured is returned by Send when no gateway is configured.
	ErrWhatsAppNotConfigured = errors.New("whatsapp gateway not configured")
)
