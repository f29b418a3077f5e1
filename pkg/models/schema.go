package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateMessage(msg *Message) error {
	if msg == nil {
		return &ValidationError{
			Field:   "message",
			Message: "message cannot be nil",
		}
	}

	if msg.Payload == nil {
		return &ValidationError{
			Field:   "payload",
			Message: "message payload cannot be nil",
		}
	}

	for name := range msg.Headers {
		if name == "" {
			return &ValidationError{
				Field:   "headers",
				Message: "header names cannot be empty",
			}
		}
	}

	return nil
}
