package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// x/crypto/bcrypt rejects passwords longer than this.
const maxPasswordBytes = 72

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

// validateCredentials checks a trimmed email and a plaintext password.
func validateCredentials(email, password string) error {
	err := validate.Struct(credentials{Email: email, Password: password})
	if err == nil {
		if len(password) > maxPasswordBytes {
			return &ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
		}
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return &ValidationError{Field: "email", Reason: "is required"}
		}
		return &ValidationError{Field: "email", Reason: "is not a valid email"}
	default:
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
}

// normalizeTodoText trims text and rejects it when nothing is left.
func normalizeTodoText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required"); err != nil {
		return "", &ValidationError{Field: "text", Reason: "is required"}
	}
	return text, nil
}
