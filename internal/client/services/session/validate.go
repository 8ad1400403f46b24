package session

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/readyinterview/client-go/internal/common"
)

// ValidationError is an input failure raised locally, before any backend
// call. Error() is the user-facing sentence.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == common.ErrValidation }

type credentialsInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type signupInput struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
	DisplayName     string `validate:"required,max=100"`
}

type emailInput struct {
	Email string `validate:"required,email"`
}

type passwordInput struct {
	Password string `validate:"required"`
}

type profileInput struct {
	DisplayName   string `validate:"omitempty,max=100"`
	RecoveryEmail string `validate:"omitempty,email"`
}

// checkInput validates in and converts the first violation into a
// user-facing ValidationError.
func (m *Manager) checkInput(in any) error {
	err := m.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Msg: "Please check your input and try again."}
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Msg: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch {
	case fe.Field() == "ConfirmPassword":
		return "Passwords do not match."
	case fe.Tag() == "email":
		return "Please enter a valid email address."
	case fe.Field() == "Password" && fe.Tag() == "min":
		return "Password should be at least 6 characters."
	case fe.Field() == "Password" && fe.Tag() == "required":
		return "Please enter your password."
	case fe.Field() == "Email" && fe.Tag() == "required":
		return "Please enter your email address."
	case fe.Field() == "DisplayName" && fe.Tag() == "required":
		return "Please enter a display name."
	case fe.Tag() == "max":
		return "This value is too long."
	default:
		return "Please check your input and try again."
	}
}
