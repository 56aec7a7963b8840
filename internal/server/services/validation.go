package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Inputs of the service operations. The label tag names a field in messages.

type SignupInput struct {
	Email    string `validate:"required,email,max=254" label:"Email"`
	Password string `validate:"required,min=6,max=72" label:"Password"`
	FullName string `validate:"required,max=100" label:"Full name"`
}

type LoginInput struct {
	Email    string `validate:"required,email" label:"Email"`
	Password string `validate:"required" label:"Password"`
}

type ResetInput struct {
	Email string `validate:"required,email" label:"Email"`
}

type CompleteResetInput struct {
	Token    string `validate:"required" label:"Reset token"`
	Password string `validate:"required,min=6,max=72" label:"Password"`
}

type ProfileInput struct {
	FullName  *string `validate:"omitempty,max=100" label:"Full name"`
	AvatarURL *string `label:"Avatar"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		return f.Name
	})
	return v
}

// check runs v over in and converts the first failure into a ValidationError.
func check(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: "Invalid input"}
	}

	fe := verrs[0]
	return &ValidationError{Field: fe.StructField(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	default:
		return strings.TrimSpace(label + " is invalid")
	}
}
