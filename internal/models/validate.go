package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var requestValidate = validator.New()

// ValidateRequest runs the struct's `validate` tags and converts failures into
// a ValidationError.
func ValidateRequest(req any) error {
	err := requestValidate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
	}
	return &ValidationError{Messages: msgs}
}
