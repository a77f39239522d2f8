package manacube

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Validator checks decoded responses.
type Validator interface {
	Validate(v any) error
}

// StructValidator validates responses against their `validate` struct tags.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator returns a Validator backed by go-playground/validator.
func NewStructValidator() *StructValidator {
	return &StructValidator{validate: validator.New()}
}

// Validate checks a struct, a pointer to one, or every struct in a slice.
// Other values pass.
func (s *StructValidator) Validate(v any) error {
	if s == nil || s.validate == nil || v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return s.validate.Struct(rv.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := s.Validate(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}
