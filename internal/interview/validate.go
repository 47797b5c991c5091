package interview

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ClientInputError reports a malformed request. It is the only error the
// generator and evaluator surface to callers.
type ClientInputError struct {
	Field   string
	Message string
}

func (e *ClientInputError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Message
	}
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Message)
}

// IsClientInputError reports whether err wraps a ClientInputError.
func IsClientInputError(err error) bool {
	var target *ClientInputError
	return errors.As(err, &target)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	v.RegisterCustomTypeFunc(countValue, Count{})
	return v
}

// countValue exposes Count to range tags; auto always satisfies them.
func countValue(field reflect.Value) any {
	c, ok := field.Interface().(Count)
	if !ok {
		return nil
	}
	if c.Auto {
		return MaxQuestions
	}
	return c.N
}

// Validate checks the request against the accepted ranges.
func (r GenerationRequest) Validate() error {
	return translate(validate.Struct(r))
}

// Validate checks that both texts are present and the question is not blank.
func (r EvaluationRequest) Validate() error {
	return translate(validate.Struct(r))
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ClientInputError{Message: err.Error()}
	}

	// Report the first violation; requests are small and fixed one at a time.
	fe := fieldErrs[0]
	field := toSnake(fe.Field())

	switch fe.Tag() {
	case "required", "notblank":
		return &ClientInputError{Field: field, Message: "is required"}
	case "oneof":
		return &ClientInputError{Field: field, Message: fmt.Sprintf("must be one of: %s", fe.Param())}
	case "min", "max":
		return &ClientInputError{Field: field, Message: fmt.Sprintf("must be between 1 and %d or %q", MaxQuestions, autoCount)}
	default:
		return &ClientInputError{Field: field, Message: fmt.Sprintf("failed %q validation", fe.Tag())}
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
