package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation errors report the json name of a field, so messages and the
// "field" key match the request body.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// BindingProblem describes a failed ShouldBindJSON call. field names the
// first offending request field, or is empty when the body itself is unreadable.
func BindingProblem(err error) (field, message string) {
	if err == nil {
		return "", ""
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var ve validator.ValidationErrors
	switch {
	case errors.Is(err, io.EOF):
		return "", "Request body is empty"
	case errors.As(err, &syntaxErr):
		return "", fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return typeErr.Field, fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	case errors.As(err, &ve):
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return ve[0].Field(), strings.Join(out, ", ")
	}
	return "", err.Error()
}

func FormatBindingError(err error) string {
	_, message := BindingProblem(err)
	return message
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return fmt.Sprintf("Field '%s' must be a valid id", fe.Field())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}
