// Package validation decodes JSON request bodies and checks them against the
// struct tags declared in internal/model.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// maxbytes bounds the encoded length, for values such as bcrypt input
	// where the limit is in bytes rather than characters.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// messages overrides the generated text for a few well known fields.
var messages = map[string]string{
	"name":         "Campaign name is required",
	"script":       "Voice script is required",
	"maxCallCount": "Maximum call count must be at least 1",
	"voiceType":    "Voice type is required",
}

// Struct validates v and converts failures into an appErrors.ValidationError
// carrying message as its summary.
func Struct(v any, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", v, err)
	}
	fields := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, appErrors.FieldError{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return appErrors.NewValidation(message, fields...)
}

func describe(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return fe.Field() + " must not be empty"
			}
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// DecodeJSON reads a JSON object from r into dst. An empty body decodes as {}.
// Type mismatches and malformed JSON come back as validation errors so the
// HTTP layer answers 400 with a field list.
func DecodeJSON(r io.Reader, dst any, message string) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return appErrors.NewValidation(message, appErrors.FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("expected %s, received %s", typeName(typeErr.Type), typeErr.Value),
			})
		}
		return appErrors.NewValidation(message, appErrors.FieldError{
			Field:   "",
			Message: "malformed JSON body",
		})
	}
	return nil
}

// Decode is DecodeJSON followed by Struct.
func Decode(r io.Reader, dst any, message string) error {
	if err := DecodeJSON(r, dst, message); err != nil {
		return err
	}
	return Struct(dst, message)
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	default:
		return t.Kind().String()
	}
}
