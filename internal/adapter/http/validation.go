package http

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report fields by their json name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// money fields validate as numbers
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		x, _ := d.Float64()
		return x
	}, decimal.Decimal{})

	// user and admin ids = 32-char lowercase hex
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return reHex32.MatchString(fl.Field().String())
	})
	// max 2 decimal places
	_ = v.RegisterValidation("dec2", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Abs(f-(math.Round(f*100)/100)) < 1e-9
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// tagMessages renders a failed validation tag; param is the tag argument.
var tagMessages = map[string]func(param string) string{
	"required": func(string) string { return "is required" },
	"hex32":    func(string) string { return "must be 32-char lowercase hex" },
	"dec2":     func(string) string { return "must have at most 2 decimal places" },
	"gt":       func(p string) string { return "must be greater than " + p },
	"gte":      func(p string) string { return "must be greater than or equal to " + p },
	"lte":      func(p string) string { return "must be less than or equal to " + p },
	"max":      func(p string) string { return "must be at most " + p + " characters" },
}

// ToFieldErrors turns validator output into per-field messages keyed by json name.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		msg := e.Tag() + " validation failed"
		if render, ok := tagMessages[e.Tag()]; ok {
			msg = render(e.Param())
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}
