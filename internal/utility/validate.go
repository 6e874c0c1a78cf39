package utility

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type clockKey struct{}

var identityRegex = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "identity", func(_ context.Context, fl validator.FieldLevel) bool {
		return identityRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "adult", func(ctx context.Context, fl validator.FieldLevel) bool {
		birth, err := ParseBirthDate(fl.Field().String())
		if err != nil {
			return false
		}
		return ValidateAdult(birth, clock(ctx)) == nil
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.FuncCtx) {
	if err := v.RegisterValidationCtx(tag, fn); err != nil {
		panic(err)
	}
}

func clock(ctx context.Context) time.Time {
	if now, ok := ctx.Value(clockKey{}).(time.Time); ok {
		return now
	}
	return time.Now()
}

// ValidateStruct checks s against its validate tags, evaluating age rules at
// now. It returns one message per failing field keyed by the JSON name, or
// nil when s is valid.
func ValidateStruct(s any, now time.Time) (map[string]string, error) {
	ctx := context.WithValue(context.Background(), clockKey{}, now)

	err := validate.StructCtx(ctx, s)
	if err == nil {
		return nil, nil
	}

	var failed validator.ValidationErrors
	if !errors.As(err, &failed) {
		return nil, err
	}

	fields := make(map[string]string, len(failed))
	for _, fe := range failed {
		fields[fe.Field()] = message(fe, now)
	}
	return fields, nil
}

func message(fe validator.FieldError, now time.Time) string {
	switch fe.Tag() {
	case "required":
		return ErrRequired.Error()
	case "max":
		return ErrTooLong.Error()
	case "email":
		return ErrInvalidEmail.Error()
	case "identity":
		return ErrInvalidIdentity.Error()
	case "datetime":
		return ErrInvalidDate.Error()
	case "adult":
		value, _ := fe.Value().(string)
		birth, _ := ParseBirthDate(value)
		if birth.After(now) {
			return ErrBirthInFuture.Error()
		}
		return ErrNotAdult.Error()
	default:
		return "is invalid"
	}
}

func IsEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,max=254,email") == nil
}
