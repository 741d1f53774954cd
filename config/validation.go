package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(koanfTagName)
}

// Validate checks struct constraints and returns the first violation as a
// *ConfigError carrying the dotted key of the offending field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	fe := validationErrors[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("%q is not a valid url", fmt.Sprint(fe.Value())), nil)
	case "gte":
		return NewInvalidFieldError(field, "must be greater than or equal to "+fe.Param(), nil)
	default:
		return NewInvalidFieldError(field, fe.Error(), nil)
	}
}

// fieldPath drops the root struct name: "Config.modrinth.api.url" -> "modrinth.api.url".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func koanfTagName(fld reflect.StructField) string {
	name := fld.Tag.Get("koanf")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
