package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their koanf keys, so messages name the same
// path an operator would set in YAML or through APP_ variables.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("koanf"); name != "" {
			return name
		}

		return strings.ToLower(fld.Name)
	})

	return v
}()

// Validate checks field rules and the settings that only apply to the
// selected auth provider or store driver. All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}

		for _, fe := range fieldErrs {
			problems = append(problems, formatFieldError(fe))
		}
	}

	problems = append(problems, c.selectionProblems()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
}

func (c *Config) selectionProblems() []string {
	var problems []string

	if c.Auth.Provider == AuthProviderIntrospection {
		if c.Auth.Introspection.Endpoint == "" {
			problems = append(problems, "auth.introspection.endpoint is required when auth.provider is introspection")
		}

		if c.Auth.Introspection.ClientID == "" {
			problems = append(problems, "auth.introspection.client_id is required when auth.provider is introspection")
		}
	}

	if c.Store.Driver == StoreDriverBolt && c.Store.Bolt.Path == "" {
		problems = append(problems, "store.bolt.path is required when store.driver is bolt")
	}

	return problems
}

func formatFieldError(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "hostname_port":
		return field + " must be host:port"
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// fieldPath drops the root struct from a namespace: "Config.server.port"
// becomes "server.port".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}

	return namespace
}
