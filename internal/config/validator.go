package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

type structValidator struct {
	validate *validator.Validate
}

// NewValidator returns a ConfigValidator that reports fields by their YAML
// path, e.g. "llm.max_retries".
func NewValidator() ConfigValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &structValidator{validate: v}
}

// Validate checks the struct tags plus the cross-field rules between
// sections. All problems are reported at once.
func (v *structValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	var problems []string
	if err := v.validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validation error: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	for _, rule := range []struct {
		broken bool
		msg    string
	}{
		{cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "", "tracing.endpoint is required when tracing is enabled"},
		{cfg.Metrics.Enabled && cfg.Metrics.Textfile == "", "metrics.textfile is required when metrics are enabled"},
		{cfg.Ledger.Enabled && cfg.Ledger.Path == "", "ledger.path is required when the ledger is enabled"},
	} {
		if rule.broken {
			problems = append(problems, rule.msg)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.<section>.<field>"; drop the root type.
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}

	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", path, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", path, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", path, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", path, fe.Value())
	}
	return fmt.Sprintf("%s failed %q (got: %v)", path, fe.Tag(), fe.Value())
}
