package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate validates the configuration using struct tags plus cross-field
// rules. It returns an actionable error; callers fall back to the defaults
// on failure rather than aborting evaluation.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if c.Git.QueryTimeout != "" {
		if _, err := time.ParseDuration(c.Git.QueryTimeout); err != nil {
			return fmt.Errorf("git.query_timeout: invalid duration %q", c.Git.QueryTimeout)
		}
	}

	// Custom rule names must be unique so audit records and logs are
	// unambiguous about which rule fired.
	seen := make(map[string]struct{}, len(c.CustomRules))
	for i, r := range c.CustomRules {
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("custom_rules[%d]: duplicate rule name %q", i, r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	// Ignore patterns are validated leniently elsewhere (a bad pattern is
	// skipped at evaluation time), but reject an all-invalid list early so
	// the user learns about it from config validation, not silence.
	if len(c.EnvProtection.IgnorePatterns) > 0 && validIgnorePatterns(c.EnvProtection.IgnorePatterns) == 0 {
		return errors.New("env_protection.ignore_patterns: no pattern compiles as a regular expression")
	}

	return nil
}

// validIgnorePatterns counts the patterns that compile.
func validIgnorePatterns(patterns []string) int {
	n := 0
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err == nil {
			n++
		}
	}
	return n
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
