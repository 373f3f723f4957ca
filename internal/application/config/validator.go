package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dbankscard/hookguard/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateApproval checks the command policy.
func ValidateApproval(cfg domain.ApprovalConfig) error {
	return check(cfg)
}

// ValidateSecurity checks the scan policy.
func ValidateSecurity(cfg domain.SecurityConfig) error {
	return check(cfg)
}

// ValidateAutomation checks the reviewer policy. Allow-listed reviewers must
// be configured agents.
func ValidateAutomation(cfg domain.AutomationConfig) error {
	if err := check(cfg); err != nil {
		return err
	}
	for _, name := range cfg.CIAllowList {
		if _, ok := cfg.Agents[name]; !ok {
			return fmt.Errorf("%w: ci_allow_list entry %q is not a configured agent", domain.ErrConfigInvalid, name)
		}
	}
	return nil
}

func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrConfigInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
