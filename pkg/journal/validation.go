package journal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Amount rules compare the numeric value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if a, ok := field.Interface().(Amount); ok {
			return a.Float()
		}
		return nil
	}, Amount{})
	return v
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return WrapError(ErrCodeValidation, "invalid input", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		case "min", "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return NewError(ErrCodeValidation, strings.Join(parts, "; "))
}

func normalizeAccountInput(in AccountInput) (AccountInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return in, validationError(err)
	}
	return in, nil
}

func normalizeTradeInput(in TradeInput) (TradeInput, error) {
	in.AccountID = strings.TrimSpace(in.AccountID)
	in.Pair = strings.TrimSpace(in.Pair)
	in.Type = TradeType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	in.Session = strings.TrimSpace(in.Session)
	if err := validate.Struct(in); err != nil {
		return in, validationError(err)
	}
	if in.Date.IsZero() {
		return in, NewError(ErrCodeValidation, "date is required")
	}
	return in, nil
}

func normalizeGoalInput(in GoalInput) (GoalInput, error) {
	in.Period = GoalPeriod(strings.ToLower(strings.TrimSpace(string(in.Period))))
	in.Text = strings.TrimSpace(in.Text)
	if err := validate.Struct(in); err != nil {
		return in, validationError(err)
	}
	return in, nil
}
