package cmd

import (
	"errors"
	"strings"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// confirm asks a yes/no question unless --yes was given.
func confirm(title string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func validateAmountInput(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("not a number")
	}
	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func validateOptionalAmountInput(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateAmountInput(s)
}

func validateDateInput(s string) error {
	if _, err := model.ParseDate(strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalDateInput(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateDateInput(s)
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}
