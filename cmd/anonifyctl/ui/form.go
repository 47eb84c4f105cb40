package ui

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/redmonkez12/anonify/internal/account"
)

// AccountInput is the create-account form.
type AccountInput struct {
	Username string
	Email    string
	Password string
}

// Complete reports whether every field is filled in.
func (in AccountInput) Complete() bool {
	return strings.TrimSpace(in.Username) != "" && strings.TrimSpace(in.Email) != "" && in.Password != ""
}

// RunAccountForm prompts for the fields still missing from in.
func RunAccountForm(in AccountInput) (AccountInput, error) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("2-20 letters, digits or underscores").
				Value(&in.Username).
				Validate(validateUsername),

			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&in.Email).
				Validate(validateEmail),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password).
				Validate(account.ValidatePassword),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return AccountInput{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	return in, nil
}

func validateUsername(s string) error {
	_, err := account.NormalizeUsername(s)
	return err
}

func validateEmail(s string) error {
	_, err := account.NormalizeEmail(s)
	return err
}
