package ui

import (
	"fmt"
	"io"

	"github.com/redmonkez12/anonify/internal/account"
)

// PrintAccount prints a provisioned account.
func PrintAccount(w io.Writer, acc *account.Account) {
	fmt.Fprintln(w, successStyle.Render("Account created"))
	fmt.Fprintln(w, labelStyle.Render("ID")+acc.ID.String())
	fmt.Fprintln(w, labelStyle.Render("Username")+acc.Username)
	fmt.Fprintln(w, labelStyle.Render("Email")+acc.Email)
	fmt.Fprintln(w, labelStyle.Render("Verified")+fmt.Sprint(acc.IsVerified))
}

// PrintSuccess prints a one-line success message.
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// PrintTitle prints a section heading.
func PrintTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}
