package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
)

const msgLoginFailed = "Login failed."

var loginMessages = messages{
	apperr.ErrAlreadyLoggedIn:    "User already logged in.",
	apperr.ErrInvalidCredentials: msgLoginFailed,
	apperr.ErrTooManyAttempts:    "Too many login attempts, please wait and try again.",
}

// LoginPatientCmd creates the login_patient command
func LoginPatientCmd(app *AppContext) *cobra.Command {
	return loginCmd(app, model.KindPatient, "login_patient", "Log in as a patient")
}

// LoginCaregiverCmd creates the login_caregiver command
func LoginCaregiverCmd(app *AppContext) *cobra.Command {
	return loginCmd(app, model.KindCaregiver, "login_caregiver", "Log in as a caregiver")
}

func loginCmd(app *AppContext, kind model.AccountKind, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <username> <password>",
		Short: short,
		Args:  exactArgs(2, msgLoginFailed),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := app.Sessions.Login(app.Ctx, app.Session, kind, args[0], args[1])
			if err != nil {
				return app.fail(name, err, loginMessages, msgLoginFailed)
			}

			printLine(cmd, "Logged in as: %s", principal.Username)
			return nil
		},
	}
}

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the current session",
		Args:  exactArgs(0, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sessions.Logout(app.Session); err != nil {
				return app.fail("logout", err, messages{apperr.ErrNotLoggedIn: "Please login first."}, msgTryAgain)
			}

			printLine(cmd, "Successfully logged out!")
			return nil
		},
	}
}
