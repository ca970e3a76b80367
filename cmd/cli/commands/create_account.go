package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
)

const msgCreateFailed = "Failed to create user."

var createAccountMessages = messages{
	apperr.ErrUsernameTaken:   "Username taken, try again!",
	apperr.ErrInvalidArgument: msgCreateFailed,
}

// CreatePatientCmd creates the create_patient command
func CreatePatientCmd(app *AppContext) *cobra.Command {
	return createAccountCmd(app, model.KindPatient, "create_patient", "Register a new patient account")
}

// CreateCaregiverCmd creates the create_caregiver command
func CreateCaregiverCmd(app *AppContext) *cobra.Command {
	return createAccountCmd(app, model.KindCaregiver, "create_caregiver", "Register a new caregiver account")
}

func createAccountCmd(app *AppContext, kind model.AccountKind, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <username> <password>",
		Short: short,
		Args:  exactArgs(2, msgCreateFailed),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password := args[0], args[1]

			if err := app.Sessions.Register(app.Ctx, kind, username, password); err != nil {
				return app.fail(name, err, createAccountMessages, msgCreateFailed)
			}

			printLine(cmd, "Created user %s", username)
			return nil
		},
	}
}
