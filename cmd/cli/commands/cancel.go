package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
)

var cancelMessages = messages{
	apperr.ErrNotLoggedIn:  msgLoginFirst,
	apperr.ErrNotFound:     "Appointment not found!",
	apperr.ErrWrongRole:    "You can only cancel your own appointments!",
	apperr.ErrTooManyDoses: "Vaccine inventory is full, cannot return the dose!",
}

// CancelCmd creates the cancel command
func CancelCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment_id>",
		Short: "Cancel an appointment and return its dose",
		Args:  exactArgs(1, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.Cancel(app.Ctx, app.Database, app.Policy, app.Logger, app.Session.Current(), args[0]); err != nil {
				return app.fail("cancel", err, cancelMessages, msgTryAgain)
			}

			printLine(cmd, "Appointment canceled!")
			return nil
		},
	}
}
