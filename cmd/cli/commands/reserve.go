package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
)

const msgClinicClosed = "The clinic is closed on that date!"

var reserveMessages = messages{
	apperr.ErrNotLoggedIn:          msgLoginFirst,
	apperr.ErrWrongRole:            "Please login as a patient!",
	apperr.ErrInvalidDate:          msgInvalidDate,
	apperr.ErrClinicClosed:         msgClinicClosed,
	apperr.ErrNoCaregiverAvailable: "No Caregiver is available!",
	apperr.ErrOutOfStock:           "Not enough available doses!",
}

// ReserveCmd creates the reserve command
func ReserveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <date> <vaccine>",
		Short: "Reserve an appointment for a date (mm-dd-yyyy) and vaccine",
		Args:  exactArgs(2, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := app.parseDate(args[0])
			if err != nil {
				return app.fail("reserve", err, reserveMessages, msgTryAgain)
			}

			confirmation, err := services.Reserve(app.Ctx, app.Database, app.Policy, app.Logger, app.Session.Current(), date, args[1])
			if err != nil {
				return app.fail("reserve", err, reserveMessages, msgTryAgain)
			}

			printLine(cmd, "Appointment ID: %s, Caregiver username: %s", confirmation.AppointmentID, confirmation.CaregiverUsername)
			return nil
		},
	}
}
