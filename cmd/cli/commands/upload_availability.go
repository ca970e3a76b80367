package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
)

const msgLoginCaregiver = "Please login as a caregiver first!"

var uploadMessages = messages{
	apperr.ErrNotLoggedIn:        msgLoginCaregiver,
	apperr.ErrWrongRole:          msgLoginCaregiver,
	apperr.ErrInvalidDate:        msgInvalidDate,
	apperr.ErrClinicClosed:       msgClinicClosed,
	apperr.ErrAlreadyUnavailable: "Availability already uploaded for that date!",
}

// UploadAvailabilityCmd creates the upload_availability command.
// The stored row blocks the caregiver for the date, the same row a
// reservation writes.
func UploadAvailabilityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload_availability <date>",
		Short: "Record a date (mm-dd-yyyy) against the logged-in caregiver",
		Args:  exactArgs(1, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.Current().IsCaregiver() {
				return app.fail("upload_availability", apperr.ErrNotLoggedIn, uploadMessages, msgTryAgain)
			}

			date, err := app.parseDate(args[0])
			if err != nil {
				return app.fail("upload_availability", err, uploadMessages, msgTryAgain)
			}

			if err := services.UploadAvailability(app.Ctx, app.Database, app.Policy, app.Logger, app.Session.Current(), date); err != nil {
				return app.fail("upload_availability", err, uploadMessages, "Upload Availability Failed")
			}

			printLine(cmd, "Availability uploaded!")
			return nil
		},
	}
}
