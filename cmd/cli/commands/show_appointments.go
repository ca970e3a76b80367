package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
)

// ShowAppointmentsCmd creates the show_appointments command
func ShowAppointmentsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show_appointments",
		Short: "List your appointments",
		Args:  exactArgs(0, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := app.Session.Current()

			views, err := services.ShowAppointments(app.Ctx, app.Database, app.Policy, app.Logger, principal)
			if err != nil {
				return app.fail("show_appointments", err, messages{apperr.ErrNotLoggedIn: msgLoginFirst}, msgTryAgain)
			}

			if len(views) == 0 {
				printLine(cmd, "No appointments found!")
				return nil
			}

			counterpart := "Caregiver Name"
			if principal.IsCaregiver() {
				counterpart = "Patient Name"
			}
			printLine(cmd, "Appointment ID | Vaccine Name | Date | %s", counterpart)
			for _, v := range views {
				printLine(cmd, "%s %s %s %s", v.AppointmentID, v.VaccineName, v.Date, v.Counterpart)
			}
			return nil
		},
	}
}
