package commands

import "github.com/spf13/cobra"

// Register adds the commands that work as one-shot invocations to root.
// Everything that needs a login only exists inside the interactive loop,
// because a session does not outlive its process.
func Register(root *cobra.Command, app *AppContext) {
	root.AddCommand(
		CreatePatientCmd(app),
		CreateCaregiverCmd(app),
		InteractiveCmd(app),
	)
}

// loopCommands returns a fresh instance of every operation the interactive
// loop accepts
func loopCommands(app *AppContext) []*cobra.Command {
	return []*cobra.Command{
		CreatePatientCmd(app),
		CreateCaregiverCmd(app),
		LoginPatientCmd(app),
		LoginCaregiverCmd(app),
		SearchCaregiverScheduleCmd(app),
		ReserveCmd(app),
		UploadAvailabilityCmd(app),
		CancelCmd(app),
		AddDosesCmd(app),
		ShowAppointmentsCmd(app),
		LogoutCmd(app),
	}
}
