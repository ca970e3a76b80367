package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
)

var searchMessages = messages{
	apperr.ErrNotLoggedIn: msgLoginFirst,
	apperr.ErrInvalidDate: msgInvalidDate,
}

// SearchCaregiverScheduleCmd creates the search_caregiver_schedule command
func SearchCaregiverScheduleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search_caregiver_schedule <date>",
		Short: "List caregivers free on a date (mm-dd-yyyy) and vaccine stock",
		Args:  exactArgs(1, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := app.parseDate(args[0])
			if err != nil {
				return app.fail("search_caregiver_schedule", err, searchMessages, msgTryAgain)
			}

			schedule, err := services.SearchCaregiverSchedule(app.Ctx, app.Database, app.Policy, app.Logger, app.Session.Current(), date)
			if err != nil {
				return app.fail("search_caregiver_schedule", err, searchMessages, msgTryAgain)
			}

			if len(schedule.Caregivers) == 0 {
				printLine(cmd, "No Caregiver is available on %s!", schedule.Date)
			} else {
				printLine(cmd, "Available caregivers:")
				for _, name := range schedule.Caregivers {
					printLine(cmd, "%s", name)
				}
			}
			printLine(cmd, "######################")
			printLine(cmd, "Available vaccines in doses:")
			for _, v := range schedule.Vaccines {
				printLine(cmd, "%s %d", v.Name, v.Doses)
			}
			return nil
		},
	}
}
