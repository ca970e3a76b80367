package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
)

const msgDoseCount = "Please enter a positive number of doses!"

var addDosesMessages = messages{
	apperr.ErrNotLoggedIn:     msgLoginCaregiver,
	apperr.ErrWrongRole:       msgLoginCaregiver,
	apperr.ErrInvalidArgument: msgDoseCount,
	apperr.ErrTooManyDoses:    "Too many doses, the inventory limit would be exceeded!",
}

// AddDosesCmd creates the add_doses command
func AddDosesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add_doses <vaccine> <number>",
		Short: "Add doses of a vaccine to inventory",
		Args:  exactArgs(2, msgTryAgain),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.Current().IsCaregiver() {
				return app.fail("add_doses", apperr.ErrNotLoggedIn, addDosesMessages, msgTryAgain)
			}

			count, err := strconv.Atoi(args[1])
			if err != nil {
				return app.fail("add_doses", apperr.ErrInvalidArgument.Wrap(err), addDosesMessages, msgTryAgain)
			}

			if _, err := services.AddDoses(app.Ctx, app.Database, app.Policy, app.Logger, app.Session.Current(), args[0], count); err != nil {
				return app.fail("add_doses", err, addDosesMessages, "Error occurred when adding doses")
			}

			printLine(cmd, "Doses updated!")
			return nil
		},
	}
}
