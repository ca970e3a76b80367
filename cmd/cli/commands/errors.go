package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
)

const (
	msgTryAgain     = "Please try again!"
	msgLoginFirst   = "Please login first!"
	msgInvalidDate  = "Please enter a valid date!"
	msgStorageRetry = "Storage error, please try again!"
)

// userError carries the line shown to the user while keeping the cause for
// errors.Is and logging
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }

func (e *userError) Unwrap() error { return e.err }

// messages maps sentinel errors to the line one command prints for them
type messages map[*apperr.Error]string

// describe picks the message for err. Storage failures share one retry
// message; anything else unmatched falls back to fallback.
func describe(err error, msgs messages, fallback string) string {
	for sentinel, msg := range msgs {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	if apperr.KindOf(err) == apperr.KindStorage {
		return msgStorageRetry
	}
	return fallback
}

// fail logs err and converts it into the user-facing error for op
func (app *AppContext) fail(op string, err error, msgs messages, fallback string) error {
	msg := describe(err, msgs, fallback)
	if apperr.KindOf(err) == apperr.KindStorage {
		app.Logger.Error("Operation failed", zap.String("op", op), zap.Error(err))
	} else {
		app.Logger.Debug("Operation rejected",
			zap.String("op", op),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err))
	}
	return &userError{msg: msg, err: err}
}

// exactArgs is cobra.ExactArgs with an operation-specific message
func exactArgs(n int, msg string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &userError{
				msg: msg,
				err: apperr.ErrInvalidArgument.Withf("%s expects %d arguments, got %d", cmd.Name(), n, len(args)),
			}
		}
		return nil
	}
}

func printLine(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
