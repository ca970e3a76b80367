package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/vaccine-scheduler/internal/config"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/session"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// AppContext holds the application dependencies shared across all commands.
// Session is the identity of the one interactive loop this process serves.
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Sessions *session.Service
	Session  *session.Session
	Policy   *services.Policy
	Logger   *zap.Logger
	Ctx      context.Context
}

// parseDate parses a command-line date. Logged-out callers get NotLoggedIn
// first so the login prompt wins over date errors.
func (app *AppContext) parseDate(s string) (time.Time, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		if !app.Session.IsLoggedIn() {
			return time.Time{}, apperr.ErrNotLoggedIn
		}
		return time.Time{}, apperr.ErrInvalidDate.Wrap(err)
	}
	return d, nil
}
