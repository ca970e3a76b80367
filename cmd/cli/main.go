package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/vaccine-scheduler/cmd/cli/commands"
	"github.com/jakechorley/vaccine-scheduler/internal/config"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/services"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/session"
	"github.com/jakechorley/vaccine-scheduler/pkg/credentials"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
	"github.com/jakechorley/vaccine-scheduler/pkg/postgres"
	"github.com/jakechorley/vaccine-scheduler/pkg/sqlite"
	"github.com/jakechorley/vaccine-scheduler/pkg/utils/logging"
)

var (
	env     string
	verbose bool
)

func main() {
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Vaccine appointment scheduler",
		Long: `A CLI for registering patients and caregivers, managing vaccine stock and
reserving or canceling vaccination appointments.

Run without a subcommand to start the interactive prompt. Logins last for one
prompt, so logging in and every operation that needs a login are only
available there. Accounts can also be created directly, e.g.

  scheduler create_patient alice secret`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunInteractive(app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects scheduler_config.<env>.yaml and .env.<env>)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")

	commands.Register(rootCmd, app)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up config, logger, database and the session service
func initApp(app *commands.AppContext) error {
	var err error
	app.Ctx = context.Background()

	// Load configuration
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, app.Cfg.LogsDir, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("driver", app.Cfg.Database.Driver))

	app.Database, err = openDatabase(app.Ctx, app.Cfg, app.Logger)
	if err != nil {
		return err
	}

	app.Policy, err = services.NewPolicy(app.Cfg)
	if err != nil {
		return err
	}

	h := app.Cfg.Auth.Hashing
	hasher := credentials.NewHasher(credentials.Params{
		Memory:      h.MemoryKiB,
		Iterations:  h.Iterations,
		Parallelism: h.Parallelism,
		SaltLength:  h.SaltLength,
		KeyLength:   h.KeyLength,
	})
	app.Sessions = session.NewService(app.Database, hasher, session.NewLimiter(app.Cfg.Auth), app.Cfg.Database.OperationTimeout, app.Logger)
	app.Session = session.New()

	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Database, error) {
	switch cfg.Database.Driver {
	case "postgres":
		logger.Info("Connecting to postgres")
		pg, err := postgres.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Debug("Migrations applied")
		return pg, nil

	case "sqlite":
		logger.Info("Opening sqlite database", zap.String("path", cfg.Database.URL))
		lite, err := sqlite.New(ctx, cfg.Database.URL, cfg.Database.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return lite, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
