package main

import (
	"database/sql"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/mandari/oparlsync/internal/config"
	"github.com/mandari/oparlsync/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := "up"
		if len(args) == 1 {
			direction = args[0]
		}

		cfg, err := config.Load()
		if err != nil {
			return configError(err)
		}
		if err := cfg.Validate(); err != nil {
			return configError(err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return configError(err)
		}
		defer db.Close()

		dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return configError(err)
		}

		sourceDriver, err := iofs.New(migrations.FS, ".")
		if err != nil {
			return configError(err)
		}

		m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
		if err != nil {
			return configError(err)
		}
		defer m.Close()

		switch direction {
		case "up":
			if err := m.Up(); err != nil && err != migrate.ErrNoChange {
				return syncFailure(err)
			}
			cmd.Println("migrations applied")
		case "down":
			if err := m.Down(); err != nil && err != migrate.ErrNoChange {
				return syncFailure(err)
			}
			cmd.Println("migrations rolled back")
		default:
			return configError(&unknownDirectionError{direction})
		}
		return nil
	},
}

type unknownDirectionError struct{ direction string }

func (e *unknownDirectionError) Error() string {
	return "unknown migrate direction: " + e.direction
}
