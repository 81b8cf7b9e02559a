package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mandari/oparlsync/internal/cache"
	"github.com/mandari/oparlsync/internal/config"
	"github.com/mandari/oparlsync/internal/container"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/store"
)

// exitCode carries an intentional process exit code through cobra's error
// return path (§6.4: 0 all succeeded, 1 any source failed, 2 config error).
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }

func exitCodeFor(err error) int {
	if ec, ok := err.(*exitCode); ok {
		return ec.code
	}
	return 1
}

func configError(err error) error {
	return &exitCode{code: 2, err: fmt.Errorf("configuration error: %w", err)}
}

func syncFailure(err error) error {
	return &exitCode{code: 1, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "oparlsync",
	Short: "Parliamentary open-data ingestion engine for OParl endpoints",
}

// buildContainer loads config, verifies schema, and wires a Container —
// the shared bootstrap every subcommand except `migrate` needs.
func buildContainer(ctx context.Context) (*container.Container, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, configError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, configError(err)
	}

	log, err := logger.NewZapLogger(cfg.Env)
	if err != nil {
		return nil, nil, configError(err)
	}

	db, err := config.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, configError(err)
	}

	if err := store.VerifySchema(ctx, db); err != nil {
		return nil, nil, configError(err)
	}

	cacheClient := cache.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)

	ctn, err := container.NewContainer(ctx, cfg, db, cacheClient, log)
	if err != nil {
		return nil, nil, configError(err)
	}
	return ctn, db, nil
}

func init() {
	rootCmd.AddCommand(addSourceCmd, syncCmd, syncAllCmd, statusCmd, serveCmd, migrateCmd)
}
