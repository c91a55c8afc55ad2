// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package cli implements the moodsync device command line.
//
// Every command opens the local store named by the configuration, runs
// against the device services and closes the store again. Only the daemon
// command keeps the process alive and syncs in the background.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/innerhue/moodsync/internal/client"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/models"
)

const clientRole = "moodsync-client"

// options are the persistent flags shared by all commands. Empty values
// fall through to the environment, the JSON file and the defaults.
type options struct {
	configPath string
	dsn        string
	server     string
	token      string
	deviceID   string
	logFile    string
}

func (o *options) overrides() *config.StructuredConfig {
	return &config.StructuredConfig{
		App: config.App{
			DeviceID: o.deviceID,
			Token:    o.token,
			LogFile:  o.logFile,
		},
		Storage: config.Storage{
			Local: config.Local{DSN: o.dsn},
		},
		Adapter: config.Adapter{
			HTTPAddress: o.server,
		},
		JSONFilePath: o.configPath,
	}
}

// NewRootCmd builds the command tree. build is reported by the version
// command.
func NewRootCmd(build models.AppBuildInfo) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "moodsync",
		Short:         "Offline-first mood journal with background sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to a JSON config file")
	f.StringVar(&opts.dsn, "db", "", `local store DSN ("sqlite://path" or "bolt://path")`)
	f.StringVarP(&opts.server, "server", "s", "", "server base URL")
	f.StringVar(&opts.token, "token", "", "bearer token of the account")
	f.StringVar(&opts.deviceID, "device-id", "", "device identifier (first start only)")
	f.StringVar(&opts.logFile, "log-file", "", "client log file")

	root.AddGroup(
		&cobra.Group{ID: "entries", Title: "Entries:"},
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "data", Title: "Data:"},
	)

	root.AddCommand(
		newAddCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newHistoryCmd(opts),
		newRecoverCmd(opts),
		newSyncCmd(opts),
		newStatusCmd(opts),
		newDaemonCmd(opts),
		newExportCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(build),
	)

	return root
}

// withApp loads the configuration, opens the device and runs fn. The store
// is closed when fn returns.
func withApp(ctx context.Context, opts *options, fn func(app *client.App) error) error {
	cfg, err := config.GetClientConfig(opts.overrides())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewClientLogger(clientRole, cfg.App.LogFile)

	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("close local storage")
		}
	}()

	return fn(app)
}
