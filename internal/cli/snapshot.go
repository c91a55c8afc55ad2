package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/innerhue/moodsync/internal/client"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/models"
)

// errTargetNotEmpty is returned when a migration target already holds
// entries.
var errTargetNotEmpty = errors.New("target store is not empty")

func newExportCmd(opts *options) *cobra.Command {
	var (
		output      string
		withJournal bool
	)

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "data",
		Short:   "Write a JSON snapshot of the entry log",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, func(app *client.App) error {
				snapshot, err := store.TakeSnapshot(ctx, app.Store(), app.DeviceID(), withJournal)
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create snapshot file: %w", err)
					}
					defer f.Close()
					w = f
				}
				return writeJSON(w, snapshot)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "snapshot file (default stdout)")
	f.BoolVar(&withJournal, "journal", false, "include the operation journal and superseded versions")

	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:     "migrate --to <dsn>",
		GroupID: "data",
		Short:   "Copy the device into another local store backend",
		Long: `Copy entries, journal, superseded versions, sync cursor and device id
into another local store, for example from SQLite to bbolt. Point --db at
the new store afterwards.`,
		Example: `  moodsync migrate --db sqlite://moodsync.db --to bolt://moodsync.bolt`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, func(app *client.App) error {
				snapshot, err := store.TakeSnapshot(ctx, app.Store(), app.DeviceID(), true)
				if err != nil {
					return err
				}

				if err = migrateSnapshot(ctx, snapshot, target, app.Logger()); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "migrated %d entries and %d operations to %s\n",
					len(snapshot.Entries), len(snapshot.Journal), target)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "DSN of the target store")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func migrateSnapshot(ctx context.Context, snapshot models.Snapshot, targetDSN string, log *logger.Logger) error {
	dst, err := store.OpenLocalStorage(ctx, config.ClientStorage{DB: config.ClientDB{DSN: targetDSN}}, log)
	if err != nil {
		return fmt.Errorf("open target store: %w", err)
	}
	defer dst.Close()

	existing, err := dst.ListEntries(ctx, models.EntryFilter{IncludeDeleted: true, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", errTargetNotEmpty, targetDSN)
	}

	return store.Restore(ctx, dst, snapshot)
}
