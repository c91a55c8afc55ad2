package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/innerhue/moodsync/internal/client"
	"github.com/innerhue/moodsync/internal/service"
	"github.com/innerhue/moodsync/models"
)

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		GroupID: "sync",
		Short:   "Push pending operations and pull remote changes once",
		Long: `Run one sync cycle: pending operations are pushed in batches, then
remote changes are pulled and merged. Network failures are retried with
backoff; interrupt the command to stop retrying. Pending operations are
kept and pushed by the next cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, opts, func(app *client.App) error {
				engine := app.Services().Engine

				statuses, cancel := engine.SubscribeStatus(8)
				defer cancel()
				go reportRetries(cmd.ErrOrStderr(), statuses)

				engine.OnConflict(func(r models.ConflictRecord) {
					fmt.Fprintf(cmd.OutOrStdout(), "conflict on %s: %s version kept (%s)\n",
						r.EntryID, r.Resolution.Winner, r.Resolution.Reason)
				})

				if err := engine.SyncNow(ctx); err != nil {
					if service.IsSyncError(err, service.SyncErrorAuth) {
						return fmt.Errorf("%w (check the --token flag)", err)
					}
					return err
				}

				return writeStatus(cmd.OutOrStdout(), engine.Status(), app.DeviceID())
			})
		},
	}
}

func reportRetries(w io.Writer, statuses <-chan models.SyncStatus) {
	for s := range statuses {
		if s.State == models.SyncStateBackoff {
			fmt.Fprintf(w, "server unreachable, retrying (%d): %s\n", s.ConsecutiveFailures, s.LastError)
		}
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "sync",
		Short:   "Show the device sync position",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, func(app *client.App) error {
				pending, err := app.Services().Journal.PendingCount(ctx)
				if err != nil {
					return err
				}
				cursor, err := app.Store().GetCursor(ctx, app.DeviceID())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "device:        %s\n", app.DeviceID())
				fmt.Fprintf(out, "pending:       %d\n", pending)
				fmt.Fprintf(out, "pulled up to:  %d\n", cursor.LastPulledRemoteClock)
				if !cursor.UpdatedAt.IsZero() {
					fmt.Fprintf(out, "last sync:     %s\n", cursor.UpdatedAt.Local().Format(timeLayout))
				}
				return nil
			})
		},
	}
}

func newDaemonCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "daemon",
		GroupID: "sync",
		Short:   "Sync in the background until interrupted",
		Long: `Keep the device in sync: a cycle runs on start, on every timer tick,
whenever the server announces new operations and whenever the change feed
reconnects after an outage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			return withApp(ctx, opts, func(app *client.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "syncing device %s, press Ctrl+C to stop\n", app.DeviceID())
				return app.Run(ctx)
			})
		},
	}
}

func writeStatus(w io.Writer, s models.SyncStatus, deviceID string) error {
	_, err := fmt.Fprintf(w, "device %s: %s, %d pending\n", deviceID, s.State, s.Pending)
	return err
}
