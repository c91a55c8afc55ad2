package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/innerhue/moodsync/internal/client"
	"github.com/innerhue/moodsync/models"
)

const timeLayout = "2006-01-02 15:04"

// payloadFlags are the entry fields settable from the command line.
type payloadFlags struct {
	emotion  string
	category string
	note     string
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&p.emotion, "emotion", "e", "", "emotion label")
	f.StringVarP(&p.category, "category", "g", "", "category label")
	f.StringVarP(&p.note, "note", "n", "", "free-form note")
}

// apply overlays the flags the user set on base.
func (p *payloadFlags) apply(cmd *cobra.Command, base models.MoodPayload) models.MoodPayload {
	f := cmd.Flags()
	if f.Changed("emotion") {
		base.Emotion = p.emotion
	}
	if f.Changed("category") {
		base.Category = p.category
	}
	if f.Changed("note") {
		if p.note == "" {
			base.Note = nil
		} else {
			note := p.note
			base.Note = &note
		}
	}
	return base
}

func newAddCmd(opts *options) *cobra.Command {
	var payload payloadFlags

	cmd := &cobra.Command{
		Use:     "add",
		GroupID: "entries",
		Short:   "Record a mood entry",
		Example: `  moodsync add --emotion calm --category work --note "quiet morning"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(app *client.App) error {
				entry, err := app.Services().EntryLog.Create(cmd.Context(), payload.apply(cmd, models.MoodPayload{}))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
				return nil
			})
		},
	}
	payload.register(cmd)

	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	var payload payloadFlags

	cmd := &cobra.Command{
		Use:     "edit <entry-id>",
		GroupID: "entries",
		Short:   "Change fields of a mood entry",
		Example: `  moodsync edit 0196... --emotion content`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, func(app *client.App) error {
				entries := app.Services().EntryLog

				current, err := entries.Get(ctx, args[0])
				if err != nil {
					return err
				}

				base := models.MoodPayload{Emotion: current.Emotion, Note: current.Note, Category: current.Category}
				entry, err := entries.Update(ctx, args[0], payload.apply(cmd, base))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s v%d\n", entry.ID, entry.Version)
				return nil
			})
		},
	}
	payload.register(cmd)

	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <entry-id>",
		Aliases: []string{"rm"},
		GroupID: "entries",
		Short:   "Delete a mood entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(app *client.App) error {
				entry, err := app.Services().EntryLog.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", entry.ID)
				return nil
			})
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var (
		filter  models.EntryFilter
		since   time.Duration
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		GroupID: "entries",
		Short:   "List mood entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}
			return withApp(cmd.Context(), opts, func(app *client.App) error {
				entries, err := app.Services().EntryLog.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				return writeEntries(cmd.OutOrStdout(), entries)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&filter.Category, "category", "g", "", "only entries of this category")
	f.StringVarP(&filter.Emotion, "emotion", "e", "", "only entries with this emotion")
	f.DurationVar(&since, "since", 0, "only entries created within this duration")
	f.BoolVarP(&filter.IncludeDeleted, "all", "a", false, "include deleted entries")
	f.IntVarP(&filter.Limit, "limit", "l", 0, "maximum number of entries")
	f.BoolVar(&jsonOut, "json", false, "print JSON")

	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "show <entry-id>",
		GroupID: "entries",
		Short:   "Print one mood entry as JSON",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(app *client.App) error {
				entry, err := app.Services().EntryLog.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), entry)
			})
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "history <entry-id>",
		GroupID: "entries",
		Short:   "List versions of an entry lost to conflicts",
		Long: `List the versions of an entry that lost a conflict against a version
written on another device. Any of them can be brought back with "recover".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(app *client.App) error {
				records, err := app.Services().EntryLog.History(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "OP ID\tEMOTION\tCATEGORY\tSUPERSEDED AT\tREASON")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						r.OpID, r.Entry.Emotion, r.Entry.Category, r.SupersededAt.Local().Format(timeLayout), r.Reason)
				}
				return tw.Flush()
			})
		},
	}
}

func newRecoverCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "recover <op-id>",
		GroupID: "entries",
		Short:   "Restore a superseded version as the current one",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(app *client.App) error {
				entry, err := app.Services().EntryLog.Recover(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s v%d restored\n", entry.ID, entry.Version)
				return nil
			})
		},
	}
}

func writeEntries(w io.Writer, entries []models.MoodEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tEMOTION\tCATEGORY\tNOTE")
	for _, e := range entries {
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		emotion := e.Emotion
		if e.IsDeleted() {
			emotion += " (deleted)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Local().Format(timeLayout), emotion, e.Category, note)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
