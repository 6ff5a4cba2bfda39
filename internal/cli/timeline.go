package cli

import (
	"strings"

	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidents"
	"github.com/spf13/cobra"
)

func newTimelineCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Read and append incident timeline entries",
	}
	cmd.AddCommand(newTimelineListCommand(opts), newTimelineAddCommand(opts))
	return cmd
}

func newTimelineListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list ID",
		Short: "Show an incident timeline, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			timeline, err := a.Incidents().Timeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(timeline.Origin == incidents.OriginDemo, timeline.Origin == incidents.OriginLocal)
			if p.json {
				return p.JSON(timeline.Entries)
			}
			return p.timeline(timeline.Entries)
		}),
	}
}

func newTimelineAddCommand(opts *options) *cobra.Command {
	var entryType, author string

	cmd := &cobra.Command{
		Use:   "add ID CONTENT...",
		Short: "Append an entry to an incident timeline",
		Long: "Append an entry to an incident timeline\n\n" +
			"Types: note, status_change, assignment, communication, escalation, resolution.",
		Args: cobra.MinimumNArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			change, err := a.Incidents().AddEntry(cmd.Context(), args[0], domain.TimelineEntryInput{
				EntryType: domain.EntryType(entryType),
				Content:   strings.Join(args[1:], " "),
				Author:    author,
			})
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(false, change.Provisional())
			if p.json {
				return p.JSON(change.Entry)
			}
			return p.line("Added %s entry %s.", change.Entry.EntryType, change.Entry.ID)
		}),
	}

	cmd.Flags().StringVar(&entryType, "type", string(domain.EntryTypeNote), "entry type")
	cmd.Flags().StringVar(&author, "author", "", "author (default: signed-in user)")
	return cmd
}
