package cli

import (
	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/spf13/cobra"
)

func newProblemsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "problems",
		Aliases: []string{"problem"},
		Short:   "List and inspect problems",
	}
	cmd.AddCommand(newProblemsListCommand(opts), newProblemsShowCommand(opts))
	return cmd
}

func newProblemsListCommand(opts *options) *cobra.Command {
	var filter domain.ProblemFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List problems",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			listing, err := a.Problems().List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(listing.Demo, false)
			if p.json {
				return p.JSON(listing.Problems)
			}
			return p.problems(listing.Problems)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&filter.FixStatus, "fix-status", "", "open, in_progress, resolved or closed")
	f.StringVar(&filter.Priority, "priority", "", "critical, high, medium or low")
	f.StringVarP(&filter.Search, "search", "s", "", "match title or number")
	return cmd
}

func newProblemsShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a problem with its linked incidents",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			detail, err := a.Problems().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(detail.Demo, false)
			if p.json {
				return p.JSON(detail.Problem)
			}
			return p.problem(detail.Problem)
		}),
	}
}
