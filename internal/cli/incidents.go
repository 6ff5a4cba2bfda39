package cli

import (
	"strings"

	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidents"
	"github.com/spf13/cobra"
)

func newIncidentsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "incidents",
		Aliases: []string{"incident", "inc"},
		Short:   "List, inspect and work incidents",
	}

	cmd.AddCommand(
		newIncidentsListCommand(opts),
		newIncidentsShowCommand(opts),
		newIncidentsCreateCommand(opts),
		newIncidentsUpdateCommand(opts),
		newIncidentsAdvanceCommand(opts),
		newIncidentsResolveCommand(opts),
		newIncidentsAssignCommand(opts),
	)
	return cmd
}

func newIncidentsListCommand(opts *options) *cobra.Command {
	var filter domain.IncidentFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incidents",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			listing, err := a.Incidents().List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(listing.Origin == incidents.OriginDemo, false)
			if p.json {
				return p.JSON(listing.Incidents)
			}
			return p.incidents(listing.Incidents)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&filter.Severity, "severity", "", "critical, high, medium or low")
	f.StringVar(&filter.Status, "status", "", "lifecycle status")
	f.StringVar(&filter.Category, "category", "", "category")
	f.StringVarP(&filter.Search, "search", "s", "", "match title, number or assignee")
	return cmd
}

func newIncidentsShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an incident with its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			detail, err := a.Incidents().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(detail.Origin == incidents.OriginDemo, detail.Origin == incidents.OriginLocal)
			if p.json {
				return p.JSON(detail.Incident)
			}
			return p.incident(detail.Incident)
		}),
	}
}

func newIncidentsCreateCommand(opts *options) *cobra.Command {
	var input domain.CreateIncidentInput
	var severity string
	var usersAffected int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Report a new incident",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			input.Severity = domain.Severity(severity)
			if cmd.Flags().Changed("users-affected") {
				input.UsersAffected = &usersAffected
			}

			change, err := a.Incidents().Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return opts.printChange(cmd, change, "Created %s (%s).", change.Incident.IncidentNumber, change.Incident.ID)
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&input.Title, "title", "t", "", "short summary")
	f.StringVar(&severity, "severity", "", "critical, high, medium or low")
	f.StringVarP(&input.Description, "description", "d", "", "what is happening")
	f.StringVar(&input.Category, "category", "", "category, e.g. Infrastructure")
	f.StringVar(&input.AssignedTo, "assign", "", "initial owner")
	f.StringVar(&input.BusinessImpact, "impact", "", "business impact")
	f.StringVar(&input.Tags, "tags", "", "comma-separated tags")
	f.IntVar(&usersAffected, "users-affected", 0, "number of affected users")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("severity")
	return cmd
}

func newIncidentsUpdateCommand(opts *options) *cobra.Command {
	var title, severity, description, category, tags, problemID string
	var workaround, rootCause, lessons, preventive string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change incident fields",
		Long: "Change incident fields\n\n" +
			"Only the flags given are sent. Status changes go through advance and resolve.",
		Args: cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			var input domain.UpdateIncidentInput
			set := func(name string, value string, dst **string) {
				if cmd.Flags().Changed(name) {
					v := value
					*dst = &v
				}
			}
			set("title", title, &input.Title)
			set("description", description, &input.Description)
			set("category", category, &input.Category)
			set("tags", tags, &input.Tags)
			set("problem", problemID, &input.ProblemID)
			set("workaround", workaround, &input.Workaround)
			set("root-cause", rootCause, &input.RootCause)
			set("lessons-learned", lessons, &input.LessonsLearned)
			set("preventive-actions", preventive, &input.PreventiveActions)
			if cmd.Flags().Changed("severity") {
				s := domain.Severity(severity)
				input.Severity = &s
			}

			change, err := a.Incidents().Update(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return opts.printChange(cmd, change, "Updated %s.", change.Incident.IncidentNumber)
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "short summary")
	f.StringVar(&severity, "severity", "", "critical, high, medium or low")
	f.StringVarP(&description, "description", "d", "", "what is happening")
	f.StringVar(&category, "category", "", "category")
	f.StringVar(&tags, "tags", "", "comma-separated tags")
	f.StringVar(&problemID, "problem", "", "link to a problem id")
	f.StringVar(&workaround, "workaround", "", "workaround")
	f.StringVar(&rootCause, "root-cause", "", "root cause")
	f.StringVar(&lessons, "lessons-learned", "", "lessons learned")
	f.StringVar(&preventive, "preventive-actions", "", "preventive actions")
	return cmd
}

func newIncidentsAdvanceCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "advance ID STATUS",
		Short: "Move an incident forward in its lifecycle",
		Long: "Move an incident forward in its lifecycle\n\n" +
			"Statuses: open, investigating, identified, monitoring, resolved, closed. " +
			"Stages may be skipped but never revisited.",
		Args: cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			target, err := domain.ParseIncidentStatus(args[1])
			if err != nil {
				return usageError{msg: err.Error()}
			}

			change, err := a.Incidents().Advance(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			return opts.printChange(cmd, change, "%s is now %s.", change.Incident.IncidentNumber, change.Incident.Status.Label())
		}),
	}
}

func newIncidentsResolveCommand(opts *options) *cobra.Command {
	var input domain.ResolveIncidentInput

	cmd := &cobra.Command{
		Use:   "resolve ID",
		Short: "Resolve an incident with resolution details",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			change, err := a.Incidents().Resolve(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return opts.printChange(cmd, change, "Resolved %s.", change.Incident.IncidentNumber)
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&input.ResolutionSummary, "summary", "m", "", "resolution summary")
	f.StringVar(&input.RootCause, "root-cause", "", "root cause")
	f.StringVar(&input.ResolvedBy, "by", "", "resolver (default: signed-in user)")
	return cmd
}

func newIncidentsAssignCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign ID ASSIGNEE",
		Short: "Assign an incident owner",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			change, err := a.Incidents().Assign(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return opts.printChange(cmd, change, "%s assigned to %s.", change.Incident.IncidentNumber, strings.TrimSpace(args[1]))
		}),
	}
}

// printChange reports a write. Provisional changes are flagged on stderr.
func (o *options) printChange(cmd *cobra.Command, change *incidents.Change, format string, args ...any) error {
	p := o.printer(cmd)
	p.markers(false, change.Provisional())
	if p.json {
		return p.JSON(change)
	}
	return p.line(format, args...)
}
