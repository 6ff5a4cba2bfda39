package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCommand(opts *options) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: "Sign in and store the session\n\n" +
			"The password is read from the first line of stdin when --password is not given.",
		Args: cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return usageError{msg: "password is required"}
				}
				password = strings.TrimRight(line, "\r\n")
			}

			user, err := a.Session().Login(cmd.Context(), a.Client(), domain.Credentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			if p.json {
				return p.JSON(user)
			}
			return p.line("Signed in as %s (%s).", user.Username, user.Role)
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if err := a.Session().Logout(); err != nil {
				return err
			}
			return opts.printer(cmd).line("Signed out.")
		}),
	}
}

func newWhoamiCommand(opts *options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			user, ok := a.Session().User()
			if !ok {
				return api.ErrNotAuthenticated
			}
			if remote {
				me, err := a.Client().Me(cmd.Context())
				if err != nil {
					return err
				}
				user = *me
			}

			p := opts.printer(cmd)
			if p.json {
				return p.JSON(user)
			}
			return p.fields([][2]string{
				{"Username", user.Username},
				{"Name", user.Name},
				{"Role", string(user.Role)},
				{"API", a.Client().BaseURL()},
			})
		}),
	}

	cmd.Flags().BoolVar(&remote, "check", false, "confirm the session with the server")
	return cmd
}

func newDashboardCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show KPIs, open incidents and recent activity",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			overview, err := a.Dashboard().Overview(cmd.Context())
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(overview.Demo, false)
			if p.json {
				return p.JSON(overview)
			}

			if err := p.fields([][2]string{
				{"Active incidents", fmt.Sprint(overview.ActiveIncidents)},
				{"Resolved today", fmt.Sprint(overview.ResolvedToday)},
				{"MTTR", fmt.Sprintf("%.1fh", overview.MTTRHours)},
				{"MTTA", fmt.Sprintf("%.0fm", overview.MTTAMinutes)},
				{"SLA compliance", fmt.Sprintf("%.1f%% (%s)", overview.SLACompliancePct, overview.SLAHealth)},
			}); err != nil {
				return err
			}
			if err := p.line("\nOpen incidents:"); err != nil {
				return err
			}
			if err := p.incidents(overview.OpenIncidents); err != nil {
				return err
			}
			if err := p.line("\nRecent activity:"); err != nil {
				return err
			}
			return p.activity(overview.RecentActivity)
		}),
	}
}

func newActivityCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the newest timeline entries across incidents",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if limit < 0 {
				return usageError{msg: "--limit must not be negative"}
			}
			entries, isDemo, err := a.Dashboard().RecentActivity(cmd.Context(), limit)
			if err != nil {
				return err
			}

			p := opts.printer(cmd)
			p.markers(isDemo, false)
			if p.json {
				return p.JSON(entries)
			}
			return p.activity(entries)
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries, capped at activity.limit (default: activity.limit)")
	return cmd
}
