// Package cli implements the incidentctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/config"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/version"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitUnavailable = 3
	ExitAuth        = 4
)

type options struct {
	configFile string
	envFile    string
	json       bool
}

// NewRootCommand builds the incidentctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "incidentctl",
		Short: "Work incidents and problems from the terminal",
		Long: "incidentctl talks to the incident management API on behalf of a signed-in user.\n\n" +
			"Configuration is read from defaults, the --config YAML file and INCIDENTCTL_* environment variables.",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML config file")
	flags.StringVar(&opts.envFile, "env-file", "", "env file to load (default "+config.DefaultEnvFile+" when present)")
	flags.BoolVar(&opts.json, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newDashboardCommand(opts),
		newActivityCommand(opts),
		newIncidentsCommand(opts),
		newTimelineCommand(opts),
		newProblemsCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var usage usageError
	switch {
	case errors.As(err, &usage), errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidTransition):
		return ExitUsage
	case errors.Is(err, api.ErrNotAuthenticated), errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrInvalidCredentials):
		return ExitAuth
	case api.IsUnavailable(err):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// withApp loads configuration and builds the application before run.
func (o *options) withApp(run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{File: o.configFile, EnvFile: o.envFile})
		if err != nil {
			return err
		}
		a, err := app.New(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cmd.SetContext(ctxlog.With(cmd.Context(), "command", cmd.CommandPath()))
		return run(cmd, args, a)
	}
}
