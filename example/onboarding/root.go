package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard"
	"github.com/tbxark/formwizard/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	LogFile    string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Interactive account onboarding wizard",
		Long: `Walks through the six onboarding steps in the terminal. Progress is saved
after every edit, so quitting and running the command again resumes where you
left off.

Example:
  onboarding --config ./formwizard.toml
  FORMWIZARD_STORE_DRIVER=memory onboarding`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (toml or yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file")

	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	return cmd
}

// setup loads configuration and builds the logger. Interactive runs log
// nowhere unless --log-file is set, so output never tears the screen.
func (o *RootOptions) setup(interactive bool) (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	level := cfg.Log.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	cleanup := func() {}
	switch {
	case o.LogFile != "":
		f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return config.Config{}, nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		cleanup = func() { _ = f.Close() }
	case interactive:
		out = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, cleanup, nil
}

func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved onboarding progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := rootOpts.setup(false)
			if err != nil {
				return err
			}
			defer cleanup()
			ob, err := formwizard.NewOnboarding(cfg, formwizard.LogSubmitter(logger),
				formwizard.WithLogger(logger),
				formwizard.WithScheduler(func(task func()) { task() }),
			)
			if err != nil {
				return err
			}
			defer ob.Close()

			ctx := cmd.Context()
			ob.Wizard.Mount(ctx)
			session := ob.Wizard.Session()
			out := cmd.OutOrStdout()
			if session.ID == "" {
				fmt.Fprintln(out, "No onboarding in progress.")
				return nil
			}
			fmt.Fprintf(out, "Session %s, %s of %d, last saved %s\n\n",
				session.ID, ob.Wizard.State(), ob.Wizard.TotalSteps(), session.LastUpdated.Local().Format("2006-01-02 15:04"))
			fmt.Fprint(out, ob.Wizard.Summary())
			return nil
		},
	}
}

func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard saved onboarding progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := rootOpts.setup(false)
			if err != nil {
				return err
			}
			defer cleanup()
			ob, err := formwizard.NewOnboarding(cfg, formwizard.LogSubmitter(logger),
				formwizard.WithLogger(logger),
				formwizard.WithScheduler(func(task func()) { task() }),
			)
			if err != nil {
				return err
			}
			defer ob.Close()
			ob.Wizard.Reset(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Onboarding progress cleared.")
			return nil
		},
	}
}
