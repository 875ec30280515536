package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard"
	"github.com/tbxark/formwizard/command"
	"github.com/tbxark/formwizard/wizard"
)

func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fill [answers-file]",
		Short: "Drive the wizard from a script of answers and commands",
		Long: `Reads one instruction per line from the file (or stdin). A line of the form
"field = value" sets a field; any other line is a command: next, back,
submit, reset or quit. Blank lines and lines starting with # are skipped.

Example:
  full_name = Ada Lovelace
  date_of_birth = 1990-12-10
  next`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open answers: %w", err)
				}
				defer f.Close()
				in = f
			}
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

			ob.Wizard.Mount(cmd.Context())
			return runScript(cmd.Context(), ob.Wizard, in, cmd.OutOrStdout())
		},
	}
}

func runScript(ctx context.Context, w *wizard.Wizard, in io.Reader, out io.Writer) error {
	parser := command.NewLocalCommandParser()
	parser.Strict = true
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if name, value, ok := strings.Cut(text, "="); ok {
			setFromText(ctx, w, strings.TrimSpace(name), strings.TrimSpace(value))
			continue
		}
		cmd, err := parser.ParseCommand(ctx, text)
		if err != nil {
			return fmt.Errorf("line %d: %w: %q", line, err, text)
		}
		if cmd == command.Quit {
			break
		}
		before := w.State()
		if command.Dispatch(ctx, w, cmd) {
			fmt.Fprintf(out, "%s: %s -> %s\n", cmd, before, w.State())
			continue
		}
		fmt.Fprintf(out, "%s refused on %s\n", cmd, before)
		for field, msg := range w.Errors() {
			fmt.Fprintf(out, "  %s: %s\n", field, msg)
		}
		if msg := w.FormError(); msg != "" {
			fmt.Fprintf(out, "  %s\n", msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	if w.State().IsStep() {
		fmt.Fprintf(out, "\nSaved on %s of %d.\n", w.State(), w.TotalSteps())
	}
	return nil
}

// setFromText keeps checkbox fields boolean.
func setFromText(ctx context.Context, w *wizard.Wizard, name, value string) {
	if _, isBool := w.Value(name).(bool); isBool {
		b, err := strconv.ParseBool(value)
		if err == nil {
			w.SetField(ctx, name, b)
			return
		}
	}
	w.SetField(ctx, name, value)
}
