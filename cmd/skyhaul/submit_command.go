package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"skyhaul/internal/pipeline"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var flags sceneFlags
	var skipExisting bool
	var dryRun bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Search scenes and place a clipped order",
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			plan, err := flags.plan(cmd, ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlan(out, plan)
			if !plan.HasScenes() {
				fmt.Fprintln(out, "No scenes to order")
				return nil
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run, nothing submitted")
				return nil
			}
			if !yes {
				ok, err := confirm(cmd, "Submit this order?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			p, err := ctx.pipelineValue()
			if err != nil {
				return err
			}
			order, err := p.SubmitScenes(cmd.Context(), plan, pipeline.SubmitOptions{SkipExisting: skipExisting})
			var dup *pipeline.DuplicateError
			if errors.As(err, &dup) {
				fmt.Fprintf(out, "Skipped: %s\n", dup)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Submitted order %s\n", order.ID)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip submission when an order already covers this window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run search and selection without submitting")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Submit without the interactive confirmation")
	return cmd
}

// confirm prompts on stdin and accepts y or yes. EOF counts as a decline.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
