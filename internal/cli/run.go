package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/paths"
	"github.com/mesh-intelligence/stager/internal/pipeline"
)

func newVersionRunCmd(a *app) *cobra.Command {
	var (
		command     string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "run <version-id>...",
		Short: "Generate images for pending versions",
		Long: "Generate images for pending versions with an external generator command.\n\n" +
			"The command receives the prompt, model, size and seed in STAGER_PROMPT,\n" +
			"STAGER_MODEL, STAGER_SIZE and STAGER_SEED, reads the source image on stdin\n" +
			"and writes the generated image to stdout. Exit status 3 reports a rejected\n" +
			"seed and 75 a temporary failure worth retrying.",
		Args: wrapArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if command == "" {
				command = a.file.Generation.Command
			}
			if command == "" {
				return userError(errors.New("no generator configured: set generation.command or pass --generator"))
			}
			gen, err := pipeline.NewCommandGenerator(command)
			if err != nil {
				return userError(err)
			}
			if concurrency < 1 {
				concurrency = a.file.Generation.Concurrency
			}

			return a.withSession(func(s *session) error {
				runner := pipeline.NewRunner(s.ledger, s.backend.Assets(), gen,
					pipeline.FileStore{Root: paths.OutputsDir(s.dataDir)},
					pipeline.WithLogger(s.log),
					pipeline.WithRetry(a.file.Generation.Retries, a.file.Generation.RetryDelay),
				)
				outcomes, runErr := runner.RunAll(cmd.Context(), args, concurrency)
				failed := 0
				for _, o := range outcomes {
					if o.Failed {
						failed++
					}
				}
				if err := a.emit(cmd, outcomes, func(w io.Writer) { printOutcomes(w, outcomes) }); err != nil {
					return err
				}
				if runErr != nil {
					return runErr
				}
				if failed > 0 {
					return sysError(fmt.Errorf("%d of %d generations failed", failed, len(outcomes)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&command, "generator", "", "generator command (default: generation.command)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "generations in flight (default: generation.concurrency)")
	return cmd
}

func printOutcomes(w io.Writer, outcomes []pipeline.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		result := "ok"
		detail := o.OutputPath
		switch {
		case o.Failed:
			result = "failed"
			detail = o.Error
		case o.Error != "":
			result = "skipped"
			detail = o.Error
		}
		var notes []string
		if o.Mismatch != nil {
			notes = append(notes, "prompt hash mismatch")
		}
		if o.SeedRejected {
			notes = append(notes, "seed rejected")
		}
		rows = append(rows, []string{o.VersionID, result, detail, strings.Join(notes, "; ")})
	}
	renderTable(w, []string{"VERSION", "RESULT", "DETAIL", "NOTES"}, rows)
}
