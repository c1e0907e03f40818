package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/prompt"
)

func newPromptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Assemble and verify generation prompts",
	}

	var p promptFlags
	assemble := &cobra.Command{
		Use:   "assemble",
		Short: "Print the prompt that would be sent for the given components",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := prompt.Assemble(p.input())
			return a.emit(cmd, res, func(w io.Writer) {
				fmt.Fprintln(w, res.FullPrompt)
				fmt.Fprintf(w, "\nhash: %s\n", res.Hash)
			})
		},
	}
	p.register(assemble)

	verify := &cobra.Command{
		Use:   "verify <version-id>",
		Short: "Check a version's stored prompt hash against its components",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				prep, err := s.ledger.PreparePrompt(args[0])
				if err != nil {
					return err
				}
				report := verifyReport{
					VersionID:    prep.Version.VersionID,
					ComputedHash: prep.Prompt.Hash,
					Prompt:       prep.Prompt.FullPrompt,
					Match:        prep.Mismatch == nil,
				}
				if prep.Mismatch != nil {
					report.StoredHash = prep.Mismatch.StoredHash
				}
				if err := a.emit(cmd, report, func(w io.Writer) {
					if report.Match {
						fmt.Fprintf(w, "prompt of %s matches (%s)\n", report.VersionID, report.ComputedHash)
						return
					}
					fmt.Fprintf(w, "prompt of %s drifted\nstored:   %s\ncomputed: %s\n",
						report.VersionID, report.StoredHash, report.ComputedHash)
				}); err != nil {
					return err
				}
				if !report.Match {
					return userError(errors.New("prompt hash mismatch"))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(assemble, verify)
	return cmd
}

type verifyReport struct {
	VersionID    string `json:"version_id"`
	Match        bool   `json:"match"`
	StoredHash   string `json:"stored_hash,omitempty"`
	ComputedHash string `json:"computed_hash"`
	Prompt       string `json:"prompt"`
}
