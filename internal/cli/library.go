package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/library"
	"github.com/mesh-intelligence/stager/pkg/types"
)

func newVersionListCmd(a *app) *cobra.Command {
	var (
		module, tier     string
		statuses         []string
		sceneID, assetID string
		approved, final  bool
		stagingInputs    bool
	)
	cmd := &cobra.Command{
		Use:   "list <job-id>",
		Short: "List the versions of a job, newest first",
		Long: "List the versions of a job, newest first. Filters combine with AND.\n\n" +
			"--approved keeps versions whose output may feed another module (approved or\n" +
			"final_ready). --staging-inputs lists approved cleanup outputs, optionally for\n" +
			"one --scene.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := library.Filter{
				SceneID:      sceneID,
				AssetID:      assetID,
				ApprovedOnly: approved,
				FinalOnly:    final,
			}
			if module != "" {
				m, err := parseModule(module)
				if err != nil {
					return err
				}
				f.Module = m
			}
			if tier != "" {
				t, err := parseTier(tier)
				if err != nil {
					return err
				}
				f.QualityTier = t
			}
			for _, raw := range statuses {
				st, ok := types.ParseStatus(raw)
				if !ok {
					return userErrorf("%w: %q (valid: %s)", types.ErrInvalidStatus, raw, joinStatuses())
				}
				f.Statuses = append(f.Statuses, st)
			}

			return a.withSession(func(s *session) error {
				var (
					entries []library.Entry
					err     error
				)
				if stagingInputs {
					entries, err = s.library.CleanupOutputsForStaging(args[0], sceneID)
				} else {
					entries, err = s.library.Query(args[0], f)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, entries, func(w io.Writer) {
					renderTable(w, versionHeaders, versionRows(entries))
				})
			})
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module")
	cmd.Flags().StringVar(&tier, "tier", "", "quality tier")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "statuses (any of)")
	cmd.Flags().StringVar(&sceneID, "scene", "", "scene ID")
	cmd.Flags().StringVar(&assetID, "asset", "", "asset ID")
	cmd.Flags().BoolVar(&approved, "approved", false, "only chainable versions")
	cmd.Flags().BoolVar(&final, "final", false, "only final_ready versions")
	cmd.Flags().BoolVar(&stagingInputs, "staging-inputs", false, "approved cleanup outputs usable by staging")
	return cmd
}

func newVersionStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <job-id>",
		Short: "Count the assets and versions of a job",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				st, err := s.library.Stats(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, st, func(w io.Writer) { printStats(w, st) })
			})
		},
	}
}

func printStats(w io.Writer, st library.Stats) {
	rows := [][]string{
		{"assets", strconv.Itoa(st.Assets)},
		{"versions", strconv.Itoa(st.Versions)},
		{"approved", strconv.Itoa(st.Approved)},
		{"final", strconv.Itoa(st.Final)},
	}
	modules := make([]types.Module, 0, len(st.ByModule))
	for m := range st.ByModule {
		modules = append(modules, m)
	}
	slices.Sort(modules)
	for _, m := range modules {
		rows = append(rows, []string{fmt.Sprintf("module %s", m), strconv.Itoa(st.ByModule[m])})
	}
	renderTable(w, []string{"METRIC", "COUNT"}, rows)
}
