package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/ledger"
	"github.com/mesh-intelligence/stager/internal/prompt"
	"github.com/mesh-intelligence/stager/pkg/types"
)

func newVersionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Create, approve and regenerate versions of assets",
	}
	cmd.AddCommand(
		newVersionCreateCmd(a),
		newVersionShowCmd(a),
		newVersionStatusCmd(a),
		newVersionGenStatusCmd(a),
		newVersionOutputCmd(a),
		newVersionApproveCmd(a),
		newVersionUnapproveCmd(a),
		newVersionDeleteCmd(a),
		newVersionDuplicateCmd(a),
		newVersionRetryCmd(a),
		newVersionRegenCmd(a),
		newVersionRunCmd(a),
		newVersionListCmd(a),
		newVersionStatsCmd(a),
		newVersionPruneCmd(a),
	)
	return cmd
}

// promptFlags are the prompt components accepted by create and duplicate.
type promptFlags struct {
	base       string
	options    []string
	guardrails []string
	extra      string
}

func (p *promptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.base, "prompt", "", "base prompt")
	cmd.Flags().StringArrayVar(&p.options, "option", nil, "prompt option fragment (repeatable)")
	cmd.Flags().StringArrayVar(&p.guardrails, "guardrail", nil, "guardrail fragment (repeatable)")
	cmd.Flags().StringVar(&p.extra, "extra", "", "extra instructions")
}

func (p *promptFlags) input() prompt.Input {
	return prompt.Input{
		Base:              p.base,
		Options:           p.options,
		Guardrails:        p.guardrails,
		ExtraInstructions: p.extra,
	}
}

func newVersionCreateCmd(a *app) *cobra.Command {
	var (
		p            promptFlags
		module, tier string
		injectorIDs  []string
		guardrailIDs []string
		sources      []string
		parent       string
		seed         int64
		model        string
	)
	cmd := &cobra.Command{
		Use:   "create <asset-id>",
		Short: "Create a pending version of an asset",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseModule(module)
			if err != nil {
				return err
			}
			t, err := parseTier(tier)
			if err != nil {
				return err
			}
			recipe := types.Recipe{InjectorIDs: injectorIDs, GuardrailIDs: guardrailIDs}
			prompt.Stamp(&recipe, p.input())
			req := ledger.NewVersion{
				AssetID:          args[0],
				Module:           m,
				QualityTier:      t,
				Recipe:           recipe,
				SourceVersionIDs: sources,
				ParentVersionID:  parent,
				Model:            model,
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			return a.withSession(func(s *session) error {
				v, err := s.ledger.CreateVersion(req)
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) { fmt.Fprintln(w, v.VersionID) })
			})
		},
	}
	p.register(cmd)
	cmd.Flags().StringVar(&module, "module", "", "module (required): "+joinModules())
	cmd.Flags().StringVar(&tier, "tier", string(types.TierPreview), "quality tier: "+joinTiers())
	cmd.Flags().StringSliceVar(&injectorIDs, "injector-id", nil, "prompt injector IDs")
	cmd.Flags().StringSliceVar(&guardrailIDs, "guardrail-id", nil, "guardrail IDs")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "source version IDs")
	cmd.Flags().StringVar(&parent, "parent", "", "parent version ID")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generation seed")
	cmd.Flags().StringVar(&model, "model", "", "image model")
	return cmd
}

func newVersionShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <version-id>",
		Short: "Show one version",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				v, err := s.ledger.Get(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) { printVersion(w, v) })
			})
		},
	}
}

func newVersionStatusCmd(a *app) *cobra.Command {
	var errMsg string
	cmd := &cobra.Command{
		Use:   "status <version-id> <status>",
		Short: "Set the status of a version",
		Long:  "Set the status of a version. Valid statuses: " + joinStatuses(),
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := types.ParseStatus(args[1])
			if !ok {
				return userErrorf("%w: %q (valid: %s)", types.ErrInvalidStatus, args[1], joinStatuses())
			}
			return a.withSession(func(s *session) error {
				v, err := s.ledger.SetStatus(args[0], status, errMsg)
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "version %s is %s\n", v.VersionID, v.Status)
				})
			})
		},
	}
	cmd.Flags().StringVar(&errMsg, "error", "", "error message to record")
	return cmd
}

func newVersionGenStatusCmd(a *app) *cobra.Command {
	var errMsg string
	cmd := &cobra.Command{
		Use:   "gen-status <version-id> <pending|completed|failed>",
		Short: "Report the outcome of a generation attempt",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := types.ParseGenerationStatus(args[1])
			if !ok {
				return userErrorf("%w: %q", types.ErrInvalidGenerationStatus, args[1])
			}
			return a.withSession(func(s *session) error {
				v, err := s.ledger.SetGenerationStatus(args[0], status, errMsg)
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "version %s generation %s\n", v.VersionID, v.Generation())
				})
			})
		},
	}
	cmd.Flags().StringVar(&errMsg, "error", "", "failure message")
	return cmd
}

func newVersionOutputCmd(a *app) *cobra.Command {
	var thumbnail string
	cmd := &cobra.Command{
		Use:   "output <version-id> <output-path>",
		Short: "Record the generated image of a version",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				v, err := s.ledger.SetOutput(args[0], args[1], thumbnail)
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "version %s output %s\n", v.VersionID, v.OutputPath)
				})
			})
		},
	}
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "thumbnail path")
	return cmd
}

func newVersionApproveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <asset-id> <version-id>",
		Short: "Approve a version, demoting any other approved version of the asset",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				changed, err := s.ledger.Approve(args[0], args[1])
				if err != nil {
					return err
				}
				return a.emit(cmd, changed, func(w io.Writer) {
					fmt.Fprintf(w, "approved %s\n", args[1])
					for _, v := range changed {
						if v.VersionID != args[1] {
							fmt.Fprintf(w, "demoted %s\n", v.VersionID)
						}
					}
				})
			})
		},
	}
}

func newVersionUnapproveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unapprove <version-id>",
		Short: "Withdraw approval from a version",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				v, err := s.ledger.Unapprove(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "version %s is %s\n", v.VersionID, v.Status)
				})
			})
		},
	}
}

func newVersionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <version-id>",
		Short: "Delete an unlocked version",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				if err := s.ledger.Delete(args[0]); err != nil {
					return err
				}
				return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s\n", args[0])
				})
			})
		},
	}
}

func newVersionDuplicateCmd(a *app) *cobra.Command {
	var (
		module string
		base   string
		extra  string
	)
	cmd := &cobra.Command{
		Use:   "duplicate <version-id>",
		Short: "Create a preview version from an existing one",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts ledger.DuplicateOptions
			if module != "" {
				m, err := parseModule(module)
				if err != nil {
					return err
				}
				opts.Module = m
			}
			patch := &types.RecipePatch{}
			if cmd.Flags().Changed("prompt") {
				patch.BasePrompt = &base
			}
			if cmd.Flags().Changed("extra") {
				patch.Settings = types.Settings{types.SettingExtraInstructions: types.StringValue(extra)}
			}
			opts.Patch = patch
			return a.withSession(func(s *session) error {
				v, err := s.ledger.Duplicate(args[0], opts)
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) { fmt.Fprintln(w, v.VersionID) })
			})
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module of the copy (default: source module)")
	cmd.Flags().StringVar(&base, "prompt", "", "replacement base prompt")
	cmd.Flags().StringVar(&extra, "extra", "", "replacement extra instructions")
	return cmd
}

func newVersionRetryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <version-id>",
		Short: "Create a new attempt from a failed version",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				v, err := s.ledger.Retry(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) { fmt.Fprintln(w, v.VersionID) })
			})
		},
	}
}

func newVersionRegenCmd(a *app) *cobra.Command {
	var tier, model string
	cmd := &cobra.Command{
		Use:   "regen <version-id>",
		Short: "Regenerate an approved version at a higher tier",
		Long: "Regenerate an approved version at a higher tier. The new version takes the\n" +
			"same source as the approved one and starts pending.\n\n" +
			"Tiers: hq (HQ preview), 4k (native 4K), final.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				var (
					v   *types.Version
					err error
				)
				switch strings.ToLower(tier) {
				case "hq", string(types.TierHQPreview):
					v, err = s.ledger.RegenerateHQ(args[0], model)
				case "4k", string(types.TierNative4K):
					v, err = s.ledger.RegenerateNative4K(args[0], model)
				case string(types.TierFinal):
					v, err = s.ledger.GenerateFinal(args[0], model)
				default:
					return userErrorf("%w: %q (valid: hq, 4k, final)", types.ErrInvalidTier, tier)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(w io.Writer) { fmt.Fprintln(w, v.VersionID) })
			})
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "hq", "target tier: hq, 4k or final")
	cmd.Flags().StringVar(&model, "model", "", "model override for this regeneration")
	return cmd
}

func newVersionPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune <asset-id>",
		Short: "Delete preview versions that are not approved or needed by one",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				deleted, err := s.ledger.DeletePreviewsExceptApproved(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, deleted, func(w io.Writer) {
					for _, id := range deleted {
						fmt.Fprintf(w, "deleted %s\n", id)
					}
					fmt.Fprintf(w, "%d preview(s) deleted\n", len(deleted))
				})
			})
		},
	}
}

func parseModule(value string) (types.Module, error) {
	m, ok := types.ParseModule(value)
	if !ok {
		return "", userErrorf("%w: %q (valid: %s)", types.ErrInvalidModule, value, joinModules())
	}
	return m, nil
}

func parseTier(value string) (types.QualityTier, error) {
	t, ok := types.ParseQualityTier(value)
	if !ok {
		return "", userErrorf("%w: %q (valid: %s)", types.ErrInvalidTier, value, joinTiers())
	}
	return t, nil
}

func joinModules() string {
	return joinEnum(types.AllModules())
}

func joinTiers() string {
	return joinEnum(types.AllQualityTiers())
}

func joinStatuses() string {
	return joinEnum(types.AllStatuses())
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
