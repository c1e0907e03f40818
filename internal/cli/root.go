// Package cli implements the stager command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/stager/internal/catalog"
	"github.com/mesh-intelligence/stager/internal/config"
	"github.com/mesh-intelligence/stager/internal/paths"
	"github.com/mesh-intelligence/stager/pkg/stager"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries the state shared by one invocation's commands.
type app struct {
	flags     rootFlags
	configDir string
	file      config.File
	viper     *viper.Viper
}

// NewRootCmd creates the top-level "stager" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "stager",
		Short: "Track AI-edited versions of real-estate photos",
		Long: "stager records every generated version of a source photo, keeps one approved\n" +
			"version per photo, and chains cleanup, staging and relighting steps.",
		Version: stager.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError(err)
	})

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.stager-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newInitCmd(a))
	root.AddCommand(newJobCmd(a))
	root.AddCommand(newSceneCmd(a))
	root.AddCommand(newAssetCmd(a))
	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newPromptCmd(a))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitCode(err)
}

func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	file, v, err := config.Load(dir)
	if err != nil {
		return sysError(err)
	}
	a.configDir = dir
	a.file = file
	a.viper = v
	return nil
}

// exitError carries the exit code an error should end the process with.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

func userErrorf(format string, args ...any) error {
	return userError(fmt.Errorf(format, args...))
}

func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// userErrors are failures caused by the caller's input rather than the
// environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidModule,
	types.ErrInvalidTier,
	types.ErrInvalidStatus,
	types.ErrInvalidGenerationStatus,
	types.ErrInvariantViolation,
	catalog.ErrNameRequired,
	catalog.ErrSceneMismatch,
}

// exitCode maps err to a process exit code: 1 for user errors, 2 for
// everything else.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return wrapArgs(cobra.RangeArgs(lo, hi))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return userError(err)
		}
		return nil
	}
}
