package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/config"
	"github.com/mesh-intelligence/stager/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	var user bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize stager storage",
		Long: "Create the configuration and data directories, then initialize the storage backend.\n" +
			"With --user the per-user data directory is recorded in config.yaml.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user {
				dir, err := paths.DefaultUserDataDir()
				if err != nil {
					return sysError(fmt.Errorf("resolve user data dir: %w", err))
				}
				if err := config.Set(a.viper, config.KeyDataDir, dir); err != nil {
					return sysError(err)
				}
				a.file.DataDir = dir
			}
			return a.withSession(func(s *session) error {
				if err := os.MkdirAll(paths.OutputsDir(s.dataDir), 0o755); err != nil {
					return sysError(fmt.Errorf("create outputs dir: %w", err))
				}
				result := map[string]string{
					"config_dir": a.configDir,
					"data_dir":   s.dataDir,
					"backend":    a.file.Backend,
				}
				return a.emit(cmd, result, func(w io.Writer) {
					fmt.Fprintf(w, "stager initialized (%s backend)\nconfig: %s\ndata:   %s\n",
						a.file.Backend, a.configDir, s.dataDir)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "store data in the per-user data directory")
	return cmd
}
