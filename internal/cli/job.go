package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/catalog"
	"github.com/mesh-intelligence/stager/pkg/types"
)

func newJobCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs (one property shoot each)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a job",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(func(s *session) error {
					job, err := s.catalog.CreateJob(args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, job, func(w io.Writer) { fmt.Fprintln(w, job.JobID) })
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List jobs",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(func(s *session) error {
					jobs, err := s.catalog.ListJobs()
					if err != nil {
						return err
					}
					return a.emit(cmd, jobs, func(w io.Writer) {
						rows := make([][]string, 0, len(jobs))
						for _, j := range jobs {
							rows = append(rows, []string{j.JobID, j.Name, formatTime(j.CreatedAt)})
						}
						renderTable(w, []string{"ID", "NAME", "CREATED"}, rows)
					})
				})
			},
		},
	)
	return cmd
}

func newSceneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Manage scenes (rooms or views within a job)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <job-id> <name>",
			Short: "Create a scene in a job",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(func(s *session) error {
					scene, err := s.catalog.CreateScene(args[0], args[1])
					if err != nil {
						return err
					}
					return a.emit(cmd, scene, func(w io.Writer) { fmt.Fprintln(w, scene.SceneID) })
				})
			},
		},
		&cobra.Command{
			Use:   "list <job-id>",
			Short: "List the scenes of a job",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(func(s *session) error {
					scenes, err := s.catalog.ListScenes(args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, scenes, func(w io.Writer) {
						rows := make([][]string, 0, len(scenes))
						for _, sc := range scenes {
							rows = append(rows, []string{sc.SceneID, sc.Name, formatTime(sc.CreatedAt)})
						}
						renderTable(w, []string{"ID", "NAME", "CREATED"}, rows)
					})
				})
			},
		},
	)
	return cmd
}

func newAssetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage source photos",
	}

	var name, sceneID string
	add := &cobra.Command{
		Use:   "add <job-id> <original-path>",
		Short: "Add a source photo to a job",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := filepath.Abs(args[1])
			if err != nil {
				return userErrorf("original path %q: %w", args[1], err)
			}
			assetName := name
			if assetName == "" {
				assetName = baseName(original)
			}
			return a.withSession(func(s *session) error {
				asset, err := s.catalog.AddAsset(catalog.NewAsset{
					JobID:        args[0],
					SceneID:      sceneID,
					Name:         assetName,
					OriginalPath: original,
				})
				if err != nil {
					return err
				}
				return a.emit(cmd, asset, func(w io.Writer) { fmt.Fprintln(w, asset.AssetID) })
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name (default: file name)")
	add.Flags().StringVar(&sceneID, "scene", "", "scene to place the asset in")

	list := &cobra.Command{
		Use:   "list <job-id>",
		Short: "List the assets of a job",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				assets, err := s.catalog.ListAssets(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, assets, func(w io.Writer) {
					renderTable(w, []string{"ID", "NAME", "SCENE", "VERSIONS", "ORIGINAL"}, assetRows(assets))
				})
			})
		},
	}

	assign := &cobra.Command{
		Use:   "assign <asset-id> [scene-id]",
		Short: "Move an asset into a scene, or out of any scene",
		Args:  rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			return a.withSession(func(s *session) error {
				asset, err := s.catalog.AssignScene(args[0], target)
				if err != nil {
					return err
				}
				return a.emit(cmd, asset, func(w io.Writer) {
					if asset.SceneID == "" {
						fmt.Fprintf(w, "asset %s has no scene\n", asset.AssetID)
						return
					}
					fmt.Fprintf(w, "asset %s moved to scene %s\n", asset.AssetID, asset.SceneID)
				})
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <asset-id>",
		Short: "Remove an asset; its versions are kept",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				if err := s.catalog.RemoveAsset(args[0]); err != nil {
					return err
				}
				return a.emit(cmd, map[string]string{"removed": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "asset %s removed\n", args[0])
				})
			})
		},
	}

	cmd.AddCommand(add, list, assign, remove)
	return cmd
}

func assetRows(assets []*types.Asset) [][]string {
	rows := make([][]string, 0, len(assets))
	for _, as := range assets {
		rows = append(rows, []string{
			as.AssetID,
			as.Name,
			as.SceneID,
			strconv.Itoa(len(as.VersionIDs)),
			as.OriginalPath,
		})
	}
	return rows
}

// baseName is the file name of path without its extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
