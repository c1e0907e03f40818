package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stager/internal/library"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// emit writes v as indented JSON in --json mode and calls plain otherwise.
func (a *app) emit(cmd *cobra.Command, v any, plain func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return sysError(fmt.Errorf("marshal output: %w", err))
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	plain(out)
	return nil
}

// renderTable prints rows under headers. Terminals get a rounded table;
// pipes and files get a plain one that is easy to grep.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options = table.OptionsNoBordersAndSeparators
		tw.Style().Format.Header = text.FormatDefault
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func versionRows(entries []library.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.VersionID,
			e.AssetName,
			e.SceneName,
			string(e.Module),
			string(e.QualityTier),
			string(e.Status),
			string(e.Generation()),
			formatTime(e.CreatedAt),
		})
	}
	return rows
}

var versionHeaders = []string{"ID", "ASSET", "SCENE", "MODULE", "TIER", "STATUS", "GENERATION", "CREATED"}

// printVersion writes one version as key/value lines.
func printVersion(w io.Writer, v *types.Version) {
	fmt.Fprintf(w, "id:          %s\n", v.VersionID)
	fmt.Fprintf(w, "asset:       %s\n", v.AssetID)
	fmt.Fprintf(w, "module:      %s\n", v.Module)
	fmt.Fprintf(w, "tier:        %s\n", v.QualityTier)
	fmt.Fprintf(w, "status:      %s\n", v.Status)
	fmt.Fprintf(w, "generation:  %s\n", v.Generation())
	if v.LifecycleStatus != "" {
		fmt.Fprintf(w, "lifecycle:   %s\n", v.LifecycleStatus)
	}
	if v.ParentVersionID != "" {
		fmt.Fprintf(w, "parent:      %s\n", v.ParentVersionID)
	}
	if len(v.SourceVersionIDs) > 0 {
		fmt.Fprintf(w, "sources:     %s\n", strings.Join(v.SourceVersionIDs, ", "))
	}
	if v.Model != "" {
		fmt.Fprintf(w, "model:       %s\n", v.Model)
	}
	if v.OutputPath != "" {
		fmt.Fprintf(w, "output:      %s\n", v.OutputPath)
	}
	if msg := firstNonEmpty(v.GenerationError, v.Error); msg != "" {
		fmt.Fprintf(w, "error:       %s\n", msg)
	}
	fmt.Fprintf(w, "created:     %s\n", formatTime(v.CreatedAt))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
