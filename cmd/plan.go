package cmd

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/rohanku/release-please/internal/config"
	"github.com/rohanku/release-please/pkg/exitcode"
	"github.com/rohanku/release-please/pkg/gitrepo"
	"github.com/rohanku/release-please/pkg/logger"
	"github.com/rohanku/release-please/pkg/release"
	"github.com/rohanku/release-please/pkg/workspace"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the file edits for a release",
		Long: `Plan reads the release configuration, propagates version bumps across the
workspace dependency graph and prints the resulting candidates. With --apply
the planned edits are written to the working tree.`,
		RunE: runPlan,
	}
	cmd.Flags().String("config", "", "Release config file (default \""+config.DefaultConfigFile+"\")")
	cmd.Flags().String("dir", "", "Repository directory (default \".\")")
	cmd.Flags().String("ref", "", "Read files from this git ref instead of the working tree")
	cmd.Flags().Bool("apply", false, "Write the planned edits to the working tree")
	cmd.Flags().String("require-branch", "", "Refuse to apply unless this branch is checked out")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	opts, err := config.ResolveOptions(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(path.Join(opts.Dir, opts.ConfigFile))
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	repo, err := gitrepo.Open(opts.Dir)
	if err != nil {
		return withExitCode(exitcode.GitError, err)
	}

	log := logger.Default().WithComponent("plan")
	orch := &workspace.Orchestrator{
		Graphs: &workspace.CargoGraphProvider{
			Repo:         repo,
			Ref:          opts.Ref,
			ManifestFile: cfg.ManifestFile,
			Log:          log,
		},
		Policy:       &workspace.BumpPolicy{Level: cfg.BumpLevel},
		Repo:         repo,
		Ref:          opts.Ref,
		ManifestFile: cfg.ManifestFile,
		VersionsFile: cfg.VersionsFile,
		TitlePattern: cfg.TitlePattern,
		Log:          log,
	}
	if cfg.MergePullRequests {
		orch.Merger = &workspace.MergeAll{}
	}
	if cfg.Examples != nil {
		orch.Mirror = &workspace.MirrorConfig{
			Source:            cfg.Examples.Source,
			Dest:              cfg.Examples.Dest,
			Exceptions:        cfg.Examples.Exceptions,
			WorkspaceManifest: cfg.Examples.WorkspaceManifest,
		}
	}

	candidates := make([]*release.Candidate, 0, len(cfg.Packages))
	for _, p := range cfg.Packages {
		title := ""
		if p.Version != "" {
			title, err = release.RenderTitle(cfg.TitlePattern, release.TitleContext{
				Component: path.Base(p.Path),
				Version:   p.Version,
			})
			if err != nil {
				return withExitCode(exitcode.ConfigError, err)
			}
		}
		candidates = append(candidates, &release.Candidate{
			Path:    p.Path,
			Version: p.Version,
			Title:   title,
		})
	}

	out, err := orch.Run(candidates)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), out)

	apply, _ := cmd.Flags().GetBool("apply")
	if !apply {
		return nil
	}
	requireBranch, _ := cmd.Flags().GetString("require-branch")
	return applyCandidates(repo, opts.Ref, requireBranch, out)
}

// printPlan renders the candidate table.
func printPlan(w io.Writer, candidates []*release.Candidate) {
	rows := make([][]string, 0, len(candidates)+1)
	rows = append(rows, []string{"PATH", "VERSION", "EDITS", "TITLE"})
	for _, c := range candidates {
		version := c.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{c.Path, version, strconv.Itoa(len(c.Updates)), c.Title})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for _, row := range rows {
		line := ""
		for i, cell := range row {
			line += runewidth.FillRight(cell, widths[i]+2)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
