package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/internal/render"
	"github.com/Sumatoshi-tech/treegrep/pkg/patterncache"
	"github.com/Sumatoshi-tech/treegrep/pkg/scan"
)

// NewRewriteCommand builds the rewrite subcommand.
func NewRewriteCommand() *cobra.Command {
	opts := &sourceOptions{}

	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rewrite [paths...]",
		Short: "Apply rule fixes to files",
		Long: `Rewrite scans like scan does, then applies the fixes the matched rules
carry. Overlapping fixes are resolved by position: the earliest match
wins and anything inside an already rewritten span is skipped.

Examples:
  treegrep rewrite -r rules/ --dry-run src/
  treegrep rewrite -p 'console.log($A)' -l javascript --fix 'logger.info($A)' src/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, args, opts, dryRun)
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().StringVar(&opts.fix, "fix", "", "replacement template for --pattern")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show diffs without writing files")

	return cmd
}

func runRewrite(cmd *cobra.Command, args []string, opts *sourceOptions, dryRun bool) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	cache := patterncache.New(cfg.Scan.PatternCacheSize)

	rules, err := loadRules(opts, cfg, cache)
	if err != nil {
		return err
	}

	scanner := buildScanner(cfg, rules, nil)

	results, _, err := scanner.Run(cmd.Context(), defaultRoots(args))
	if err != nil {
		return err
	}

	r := render.New(cmd.OutOrStdout(), cfg.Output.Color, cfg.Output.Context)

	filesChanged := 0
	fixesApplied := 0

	for _, res := range results {
		if res.Err != nil || len(res.Matches) == 0 {
			continue
		}

		rewritten, applied, applyErr := scan.ApplyFixes(res.Source, res.Matches)
		if applyErr != nil {
			return fmt.Errorf("rewrite %s: %w", res.Path, applyErr)
		}

		if applied == 0 {
			continue
		}

		filesChanged++
		fixesApplied += applied

		if dryRun {
			r.Diff(res.Path, res.Source, rewritten)

			continue
		}

		if writeErr := writeInPlace(res.Path, rewritten); writeErr != nil {
			return fmt.Errorf("rewrite %s: %w", res.Path, writeErr)
		}
	}

	verb := "applied"
	if dryRun {
		verb = "would apply"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d fixes in %d files\n", verb, fixesApplied, filesChanged)

	return nil
}

// writeInPlace replaces a file's content, keeping its permission bits.
func writeInPlace(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	return os.WriteFile(path, content, info.Mode().Perm())
}
