// Package commands implements CLI command handlers for treegrep.
package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/internal/config"
	"github.com/Sumatoshi-tech/treegrep/internal/observability"
	"github.com/Sumatoshi-tech/treegrep/internal/rulefile"
	"github.com/Sumatoshi-tech/treegrep/pkg/edit"
	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/patterncache"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
	"github.com/Sumatoshi-tech/treegrep/pkg/scan"
)

// inlineRuleID labels matches produced by an ad-hoc --pattern flag.
const inlineRuleID = "inline-pattern"

// ErrNoRules is returned when neither rule files nor a pattern were given.
var ErrNoRules = errors.New("no rules: pass --rule files/directories or --pattern with --lang")

// sourceOptions are the flags shared by scan and rewrite.
type sourceOptions struct {
	configPath string
	rulePaths  []string
	pattern    string
	lang       string
	fix        string

	workers int
	color   string
	context int
}

// registerFlags binds the shared flags onto a command.
func (o *sourceOptions) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "config file path (default: .treegrep.yaml in CWD or $HOME)")
	cmd.Flags().StringArrayVarP(&o.rulePaths, "rule", "r", nil, "rule file or directory (repeatable)")
	cmd.Flags().StringVarP(&o.pattern, "pattern", "p", "", "inline pattern, e.g. 'console.log($A)'")
	cmd.Flags().StringVarP(&o.lang, "lang", "l", "", "language for --pattern")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "parse/match concurrency (default: one per CPU)")
	cmd.Flags().StringVar(&o.color, "color", "", "color output: auto, always, never")
	cmd.Flags().IntVar(&o.context, "context", 0, "source context lines per match")
}

// loadConfig reads the config file and folds command-line overrides in.
func loadConfig(o *sourceOptions) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.workers > 0 {
		cfg.Scan.Workers = o.workers
	}

	if o.color != "" {
		cfg.Output.Color = o.color
	}

	if o.context > 0 {
		cfg.Output.Context = o.context
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadRules assembles the compiled rule set from rule paths (files or
// directories) and the optional inline pattern.
func loadRules(o *sourceOptions, cfg *config.Config, cache *patterncache.Cache) ([]*rulefile.CompiledRule, error) {
	paths := make([]string, 0, len(cfg.Scan.RuleDirs)+len(o.rulePaths))
	paths = append(paths, cfg.Scan.RuleDirs...)
	paths = append(paths, o.rulePaths...)

	var docs []*rulefile.Doc

	for _, path := range paths {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, fmt.Errorf("rules: %w", statErr)
		}

		var (
			loaded  []*rulefile.Doc
			loadErr error
		)

		if info.IsDir() {
			loaded, loadErr = rulefile.LoadDir(path)
		} else {
			loaded, loadErr = rulefile.LoadFile(path)
		}

		if loadErr != nil {
			return nil, loadErr
		}

		docs = append(docs, loaded...)
	}

	rules, err := rulefile.CompileAll(docs, cache)
	if err != nil {
		return nil, err
	}

	if o.pattern != "" {
		langName := o.lang
		if langName == "" {
			langName = cfg.Scan.Language
		}

		inline, inlineErr := compileInlineRule(o.pattern, langName, o.fix, cache)
		if inlineErr != nil {
			return nil, inlineErr
		}

		rules = append(rules, inline)
	}

	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	return rules, nil
}

// compileInlineRule turns --pattern/--lang/--fix into a one-off rule.
func compileInlineRule(pattern, langName, fix string, cache *patterncache.Cache) (*rulefile.CompiledRule, error) {
	if langName == "" {
		return nil, errors.New("--pattern requires --lang (or scan.language in the config file)")
	}

	lang, ok := language.Get(langName)
	if !ok {
		return nil, fmt.Errorf("unknown language %q (supported: %v)", langName, language.Supported())
	}

	var opts []rule.CompilerOption
	if cache != nil {
		opts = append(opts, rule.WithPatternCache(cache))
	}

	compiled, err := rule.NewCompiler(lang, opts...).CompilePattern(pattern)
	if err != nil {
		return nil, err
	}

	out := &rulefile.CompiledRule{
		ID:       inlineRuleID,
		Severity: rulefile.SeverityInfo,
		Language: lang,
		Rule:     compiled,
	}

	if fix != "" {
		out.Fix = edit.NewTemplate(fix)
	}

	return out, nil
}

// buildScanner wires config, rules, and metrics into a scanner.
func buildScanner(cfg *config.Config, rules []*rulefile.CompiledRule, metrics *observability.ScanMetrics) *scan.Scanner {
	return scan.New(rules, scan.Options{
		Workers:        cfg.EffectiveWorkers(),
		MaxFileSize:    cfg.Scan.MaxFileSize,
		IncludeHidden:  cfg.Scan.IncludeHidden,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		Metrics:        metrics,
	})
}

// serveMetrics exposes the scrape endpoint while a long scan runs.
// The returned stop function shuts the listener down.
func serveMetrics(addr string, metrics *observability.ScanMetrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()

	return func() { _ = srv.Close() }
}

// defaultRoots substitutes the current directory when no paths given.
func defaultRoots(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}

	return args
}
