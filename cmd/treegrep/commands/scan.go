package commands

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/internal/observability"
	"github.com/Sumatoshi-tech/treegrep/internal/render"
	"github.com/Sumatoshi-tech/treegrep/internal/rulefile"
	"github.com/Sumatoshi-tech/treegrep/pkg/patterncache"
	"github.com/Sumatoshi-tech/treegrep/pkg/scan"
)

// Output formats for scan.
const (
	formatText = "text"
	formatJSON = "json"
)

// ErrMatchesFound is returned when error-severity matches exist, so CI
// runs fail on violations.
var ErrMatchesFound = errors.New("matches with severity error found")

// NewScanCommand builds the scan subcommand.
func NewScanCommand() *cobra.Command {
	opts := &sourceOptions{}

	var (
		format      string
		metricsAddr string
		noSummary   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Search files with rules or an inline pattern",
		Long: `Scan walks the given paths (default: the current directory), parses every
file a loaded rule's language claims, and reports structural matches.

Examples:
  treegrep scan -r rules/ src/
  treegrep scan -p 'console.log($A)' -l javascript src/
  treegrep scan -r lint.yaml --format json .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts, format, metricsAddr, noSummary)
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while scanning")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "suppress the summary table")

	return cmd
}

func runScan(cmd *cobra.Command, args []string, opts *sourceOptions, format, metricsAddr string, noSummary bool) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	cache := patterncache.New(cfg.Scan.PatternCacheSize)

	rules, err := loadRules(opts, cfg, cache)
	if err != nil {
		return err
	}

	var metrics *observability.ScanMetrics

	if metricsAddr == "" && cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.Addr
	}

	if metricsAddr != "" {
		metrics = observability.NewScanMetrics()
		stop := serveMetrics(metricsAddr, metrics)

		defer stop()
	}

	scanner := buildScanner(cfg, rules, metrics)

	results, stats, err := scanner.Run(cmd.Context(), defaultRoots(args))
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		if jsonErr := writeJSON(cmd.OutOrStdout(), results); jsonErr != nil {
			return jsonErr
		}
	case formatText:
		r := render.New(cmd.OutOrStdout(), cfg.Output.Color, cfg.Output.Context)
		r.Matches(results)

		if !noSummary {
			r.Summary(stats)
		}
	default:
		return errors.New("--format must be text or json")
	}

	if hasErrorMatches(results) {
		return ErrMatchesFound
	}

	return nil
}

// jsonMatch is the stable JSON shape for one match.
type jsonMatch struct {
	Path     string `json:"path"`
	RuleID   string `json:"ruleId"`
	Severity string `json:"severity"`
	Message  string `json:"message,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	EndLine  int    `json:"endLine"`
	EndCol   int    `json:"endColumn"`
	Text     string `json:"text"`
	Fix      string `json:"fix,omitempty"`
}

func writeJSON(w io.Writer, results []scan.Result) error {
	out := make([]jsonMatch, 0)

	for _, res := range results {
		for _, m := range res.Matches {
			out = append(out, jsonMatch{
				Path:     res.Path,
				RuleID:   m.RuleID,
				Severity: m.Severity,
				Message:  m.Message,
				Line:     m.StartLine + 1,
				Column:   m.StartColumn + 1,
				EndLine:  m.EndLine + 1,
				EndCol:   m.EndColumn + 1,
				Text:     m.Text,
				Fix:      m.Fix,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func hasErrorMatches(results []scan.Result) bool {
	for _, res := range results {
		for _, m := range res.Matches {
			if m.Severity == rulefile.SeverityError {
				return true
			}
		}
	}

	return false
}
