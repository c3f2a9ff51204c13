// Package scan runs compiled rules over file trees: discovery, a
// worker-pool fan-out, and per-file results in stable input order.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/treegrep/internal/rulefile"
	"github.com/Sumatoshi-tech/treegrep/pkg/edit"
	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/search"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Metrics receives scan instrumentation. The observability package
// provides the Prometheus implementation; a nil-safe no-op works too.
type Metrics interface {
	RecordFile(lang string, parse, total time.Duration)
	RecordSkip()
	RecordMatches(ruleID string, count int)
	RecordError(lang string)
}

// Options configures a scanner.
type Options struct {
	// Workers is the parse/match concurrency. Zero means one per CPU.
	Workers int

	// MaxFileSize skips files larger than this many bytes. Zero means
	// no limit.
	MaxFileSize int64

	// IncludeHidden scans dot-files and dot-directories too.
	IncludeHidden bool

	// FollowSymlinks resolves symbolic links during discovery.
	FollowSymlinks bool

	// Metrics receives instrumentation; nil disables it.
	Metrics Metrics

	// Logger receives per-file debug logging; nil uses slog.Default.
	Logger *slog.Logger
}

// Match is one rule hit inside a file, resolved to plain positions so
// it outlives the parse tree.
type Match struct {
	RuleID   string
	Severity string
	Message  string

	// Byte offsets into the file content.
	Start int
	End   int

	// Zero-based line/column positions.
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int

	// Text is the matched source span.
	Text string

	// Fix is the rendered replacement when the rule has one.
	Fix    string
	HasFix bool
}

// Result is the outcome of scanning one file.
type Result struct {
	Path     string
	Language string
	Source   []byte
	Matches  []Match
	Err      error
}

// Stats aggregates one scan run.
type Stats struct {
	FilesScanned int
	FilesSkipped int
	Matches      int
	Errors       int
	Bytes        int64
	Duration     time.Duration
}

// Scanner matches a fixed rule set against files.
type Scanner struct {
	rules   map[string][]*rulefile.CompiledRule
	opts    Options
	metrics Metrics
	log     *slog.Logger
}

// New builds a scanner over compiled rules, indexed by language.
func New(rules []*rulefile.CompiledRule, opts Options) *Scanner {
	byLang := make(map[string][]*rulefile.CompiledRule)
	for _, r := range rules {
		byLang[r.Language.Name()] = append(byLang[r.Language.Name()], r)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		rules:   byLang,
		opts:    opts,
		metrics: opts.Metrics,
		log:     logger,
	}
}

// Run discovers files under the given roots and scans them. Results
// come back in discovery order regardless of worker scheduling.
func (s *Scanner) Run(ctx context.Context, roots []string) ([]Result, Stats, error) {
	started := time.Now()

	files, skipped, err := s.discover(roots)
	if err != nil {
		return nil, Stats{}, err
	}

	results := s.scanFiles(ctx, files)

	stats := Stats{FilesSkipped: skipped}

	for _, res := range results {
		if res.Err != nil {
			stats.Errors++

			continue
		}

		stats.FilesScanned++
		stats.Bytes += int64(len(res.Source))
		stats.Matches += len(res.Matches)
	}

	stats.Duration = time.Since(started)

	return results, stats, ctx.Err()
}

// scanFiles fans files out to a worker pool. Each worker writes into
// its own slot, so the result slice keeps discovery order.
func (s *Scanner) scanFiles(ctx context.Context, files []string) []Result {
	workers := s.opts.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}

	if workers > len(files) {
		workers = len(files)
	}

	results := make([]Result, len(files))
	for idx, path := range files {
		results[idx] = Result{Path: path}
	}

	jobs := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range jobs {
				results[idx] = s.scanFile(ctx, files[idx])
			}
		}()
	}

feed:
	for idx := range files {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	return results
}

// scanFile reads, parses, and matches one file.
func (s *Scanner) scanFile(ctx context.Context, path string) Result {
	started := time.Now()
	res := Result{Path: path}

	content, readErr := os.ReadFile(path)
	if readErr != nil {
		s.metricError("")

		res.Err = fmt.Errorf("scan: %w", readErr)

		return res
	}

	lang, detected := language.Detect(path, content)
	if !detected {
		s.metricSkip()
		s.log.Debug("no language claimed file", "path", path)

		return res
	}

	res.Language = lang.Name()
	res.Source = content

	rules := s.rules[lang.Name()]
	if len(rules) == 0 {
		s.metricSkip()

		return res
	}

	parseStart := time.Now()

	t, parseErr := tree.Parse(ctx, lang, path, content)
	if parseErr != nil {
		s.metricError(lang.Name())

		res.Err = fmt.Errorf("scan: parse %s: %w", path, parseErr)

		return res
	}

	parseDur := time.Since(parseStart)

	for _, r := range rules {
		hits := s.runRule(t, r)
		s.metricMatches(r.ID, len(hits))
		res.Matches = append(res.Matches, hits...)
	}

	s.metricFile(lang.Name(), parseDur, time.Since(started))

	return res
}

// runRule collects one rule's matches over a parsed tree.
func (s *Scanner) runRule(t *tree.Tree, r *rulefile.CompiledRule) []Match {
	var out []Match

	for m := range search.All(t, r.Rule) {
		n := m.Node()
		start, end := m.Range()

		hit := Match{
			RuleID:      r.ID,
			Severity:    r.Severity,
			Message:     r.Message,
			Start:       start,
			End:         end,
			StartLine:   int(n.StartPoint().Row),
			StartColumn: int(n.StartPoint().Column),
			EndLine:     int(n.EndPoint().Row),
			EndColumn:   int(n.EndPoint().Column),
			Text:        m.Text(),
		}

		if r.HasFix() {
			env, transformErr := edit.ApplyTransforms(m.Env(), r.Transforms)
			if transformErr != nil {
				s.log.Warn("transform failed", "rule", r.ID, "err", transformErr)
			} else {
				hit.Fix = r.Fix.Render(env)
				hit.HasFix = true
			}
		}

		out = append(out, hit)
	}

	return out
}

// ApplyFixes commits the fixes of non-overlapping matches to the file
// content. Matches are taken in position order; a match overlapping an
// already accepted one is dropped, which also drops matches nested
// inside an outer rewrite. Returns the new content and how many fixes
// were applied.
func ApplyFixes(source []byte, matches []Match) ([]byte, int, error) {
	ordered := make([]Match, len(matches))
	copy(ordered, matches)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}

		return ordered[i].End > ordered[j].End
	})

	edits := make([]edit.Edit, 0, len(ordered))
	lastEnd := -1

	for _, m := range ordered {
		if !m.HasFix || m.Start < lastEnd {
			continue
		}

		edits = append(edits, edit.Edit{Start: m.Start, End: m.End, Text: m.Fix})
		lastEnd = m.End
	}

	out, err := edit.Commit(source, edits)
	if err != nil {
		return nil, 0, err
	}

	return out, len(edits), nil
}

func (s *Scanner) metricFile(lang string, parse, total time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordFile(lang, parse, total)
	}
}

func (s *Scanner) metricSkip() {
	if s.metrics != nil {
		s.metrics.RecordSkip()
	}
}

func (s *Scanner) metricMatches(ruleID string, count int) {
	if s.metrics != nil {
		s.metrics.RecordMatches(ruleID, count)
	}
}

func (s *Scanner) metricError(lang string) {
	if s.metrics != nil {
		s.metrics.RecordError(lang)
	}
}
