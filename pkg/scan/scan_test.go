package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/internal/rulefile"
)

const consoleRule = `
id: no-console-log
language: javascript
severity: warning
message: use the logger
rule:
  pattern: console.log($MSG)
fix: logger.info($MSG)
`

func compileRules(t *testing.T, src string) []*rulefile.CompiledRule {
	t.Helper()

	docs, err := rulefile.Load(strings.NewReader(src), "test.yaml")
	require.NoError(t, err)

	rules, err := rulefile.CompileAll(docs, nil)
	require.NoError(t, err)

	return rules
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

type stubMetrics struct {
	mu      sync.Mutex
	files   int
	skips   int
	matches int
	errors  int
}

func (m *stubMetrics) RecordFile(string, time.Duration, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files++
}

func (m *stubMetrics) RecordSkip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skips++
}

func (m *stubMetrics) RecordMatches(_ string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches += count
}

func (m *stubMetrics) RecordError(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

func TestScanDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.js", "console.log(1)\n")
	writeFile(t, dir, "sub/b.js", "console.log(2); console.log(3)\n")
	writeFile(t, dir, "readme.md", "console.log(4)\n")

	metrics := &stubMetrics{}
	s := New(compileRules(t, consoleRule), Options{Workers: 2, Metrics: metrics})

	results, stats, err := s.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesScanned)
	assert.Equal(t, 3, stats.Matches)
	assert.Equal(t, 0, stats.Errors)
	assert.Positive(t, stats.Bytes)

	// Results come back in discovery order: a.js sorts before sub/b.js.
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "a.js"), results[0].Path)
	assert.Equal(t, filepath.Join(dir, "sub", "b.js"), results[1].Path)

	require.Len(t, results[0].Matches, 1)

	m := results[0].Matches[0]
	assert.Equal(t, "no-console-log", m.RuleID)
	assert.Equal(t, "console.log(1)", m.Text)
	assert.Equal(t, 0, m.StartLine)
	assert.True(t, m.HasFix)
	assert.Equal(t, "logger.info(1)", m.Fix)

	assert.Equal(t, 2, metrics.files)
	assert.Equal(t, 3, metrics.matches)
}

func TestScanSkipsHiddenByDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".hidden.js", "console.log(1)\n")
	writeFile(t, dir, ".config/deep.js", "console.log(2)\n")
	writeFile(t, dir, "seen.js", "console.log(3)\n")

	s := New(compileRules(t, consoleRule), Options{})

	results, stats, err := s.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, stats.Matches)

	hidden := New(compileRules(t, consoleRule), Options{IncludeHidden: true})

	results, stats, err = hidden.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 3, stats.Matches)
}

func TestScanMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "big.js", "console.log("+strings.Repeat("1", 100)+")\n")
	writeFile(t, dir, "small.js", "console.log(1)\n")

	s := New(compileRules(t, consoleRule), Options{MaxFileSize: 64})

	results, stats, err := s.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "small.js"), results[0].Path)
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestScanCancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.js", "console.log(1)\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(compileRules(t, consoleRule), Options{})

	_, _, err := s.Run(ctx, []string{dir})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanIgnoresOtherLanguages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "console.log(1)\n")

	s := New(compileRules(t, consoleRule), Options{})

	results, _, err := s.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestApplyFixes(t *testing.T) {
	t.Parallel()

	source := []byte("console.log(1); keep(); console.log(2)")

	matches := []Match{
		{Start: 24, End: 38, Fix: "logger.info(2)", HasFix: true},
		{Start: 0, End: 14, Fix: "logger.info(1)", HasFix: true},
	}

	out, applied, err := ApplyFixes(source, matches)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Equal(t, "logger.info(1); keep(); logger.info(2)", string(out))
}

func TestApplyFixesSkipsOverlapping(t *testing.T) {
	t.Parallel()

	source := []byte("abcdef")

	matches := []Match{
		{Start: 0, End: 4, Fix: "X", HasFix: true},
		{Start: 2, End: 6, Fix: "Y", HasFix: true},
	}

	out, applied, err := ApplyFixes(source, matches)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, "Xef", string(out))
}

func TestApplyFixesSkipsMatchesWithoutFix(t *testing.T) {
	t.Parallel()

	source := []byte("abc")

	out, applied, err := ApplyFixes(source, []Match{{Start: 0, End: 3}})
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Equal(t, "abc", string(out))
}
