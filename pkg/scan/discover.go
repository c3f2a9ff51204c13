package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
)

// alwaysSkippedDirs are never descended into, hidden handling aside.
var alwaysSkippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// discover walks the roots and collects candidate files: those whose
// extension some registered language claims and that pass the size and
// hidden-file filters. The skipped count covers rejected candidates,
// not directories.
func (s *Scanner) discover(roots []string) (files []string, skipped int, err error) {
	seen := make(map[string]bool)

	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, entryErr error) error {
			if entryErr != nil {
				return entryErr
			}

			if d.IsDir() {
				if s.skipDir(path, root, d.Name()) {
					return filepath.SkipDir
				}

				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 && !s.opts.FollowSymlinks {
				return nil
			}

			keep, reject := s.keepFile(path, d)
			if reject {
				skipped++
			}

			if keep && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}

			return nil
		})
		if walkErr != nil {
			return nil, 0, fmt.Errorf("scan: walk %s: %w", root, walkErr)
		}
	}

	return files, skipped, nil
}

func (s *Scanner) skipDir(path, root, name string) bool {
	if path == root {
		return false
	}

	if alwaysSkippedDirs[name] {
		return true
	}

	return isHidden(name) && !s.opts.IncludeHidden
}

// keepFile decides whether a file enters the scan queue. reject marks
// files that looked scannable but were filtered out.
func (s *Scanner) keepFile(path string, d fs.DirEntry) (keep, reject bool) {
	if isHidden(d.Name()) && !s.opts.IncludeHidden {
		return false, false
	}

	ext := filepath.Ext(path)
	if ext == "" {
		return false, false
	}

	lang, claimed := language.ByExtension(ext)
	if !claimed {
		return false, false
	}

	// Only queue files some loaded rule can match.
	if len(s.rules[lang.Name()]) == 0 {
		return false, false
	}

	if s.opts.MaxFileSize > 0 {
		info, statErr := d.Info()
		if statErr != nil || info.Size() > s.opts.MaxFileSize {
			return false, true
		}
	}

	return true, false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
