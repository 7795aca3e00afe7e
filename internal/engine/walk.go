package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/riskgate/riskgate/internal/types"
)

var defaultExcludeDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"dist":          true,
	"build":         true,
	".next":         true,
	"venv":          true,
	".venv":         true,
	"__pycache__":   true,
	".pytest_cache": true,
	".mypy_cache":   true,
	"coverage":      true,
	".idea":         true,
	".vscode":       true,
}

// scannableExtensions is the source and config surface worth pattern
// matching. Everything else is skipped rather than sniffed.
var scannableExtensions = map[string]bool{
	".py":   true,
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".mjs":  true,
	".cjs":  true,
	".java": true,
	".go":   true,
	".rb":   true,
	".php":  true,
	".cs":   true,
	".html": true,
	".htm":  true,
	".xml":  true,
	".yaml": true,
	".yml":  true,
	".json": true,
	".env":  true,
	".ini":  true,
	".cfg":  true,
	".sh":   true,
	".ps1":  true,
}

// eligible reports whether a file name belongs to the scan surface. Any
// .env variant is eligible regardless of suffix since those are the most
// common secret locations.
func eligible(name string) bool {
	if strings.HasPrefix(name, ".env") {
		return true
	}
	return scannableExtensions[strings.ToLower(filepath.Ext(name))]
}

// looksBinary sniffs a prefix for NUL bytes.
func looksBinary(b []byte) bool {
	const sniff = 800
	n := len(b)
	if n > sniff {
		n = sniff
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

func allowedByGlobs(rel string, includes, excludes []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range excludes {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	if len(includes) == 0 {
		return true
	}
	for _, pat := range includes {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// walk traverses the target tree and invokes handle for each eligible file's
// content. Oversized and binary files are recorded as skips, not silently
// dropped.
func walk(cfg Config, handle func(rel string, data []byte)) (scanned int, skipped []types.SkippedFile, err error) {
	err = filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && defaultExcludeDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !eligible(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(cfg.Root, p)
		if relErr != nil {
			return nil
		}
		if !allowedByGlobs(rel, cfg.IncludeGlobs, cfg.ExcludeGlobs) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
			skipped = append(skipped, types.SkippedFile{
				Path:   filepath.ToSlash(rel),
				Reason: "exceeds size limit",
			})
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			skipped = append(skipped, types.SkippedFile{
				Path:   filepath.ToSlash(rel),
				Reason: "unreadable",
			})
			return nil
		}
		if looksBinary(data) {
			skipped = append(skipped, types.SkippedFile{
				Path:   filepath.ToSlash(rel),
				Reason: "binary content",
			})
			return nil
		}
		scanned++
		handle(filepath.ToSlash(rel), data)
		return nil
	})
	return scanned, skipped, err
}
