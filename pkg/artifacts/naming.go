package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	cfgPrefix           = "cfg."
	dotSuffix           = ".dot"
	distanceSuffix      = ".distance.txt"
	cfgFilePattern      = cfgPrefix + "*" + dotSuffix
	distanceFilePattern = cfgPrefix + "*" + distanceSuffix
)

// SafeFunctionName makes a function name usable as a file name component.
// Slashes from source paths become ')'.
func SafeFunctionName(function string) string {
	return strings.ReplaceAll(function, "/", ")")
}

// CFGFileName returns the file name of a function's CFG dot file
func CFGFileName(function string) string {
	return cfgPrefix + SafeFunctionName(function) + dotSuffix
}

// FunctionDistanceFileName returns the file name of a function's CFG distance file
func FunctionDistanceFileName(function string) string {
	return cfgPrefix + SafeFunctionName(function) + distanceSuffix
}

// FunctionFromCFGFileName recovers the function name from a CFG dot file name
func FunctionFromCFGFileName(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, cfgPrefix) || !strings.HasSuffix(base, dotSuffix) {
		return "", false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(base, cfgPrefix), dotSuffix)
	if middle == "" {
		return "", false
	}
	return strings.ReplaceAll(middle, ")", "/"), true
}

// ListCFGFiles returns the CFG dot files in dir, sorted by name
func ListCFGFiles(dir string) ([]string, error) {
	return list(dir, cfgFilePattern)
}

// ListFunctionDistanceFiles returns the per-function distance files in dir, sorted by name
func ListFunctionDistanceFiles(dir string) ([]string, error) {
	return list(dir, distanceFilePattern)
}

func list(dir, pattern string) ([]string, error) {
	if err := RequireDir(dir); err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s in %s: %w", pattern, dir, err)
	}
	sort.Strings(matches)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return paths, nil
}
