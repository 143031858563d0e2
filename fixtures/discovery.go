package fixtures

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
)

// CompileFilter turns a file-name pattern into a regexp anchored at the start
// of the name. An empty pattern yields nil, meaning no filtering.
func CompileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid filter pattern '%s': %w", pattern, err)
	}
	return re, nil
}

// Discover returns every regular file under root with the given extension,
// in walk order. When pattern is set only files whose base name matches it
// are kept; directories in the path are never matched against the pattern.
func Discover(root, extension, pattern string) ([]string, error) {
	filter, err := CompileFilter(pattern)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		logger.Warnf("Fixture directory %s does not exist", root)
		return nil, nil
	}

	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, "**/*."+extension)
	if err != nil {
		return nil, fmt.Errorf("failed to glob fixtures in '%s': %w", root, err)
	}

	var found []string
	for _, match := range matches {
		info, err := fs.Stat(fsys, match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if filter != nil && !filter.MatchString(info.Name()) {
			continue
		}
		found = append(found, filepath.Join(root, filepath.FromSlash(match)))
	}

	logger.Debugf("Discovered %d fixtures under %s", len(found), root)
	return found, nil
}
