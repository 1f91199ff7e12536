package filter

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Walk lists every regular file below root in lexical order. Hidden
// directories (e.g. .git) other than root itself are skipped.
func Walk(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if d.Type().IsRegular() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

// Select walks root and keeps the files m matches.
func Select(root string, m *Matcher) ([]string, error) {
	files, err := Walk(root)
	if err != nil {
		return nil, err
	}

	return m.Filter(root, files), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
