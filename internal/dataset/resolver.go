// Package dataset resolves an input path argument into an ordered dataset of
// source files.
package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
)

// sourceExt is the extension source files must carry. The input schema is
// fixed; anything else in a directory is ignored.
const sourceExt = ".csv"

// Resolve normalizes a path argument into a dataset. A single file becomes a
// one-element dataset; a directory contributes every matching source file,
// sorted lexically. Resolve has no side effects.
func Resolve(path string) (types.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Dataset{}, errors.Newf(errors.ErrCodeInvalidInput, "input path %q does not exist", path).
			WithComponent("dataset").WithCause(err)
	}

	if !info.IsDir() {
		if !matches(path) {
			return types.Dataset{}, errors.Newf(errors.ErrCodeInvalidInput, "input file %q is not a %s file", path, sourceExt).
				WithComponent("dataset")
		}
		return types.Dataset{Source: path, Files: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return types.Dataset{}, errors.Newf(errors.ErrCodeInvalidInput, "cannot read input directory %q", path).
			WithComponent("dataset").WithCause(err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !matches(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	if len(files) == 0 {
		return types.Dataset{}, errors.Newf(errors.ErrCodeInvalidInput, "input directory %q contains no %s files", path, sourceExt).
			WithComponent("dataset")
	}
	sort.Strings(files)

	return types.Dataset{Source: path, Files: files}, nil
}

func matches(name string) bool {
	return strings.EqualFold(filepath.Ext(name), sourceExt)
}
