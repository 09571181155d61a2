package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-searchable-pdf/internal/lifecycle"
)

// UnknownArgumentError is returned for a positional argument that is neither
// a file nor a directory. Position is 1-based.
type UnknownArgumentError struct {
	Position int
	Arg      string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("unknown parameter #%d: %s", e.Position, e.Arg)
}

// CollectInputs expands args into the list of PDFs to process. Files are
// taken as given; directories contribute every *.pdf below them in lexical
// order, skipping hidden entries and files this tool produced. A path named
// twice is processed once.
func CollectInputs(args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, &UnknownArgumentError{Position: i + 1, Arg: arg}
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, &UnknownArgumentError{Position: i + 1, Arg: arg}
		}
		if !info.IsDir() {
			add(abs)
			continue
		}

		files, err := scanDirectory(abs)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

func scanDirectory(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") || lifecycle.IsArtifact(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
