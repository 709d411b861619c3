package design

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
)

var (
	// ErrInvalid is returned when a description could not be decoded. The
	// decoding error has been reported.
	ErrInvalid = errors.New("invalid design description")
	// ErrUnsupported is returned for files that are neither TOML nor YAML.
	ErrUnsupported = errors.New("unsupported design description format")
)

// Pattern matches every description file below a directory.
const Pattern = "**/*.{toml,yaml,yml}"

// Load reads path into fileSet and parses it.
func Load(fileSet *source.FileSet, path string, r diag.Reporter) (*Design, error) {
	id, err := fileSet.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load design %s: %w", path, err)
	}
	return Parse(fileSet, id, r)
}

// LoadReader reads a description from rd, for example stdin, and parses it
// as an in-memory file called name. The extension of name picks the format.
func LoadReader(fileSet *source.FileSet, name string, rd io.Reader, r diag.Reporter) (*Design, error) {
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read design %s: %w", name, err)
	}
	return Parse(fileSet, fileSet.AddVirtual(name, content), r)
}

// Parse decodes a file already held by fileSet. The format follows the
// file extension. Entries with missing or malformed fields are reported
// and left out of the result.
func Parse(fileSet *source.FileSet, id source.FileID, r diag.Reporter) (*Design, error) {
	f := fileSet.Get(id)
	if f == nil {
		return nil, fmt.Errorf("design: unknown file %d", id)
	}
	if r == nil {
		r = diag.NopReporter{}
	}

	var (
		raw *rawDesign
		loc locator
		err error
	)
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".toml":
		raw, loc, err = decodeTOML(f, r)
	case ".yaml", ".yml":
		raw, loc, err = decodeYAML(f, r)
	default:
		return nil, fmt.Errorf("%s: %w", f.Path, ErrUnsupported)
	}
	if err != nil {
		var perr *parseError
		if !errors.As(err, &perr) {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		diag.ReportError(r, diag.CfgParseError, perr.span, perr.msg).Emit()
		return nil, ErrInvalid
	}

	b := builder{file: f, loc: loc, r: r}
	return b.build(raw), nil
}

// Collect expands root into description paths. A file is returned as is; a
// directory is searched recursively for TOML and YAML files, sorted.
func Collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	names, err := doublestar.Glob(os.DirFS(root), Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	slices.Sort(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(root, filepath.FromSlash(name)))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no design descriptions found: %w", root, fs.ErrNotExist)
	}
	return out, nil
}
