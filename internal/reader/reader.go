package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akashicode/pdfworker/internal/logger"
)

// ErrUnsupportedFormat is returned when a file format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// File is a PDF read from disk.
type File struct {
	// Path is the source file path
	Path string
	// Name is the base filename
	Name string
	// Data is the raw document
	Data []byte
}

// LoadDirectory reads every PDF in a directory, sorted by name.
func LoadDirectory(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	log := logger.WithComponent("reader")
	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isPDF(path) {
			log.Debug().Str("path", path).Msg("skipping non-PDF file")
			continue
		}
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// LoadFile reads a single PDF from the given path.
func LoadFile(path string) (File, error) {
	if !isPDF(path) {
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read file %q: %w", path, err)
	}
	return File{
		Path: path,
		Name: filepath.Base(path),
		Data: data,
	}, nil
}

// Load reads a file, or every PDF of a directory.
func Load(path string) ([]File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return LoadDirectory(path)
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []File{f}, nil
}

func isPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}
