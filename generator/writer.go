package generator

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ifabos/go-idlmap/errors"
)

// ArtifactWriter creates the output artifacts. Paths are relative and use
// forward slashes.
type ArtifactWriter interface {
	Create(path string) (io.WriteCloser, error)
}

// DirWriter writes artifacts below a root directory
type DirWriter struct {
	Root string
}

// NewDirWriter creates a writer rooted at dir
func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{Root: dir}
}

// Create creates the file for path, creating directories as needed
func (w *DirWriter) Create(path string) (io.WriteCloser, error) {
	name := filepath.Join(w.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	return f, nil
}

// MemoryWriter keeps artifacts in memory
type MemoryWriter struct {
	files map[string]*bytes.Buffer
	order []string
}

// NewMemoryWriter creates an empty in-memory writer
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{files: make(map[string]*bytes.Buffer)}
}

type memoryFile struct {
	*bytes.Buffer
}

func (memoryFile) Close() error { return nil }

// Create starts a new artifact. Creating a path twice is an error.
func (w *MemoryWriter) Create(path string) (io.WriteCloser, error) {
	if _, exists := w.files[path]; exists {
		return nil, errors.Newf("artifact %s already created", path)
	}
	buf := &bytes.Buffer{}
	w.files[path] = buf
	w.order = append(w.order, path)
	return memoryFile{buf}, nil
}

// Paths returns the created artifacts in creation order
func (w *MemoryWriter) Paths() []string {
	return append([]string(nil), w.order...)
}

// SortedPaths returns the created artifacts sorted by name
func (w *MemoryWriter) SortedPaths() []string {
	paths := w.Paths()
	sort.Strings(paths)
	return paths
}

// File returns the content of an artifact
func (w *MemoryWriter) File(path string) (string, bool) {
	buf, ok := w.files[path]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

// Len returns the number of artifacts
func (w *MemoryWriter) Len() int {
	return len(w.order)
}

// idlWriter writes lines to an artifact and keeps the first write error
type idlWriter struct {
	w   io.Writer
	err error
}

func (w *idlWriter) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *idlWriter) writef(format string, args ...interface{}) {
	w.write(fmt.Sprintf(format, args...))
}

func (w *idlWriter) line(s string) {
	w.write(s + "\n")
}

func (w *idlWriter) linef(format string, args ...interface{}) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *idlWriter) moduleOpenings(modules []string) {
	for _, m := range modules {
		w.line("module " + m + " {")
	}
	if len(modules) > 0 {
		w.line("")
	}
}

func (w *idlWriter) closeScopes(n int) {
	w.write(strings.Repeat("};\n", n))
}
