package driver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"overrider/internal/diag"
	"overrider/internal/fix"
	"overrider/internal/source"
	"overrider/internal/table"
)

// Written describes one generated file.
type Written struct {
	Template string
	Path     string
	// Unchanged is set when the file already had the generated content and
	// was left untouched.
	Unchanged bool
}

// Write stores every generated file. Templates rejected with errors have no
// output and are skipped. An empty outDir writes next to the
// template; otherwise the template's path relative to the base directory is
// recreated under outDir. Files whose content did not change are not
// touched, so watchers do not see spurious events.
func (r *Result) Write(outDir string) ([]Written, error) {
	written := make([]Written, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		if out == nil || out.Src == nil {
			continue
		}
		dest := r.destination(out.OutPath, outDir)
		unchanged, err := writeIfChanged(dest, out.Src)
		if err != nil {
			r.Bag.Add(diag.NewError(diag.IOWriteFileError, source.NoSpan, fmt.Sprintf("cannot write %s: %v", dest, err)))
			return written, fmt.Errorf("write %s: %w", dest, err)
		}
		written = append(written, Written{Template: out.Path, Path: dest, Unchanged: unchanged})
	}
	return written, nil
}

func (r *Result) destination(outPath, outDir string) string {
	if outDir == "" {
		return outPath
	}
	rel, err := source.RelativePath(outPath, r.Files.BaseDir())
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		rel = filepath.Base(outPath)
	}
	return filepath.Join(outDir, filepath.FromSlash(rel))
}

func writeIfChanged(path string, src []byte) (bool, error) {
	// #nosec G304 -- path is derived from the template path
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, src) {
		return true, nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(dir, ".overrider-*")
	if err != nil {
		return false, err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(src); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	// go/build читает сгенерированные файлы как обычные исходники
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // generated Go source is world readable
		return false, err
	}
	return false, os.Rename(tmp.Name(), path)
}

// WriteTable persists the scanned table. The format follows the extension.
func (r *Result) WriteTable(path string) error {
	if r.Table == nil {
		return errors.New("no scanned table to write")
	}
	if err := table.WriteFile(path, r.Table); err != nil {
		r.Bag.Add(diag.NewError(diag.IOTableError, source.NoSpan, fmt.Sprintf("cannot write table %s: %v", path, err)))
		return err
	}
	return nil
}

// ApplyFixes rewrites the templates on disk with the preferred fix of every
// diagnostic that carries one, e.g. raising a priority a final asks for.
func (r *Result) ApplyFixes() (*fix.ApplyResult, error) {
	return fix.Apply(r.Files, r.Bag.Items())
}
