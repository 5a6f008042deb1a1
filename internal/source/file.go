package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"fortio.org/safecast"
)

// FileID identifies one loaded template inside a FileSet.
type FileID uint32

// FileFlags records how a file's bytes differ from what is on disk.
type FileFlags uint8

const (
	// FileVirtual: the content never came from disk and cannot be rewritten.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// Path display styles understood by File.FormatPath.
const (
	PathAbsolute = "absolute"
	PathRelative = "relative"
	PathBasename = "basename"
	PathAuto     = "auto"
)

// File is one template as the scanner and the rewriter saw it.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Flags   FileFlags

	digest string
	// nl[i]: смещение i-го перевода строки
	nl []uint32
}

func newFile(id FileID, path string, content []byte, flags FileFlags) File {
	sum := sha256.Sum256(content)
	return File{
		ID:      id,
		Path:    path,
		Content: content,
		Flags:   flags,
		digest:  hex.EncodeToString(sum[:]),
		nl:      newlines(content),
	}
}

// Digest is the hex sha256 of Content. Tables record it to detect templates
// edited after the scan.
func (f *File) Digest() string { return f.digest }

func (f *File) size() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file %s too large: %w", f.Path, err))
	}
	return n
}

// Lines returns the number of lines; a trailing newline does not open a new one.
func (f *File) Lines() uint32 {
	n := uint32(len(f.nl)) // #nosec G115 -- bounded by size()
	if len(f.Content) > 0 && (len(f.nl) == 0 || f.nl[len(f.nl)-1] != f.size()-1) {
		n++
	}
	return n
}

// LineStart is the offset of the first byte of line n (1-based). Lines past
// the end start at the end of the file.
func (f *File) LineStart(n uint32) uint32 {
	switch {
	case n <= 1:
		return 0
	case int(n-2) < len(f.nl):
		return f.nl[n-2] + 1
	}
	return f.size()
}

// LineEnd is the offset just past line n including its newline.
func (f *File) LineEnd(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	if int(n-1) < len(f.nl) {
		return f.nl[n-1] + 1
	}
	return f.size()
}

// Line returns the text of line n without its newline, or "" when the file
// has no such line.
func (f *File) Line(n uint32) string {
	if n == 0 {
		return ""
	}
	start := f.LineStart(n)
	if start >= f.size() {
		return ""
	}
	end := f.LineEnd(n)
	if int(n-1) < len(f.nl) {
		end--
	}
	return string(f.Content[start:end])
}

func (f *File) position(off uint32) LineCol {
	// сколько переводов строки строго до off
	line := sort.Search(len(f.nl), func(i int) bool { return f.nl[i] >= off })
	ln, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return LineCol{Line: ln, Col: off - f.LineStart(ln) + 1}
}

// FormatPath renders the path in one of the Path* styles. Relative paths are
// taken against baseDir, or the working directory when it is empty.
func (f *File) FormatPath(style, baseDir string) string {
	switch style {
	case PathAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathRelative:
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case PathBasename:
		return filepath.Base(f.Path)
	case PathAuto:
		// длинные абсолютные пути сокращаем до имени файла
		if filepath.IsAbs(f.Path) && len(f.Path) >= 40 {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}

func newlines(content []byte) []uint32 {
	var out []uint32
	for i, b := range content {
		if b != '\n' {
			continue
		}
		off, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		out = append(out, off)
	}
	return out
}
