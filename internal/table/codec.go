package table

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is a persisted table encoding.
type Format uint8

const (
	FormatMsgpack Format = iota + 1
	FormatJSON
	FormatTOML
	FormatYAML
	FormatEnv
)

func (f Format) String() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatEnv:
		return "env"
	}
	return "unknown"
}

// ErrUnknownFormat is returned for unsupported table file extensions.
var ErrUnknownFormat = errors.New("unknown table format")

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp", ".msgpack":
		return FormatMsgpack, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".env":
		return FormatEnv, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// ParseFormat maps a format name to Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "env":
		return FormatEnv, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Encode writes t to w in format f.
func Encode(w io.Writer, t *Table, f Format) error {
	switch f {
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(t)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(t)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	case FormatEnv:
		return encodeEnv(w, t)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, f)
}

// Decode reads a table in format f from r.
func Decode(r io.Reader, f Format) (*Table, error) {
	t := &Table{}
	var err error
	switch f {
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(t)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(t)
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(t)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(t)
	case FormatEnv:
		err = decodeEnv(r, t)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s table: %w", f, err)
	}
	if t.Schema != 0 && t.Schema != SchemaVersion {
		return nil, fmt.Errorf("table schema %d is not supported (want %d)", t.Schema, SchemaVersion)
	}
	t.ensure()
	return t, nil
}

// WriteFile encodes t by the extension of path and replaces the file atomically.
func WriteFile(path string, t *Table) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".table-*")
	if err != nil {
		return err
	}
	defer func() {
		// после успешного Rename файла уже нет
		_ = os.Remove(tmp.Name())
	}()
	if err := Encode(tmp, t, f); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp.Name(), path)
}

// ReadFile decodes the table at path using its extension.
func ReadFile(path string) (*Table, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is provided by the caller
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(bufio.NewReader(fh), f)
}

const (
	envRunID = "# run_id: "
	envInput = "# input: "
)

func encodeEnv(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# overrider predicate table")
	if t.RunID != "" {
		fmt.Fprintf(bw, "%s%s\n", envRunID, t.RunID)
	}
	for _, in := range t.Inputs {
		fmt.Fprintf(bw, "%s%s %s\n", envInput, in.Digest, in.Path)
	}
	for _, e := range t.Entries() {
		fmt.Fprintf(bw, "%s=%s\n", e.Key, quoteEnv(e.Value))
	}
	return bw.Flush()
}

func quoteEnv(v string) string {
	if strings.ContainsAny(v, " \t'\"") {
		return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
	}
	return v
}

func unquoteEnv(v string) string {
	if len(v) >= 2 {
		switch {
		case v[0] == '\'' && v[len(v)-1] == '\'':
			return strings.ReplaceAll(v[1:len(v)-1], `'\''`, "'")
		case v[0] == '"' && v[len(v)-1] == '"':
			if s, err := strconv.Unquote(v); err == nil {
				return s
			}
		}
	}
	return v
}

func decodeEnv(r io.Reader, t *Table) error {
	t.ensure()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, envRunID):
			t.RunID = strings.TrimSpace(strings.TrimPrefix(line, envRunID))
			continue
		case strings.HasPrefix(line, envInput):
			digest, path, ok := strings.Cut(strings.TrimPrefix(line, envInput), " ")
			if !ok {
				return fmt.Errorf("line %d: malformed input record", lineNo)
			}
			t.AddInput(path, digest)
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("line %d: expected KEY=VALUE", lineNo)
		}
		key = strings.TrimSpace(key)
		value = unquoteEnv(strings.TrimSpace(value))
		switch {
		case strings.HasPrefix(key, "__override_final_"):
			p, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return fmt.Errorf("line %d: invalid priority %q: %w", lineNo, value, err)
			}
			t.Finals[key] = uint32(p)
		case strings.HasPrefix(key, "__override_acceptflags_"):
			if value != "" {
				t.AcceptFlags[key] = value
			}
		case strings.HasPrefix(key, "__override_priority_"):
			if value != "" && value != "0" {
				t.Excluded[key] = true
			}
		default:
			return fmt.Errorf("line %d: unknown key %q", lineNo, key)
		}
	}
	return sc.Err()
}
