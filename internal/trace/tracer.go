package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Tracer consumes events. Emit is called from the scanner's parse workers
// concurrently.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

type Config struct {
	Level  Level
	Format Format
	// Output wins over OutputPath. With neither set events go to stderr.
	Output     io.Writer
	OutputPath string
}

// New returns Nop for LevelOff and a stream tracer otherwise. FormatAuto
// picks NDJSON for .ndjson and .jsonl files and text for everything else.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Format == FormatAuto {
		switch filepath.Ext(cfg.OutputPath) {
		case ".ndjson", ".jsonl":
			cfg.Format = FormatNDJSON
		default:
			cfg.Format = FormatText
		}
	}
	w := cfg.Output
	if w == nil && cfg.OutputPath != "" && cfg.OutputPath != "-" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("trace output: %w", err)
		}
		w = f
	}
	if w == nil {
		w = os.Stderr
	}
	return NewStreamTracer(w, cfg.Level, cfg.Format), nil
}
