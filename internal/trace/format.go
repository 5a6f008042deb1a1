package trace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick by output path
	FormatText                 // human-readable, via charmbracelet/log
	FormatNDJSON               // newline-delimited JSON
)

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	ElapsedN int64             `json:"elapsed_ns,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// FormatEvent renders one event as a line. FormatText here is a plain
// rendering used for dumps; StreamTracer renders text through its logger.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		data, err := json.Marshal(jsonEvent{
			Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
			Seq:      ev.Seq,
			Kind:     ev.Kind.String(),
			Scope:    ev.Scope.String(),
			SpanID:   ev.SpanID,
			ParentID: ev.ParentID,
			Name:     ev.Name,
			Detail:   ev.Detail,
			ElapsedN: ev.Elapsed.Nanoseconds(),
			Extra:    ev.Extra,
		})
		if err != nil {
			return nil
		}
		return append(data, '\n')
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%6d %s %s", ev.Seq, arrow(ev.Kind), ev.Name)
	kv := keyvals(ev)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", kv[i], kv[i+1])
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

func arrow(k Kind) string {
	switch k {
	case KindSpanBegin:
		return "\u2192" // →
	case KindSpanEnd:
		return "\u2190" // ←
	case KindFailure:
		return "\u2717" // ✗
	}
	return "\u2022" // •
}

// keyvals flattens the optional parts of ev into logger key/value pairs,
// extra keys sorted so output is stable.
func keyvals(ev *Event) []any {
	var kv []any
	if ev.Detail != "" {
		kv = append(kv, "detail", ev.Detail)
	}
	if ev.Kind == KindSpanEnd {
		kv = append(kv, "elapsed", ev.Elapsed)
	}
	keys := make([]string, 0, len(ev.Extra))
	for k := range ev.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, ev.Extra[k])
	}
	return kv
}
