package diagfmt

import (
	"fmt"
	"io"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// Short печатает по строке на диагностику, в формате, который понимают
// редакторы: path:line:col: SEV CODE: msg.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	for _, d := range bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		if loc, ok := locate(fs, d.Primary, mode); ok {
			fmt.Fprintf(w, "%s: %s %s: %s\n", loc, d.Severity, d.Code.ID(), d.Message)
			continue
		}
		fmt.Fprintf(w, "overrider: %s %s: %s\n", d.Severity, d.Code.ID(), d.Message)
	}
}
