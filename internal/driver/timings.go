package driver

import (
	"encoding/json"
	"fmt"

	"overrider/internal/diag"
	"overrider/internal/observ"
	"overrider/internal/source"
)

// timingsNote is the JSON carried in the only note of an OBS6001 diagnostic.
type timingsNote struct {
	Root string `json:"root,omitempty"`
	observ.Report
}

// reportTimings appends rep as an info diagnostic past the bag limit.
func reportTimings(bag *diag.Bag, root string, rep observ.Report) {
	if bag == nil {
		return
	}
	data, err := json.Marshal(timingsNote{Root: root, Report: rep})
	if err != nil {
		return
	}
	msg := fmt.Sprintf("timings: total %.2f ms", rep.TotalMS)
	if root != "" {
		msg += " in " + root
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, msg).WithNote(source.NoSpan, string(data))
	extra := diag.NewBag(0)
	extra.Add(d)
	bag.Merge(extra)
}

// TimingsOf decodes the report carried by a timings diagnostic.
func TimingsOf(d diag.Diagnostic) (observ.Report, bool) {
	if d.Code != diag.ObsTimings || len(d.Notes) != 1 {
		return observ.Report{}, false
	}
	var n timingsNote
	if json.Unmarshal([]byte(d.Notes[0].Msg), &n) != nil {
		return observ.Report{}, false
	}
	return n.Report, true
}
