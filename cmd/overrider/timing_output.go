package main

import (
	"fmt"
	"io"
	"time"

	"overrider/internal/buildpipeline"
	"overrider/internal/observ"
)

// printTimings writes the driver phases followed by the pipeline stages
// that were recorded.
func printTimings(out io.Writer, report observ.Report, stages buildpipeline.Timings) {
	for _, p := range report.Phases {
		fmt.Fprintf(out, "%-8s %8.1f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(out, "  %s", p.Note)
		}
		fmt.Fprintln(out)
	}
	if stages.Has(buildpipeline.StageWrite) {
		fmt.Fprintf(out, "%-8s %8.1f ms\n", "write", toMillis(stages.Duration(buildpipeline.StageWrite)))
	}
	total := time.Duration(report.TotalMS*float64(time.Millisecond)) + stages.Duration(buildpipeline.StageWrite)
	fmt.Fprintf(out, "%-8s %8.1f ms\n", "total", toMillis(total))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
