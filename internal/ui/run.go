package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"overrider/internal/buildpipeline"
)

// Run renders a progress view on out while work executes and returns
// work's error. The view may quit early on Ctrl-C; remaining events are
// drained so work never blocks on the sink.
func Run(title string, files []string, out io.Writer, work func(buildpipeline.ProgressSink) error) error {
	events := make(chan buildpipeline.Event, 64)
	var workErr error
	go func() {
		defer close(events)
		workErr = work(buildpipeline.ChannelSink{Ch: events})
	}()

	p := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := p.Run()
	for range events {
	}
	if workErr != nil {
		return workErr
	}
	return uiErr
}
