package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"kiln/internal/buildpipeline"
	"kiln/internal/ui"
)

// runWithUI runs build in the background, feeding its progress into the
// Bubble Tea model until it returns.
func runWithUI(title string, projects []string, build func(sink buildpipeline.ProgressSink) error) error {
	events := make(chan buildpipeline.Event, 256)
	outcome := make(chan error, 1)

	go func() {
		err := build(buildpipeline.ChannelSink{Ch: events})
		outcome <- err
		close(events)
	}()

	model := ui.NewProgressModel(title, projects, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the UI may quit before the build ends
	go func() {
		for range events {
		}
	}()
	err := <-outcome
	if uiErr != nil {
		return uiErr
	}
	return err
}
