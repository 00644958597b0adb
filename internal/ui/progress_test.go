package ui

import (
	"strings"
	"testing"

	"kiln/internal/buildpipeline"
)

func TestApplyEventTracksProjects(t *testing.T) {
	m := NewProgressModel("kiln build", []string{"Lib", "App"}, nil).(*progressModel)

	m.applyEvent(buildpipeline.Event{Project: "Lib", Stage: buildpipeline.StageBefore, Status: buildpipeline.StatusWorking, Module: "build-info"})
	if got := m.items[0].status; got != "modules" {
		t.Fatalf("status = %q, want %q", got, "modules")
	}
	if got := m.items[0].module; got != "build-info" {
		t.Fatalf("module = %q, want %q", got, "build-info")
	}

	m.applyEvent(buildpipeline.Event{Project: "Lib", Stage: buildpipeline.StageBefore, Status: buildpipeline.StatusDone})
	if got := m.items[0].status; got != "modules" {
		t.Fatalf("stage completion should not finish the project, status = %q", got)
	}

	m.applyEvent(buildpipeline.Event{Project: "Lib", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{Project: "App", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusError})
	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); got != 1.0 {
		t.Fatalf("percent = %v, want 1", got)
	}

	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StagePlan, Status: buildpipeline.StatusWorking})
	if m.stageLabel != "planning" {
		t.Fatalf("stageLabel = %q", m.stageLabel)
	}
	if view := m.View(); !strings.Contains(view, "Lib") || !strings.Contains(view, "kiln build (planning)") {
		t.Fatalf("view missing rows:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a-very-long-project", 10, "a-very-..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
