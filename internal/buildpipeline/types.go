package buildpipeline

import (
	"errors"
	"fmt"
	"time"

	"kiln/internal/compilation"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StagePlan orders workspace projects.
	StagePlan Stage = "plan"
	// StageBefore runs before-compile hooks.
	StageBefore Stage = "before"
	// StageResources forces resource generation.
	StageResources Stage = "resources"
	// StageCompile invokes the compiler.
	StageCompile Stage = "compile"
	// StageAfter runs after-compile hooks.
	StageAfter Stage = "after"
	// StageEmit writes outputs to disk.
	StageEmit Stage = "emit"
)

// Stages lists the per-project stages in run order.
var Stages = []Stage{StageBefore, StageResources, StageCompile, StageAfter, StageEmit}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a project (or for the whole build when Project
// is empty). Module is set while a hook runs.
type Event struct {
	Project string
	Stage   Stage
	Status  Status
	Module  string
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ErrDiagnostics reports that a build finished with error diagnostics.
var ErrDiagnostics = errors.New("build failed with errors")

// ModuleError is a compile-module hook failure.
type ModuleError struct {
	Module string
	Phase  compilation.Phase
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s failed during %s: %v", e.Module, e.Phase, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Add accumulates dur onto stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
