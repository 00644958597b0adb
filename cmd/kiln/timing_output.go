package main

import (
	"fmt"
	"io"
	"time"

	"kiln/internal/buildpipeline"
	"kiln/internal/observ"
)

func printStageTimings(out io.Writer, project string, timings buildpipeline.Timings) error {
	if out == nil {
		return nil
	}
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s: %s %.1f ms\n", project, stage, toMillis(timings.Duration(stage))); err != nil {
			return err
		}
	}
	return nil
}

// printReport writes the per-span breakdown of one run (modules and
// compiler) gathered by its observ.Timer.
func printReport(out io.Writer, project string, report observ.Report) error {
	if out == nil || len(report.Phases) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(out, "%s timings:\n", project); err != nil {
		return err
	}
	for _, p := range report.Phases {
		if _, err := fmt.Fprintf(out, "  %-28s %7.2f ms\n", p.Name, p.DurationMS); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "  %-28s %7.2f ms\n", "total", report.TotalMS)
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
