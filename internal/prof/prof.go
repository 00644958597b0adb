// Package prof captures runtime profiles around a CLI invocation.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Session owns the profile outputs for one process run. The zero value
// profiles nothing.
type Session struct {
	CPUPath string
	MemPath string

	cpu *os.File
}

// Start begins CPU profiling when CPUPath is set.
func (s *Session) Start() error {
	if s == nil || s.CPUPath == "" {
		return nil
	}
	f, err := os.Create(s.CPUPath)
	if err != nil {
		return fmt.Errorf("cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("cpu profile: %w", err)
	}
	s.cpu = f
	return nil
}

// Stop ends CPU profiling and writes the heap profile when MemPath is set.
// It is safe to call more than once.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
		s.cpu = nil
	}
	if s.MemPath != "" {
		errs = append(errs, writeHeap(s.MemPath))
		s.MemPath = ""
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
