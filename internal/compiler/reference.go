package compiler

import (
	"fmt"
	"os"
	"slices"
)

// Reference is a compiled dependency handed to the compiler.
type Reference interface {
	Name() string
	// Display describes where the reference comes from, for diagnostics.
	Display() string
	Image() ([]byte, error)
}

// FileReference is an image on disk.
type FileReference struct {
	RefName string
	Path    string
}

func (r FileReference) Name() string    { return r.RefName }
func (r FileReference) Display() string { return r.Path }

func (r FileReference) Image() ([]byte, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("read reference %s: %w", r.RefName, err)
	}
	return data, nil
}

// ImageReference is the in-memory output of a project built earlier in the
// same workspace run.
type ImageReference struct {
	RefName string
	Project string
	Data    []byte
}

func (r ImageReference) Name() string    { return r.RefName }
func (r ImageReference) Display() string { return "project " + r.Project }

func (r ImageReference) Image() ([]byte, error) {
	if len(r.Data) == 0 {
		return nil, fmt.Errorf("project %s produced no image", r.Project)
	}
	return slices.Clone(r.Data), nil
}

// Resource is a named payload embedded into the image.
type Resource struct {
	Name   string
	Data   []byte
	Public bool
}
