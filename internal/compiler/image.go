package compiler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"kiln/internal/project"
)

const (
	ImageFormat   = "kimg/1"
	SymbolsFormat = "ksym/1"
)

var ErrNotAnImage = errors.New("not a kiln image")

// Image is the msgpack payload written to <name>.kimg.
type Image struct {
	Format     string          `msgpack:"format"`
	Name       string          `msgpack:"name"`
	Exports    []string        `msgpack:"exports"`
	Sources    []ImageSource   `msgpack:"sources"`
	References []ImageRef      `msgpack:"refs"`
	Resources  []ImageResource `msgpack:"resources"`
}

type ImageSource struct {
	Path   string         `msgpack:"path"`
	Digest project.Digest `msgpack:"digest"`
	Text   string         `msgpack:"text"`
}

type ImageRef struct {
	Name     string         `msgpack:"name"`
	Assembly string         `msgpack:"assembly"`
	Digest   project.Digest `msgpack:"digest"`
}

type ImageResource struct {
	Name   string `msgpack:"name"`
	Public bool   `msgpack:"public"`
	Data   []byte `msgpack:"data"`
}

// SymbolTable is the msgpack payload written to <name>.ksym.
type SymbolTable struct {
	Format   string         `msgpack:"format"`
	Assembly string         `msgpack:"assembly"`
	Image    project.Digest `msgpack:"image"`
	Files    []SymbolFile   `msgpack:"files"`
}

type SymbolFile struct {
	Path    string   `msgpack:"path"`
	Lines   uint32   `msgpack:"lines"`
	Symbols []Symbol `msgpack:"symbols"`
}

type Symbol struct {
	Name string `msgpack:"name"`
	Kind string `msgpack:"kind"`
	Line uint32 `msgpack:"line"`
}

func encode(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return &buf, nil
}

// DecodeImage parses a .kimg payload.
func DecodeImage(data []byte) (*Image, error) {
	var img Image
	if err := msgpack.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAnImage, err)
	}
	if img.Format != ImageFormat {
		return nil, fmt.Errorf("%w: format %q", ErrNotAnImage, img.Format)
	}
	return &img, nil
}

// DecodeSymbols parses a .ksym payload.
func DecodeSymbols(data []byte) (*SymbolTable, error) {
	var tab SymbolTable
	if err := msgpack.Unmarshal(data, &tab); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}
	if tab.Format != SymbolsFormat {
		return nil, fmt.Errorf("decode symbols: unexpected format %q", tab.Format)
	}
	return &tab, nil
}
