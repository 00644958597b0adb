package resources

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
)

// StringTableSuffix marks source files compiled into string tables.
const StringTableSuffix = ".strings.toml"

const tableFormat = "kres/1"

var ErrInvalidTable = errors.New("invalid string table")

// TableError points at the file and key that made a table invalid.
type TableError struct {
	Path string
	Key  string
	Err  error
}

func (e *TableError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: key %q: %v", e.Path, e.Key, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// StringTable is the msgpack payload of a compiled .resources entry.
type StringTable struct {
	Format  string        `msgpack:"format"`
	Entries []StringEntry `msgpack:"entries"`
}

type StringEntry struct {
	Key   string `msgpack:"key"`
	Value string `msgpack:"value"`
}

// Lookup returns the value for key.
func (t *StringTable) Lookup(key string) (string, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Key >= key })
	if i < len(t.Entries) && t.Entries[i].Key == key {
		return t.Entries[i].Value, true
	}
	return "", false
}

// CompileStringTable turns a TOML document of string values into a sorted
// msgpack table. Nested tables flatten into dotted keys.
func CompileStringTable(path string, data []byte) ([]byte, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, &TableError{Path: path, Err: fmt.Errorf("%w: %w", ErrInvalidTable, err)}
	}

	var entries []StringEntry
	if err := flatten(path, "", doc, &entries); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return msgpack.Marshal(&StringTable{Format: tableFormat, Entries: entries})
}

func flatten(path, prefix string, m map[string]any, out *[]StringEntry) error {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			*out = append(*out, StringEntry{Key: key, Value: val})
		case map[string]any:
			if err := flatten(path, key, val, out); err != nil {
				return err
			}
		default:
			return &TableError{Path: path, Key: key, Err: fmt.Errorf("%w: value is %T, want string", ErrInvalidTable, v)}
		}
	}
	return nil
}

// DecodeStringTable parses a compiled table.
func DecodeStringTable(data []byte) (*StringTable, error) {
	var t StringTable
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode string table: %w", err)
	}
	if t.Format != tableFormat {
		return nil, fmt.Errorf("decode string table: unexpected format %q", t.Format)
	}
	return &t, nil
}

func tableBase(rel string) string {
	return strings.TrimSuffix(rel, StringTableSuffix)
}
