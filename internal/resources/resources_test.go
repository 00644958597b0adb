package resources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kiln/internal/project"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResourceName(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"res/logo.png", "App.res.logo.png"},
		{"res/strings/en.strings.toml", "App.res.strings.en.resources"},
		{"café.txt", "App.café.txt"},
	}
	for _, tt := range tests {
		if got := ResourceName("App", tt.rel); got != tt.want {
			t.Fatalf("ResourceName(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestProduceSortedAndCompiled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"res/logo.png":        "PNG",
		"res/en.strings.toml": "greeting = \"hello\"\n[menu]\nopen = \"Open\"\n",
		"src/main.kl":         "fn main",
	})
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := &Producer{
		Project: &project.Descriptor{Name: "App", Dir: dir, Resources: []string{"res/**"}},
		Cache:   cache,
		Jobs:    2,
	}

	got, err := p.Produce(context.Background())
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d resources, want 2", len(got))
	}
	if got[0].Name != "App.res.en.resources" || got[1].Name != "App.res.logo.png" {
		t.Fatalf("names = %q, %q", got[0].Name, got[1].Name)
	}
	if string(got[1].Data) != "PNG" {
		t.Fatalf("logo data = %q", got[1].Data)
	}

	table, err := DecodeStringTable(got[0].Data)
	if err != nil {
		t.Fatalf("DecodeStringTable: %v", err)
	}
	if v, ok := table.Lookup("menu.open"); !ok || v != "Open" {
		t.Fatalf("menu.open = %q, %v", v, ok)
	}
	if table.Entries[0].Key != "greeting" {
		t.Fatalf("entries not sorted: %+v", table.Entries)
	}

	// second run is served from the cache
	again, err := p.Produce(context.Background())
	if err != nil {
		t.Fatalf("Produce (cached): %v", err)
	}
	if string(again[0].Data) != string(got[0].Data) {
		t.Fatalf("cached table differs")
	}
	entries, err := os.ReadDir(filepath.Join(cache.Dir(), "res"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache entries = %d, err = %v", len(entries), err)
	}
}

func TestProduceInvalidTable(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"res/bad.strings.toml": "count = 3\n"})
	p := &Producer{Project: &project.Descriptor{Name: "App", Dir: dir, Resources: []string{"res/*"}}}

	_, err := p.Produce(context.Background())
	if !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("err = %v, want ErrInvalidTable", err)
	}
	var te *TableError
	if !errors.As(err, &te) || te.Key != "count" || te.Path != "res/bad.strings.toml" {
		t.Fatalf("TableError = %+v", te)
	}
}

func TestProduceNoResources(t *testing.T) {
	p := &Producer{Project: &project.Descriptor{Name: "App", Dir: t.TempDir()}}
	got, err := p.Produce(context.Background())
	if err != nil || got != nil {
		t.Fatalf("Produce = %v, %v; want nil, nil", got, err)
	}
}

func TestCacheRoundTripAndDrop(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "kiln"))
	if err != nil {
		t.Fatal(err)
	}
	key := project.Sum([]byte("k"))

	var entry CacheEntry
	if hit, err := cache.Get(key, &entry); err != nil || hit {
		t.Fatalf("Get on empty cache = %v, %v", hit, err)
	}
	if err := cache.Put(key, &CacheEntry{Name: "n", Data: []byte{1}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if hit, err := cache.Get(key, &entry); err != nil || !hit || entry.Name != "n" {
		t.Fatalf("Get = %v, %v, %+v", hit, err, entry)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if hit, _ := cache.Get(key, &entry); hit {
		t.Fatalf("entry survived DropAll")
	}

	var nilCache *Cache
	if err := nilCache.Put(key, &CacheEntry{}); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
}
