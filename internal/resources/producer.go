package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"kiln/internal/compiler"
	"kiln/internal/project"
	"kiln/internal/trace"
)

// Producer collects a project's resource files.
type Producer struct {
	Project *project.Descriptor
	Cache   *Cache // nil disables caching of compiled tables
	Jobs    int    // parallel file reads; <= 0 means GOMAXPROCS
}

// ResourceName maps a project-relative path to its manifest name:
// "<Project>.<dir>.<file>", NFC-normalised. String tables drop their
// suffix and gain ".resources".
func ResourceName(projectName, rel string) string {
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(rel, StringTableSuffix) {
		rel = tableBase(rel) + ".resources"
	}
	return norm.NFC.String(projectName + "." + strings.ReplaceAll(rel, "/", "."))
}

// Produce reads every file matching the project's resource globs and
// returns them sorted by name. It fails on the first unreadable file or
// invalid string table.
func (p *Producer) Produce(ctx context.Context) ([]compiler.Resource, error) {
	if p.Project == nil || len(p.Project.Resources) == 0 {
		return nil, nil
	}
	files, err := project.Glob(p.Project.Dir, p.Project.Resources)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	tracer := trace.FromContext(ctx)
	jobs := p.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns its index
	out := make([]compiler.Resource, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.load(rel)
			if err != nil {
				return err
			}
			trace.Point(tracer, trace.ScopeDebug, "resource", res.Name)
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *Producer) load(rel string) (compiler.Resource, error) {
	data, err := os.ReadFile(p.Project.Abs(rel))
	if err != nil {
		return compiler.Resource{}, fmt.Errorf("read resource %s: %w", rel, err)
	}
	res := compiler.Resource{Name: ResourceName(p.Project.Name, rel), Public: true}
	if !strings.HasSuffix(rel, StringTableSuffix) {
		res.Data = data
		return res, nil
	}

	key := project.Combine(project.Sum(data), project.Sum([]byte(res.Name)))
	var entry CacheEntry
	if hit, err := p.Cache.Get(key, &entry); err == nil && hit {
		res.Data = entry.Data
		return res, nil
	}

	compiled, err := CompileStringTable(rel, data)
	if err != nil {
		return compiler.Resource{}, err
	}
	if err := p.Cache.Put(key, &CacheEntry{Name: res.Name, Source: project.Sum(data), Data: compiled}); err != nil {
		return compiler.Resource{}, fmt.Errorf("cache %s: %w", rel, err)
	}
	res.Data = compiled
	return res, nil
}
