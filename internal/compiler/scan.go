package compiler

import (
	"regexp"
	"strings"

	"fortio.org/safecast"
)

var declRe = regexp.MustCompile(`^(?:pub\s+)?(fn|type|const|let)\s+([A-Za-z_][A-Za-z0-9_]*)`)

type decl struct {
	Kind string
	Name string
	Line int
	Doc  []string
}

type dangling struct {
	Line int
}

type scanResult struct {
	Lines    int
	Decls    []decl
	Dangling []dangling
}

// scanSource finds top-level declarations and attaches the /// block that
// immediately precedes each one. A doc block followed by anything other than
// a declaration is reported as dangling.
func scanSource(text string) scanResult {
	lines := strings.Split(text, "\n")
	res := scanResult{Lines: len(lines)}
	if strings.HasSuffix(text, "\n") {
		res.Lines--
	}

	var doc []string
	docLine := 0
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if rest, ok := strings.CutPrefix(line, "///"); ok {
			if doc == nil {
				docLine = i + 1
			}
			doc = append(doc, strings.TrimPrefix(rest, " "))
			continue
		}
		if m := declRe.FindStringSubmatch(line); m != nil {
			res.Decls = append(res.Decls, decl{Kind: m[1], Name: m[2], Line: i + 1, Doc: doc})
			doc = nil
			continue
		}
		if doc != nil {
			res.Dangling = append(res.Dangling, dangling{Line: docLine})
			doc = nil
		}
	}
	if doc != nil {
		res.Dangling = append(res.Dangling, dangling{Line: docLine})
	}
	return res
}

func toU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return ^uint32(0)
	}
	return v
}
