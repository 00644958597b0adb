package project

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// FrameworkName identifies a compilation target, e.g. "DNX,Version=v4.5.1".
type FrameworkName struct {
	Identifier string
	Version    string // dotted, without the leading 'v'
	Profile    string
}

var shortIdentifiers = map[string]string{
	"dnx":     "DNX",
	"dnxcore": "DNXCore",
	"net":     ".NETFramework",
	"netcore": ".NETCore",
	"kiln":    "Kiln",
}

var errEmptyFramework = errors.New("empty framework name")

// ParseFrameworkName accepts the full form
// "Identifier,Version=v1.2[,Profile=P]" and the short form "dnx451".
func ParseFrameworkName(s string) (FrameworkName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FrameworkName{}, errEmptyFramework
	}
	if strings.Contains(s, ",") {
		return parseFullFramework(s)
	}
	return parseShortFramework(s)
}

// MustParseFrameworkName is ParseFrameworkName for constants in tests and
// defaults; it panics on error.
func MustParseFrameworkName(s string) FrameworkName {
	fw, err := ParseFrameworkName(s)
	if err != nil {
		panic(err)
	}
	return fw
}

func parseFullFramework(s string) (FrameworkName, error) {
	parts := strings.Split(s, ",")
	fw := FrameworkName{Identifier: strings.TrimSpace(parts[0])}
	if fw.Identifier == "" {
		return FrameworkName{}, fmt.Errorf("framework %q: missing identifier", s)
	}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return FrameworkName{}, fmt.Errorf("framework %q: malformed component %q", s, part)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "version":
			v := strings.TrimPrefix(strings.TrimSpace(value), "v")
			if !isDottedVersion(v) {
				return FrameworkName{}, fmt.Errorf("framework %q: invalid version %q", s, value)
			}
			fw.Version = v
		case "profile":
			fw.Profile = strings.TrimSpace(value)
		default:
			return FrameworkName{}, fmt.Errorf("framework %q: unknown component %q", s, key)
		}
	}
	if fw.Version == "" {
		return FrameworkName{}, fmt.Errorf("framework %q: missing Version", s)
	}
	return fw, nil
}

func parseShortFramework(s string) (FrameworkName, error) {
	split := strings.IndexFunc(s, func(r rune) bool { return unicode.IsDigit(r) })
	if split <= 0 {
		return FrameworkName{}, fmt.Errorf("framework %q: expected identifier followed by version digits", s)
	}
	short := strings.ToLower(s[:split])
	digits := s[split:]

	version := digits
	if !strings.Contains(digits, ".") {
		for _, r := range digits {
			if !unicode.IsDigit(r) {
				return FrameworkName{}, fmt.Errorf("framework %q: invalid version %q", s, digits)
			}
		}
		version = strings.Join(strings.Split(digits, ""), ".")
		if len(digits) == 1 {
			version += ".0"
		}
	}
	if !isDottedVersion(version) {
		return FrameworkName{}, fmt.Errorf("framework %q: invalid version %q", s, digits)
	}

	id, ok := shortIdentifiers[short]
	if !ok {
		id = s[:split]
	}
	return FrameworkName{Identifier: id, Version: version}, nil
}

func isDottedVersion(v string) bool {
	if v == "" {
		return false
	}
	for _, seg := range strings.Split(v, ".") {
		if seg == "" {
			return false
		}
		for _, r := range seg {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

// IsZero reports whether the framework is unset.
func (f FrameworkName) IsZero() bool {
	return f == FrameworkName{}
}

func (f FrameworkName) String() string {
	if f.IsZero() {
		return ""
	}
	s := f.Identifier + ",Version=v" + f.Version
	if f.Profile != "" {
		s += ",Profile=" + f.Profile
	}
	return s
}

// ShortName returns the folder-friendly form: "dnx451", "dnxcore50".
func (f FrameworkName) ShortName() string {
	short := strings.ToLower(f.Identifier)
	for k, v := range shortIdentifiers {
		if v == f.Identifier {
			short = k
			break
		}
	}
	name := short + strings.ReplaceAll(f.Version, ".", "")
	if f.Profile != "" {
		name += "-" + strings.ToLower(f.Profile)
	}
	return name
}
