package guard

import (
	"fmt"
	"strings"
)

// pattern is a compiled path pattern. Segments starting with ':' match any single
// segment; a final '*' segment matches the path before it and everything below it.
type pattern struct {
	raw  string
	segs []string
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}

func compile(raw string) (pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return pattern{}, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}

	segs := splitPath(raw)
	for i, s := range segs {
		if s == "" || s == ":" {
			return pattern{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, raw)
		}

		if strings.Contains(s, "*") && (i != len(segs)-1 || s != "*") {
			return pattern{}, fmt.Errorf("%w: %q may only end with a /* segment", ErrInvalidPattern, raw)
		}
	}

	return pattern{raw: raw, segs: segs}, nil
}

func (p pattern) match(path string) bool {
	segs := splitPath(path)

	for i, ps := range p.segs {
		if ps == "*" {
			return true
		}

		if i >= len(segs) {
			return false
		}

		if strings.HasPrefix(ps, ":") {
			continue
		}

		if ps != segs[i] {
			return false
		}
	}

	return len(segs) == len(p.segs)
}
