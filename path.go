package yamlsplice

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node in the document: each segment is either an int
// (sequence index) or a scalar key (usually a string) for mappings.
type Path []any

// ParsePointer converts an RFC 6901 JSON Pointer into a Path. Numeric
// segments become int indexes; "~1" and "~0" unescape to "/" and "~".
// The empty pointer addresses the document root.
func ParsePointer(p string) (Path, error) {
	if p == "" {
		return Path{}, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, &PathError{Path: Path{p}, Segment: 0, Reason: "pointer must start with '/'"}
	}
	parts := strings.Split(p, "/")[1:]
	path := make(Path, 0, len(parts))
	for _, s := range parts {
		seg := strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
		if i, err := strconv.Atoi(seg); err == nil && seg == strconv.Itoa(i) {
			path = append(path, i)
			continue
		}
		path = append(path, seg)
	}
	return path, nil
}

// Pointer renders the path back as an RFC 6901 pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		switch s := seg.(type) {
		case int:
			b.WriteString(strconv.Itoa(s))
		case string:
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1"))
		default:
			b.WriteString(fmt.Sprint(s))
		}
	}
	return b.String()
}
