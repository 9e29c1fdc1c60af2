package yamlsplice

import "strings"

// planner computes the single text splice for one mutation. It reads the
// pre-edit source and never mutates it; the façade applies the result.
type planner struct {
	src  string
	le   string
	step int
	enc  *encoder
}

func (p *planner) pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// hyphenBefore locates the "-" marker of a block sequence element. The scan
// excludes the element's first byte so a value that itself starts with "-"
// (a scalar like "-x", or a nested list) does not shadow its marker.
func (p *planner) hyphenBefore(child *Node) int {
	return lastIndexBefore(p.src, child.Span.Start, '-')
}

// insertionIndex places a new key among existing ones: when the current
// keys are strictly ascending under string coercion, the new key goes
// before the first greater key; otherwise it goes to the end.
func insertionIndex(pairs []NodePair, newKey string) int {
	for i := 1; i < len(pairs); i++ {
		if pairs[i-1].Key.Value >= pairs[i].Key.Value {
			return len(pairs)
		}
	}
	for i, p := range pairs {
		if p.Key.Value > newKey {
			return i
		}
	}
	return len(pairs)
}

// reclaim rewinds a greedy comment-scan end so the following sibling keeps
// its leading indent. The greedy scan stops on the sibling's first content
// byte, which means it consumed the sibling's indentation and, before that,
// a line break. The indentation is handed back; the line break stays
// consumed, since it ends the line being removed.
//
// removingOnly additionally hands the line break back, since the "[]"/"{}"
// replacement stays on the existing line.
func (p *planner) reclaim(end int, removingOnly bool) int {
	nl := lastIndexBefore(p.src, end, '\n')
	if nl < 0 {
		return end
	}
	if removingOnly {
		return nl
	}
	return nl + 1
}
