package yamlsplice

import "strings"

// detectLineEnding scans every "\n" in src and classifies it as Windows or
// Unix. It reports "\r\n" only when Windows endings strictly outnumber Unix
// ones.
func detectLineEnding(src string) string {
	crlf, lf := 0, 0
	for i := 0; i < len(src); i++ {
		if src[i] != '\n' {
			continue
		}
		if i > 0 && src[i-1] == '\r' {
			crlf++
		} else {
			lf++
		}
	}
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

// lastIndexBefore returns the largest i < from with src[i] == c, or -1.
func lastIndexBefore(src string, from int, c byte) int {
	if from > len(src) {
		from = len(src)
	}
	for i := from - 1; i >= 0; i-- {
		if src[i] == c {
			return i
		}
	}
	return -1
}

// lineStartAt returns the offset of the first byte of the line containing
// off.
func lineStartAt(src string, off int) int {
	return lastIndexBefore(src, off, '\n') + 1
}

// lineIndentAt counts the leading spaces of the line containing off.
func lineIndentAt(src string, off int) int {
	start := lineStartAt(src, off)
	n := 0
	for start+n < len(src) && src[start+n] == ' ' {
		n++
	}
	return n
}

// indentStep probes the document for its indentation step: the first
// block-styled collection that is a direct member of a root-level
// collection, closest to the start of the document, defines the step as its
// line indent relative to the root's. Documents without such a child get
// the default of 2.
func indentStep(src string, root *Node) int {
	if root == nil {
		return 2
	}
	base := lineIndentAt(src, root.Span.Start)
	best := -1
	bestStart := len(src) + 1

	probe := func(child *Node) {
		if child == nil || child.Kind != KindSequence && child.Kind != KindMapping {
			return
		}
		if child.Style == StyleFlow || child.Len() == 0 {
			return
		}
		step := lineIndentAt(src, child.Span.Start) - base
		if step > 0 && child.Span.Start < bestStart {
			best = step
			bestStart = child.Span.Start
		}
	}

	switch root.Kind {
	case KindSequence:
		for _, c := range root.Children {
			probe(c)
		}
	case KindMapping:
		for _, p := range root.Pairs {
			probe(p.Value)
		}
	}
	if best > 0 {
		return best
	}
	return 2
}

// listIndent returns the column of the "-" markers of a block sequence,
// derived from the last element: the nearest hyphen behind its start,
// measured against the nearest preceding newline.
func listIndent(src string, list *Node) (int, error) {
	if len(list.Children) == 0 {
		return 0, &EmptyBlockIndentError{}
	}
	last := list.Children[len(list.Children)-1]
	hyphen := lastIndexBefore(src, last.Span.Start, '-')
	if hyphen <= 0 {
		return 0, nil
	}
	nl := lastIndexBefore(src, hyphen, '\n')
	return hyphen - nl - 1, nil
}

// mapIndent returns the column of a block mapping's keys, derived from the
// last key. A "?" complex-key marker on the same line takes precedence over
// the key itself.
func mapIndent(src string, m *Node) (int, error) {
	if len(m.Pairs) == 0 {
		return 0, &EmptyBlockIndentError{}
	}
	keyStart := m.Pairs[len(m.Pairs)-1].Key.Span.Start
	nl := lastIndexBefore(src, keyStart, '\n')
	for i := nl + 1; i < keyStart; i++ {
		if src[i] == '?' {
			return i - nl - 1, nil
		}
	}
	return keyStart - nl - 1, nil
}

// contentEnd returns the offset just past the last semantically meaningful
// byte of a node. Block collections recurse into their last child so that
// trailing emptiness the parser may have attributed to the span is ignored.
func contentEnd(src string, n *Node) int {
	switch n.Kind {
	case KindSequence:
		if n.Style != StyleFlow && len(n.Children) > 0 {
			return contentEnd(src, n.Children[len(n.Children)-1])
		}
	case KindMapping:
		if n.Style != StyleFlow && len(n.Pairs) > 0 {
			return contentEnd(src, n.Pairs[len(n.Pairs)-1].Value)
		}
	}
	return n.Span.End
}

// skipComments advances a cursor from start over whitespace and "#" comments
// and returns the new position plus any comments seen.
//
// Lazy mode stops just past the first line break whose line carried no
// comment. Greedy mode crosses blank lines and comment lines until EOF or a
// non-whitespace, non-comment byte; it therefore consumes the following
// sibling's leading indentation, which removal planners reclaim.
func skipComments(src string, start int, greedy bool) (int, []string) {
	var comments []string
	i := start
	for i < len(src) {
		switch src[i] {
		case ' ', '\t':
			i++
		case '\r':
			if !greedy && i+1 < len(src) && src[i+1] == '\n' {
				return lazyBreak(src, start, i, comments)
			}
			i++
		case '\n':
			if !greedy {
				return lazyBreak(src, start, i, comments)
			}
			i++
		case '#':
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				comments = append(comments, strings.TrimRight(src[i:], "\r"))
				return len(src), comments
			}
			comments = append(comments, strings.TrimRight(src[i:i+j], "\r"))
			i += j
			if !greedy {
				// The line carried a comment; keep walking past its break.
				i++
			}
		default:
			return i, comments
		}
	}
	return i, comments
}

// lazyBreak finishes a lazy scan at the line break starting at brk: the
// cursor lands just past the "\n".
func lazyBreak(src string, start, brk int, comments []string) (int, []string) {
	i := brk
	if src[i] == '\r' {
		i++
	}
	if i < len(src) && src[i] == '\n' {
		i++
	}
	return i, comments
}

// commentsBetween returns every "#..." line in src[start:end], split on the
// document's line ending.
func commentsBetween(src string, start, end int, lineEnding string) []string {
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return nil
	}
	var out []string
	for _, line := range strings.Split(src[start:end], lineEnding) {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "#") {
			out = append(out, t)
		}
	}
	return out
}
