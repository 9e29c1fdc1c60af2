package yamlsplice

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// parseDocument parses src into the editor's node tree. The yaml.v3 parser
// supplies kinds, styles, values, and start positions; byte spans are
// resolved against the raw source, since the parser reports only line and
// column marks.
func parseDocument(src string) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("yamlsplice: failed to parse YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("yamlsplice: empty YAML document")
	}

	r := &spanResolver{src: src}
	r.indexLines()
	return r.walk(doc.Content[0], false)
}

// spanResolver converts parser line/column marks into byte spans and scans
// the raw source for the extents the parser does not report.
type spanResolver struct {
	src      string
	lineOffs []int // byte offset of each line start
}

func (r *spanResolver) indexLines() {
	r.lineOffs = append(r.lineOffs, 0)
	for i := 0; i < len(r.src); i++ {
		if r.src[i] == '\n' {
			r.lineOffs = append(r.lineOffs, i+1)
		}
	}
}

// offsetAt converts a 1-based line/column mark into a byte offset. Columns
// count characters, so the line prefix is measured in runes.
func (r *spanResolver) offsetAt(line, column int) int {
	if line < 1 {
		return 0
	}
	if line > len(r.lineOffs) {
		return len(r.src)
	}
	off := r.lineOffs[line-1]
	for col := 1; col < column && off < len(r.src); col++ {
		_, size := utf8.DecodeRuneInString(r.src[off:])
		if r.src[off] == '\n' {
			break
		}
		off += size
	}
	return off
}

func scalarStyle(yn *yaml.Node) Style {
	switch {
	case yn.Style&yaml.LiteralStyle != 0:
		return StyleLiteral
	case yn.Style&yaml.FoldedStyle != 0:
		return StyleFolded
	case yn.Style&yaml.SingleQuotedStyle != 0:
		return StyleSingle
	case yn.Style&yaml.DoubleQuotedStyle != 0:
		return StyleDouble
	}
	return StylePlain
}

func (r *spanResolver) walk(yn *yaml.Node, isKey bool) (*Node, error) {
	switch yn.Kind {
	case yaml.AliasNode:
		start := r.offsetAt(yn.Line, yn.Column)
		return &Node{
			Kind:      KindAlias,
			Value:     yn.Value,
			Span:      Span{Start: start, End: start + 1 + len(yn.Value)},
			spanKnown: true,
		}, nil

	case yaml.ScalarNode:
		return r.walkScalar(yn, isKey)

	case yaml.SequenceNode:
		n := &Node{Kind: KindSequence, Style: StyleBlock, spanKnown: true}
		if yn.Style&yaml.FlowStyle != 0 {
			n.Style = StyleFlow
		}
		for _, c := range yn.Content {
			child, err := r.walk(c, false)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		start := r.offsetAt(yn.Line, yn.Column)
		if n.Style == StyleFlow {
			n.Span = Span{Start: start, End: r.matchFlowClose(start)}
			return n, nil
		}
		// A block sequence starts at its first "-" marker.
		if len(n.Children) > 0 {
			if hy := lastIndexBefore(r.src, n.Children[0].Span.Start, '-'); hy >= 0 {
				start = hy
			}
			n.Span = Span{Start: start, End: n.Children[len(n.Children)-1].Span.End}
		} else {
			n.Span = Span{Start: start, End: start}
		}
		return n, nil

	case yaml.MappingNode:
		n := &Node{Kind: KindMapping, Style: StyleBlock, spanKnown: true}
		if yn.Style&yaml.FlowStyle != 0 {
			n.Style = StyleFlow
		}
		for i := 0; i+1 < len(yn.Content); i += 2 {
			k, err := r.walk(yn.Content[i], true)
			if err != nil {
				return nil, err
			}
			v, err := r.walk(yn.Content[i+1], false)
			if err != nil {
				return nil, err
			}
			// Anchor the implicit null after "key:" one byte past the colon.
			if !v.spanKnown {
				pos := k.Span.End + 1
				if pos > len(r.src) {
					pos = len(r.src)
				}
				v.Span = Span{Start: pos, End: pos}
			}
			n.Pairs = append(n.Pairs, NodePair{Key: k, Value: v})
		}
		start := r.offsetAt(yn.Line, yn.Column)
		if n.Style == StyleFlow {
			n.Span = Span{Start: start, End: r.matchFlowClose(start)}
			return n, nil
		}
		if len(n.Pairs) > 0 {
			last := n.Pairs[len(n.Pairs)-1]
			n.Span = Span{Start: n.Pairs[0].Key.Span.Start, End: last.Value.Span.End}
		} else {
			n.Span = Span{Start: start, End: start}
		}
		return n, nil
	}
	return nil, fmt.Errorf("yamlsplice: unsupported node kind %d", yn.Kind)
}

func (r *spanResolver) walkScalar(yn *yaml.Node, isKey bool) (*Node, error) {
	n := &Node{
		Kind:      KindScalar,
		Style:     scalarStyle(yn),
		Value:     yn.Value,
		Tag:       yn.Tag,
		spanKnown: true,
	}
	if yn.Tag == "!!null" && yn.Value == "" {
		// Implicit null: the parser places it but it has no written form.
		n.spanKnown = false
		pos := r.offsetAt(yn.Line, yn.Column)
		n.Span = Span{Start: pos, End: pos}
		return n, nil
	}

	start := r.offsetAt(yn.Line, yn.Column)
	var end int
	switch n.Style {
	case StyleSingle:
		end = r.scanSingleQuoted(start)
	case StyleDouble:
		end = r.scanDoubleQuoted(start)
	case StyleLiteral, StyleFolded:
		end = r.scanBlockScalar(start)
	default:
		end = r.scanPlain(start, yn.Value, isKey)
	}
	n.Span = Span{Start: start, End: end}
	return n, nil
}

func (r *spanResolver) scanSingleQuoted(start int) int {
	i := start + 1
	for i < len(r.src) {
		if r.src[i] == '\'' {
			if i+1 < len(r.src) && r.src[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(r.src)
}

func (r *spanResolver) scanDoubleQuoted(start int) int {
	i := start + 1
	for i < len(r.src) {
		switch r.src[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return len(r.src)
}

// scanBlockScalar finds the extent of a literal or folded scalar from its
// "|"/">" header. Content lines are those more indented than the header's
// line; trailing blank lines count only under a keep ("+") chomping.
func (r *spanResolver) scanBlockScalar(start int) int {
	headerIndent := lineIndentAt(r.src, start)
	headerEnd := strings.IndexByte(r.src[start:], '\n')
	if headerEnd < 0 {
		return len(r.src)
	}
	keep := strings.ContainsRune(r.src[start:start+headerEnd], '+')

	end := start + headerEnd // last meaningful byte so far (before this '\n')
	i := start + headerEnd + 1
	for i <= len(r.src) {
		lineEnd := strings.IndexByte(r.src[i:], '\n')
		abs := len(r.src)
		if lineEnd >= 0 {
			abs = i + lineEnd
		}
		line := r.src[i:abs]
		trimmed := strings.TrimRight(line, " \t\r")
		blank := strings.TrimSpace(line) == ""
		indent := 0
		for indent < len(line) && line[indent] == ' ' {
			indent++
		}
		switch {
		case blank:
			if keep {
				end = abs
			}
		case indent > headerIndent:
			end = i + len(trimmed)
		default:
			return end
		}
		if lineEnd < 0 {
			return end
		}
		i = abs + 1
	}
	return end
}

// scanPlain finds the end of a plain scalar written at start. Keys stop at
// their ":" separator; values run to the line's content end, continuing
// over folded lines until the accumulated text matches the parsed value.
func (r *spanResolver) scanPlain(start int, value string, isKey bool) int {
	inFlow := r.inFlowContext(start)
	end := r.plainLineEnd(start, isKey, inFlow)
	if isKey || inFlow {
		return end
	}

	folded := strings.TrimRight(r.src[start:end], " \t\r")
	if folded == value {
		return start + len(folded)
	}

	// Multi-line plain scalar: fold subsequent lines until the value is
	// reconstructed.
	acc := folded
	pendingBreaks := 0
	i := end
	for acc != value && i < len(r.src) {
		nl := strings.IndexByte(r.src[i:], '\n')
		if nl < 0 {
			break
		}
		i += nl + 1
		lineEnd := strings.IndexByte(r.src[i:], '\n')
		abs := len(r.src)
		if lineEnd >= 0 {
			abs = i + lineEnd
		}
		line := strings.TrimRight(r.src[i:abs], " \t\r")
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			pendingBreaks++
			continue
		}
		if pendingBreaks > 0 {
			acc += strings.Repeat("\n", pendingBreaks)
			pendingBreaks = 0
		} else {
			acc += " "
		}
		acc += trimmed
		end = i + len(line)
	}
	if acc == value {
		return end
	}
	return start + len(folded)
}

// plainLineEnd scans one line of a plain scalar.
func (r *spanResolver) plainLineEnd(start int, isKey, inFlow bool) int {
	i := start
	for i < len(r.src) {
		c := r.src[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == '#' && i > start && (r.src[i-1] == ' ' || r.src[i-1] == '\t') {
			break
		}
		if isKey && c == ':' {
			next := byte('\n')
			if i+1 < len(r.src) {
				next = r.src[i+1]
			}
			if next == ' ' || next == '\t' || next == '\n' || next == '\r' ||
				(inFlow && (next == ',' || next == '}' || next == ']')) {
				break
			}
		}
		if inFlow && (c == ',' || c == ']' || c == '}') {
			break
		}
		i++
	}
	for i > start && (r.src[i-1] == ' ' || r.src[i-1] == '\t') {
		i--
	}
	return i
}

// inFlowContext reports whether the byte at start sits inside an unclosed
// flow collection, scanning from the start of the document.
func (r *spanResolver) inFlowContext(start int) bool {
	depth := 0
	i := 0
	for i < start && i < len(r.src) {
		switch r.src[i] {
		case '[', '{':
			depth++
		case ']', '}':
			if depth > 0 {
				depth--
			}
		case '\'':
			i = r.scanSingleQuoted(i)
			continue
		case '"':
			i = r.scanDoubleQuoted(i)
			continue
		case '#':
			if i == 0 || r.src[i-1] == ' ' || r.src[i-1] == '\t' || r.src[i-1] == '\n' {
				if nl := strings.IndexByte(r.src[i:], '\n'); nl >= 0 {
					i += nl
				} else {
					i = len(r.src)
				}
				continue
			}
		}
		i++
	}
	return depth > 0
}

// matchFlowClose returns the offset just past the bracket matching the flow
// opener at start.
func (r *spanResolver) matchFlowClose(start int) int {
	depth := 0
	i := start
	for i < len(r.src) {
		switch r.src[i] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '\'':
			i = r.scanSingleQuoted(i)
			continue
		case '"':
			i = r.scanDoubleQuoted(i)
			continue
		case '#':
			if i == 0 || r.src[i-1] == ' ' || r.src[i-1] == '\t' || r.src[i-1] == '\n' {
				if nl := strings.IndexByte(r.src[i:], '\n'); nl >= 0 {
					i += nl
					continue
				}
				return len(r.src)
			}
		}
		i++
	}
	return len(r.src)
}
