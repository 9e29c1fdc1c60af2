package yamlsplice

import "strings"

// Block mapping planners.

// colonAfter returns the offset of the ":" separator following a key.
func (p *planner) colonAfter(key *Node) int {
	i := key.Span.End
	for i < len(p.src) && p.src[i] != ':' {
		i++
	}
	return i
}

// entryText joins a key and its encoded value: non-empty block-capable
// collections start on their own line one step deeper, everything else
// follows a single space.
func (p *planner) entryText(key, v *Value, indent int) string {
	k := p.enc.encodeFlow(key)
	if v.isCollection() && !v.isEmptyCollection() && v.blockCapable() {
		return k + ":" + p.le + p.enc.encodeBlock(v, indent+p.step)
	}
	return k + ": " + p.enc.inline(v, indent+p.step)
}

// blockMapAdd splices a new entry into a block mapping, honoring the
// alphabetical-insertion heuristic: when existing keys are already strictly
// ascending the new key slots in order, otherwise it appends.
func (p *planner) blockMapAdd(m *Node, key, v *Value) (SourceEdit, error) {
	indent, err := mapIndent(p.src, m)
	if err != nil {
		return SourceEdit{}, err
	}
	k := insertionIndex(m.Pairs, keyString(key))
	entry := p.pad(indent) + p.entryText(key, v, indent)

	if k < len(m.Pairs) {
		off := lineStartAt(p.src, m.Pairs[k].Key.Span.Start)
		return SourceEdit{Offset: off, Length: 0, Replacement: entry + p.le}, nil
	}

	lastVal := m.Pairs[len(m.Pairs)-1].Value
	end, _ := skipComments(p.src, contentEnd(p.src, lastVal), false)
	if end > 0 && p.src[end-1] == '\n' {
		return SourceEdit{Offset: end, Length: 0, Replacement: entry + p.le}, nil
	}
	// No line break after the last entry: open a new line, mirroring the
	// document's missing final newline.
	return SourceEdit{Offset: end, Length: 0, Replacement: p.le + entry}, nil
}

// blockMapReplace swaps the value of the entry at index i, leaving the key,
// its ":" and anything after the value (like an inline comment) untouched.
func (p *planner) blockMapReplace(m *Node, i int, v *Value) (SourceEdit, error) {
	indent, err := mapIndent(p.src, m)
	if err != nil {
		return SourceEdit{}, err
	}
	pair := m.Pairs[i]
	start := p.colonAfter(pair.Key) + 1
	if start > len(p.src) {
		start = len(p.src)
	}

	end := contentEnd(p.src, pair.Value)
	if !pair.Value.spanKnown {
		end = start
		if start < len(p.src) && p.src[start] == ' ' {
			end = start + 1
		}
	}
	if end < start {
		end = start
	}

	var repl string
	if v.isCollection() && !v.isEmptyCollection() && v.blockCapable() {
		repl = p.le + p.enc.encodeBlock(v, indent+p.step)
	} else {
		repl = " " + p.enc.inline(v, indent+p.step)
	}
	repl = normalizeBlock(p.src, p.le, end, v, repl)
	return SourceEdit{Offset: start, Length: end - start, Replacement: repl}, nil
}

// blockMapRemove deletes the entry at index i with its trailing comments,
// reclaiming the following sibling's indentation the same way sequence
// removal does. Removing the only entry rewrites the mapping as "{}".
func (p *planner) blockMapRemove(m *Node, i int) (SourceEdit, error) {
	pair := m.Pairs[i]
	start := pair.Key.Span.Start

	var scanFrom int
	if !pair.Value.spanKnown {
		scanFrom = pair.Key.Span.End + 2
	} else {
		scanFrom = contentEnd(p.src, pair.Value) + 1
	}
	if scanFrom > len(p.src) {
		scanFrom = len(p.src)
	}
	end, _ := skipComments(p.src, scanFrom, true)

	only := len(m.Pairs) == 1
	lastEntry := i == len(m.Pairs)-1

	if only {
		if end < len(p.src) {
			end = p.reclaim(end, true)
		}
		return SourceEdit{Offset: start, Length: end - start, Replacement: "{}"}, nil
	}
	if lastEntry && start > 0 {
		start = lineStartAt(p.src, start)
	}
	if lastEntry && end < len(p.src) {
		end = p.reclaim(end, false)
	}
	return SourceEdit{Offset: start, Length: end - start, Replacement: ""}, nil
}

// keyString coerces a key value to the string form the insertion heuristic
// compares.
func keyString(key *Value) string {
	if key.kind == StringValue {
		return key.s
	}
	e := &encoder{step: 2, le: "\n"}
	return strings.TrimSpace(e.encodeFlow(key))
}
