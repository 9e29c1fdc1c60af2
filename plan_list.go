package yamlsplice

// Block sequence planners. Each computes exactly one SourceEdit against the
// pre-edit source.

// blockListAppend splices a new element after the last one, past any
// trailing comments that belong to it.
func (p *planner) blockListAppend(list *Node, v *Value) (SourceEdit, error) {
	indent, err := listIndent(p.src, list)
	if err != nil {
		return SourceEdit{}, err
	}
	last := list.Children[len(list.Children)-1]
	end, _ := skipComments(p.src, contentEnd(p.src, last), true)

	elem := p.pad(indent) + "- " + p.enc.blockChild(v, indent)
	if end == len(p.src) {
		chunk := elem
		if end > 0 && p.src[end-1] != '\n' {
			chunk = p.le + chunk
		} else if end > 0 {
			// Keep the document's trailing newline convention.
			chunk += p.le
		}
		return SourceEdit{Offset: end, Length: 0, Replacement: chunk}, nil
	}
	// Mid-document: back off to the line start so the next sibling keeps
	// its indentation, and terminate the new element's line.
	off := p.reclaim(end, false)
	return SourceEdit{Offset: off, Length: 0, Replacement: elem + p.le}, nil
}

// blockListInsert splices a new element before index i. Lists nested
// directly behind an outer "- " share its line, so inserting at the head of
// such a list re-distributes the indentation of the displaced element.
func (p *planner) blockListInsert(list *Node, i int, v *Value) (SourceEdit, error) {
	indent, err := listIndent(p.src, list)
	if err != nil {
		return SourceEdit{}, err
	}
	child := list.Children[i]
	hyphen := p.hyphenBefore(child)
	if hyphen < 0 {
		hyphen = child.Span.Start
	}

	nl := lastIndexBefore(p.src, hyphen, '\n')
	outer := lastIndexBefore(p.src, hyphen, '-')
	nested := hyphen > 0 && outer > nl

	if !nested {
		elem := p.pad(indent) + "- " + p.enc.blockChild(v, indent) + p.le
		return SourceEdit{Offset: nl + 1, Length: 0, Replacement: elem}, nil
	}

	// Nested: the new element takes the displaced one's spot on the outer
	// hyphen's line; the displaced element moves down, padded to its old
	// column.
	col := hyphen - lineStartAt(p.src, hyphen)
	elem := "- " + p.enc.blockChild(v, col) + p.le + p.pad(col)
	return SourceEdit{Offset: outer + 2, Length: 0, Replacement: elem}, nil
}

// blockListUpdate replaces the content of element i in place.
func (p *planner) blockListUpdate(list *Node, i int, v *Value) (SourceEdit, error) {
	indent, err := listIndent(p.src, list)
	if err != nil {
		return SourceEdit{}, err
	}
	child := list.Children[i]
	enc := p.enc.blockChild(v, indent)

	if !child.spanKnown || child.Span.End < child.Span.Start {
		// Empty slot ("-" with nothing behind it): insert after the marker.
		hyphen := p.hyphenBefore(child)
		off := hyphen + 1
		return SourceEdit{Offset: off, Length: 0, Replacement: " " + enc}, nil
	}

	start := child.Span.Start
	end := contentEnd(p.src, child)
	if end < start {
		return SourceEdit{Offset: start, Length: 0, Replacement: " " + enc}, nil
	}
	enc = normalizeBlock(p.src, p.le, end, v, enc)
	return SourceEdit{Offset: start, Length: end - start, Replacement: enc}, nil
}

// blockListRemove deletes element i together with its marker and trailing
// comments. Removing the only element rewrites the list as "[]"; removing
// the last one hands back the indentation (and, when emptying, the line
// break) that the greedy comment scan consumed from the following sibling.
func (p *planner) blockListRemove(list *Node, i int) (SourceEdit, error) {
	child := list.Children[i]
	hyphen := p.hyphenBefore(child)
	if hyphen < 0 {
		hyphen = child.Span.Start
	}
	end, _ := skipComments(p.src, contentEnd(p.src, child), true)

	only := len(list.Children) == 1
	lastElem := i == len(list.Children)-1

	if only {
		if end < len(p.src) {
			end = p.reclaim(end, true)
		}
		return SourceEdit{Offset: hyphen, Length: end - hyphen, Replacement: "[]"}, nil
	}

	start := hyphen
	if lastElem && hyphen > 0 {
		start = lineStartAt(p.src, hyphen)
	}
	if lastElem && end < len(p.src) {
		end = p.reclaim(end, false)
	}
	return SourceEdit{Offset: start, Length: end - start, Replacement: ""}, nil
}
