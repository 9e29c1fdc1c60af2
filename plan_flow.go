package yamlsplice

// Flow collection planners. Flow splices key off the bracket and comma
// positions; the new content is always flow-encoded.

func (p *planner) flowListAppend(list *Node, v *Value) (SourceEdit, error) {
	closing := list.Span.End - 1
	repl := p.enc.encodeFlow(v)
	if len(list.Children) > 0 {
		repl = ", " + repl
	}
	return SourceEdit{Offset: closing, Length: 0, Replacement: repl}, nil
}

func (p *planner) flowListInsert(list *Node, i int, v *Value) (SourceEdit, error) {
	child := list.Children[i]
	return SourceEdit{
		Offset:      child.Span.Start,
		Length:      0,
		Replacement: p.enc.encodeFlow(v) + ", ",
	}, nil
}

func (p *planner) flowListUpdate(list *Node, i int, v *Value) (SourceEdit, error) {
	child := list.Children[i]
	return SourceEdit{
		Offset:      child.Span.Start,
		Length:      child.Span.End - child.Span.Start,
		Replacement: p.enc.encodeFlow(v),
	}, nil
}

func (p *planner) flowListRemove(list *Node, i int) (SourceEdit, error) {
	open := list.Span.Start
	closing := list.Span.End - 1
	child := list.Children[i]

	switch {
	case len(list.Children) == 1:
		return SourceEdit{Offset: open + 1, Length: closing - open - 1, Replacement: ""}, nil
	case i == 0:
		next := list.Children[1]
		return SourceEdit{Offset: open + 1, Length: next.Span.Start - open - 1, Replacement: ""}, nil
	default:
		comma := lastIndexBefore(p.src, child.Span.Start, ',')
		return SourceEdit{Offset: comma, Length: child.Span.End - comma, Replacement: ""}, nil
	}
}

func (p *planner) flowMapAdd(m *Node, key, v *Value) (SourceEdit, error) {
	entry := p.enc.encodeFlow(key) + ": " + p.enc.encodeFlow(v)
	k := insertionIndex(m.Pairs, keyString(key))
	if k < len(m.Pairs) {
		return SourceEdit{
			Offset:      m.Pairs[k].Key.Span.Start,
			Length:      0,
			Replacement: entry + ", ",
		}, nil
	}
	closing := m.Span.End - 1
	if len(m.Pairs) > 0 {
		entry = ", " + entry
	}
	return SourceEdit{Offset: closing, Length: 0, Replacement: entry}, nil
}

func (p *planner) flowMapReplace(m *Node, i int, v *Value) (SourceEdit, error) {
	val := m.Pairs[i].Value
	start := val.Span.Start
	end := val.Span.End
	repl := p.enc.encodeFlow(v)
	if !val.spanKnown {
		// Implicit null inside flow: splice after the colon, or supply one
		// for the bare-key form ("{a}").
		key := m.Pairs[i].Key
		if colon, ok := p.flowColonAfter(key); ok {
			start = colon + 1
			end = start
			repl = " " + repl
		} else {
			start = key.Span.End
			end = start
			repl = ": " + repl
		}
	}
	return SourceEdit{Offset: start, Length: end - start, Replacement: repl}, nil
}

// flowColonAfter finds the ":" separator of a flow entry, stopping at the
// entry boundary.
func (p *planner) flowColonAfter(key *Node) (int, bool) {
	for i := key.Span.End; i < len(p.src); i++ {
		switch p.src[i] {
		case ':':
			return i, true
		case ',', '}', ']':
			return 0, false
		}
	}
	return 0, false
}

func (p *planner) flowMapRemove(m *Node, i int) (SourceEdit, error) {
	open := m.Span.Start
	closing := m.Span.End - 1
	pair := m.Pairs[i]
	valEnd := pair.Value.Span.End
	if !pair.Value.spanKnown {
		valEnd = pair.Key.Span.End
		if colon, ok := p.flowColonAfter(pair.Key); ok {
			valEnd = colon + 1
		}
	}

	switch {
	case len(m.Pairs) == 1:
		return SourceEdit{Offset: open + 1, Length: closing - open - 1, Replacement: ""}, nil
	case i == 0:
		next := m.Pairs[1].Key.Span.Start
		return SourceEdit{Offset: open + 1, Length: next - open - 1, Replacement: ""}, nil
	default:
		comma := lastIndexBefore(p.src, pair.Key.Span.Start, ',')
		return SourceEdit{Offset: comma, Length: valEnd - comma, Replacement: ""}, nil
	}
}
