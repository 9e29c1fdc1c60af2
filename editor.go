package yamlsplice

import "fmt"

// SourceEdit is a single text splice: Length bytes at Offset are replaced by
// Replacement. The editor applies each edit on its own as soon as it is
// planned, so an edit's offsets refer to the source as it stood right
// before that edit; edits are never batched or reordered.
type SourceEdit struct {
	Offset      int
	Length      int
	Replacement string
}

// Editor holds a YAML source string and its parsed tree and mutates the
// source through minimal splices. Every successful mutation swaps both the
// string and the tree atomically; nodes obtained before a mutation are
// stale afterwards.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	src  string
	tree *Node
	le   string
	step int
	log  []SourceEdit
}

// New parses source and returns an editor positioned on it. The source must
// be a single non-empty YAML document.
func New(source string) (*Editor, error) {
	tree, err := parseDocument(source)
	if err != nil {
		return nil, err
	}
	ed := &Editor{src: source, tree: tree}
	ed.detect()
	return ed, nil
}

func (ed *Editor) detect() {
	ed.le = detectLineEnding(ed.src)
	ed.step = indentStep(ed.src, ed.tree)
}

func (ed *Editor) planner() *planner {
	return &planner{
		src:  ed.src,
		le:   ed.le,
		step: ed.step,
		enc:  &encoder{step: ed.step, le: ed.le},
	}
}

// String returns the current source text.
func (ed *Editor) String() string { return ed.src }

// Edits returns the append-only log of applied splices, in call order.
func (ed *Editor) Edits() []SourceEdit {
	out := make([]SourceEdit, len(ed.log))
	copy(out, ed.log)
	return out
}

// ParseAt traverses the current tree along path and returns the node there.
// The node is a read-only view and becomes stale after the next mutation.
func (ed *Editor) ParseAt(path Path) (*Node, error) {
	return ed.resolve(path)
}

func (ed *Editor) resolve(path Path) (*Node, error) {
	n := ed.tree
	for i, seg := range path {
		switch n.Kind {
		case KindAlias:
			return nil, &AliasError{Path: path, Segment: i}
		case KindSequence:
			idx, ok := seg.(int)
			if !ok {
				return nil, &PathError{Path: path, Segment: i, Reason: fmt.Sprintf("sequence requires an integer index, got %T", seg)}
			}
			if idx < 0 || idx >= len(n.Children) {
				return nil, &PathError{Path: path, Segment: i, Reason: fmt.Sprintf("index %d out of range (len %d)", idx, len(n.Children))}
			}
			n = n.Children[idx]
		case KindMapping:
			pair, ok := n.entryAt(seg)
			if !ok {
				return nil, &PathError{Path: path, Segment: i, Reason: fmt.Sprintf("key %v not found", seg)}
			}
			n = pair.Value
		default:
			return nil, &PathError{Path: path, Segment: i, Reason: "cannot descend into a scalar"}
		}
	}
	if n.Kind == KindAlias {
		return nil, &AliasError{Path: path, Segment: len(path)}
	}
	return n, nil
}

// Update sets the value at path. A missing final mapping key is created;
// anything else missing is a path error. Scalar and collection styles are
// inherited from the node being replaced unless the value pins its own.
func (ed *Editor) Update(path Path, value any) error {
	v, err := coerceValue(value)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return ed.replaceRoot(v)
	}

	parent, err := ed.resolve(path[:len(path)-1])
	if err != nil {
		return err
	}
	seg := path[len(path)-1]
	p := ed.planner()

	switch parent.Kind {
	case KindSequence:
		idx, ok := seg.(int)
		if !ok {
			return &PathError{Path: path, Segment: len(path) - 1, Reason: fmt.Sprintf("sequence requires an integer index, got %T", seg)}
		}
		if idx < 0 || idx >= len(parent.Children) {
			return &PathError{Path: path, Segment: len(path) - 1, Reason: fmt.Sprintf("index %d out of range (len %d)", idx, len(parent.Children))}
		}
		if sameValue(parent.Children[idx], v) {
			return nil
		}
		v = inheritStyle(v, parent.Children[idx])
		var edit SourceEdit
		if parent.Style == StyleFlow {
			edit, err = p.flowListUpdate(parent, idx, v)
		} else {
			edit, err = p.blockListUpdate(parent, idx, v)
		}
		if err != nil {
			return err
		}
		return ed.apply(edit)

	case KindMapping:
		if i, ok := pairIndex(parent, seg); ok {
			if sameValue(parent.Pairs[i].Value, v) {
				return nil
			}
			v = inheritStyle(v, parent.Pairs[i].Value)
			var edit SourceEdit
			if parent.Style == StyleFlow {
				edit, err = p.flowMapReplace(parent, i, v)
			} else {
				edit, err = p.blockMapReplace(parent, i, v)
			}
			if err != nil {
				return err
			}
			return ed.apply(edit)
		}
		key, err := keyValue(seg)
		if err != nil {
			return err
		}
		var edit SourceEdit
		if parent.Style == StyleFlow {
			edit, err = p.flowMapAdd(parent, key, v)
		} else {
			edit, err = p.blockMapAdd(parent, key, v)
		}
		if err != nil {
			return err
		}
		return ed.apply(edit)
	}
	return &PathError{Path: path, Segment: len(path) - 1, Reason: "cannot descend into a scalar"}
}

// AppendTo appends value to the sequence at path.
func (ed *Editor) AppendTo(path Path, value any) error {
	v, err := coerceValue(value)
	if err != nil {
		return err
	}
	list, err := ed.resolveSequence(path)
	if err != nil {
		return err
	}
	p := ed.planner()
	var edit SourceEdit
	if list.Style == StyleFlow || len(list.Children) == 0 {
		edit, err = p.flowListAppend(list, v)
	} else {
		edit, err = p.blockListAppend(list, v)
	}
	if err != nil {
		return err
	}
	return ed.apply(edit)
}

// PrependTo inserts value at the head of the sequence at path.
func (ed *Editor) PrependTo(path Path, value any) error {
	return ed.Insert(path, 0, value)
}

// Insert places value before index in the sequence at path; an index at or
// past the end appends.
func (ed *Editor) Insert(path Path, index int, value any) error {
	v, err := coerceValue(value)
	if err != nil {
		return err
	}
	list, err := ed.resolveSequence(path)
	if err != nil {
		return err
	}
	if index < 0 {
		return &PathError{Path: path, Segment: len(path), Reason: fmt.Sprintf("negative index %d", index)}
	}
	if index >= len(list.Children) {
		return ed.AppendTo(path, v)
	}
	p := ed.planner()
	var edit SourceEdit
	if list.Style == StyleFlow {
		edit, err = p.flowListInsert(list, index, v)
	} else {
		edit, err = p.blockListInsert(list, index, v)
	}
	if err != nil {
		return err
	}
	return ed.apply(edit)
}

// Remove deletes the node at path: a sequence element or a mapping entry.
func (ed *Editor) Remove(path Path) error {
	if len(path) == 0 {
		return &PathError{Path: path, Segment: 0, Reason: "cannot remove the document root"}
	}
	parent, err := ed.resolve(path[:len(path)-1])
	if err != nil {
		return err
	}
	seg := path[len(path)-1]
	p := ed.planner()

	switch parent.Kind {
	case KindSequence:
		idx, ok := seg.(int)
		if !ok {
			return &PathError{Path: path, Segment: len(path) - 1, Reason: fmt.Sprintf("sequence requires an integer index, got %T", seg)}
		}
		if idx < 0 || idx >= len(parent.Children) {
			return &PathError{Path: path, Segment: len(path) - 1, Reason: fmt.Sprintf("index %d out of range (len %d)", idx, len(parent.Children))}
		}
		var edit SourceEdit
		if parent.Style == StyleFlow {
			edit, err = p.flowListRemove(parent, idx)
		} else {
			edit, err = p.blockListRemove(parent, idx)
		}
		if err != nil {
			return err
		}
		return ed.apply(edit)

	case KindMapping:
		i, ok := pairIndex(parent, seg)
		if !ok {
			return &PathError{Path: path, Segment: len(path) - 1, Reason: fmt.Sprintf("key %v not found", seg)}
		}
		var edit SourceEdit
		if parent.Style == StyleFlow {
			edit, err = p.flowMapRemove(parent, i)
		} else {
			edit, err = p.blockMapRemove(parent, i)
		}
		if err != nil {
			return err
		}
		return ed.apply(edit)
	}
	return &PathError{Path: path, Segment: len(path) - 1, Reason: "cannot descend into a scalar"}
}

// Splice removes deleteCount elements at index from the sequence at path
// and inserts values in their place, logging one edit per step. The call is
// atomic: any failure restores the pre-call state.
func (ed *Editor) Splice(path Path, index, deleteCount int, values ...any) error {
	list, err := ed.resolveSequence(path)
	if err != nil {
		return err
	}
	if index < 0 || index > len(list.Children) {
		return &PathError{Path: path, Segment: len(path), Reason: fmt.Sprintf("splice index %d out of range (len %d)", index, len(list.Children))}
	}
	if max := len(list.Children) - index; deleteCount > max {
		deleteCount = max
	}

	savedSrc, savedTree, savedLog := ed.src, ed.tree, len(ed.log)
	restore := func() {
		ed.src, ed.tree = savedSrc, savedTree
		ed.log = ed.log[:savedLog]
		ed.detect()
	}

	childPath := append(append(Path{}, path...), index)
	for i := 0; i < deleteCount; i++ {
		if err := ed.Remove(childPath); err != nil {
			restore()
			return err
		}
	}
	for i, value := range values {
		if err := ed.Insert(path, index+i, value); err != nil {
			restore()
			return err
		}
	}
	return nil
}

func (ed *Editor) resolveSequence(path Path) (*Node, error) {
	n, err := ed.resolve(path)
	if err != nil {
		return nil, err
	}
	if n.Kind != KindSequence {
		return nil, &PathError{Path: path, Segment: len(path), Reason: fmt.Sprintf("expected a sequence, found %s", n.Kind)}
	}
	return n, nil
}

func (ed *Editor) replaceRoot(v *Value) error {
	enc := &encoder{step: ed.step, le: ed.le}
	repl := enc.encodeBlock(v, 0)
	if len(ed.src) > 0 && ed.src[len(ed.src)-1] == '\n' {
		repl += ed.le
	}
	return ed.apply(SourceEdit{Offset: 0, Length: len(ed.src), Replacement: repl})
}

// apply splices one edit into the source, re-parses, and commits both on
// success. A replacement identical to the bytes it replaces is a no-op and
// is not logged, which keeps same-value updates byte-identical.
func (ed *Editor) apply(edit SourceEdit) error {
	if edit.Offset < 0 || edit.Offset+edit.Length > len(ed.src) {
		return fmt.Errorf("yamlsplice: edit out of bounds: offset %d length %d", edit.Offset, edit.Length)
	}
	if ed.src[edit.Offset:edit.Offset+edit.Length] == edit.Replacement {
		return nil
	}
	next := ed.src[:edit.Offset] + edit.Replacement + ed.src[edit.Offset+edit.Length:]
	tree, err := parseDocument(next)
	if err != nil {
		return &PostEditParseError{Err: err}
	}
	ed.src = next
	ed.tree = tree
	ed.detect()
	ed.log = append(ed.log, edit)
	return nil
}

func pairIndex(m *Node, seg any) (int, bool) {
	for i, p := range m.Pairs {
		if keyMatches(p.Key, seg) {
			return i, true
		}
	}
	return 0, false
}

// coerceValue converts user input and checks it is injectable: mapping keys
// must be scalars, and styled nodes carry no tags or anchors by
// construction.
func coerceValue(value any) (*Value, error) {
	v, err := ValueOf(value)
	if err != nil {
		return nil, err
	}
	if err := checkInjectable(v); err != nil {
		return nil, err
	}
	return v, nil
}

func checkInjectable(v *Value) error {
	switch v.kind {
	case SequenceValue:
		for _, item := range v.seq {
			if err := checkInjectable(item); err != nil {
				return err
			}
		}
	case MappingValue:
		for _, p := range v.pairs {
			if p.Key.isCollection() {
				return &InvalidScalarError{Reason: "mapping key must be a scalar"}
			}
			if err := checkInjectable(p.Val); err != nil {
				return err
			}
		}
	}
	return nil
}

// keyValue converts a path segment into the scalar key to insert.
func keyValue(seg any) (*Value, error) {
	v, err := ValueOf(seg)
	if err != nil {
		return nil, err
	}
	if v.isCollection() {
		return nil, &InvalidScalarError{Reason: "mapping key must be a scalar"}
	}
	return v, nil
}

// sameValue reports that an update would not change the target at all, so
// the source can stay byte-identical.
func sameValue(n *Node, v *Value) bool {
	if n.Kind == KindAlias {
		return false
	}
	if v.style != StyleAny && v.style != n.Style {
		return false
	}
	return nodeValue(n).equal(v)
}

// inheritStyle carries the replaced node's style onto an unpinned value of
// the same shape, so updating a value keeps the way it was written.
func inheritStyle(v *Value, old *Node) *Value {
	if v.style != StyleAny || old == nil {
		return v
	}
	switch {
	case v.kind == SequenceValue && old.Kind == KindSequence,
		v.kind == MappingValue && old.Kind == KindMapping:
		return Styled(v, old.Style)
	case !v.isCollection() && old.Kind == KindScalar:
		if old.Style == StylePlain {
			return v
		}
		return Styled(v, old.Style)
	}
	return v
}
