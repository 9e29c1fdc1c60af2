package yamlsplice

// Kind classifies a parsed node.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindAlias:
		return "alias"
	}
	return "unknown"
}

// Style records how a node is written in the source, or how an injected
// value should be written. StyleAny means the style is not pinned; the
// editor treats any-styled collections as block-capable.
type Style int

const (
	StyleAny Style = iota
	StylePlain
	StyleSingle
	StyleDouble
	StyleLiteral
	StyleFolded
	StyleBlock
	StyleFlow
)

func (s Style) String() string {
	switch s {
	case StyleAny:
		return "any"
	case StylePlain:
		return "plain"
	case StyleSingle:
		return "single"
	case StyleDouble:
		return "double"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	case StyleBlock:
		return "block"
	case StyleFlow:
		return "flow"
	}
	return "unknown"
}

// Span is a half-open byte range [Start, End) in the source the node was
// parsed from.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

// NodePair is one mapping entry.
type NodePair struct {
	Key   *Node
	Value *Node
}

// Node is one node of the parsed tree. Nodes are owned by the editor and
// become stale after any successful mutation; callers must not retain them
// across edits.
type Node struct {
	Kind  Kind
	Style Style

	// Scalar payload. Value is the decoded scalar text, Tag the resolved
	// YAML tag ("!!str", "!!int", "!!null", ...).
	Value string
	Tag   string

	Children []*Node    // sequence items
	Pairs    []NodePair // mapping entries, in source order

	Span Span

	// spanKnown is false for nodes the parser placed but gave no usable
	// extent, e.g. the implicit null after "key:" with nothing behind it.
	spanKnown bool
}

// IsNull reports whether the node is a null scalar.
func (n *Node) IsNull() bool {
	return n.Kind == KindScalar && n.Tag == "!!null"
}

// Len returns the number of children for sequences and entries for mappings.
func (n *Node) Len() int {
	switch n.Kind {
	case KindSequence:
		return len(n.Children)
	case KindMapping:
		return len(n.Pairs)
	}
	return 0
}

// blockCapable reports whether the node may be emitted in block style.
func (n *Node) blockCapable() bool {
	return n.Style != StyleFlow
}

// entryAt returns the mapping entry whose key matches seg.
func (n *Node) entryAt(seg any) (NodePair, bool) {
	for _, p := range n.Pairs {
		if keyMatches(p.Key, seg) {
			return p, true
		}
	}
	return NodePair{}, false
}
