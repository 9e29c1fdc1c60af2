package yamlsplice

import "fmt"

// PathError reports a path segment that is missing, out of range, or applied
// to a node of the wrong kind. Recoverable: the editor state is unchanged.
type PathError struct {
	Path    []any
	Segment int
	Reason  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("yamlsplice: path %v: segment %d: %s", e.Path, e.Segment, e.Reason)
}

// AliasError reports a traversal that would cross a YAML alias. The editor
// treats the document as a tree and refuses to edit through shared nodes.
type AliasError struct {
	Path    []any
	Segment int
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("yamlsplice: path %v: segment %d traverses an alias", e.Path, e.Segment)
}

// InvalidScalarError reports a non-scalar value supplied where a scalar is
// required (for example as a mapping key).
type InvalidScalarError struct {
	Reason string
}

func (e *InvalidScalarError) Error() string {
	return "yamlsplice: invalid scalar: " + e.Reason
}

// PostEditParseError reports that a produced source failed to re-parse. The
// mutation is rolled back; the editor remains at its prior valid state.
type PostEditParseError struct {
	Err error
}

func (e *PostEditParseError) Error() string {
	return fmt.Sprintf("yamlsplice: edited source failed to re-parse: %v", e.Err)
}

func (e *PostEditParseError) Unwrap() error { return e.Err }

// EmptyBlockIndentError reports a request for the indentation of an empty
// block collection, which cannot exist in YAML source. Internal; it should
// not escape the façade.
type EmptyBlockIndentError struct{}

func (e *EmptyBlockIndentError) Error() string {
	return "yamlsplice: empty block collection has no indentation"
}
