// Package yamlsplice edits YAML documents in place while preserving the
// formatting of everything it does not touch: comments, indentation,
// quoting choices, line endings, and flow-versus-block style.
//
// Instead of re-encoding the whole document after a change, each mutation
// computes a single text splice (a SourceEdit) against the original bytes,
// applies it, and re-parses the result to verify it. Bytes outside the
// splice are guaranteed to stay identical.
package yamlsplice
