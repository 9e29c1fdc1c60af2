package yamlsplice

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gyaml "github.com/goccy/go-yaml"
)

// ApplyJSONPatch applies an RFC 6902 JSON Patch to the whole document,
// preserving comments and formatting of everything the patch leaves alone.
func (ed *Editor) ApplyJSONPatch(patchJSON []byte) error {
	return ed.ApplyJSONPatchAt(nil, patchJSON)
}

// ApplyJSONPatchAt applies a JSON Patch with every op path taken relative
// to basePath. The subtree is converted to JSON, patched, and the result
// driven back through minimal editor mutations so untouched lines keep
// their bytes. The call is atomic.
func (ed *Editor) ApplyJSONPatchAt(basePath Path, patchJSON []byte) error {
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return fmt.Errorf("yamlsplice: invalid JSON Patch: %w", err)
	}
	node, err := ed.resolve(basePath)
	if err != nil {
		return err
	}
	docJSON, err := nodeJSON(node)
	if err != nil {
		return err
	}
	patched, err := patch.Apply(docJSON)
	if err != nil {
		return fmt.Errorf("yamlsplice: JSON Patch apply: %w", err)
	}

	// Decode through goccy with ordered maps so object key order from the
	// patch result survives into the YAML.
	var out any
	if err := gyaml.UnmarshalWithOptions(patched, &out, gyaml.UseOrderedMap()); err != nil {
		return fmt.Errorf("yamlsplice: decode patched document: %w", err)
	}
	want, err := coerceValue(out)
	if err != nil {
		return err
	}

	savedSrc, savedTree, savedLog := ed.src, ed.tree, len(ed.log)
	if err := ed.applyValueDiff(basePath, want); err != nil {
		ed.src, ed.tree = savedSrc, savedTree
		ed.log = ed.log[:savedLog]
		ed.detect()
		return err
	}
	return nil
}

// applyValueDiff drives the editor until the subtree at path equals want,
// descending into equal structure instead of rewriting it.
func (ed *Editor) applyValueDiff(path Path, want *Value) error {
	node, err := ed.resolve(path)
	if err != nil {
		return err
	}

	switch {
	case want.kind == MappingValue && node.Kind == KindMapping:
		for _, pair := range node.Pairs {
			if _, ok := findEntry(want, pair.Key); !ok {
				if err := ed.Remove(append(append(Path{}, path...), pair.Key.Value)); err != nil {
					return err
				}
			}
		}
		for _, entry := range want.pairs {
			seg, err := segOf(entry.Key)
			if err != nil {
				return err
			}
			if err := ed.applyEntryDiff(append(append(Path{}, path...), seg), entry.Val); err != nil {
				return err
			}
		}
		return nil

	case want.kind == SequenceValue && node.Kind == KindSequence:
		oldLen := len(node.Children)
		common := oldLen
		if len(want.seq) < common {
			common = len(want.seq)
		}
		for i := 0; i < common; i++ {
			if err := ed.applyEntryDiff(append(append(Path{}, path...), i), want.seq[i]); err != nil {
				return err
			}
		}
		for i := oldLen - 1; i >= len(want.seq); i-- {
			if err := ed.Remove(append(append(Path{}, path...), i)); err != nil {
				return err
			}
		}
		for i := common; i < len(want.seq); i++ {
			if err := ed.AppendTo(path, want.seq[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if !nodeValue(node).equal(want) {
		return ed.Update(path, want)
	}
	return nil
}

// applyEntryDiff recurses when the target exists, and creates it otherwise.
func (ed *Editor) applyEntryDiff(path Path, want *Value) error {
	if _, err := ed.resolve(path); err != nil {
		return ed.Update(path, want)
	}
	return ed.applyValueDiff(path, want)
}

func findEntry(m *Value, key *Node) (*Value, bool) {
	for _, e := range m.pairs {
		if seg, err := segOf(e.Key); err == nil && keyMatches(key, seg) {
			return e.Val, true
		}
	}
	return nil, false
}

// segOf turns a scalar Value into a path segment.
func segOf(v *Value) (any, error) {
	switch v.kind {
	case StringValue:
		return v.s, nil
	case IntValue:
		return v.i, nil
	case BoolValue:
		return v.b, nil
	case FloatValue:
		return v.f, nil
	case NullValue:
		return nil, nil
	}
	return nil, &InvalidScalarError{Reason: "mapping key must be a scalar"}
}

// nodeJSON renders a subtree as JSON with mapping order preserved. JSON
// object keys are always strings, so scalar keys are coerced to their
// source text.
func nodeJSON(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNodeJSON(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNodeJSON(buf *bytes.Buffer, n *Node) error {
	switch n.Kind {
	case KindAlias:
		return &AliasError{}
	case KindSequence:
		buf.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNodeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindMapping:
		buf.WriteByte('{')
		for i, p := range n.Pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(p.Key.Value)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeNodeJSON(buf, p.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	b, err := json.Marshal(scalarGo(n))
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// scalarGo decodes a scalar node to its Go value.
func scalarGo(n *Node) any {
	v := nodeValue(n)
	switch v.kind {
	case NullValue:
		return nil
	case BoolValue:
		return v.b
	case IntValue:
		return v.i
	case FloatValue:
		return v.f
	}
	return v.s
}
