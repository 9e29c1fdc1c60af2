package yamlsplice

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	gyaml "github.com/goccy/go-yaml"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	NullValue ValueKind = iota
	BoolValue
	IntValue
	FloatValue
	StringValue
	SequenceValue
	MappingValue
)

// MapEntry is one ordered key/value pair of a mapping Value.
type MapEntry struct {
	Key *Value
	Val *Value
}

// Value is the tagged variant callers inject into the editor: null, bool,
// integer, float, string, sequence, or mapping, optionally carrying a
// requested output style. The zero Value is null.
type Value struct {
	kind  ValueKind
	b     bool
	i     int64
	f     float64
	s     string
	seq   []*Value
	pairs []MapEntry
	style Style
}

func (v *Value) Kind() ValueKind { return v.kind }
func (v *Value) Style() Style    { return v.style }

// Null returns the null value.
func Null() *Value { return &Value{kind: NullValue} }

// Bool returns a boolean value.
func Bool(b bool) *Value { return &Value{kind: BoolValue, b: b} }

// Int returns an integer value.
func Int(i int64) *Value { return &Value{kind: IntValue, i: i} }

// Float returns a floating-point value.
func Float(f float64) *Value { return &Value{kind: FloatValue, f: f} }

// String returns a string value.
func String(s string) *Value { return &Value{kind: StringValue, s: s} }

// Seq returns a sequence value.
func Seq(items ...*Value) *Value { return &Value{kind: SequenceValue, seq: items} }

// Map returns a mapping value with entries in the given order.
func Map(entries ...MapEntry) *Value { return &Value{kind: MappingValue, pairs: entries} }

// Entry builds one mapping entry with a string key.
func Entry(key string, val *Value) MapEntry {
	return MapEntry{Key: String(key), Val: val}
}

// Styled returns a copy of v pinned to the given style. Scalar styles apply
// to scalar values, StyleBlock/StyleFlow to collections; mismatches are left
// to the encoder's fallback rules.
func Styled(v *Value, style Style) *Value {
	c := *v
	c.style = style
	return &c
}

// ValueOf converts a plain Go value into a Value. Supported inputs: nil,
// bool, all integer and float types, string, *Value (returned as is),
// gyaml.MapSlice (order preserved), map types (keys sorted), and slices.
func ValueOf(in any) (*Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("yamlsplice: uint64 value %d overflows int64", t)
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case gyaml.MapSlice:
		pairs := make([]MapEntry, 0, len(t))
		for _, item := range t {
			k, err := ValueOf(item.Key)
			if err != nil {
				return nil, err
			}
			v, err := ValueOf(item.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, MapEntry{Key: k, Val: v})
		}
		return Map(pairs...), nil
	case []any:
		seq := make([]*Value, 0, len(t))
		for _, item := range t {
			v, err := ValueOf(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return Seq(seq...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]MapEntry, 0, len(t))
		for _, k := range keys {
			v, err := ValueOf(t[k])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Entry(k, v))
		}
		return Map(pairs...), nil
	}

	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		seq := make([]*Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return Seq(seq...), nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		pairs := make([]MapEntry, 0, len(keys))
		for _, k := range keys {
			kv, err := ValueOf(k.Interface())
			if err != nil {
				return nil, err
			}
			vv, err := ValueOf(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, MapEntry{Key: kv, Val: vv})
		}
		return Map(pairs...), nil
	}
	return nil, fmt.Errorf("yamlsplice: unsupported value type %T", in)
}

// isEmptyCollection reports whether v is a sequence or mapping with no
// members.
func (v *Value) isEmptyCollection() bool {
	switch v.kind {
	case SequenceValue:
		return len(v.seq) == 0
	case MappingValue:
		return len(v.pairs) == 0
	}
	return false
}

func (v *Value) isCollection() bool {
	return v.kind == SequenceValue || v.kind == MappingValue
}

// blockCapable reports whether v may be emitted in block style.
func (v *Value) blockCapable() bool {
	return v.style != StyleFlow
}

// terminalScalar descends along last-child edges until it reaches a scalar.
// It returns nil when the descent dead-ends in an empty collection.
func (v *Value) terminalScalar() *Value {
	switch v.kind {
	case SequenceValue:
		if len(v.seq) == 0 {
			return nil
		}
		return v.seq[len(v.seq)-1].terminalScalar()
	case MappingValue:
		if len(v.pairs) == 0 {
			return nil
		}
		return v.pairs[len(v.pairs)-1].Val.terminalScalar()
	}
	return v
}

// equal reports deep structural equality, ignoring styles.
func (v *Value) equal(o *Value) bool {
	if v.kind != o.kind {
		// Numeric cross-kind comparison keeps 1 == 1.0 out on purpose:
		// replacing an int with a float is a real edit.
		return false
	}
	switch v.kind {
	case NullValue:
		return true
	case BoolValue:
		return v.b == o.b
	case IntValue:
		return v.i == o.i
	case FloatValue:
		return v.f == o.f
	case StringValue:
		return v.s == o.s
	case SequenceValue:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].equal(o.seq[i]) {
				return false
			}
		}
		return true
	case MappingValue:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.equal(o.pairs[i].Key) || !v.pairs[i].Val.equal(o.pairs[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}

// nodeValue converts a parsed node back into a Value, carrying styles so a
// re-encode keeps the source's choices.
func nodeValue(n *Node) *Value {
	switch n.Kind {
	case KindSequence:
		seq := make([]*Value, 0, len(n.Children))
		for _, c := range n.Children {
			seq = append(seq, nodeValue(c))
		}
		v := Seq(seq...)
		v.style = n.Style
		return v
	case KindMapping:
		pairs := make([]MapEntry, 0, len(n.Pairs))
		for _, p := range n.Pairs {
			pairs = append(pairs, MapEntry{Key: nodeValue(p.Key), Val: nodeValue(p.Value)})
		}
		v := Map(pairs...)
		v.style = n.Style
		return v
	}

	var v *Value
	switch n.Tag {
	case "!!null":
		v = Null()
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			v = String(n.Value)
		} else {
			v = Bool(b)
		}
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			v = String(n.Value)
		} else {
			v = Int(i)
		}
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			v = String(n.Value)
		} else {
			v = Float(f)
		}
	default:
		v = String(n.Value)
	}
	v.style = n.Style
	return v
}

// keyMatches compares a path segment against a parsed key node. Scalar keys
// compare by decoded value: strings byte-for-byte, numbers and booleans by
// parsed value, nil against null keys.
func keyMatches(key *Node, seg any) bool {
	if key == nil || key.Kind != KindScalar {
		return false
	}
	switch s := seg.(type) {
	case string:
		return key.Value == s
	case bool:
		b, err := strconv.ParseBool(key.Value)
		return err == nil && key.Tag == "!!bool" && b == s
	case int:
		i, err := strconv.ParseInt(key.Value, 0, 64)
		return err == nil && i == int64(s)
	case int64:
		i, err := strconv.ParseInt(key.Value, 0, 64)
		return err == nil && i == s
	case float64:
		f, err := strconv.ParseFloat(key.Value, 64)
		return err == nil && key.Tag == "!!float" && f == s
	case nil:
		return key.IsNull()
	}
	return false
}
