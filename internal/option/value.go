// Package option implements the layered, typed configuration store described
// by the options engine: named options holding a stack of (value, operator)
// overrides, resolved through recursive string interpolation and a
// type-directed operator fold.
package option

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the dynamic type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindTuple
	KindSet
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// pair is a single map entry; a map's pairs are kept sorted by canonical
// key so that Value equality and canonical encoding are deterministic.
type pair struct {
	Key Value
	Val Value
}

// Value is a tagged union over the option value domain. It is immutable once
// constructed: every transformation (interpolation, operator application)
// returns a new Value rather than mutating the receiver.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	items []Value // list/tuple/set
	pairs []pair  // map
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func List(items []Value) Value   { return Value{kind: KindList, items: append([]Value(nil), items...)} }
func Tuple(items []Value) Value  { return Value{kind: KindTuple, items: append([]Value(nil), items...)} }

// Set builds a set value, deduplicating elements by their canonical key and
// sorting them so the result is deterministic regardless of input order.
func Set(items []Value) Value {
	seen := make(map[string]bool, len(items))
	out := make([]Value, 0, len(items))
	for _, it := range items {
		k := it.canonicalKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].canonicalKey() < out[j].canonicalKey() })
	return Value{kind: KindSet, items: out}
}

// Map builds a map value from keys paired positionally with vals. Later
// duplicate keys overwrite earlier ones, matching Python dict-literal
// semantics in the source this grammar was ported from.
func Map(keys, vals []Value) Value {
	m := map[string]pair{}
	order := make([]string, 0, len(keys))
	for idx, k := range keys {
		ck := k.canonicalKey()
		if _, ok := m[ck]; !ok {
			order = append(order, ck)
		}
		m[ck] = pair{Key: k, Val: vals[idx]}
	}
	sort.Strings(order)
	out := make([]pair, 0, len(order))
	for _, ck := range order {
		out = append(out, m[ck])
	}
	return Value{kind: KindMap, pairs: out}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == KindString }
func (v Value) AsItems() ([]Value, bool) {
	if v.kind == KindList || v.kind == KindTuple || v.kind == KindSet {
		return v.items, true
	}
	return nil, false
}
func (v Value) AsPairs() ([]pair, bool) {
	if v.kind == KindMap {
		return v.pairs, true
	}
	return nil, false
}

// IsNumeric reports whether v is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// numeric returns v's value widened to float64, for mixed int/float arithmetic.
func (v Value) numeric() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Equal reports deep value equality, independent of the collection literal's
// original element order for sets and maps (which are already normalized).
func (v Value) Equal(o Value) bool {
	return v.canonicalKey() == o.canonicalKey()
}

// canonicalKey produces a deterministic, type-tagged string encoding of v,
// suitable as a Go map key or for sorting -- the closest Go gets to Python's
// hashable-container discipline for set elements and map keys.
func (v Value) canonicalKey() string {
	var b strings.Builder
	v.writeCanonical(&b)
	return b.String()
}

func (v Value) writeCanonical(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("n:")
	case KindBool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(v.s))
	case KindList, KindTuple, KindSet:
		switch v.kind {
		case KindList:
			b.WriteString("l[")
		case KindTuple:
			b.WriteString("t[")
		case KindSet:
			b.WriteString("S[")
		}
		for idx, it := range v.items {
			if idx > 0 {
				b.WriteByte(',')
			}
			it.writeCanonical(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteString("m{")
		for idx, p := range v.pairs {
			if idx > 0 {
				b.WriteByte(',')
			}
			p.Key.writeCanonical(b)
			b.WriteByte(':')
			p.Val.writeCanonical(b)
		}
		b.WriteByte('}')
	}
}

// String renders v the way interpolation splices a non-whole-string
// substitution: scalars print bare, collections print Python-literal-ish.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "None"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		return bracketed(v.items, "[", "]")
	case KindTuple:
		return bracketed(v.items, "(", ")")
	case KindSet:
		return bracketed(v.items, "{", "}")
	case KindMap:
		parts := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			parts[i] = fmt.Sprintf("%s: %s", p.Key.String(), p.Val.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<?>"
	}
}

func bracketed(items []Value, open, close string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return open + strings.Join(parts, ", ") + close
}
