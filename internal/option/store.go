package option

import (
	"fmt"
	"regexp"
)

// entry is one (value, operator) override layer on an option's stack.
type entry struct {
	value Value
	op    Op
}

// option holds every override layer pushed for a single name. The oldest
// entry is always Replace, per spec.md's invariant that every option has at
// least one entry whose operator is Replace.
type option struct {
	name    string
	entries []entry
}

// Store is a phase's layered, typed configuration. It implements the
// resolution algorithm from spec.md §4.1: get(key) deep-copies the stack,
// interpolates every string reference, then folds the stack left to right.
type Store struct {
	opts map[string]*option
	// order preserves first-push order so Keys() and cloning are
	// deterministic rather than dependent on Go's map iteration order.
	order []string
}

// NewStore returns an empty options store.
func NewStore() *Store {
	return &Store{opts: map[string]*option{}}
}

// Push appends an override layer for key, creating the option (with a
// Replace bottom entry) if key is new.
func (s *Store) Push(key string, v Value, op Op) {
	o, ok := s.opts[key]
	if !ok {
		o = &option{name: key}
		s.opts[key] = o
		s.order = append(s.order, key)
	}
	if len(o.entries) == 0 {
		op = Replace
	}
	o.entries = append(o.entries, entry{value: v, op: op})
}

// PushReplace is shorthand for Push(key, v, Replace); it's how the first
// (default) value for an option is typically installed.
func (s *Store) PushReplace(key string, v Value) {
	s.Push(key, v, Replace)
}

// Pop removes the most recent override layer for key. Popping an option down
// to zero entries removes it entirely, matching the "no empty stacks"
// invariant by deletion rather than by leaving a dangling Option.
func (s *Store) Pop(key string) error {
	o, ok := s.opts[key]
	if !ok || len(o.entries) == 0 {
		return &KeyError{Key: key, Message: "no override to pop"}
	}
	o.entries = o.entries[:len(o.entries)-1]
	if len(o.entries) == 0 {
		delete(s.opts, key)
		s.removeFromOrder(key)
	}
	return nil
}

func (s *Store) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Has reports whether key has at least one entry.
func (s *Store) Has(key string) bool {
	o, ok := s.opts[key]
	return ok && len(o.entries) > 0
}

// Keys returns the option names in first-push order.
func (s *Store) Keys() []string {
	return append([]string(nil), s.order...)
}

// undefinedSentinel is returned by Get for an option with no entries, per
// spec.md §4.1 step 1 ("by convention, the literal !key!").
func undefinedSentinel(key string) Value {
	return String(fmt.Sprintf("!%s!", key))
}

// Get resolves key to its fully interpolated, operator-folded Value.
func (s *Store) Get(key string) (Value, error) {
	return s.get(key, map[string]bool{})
}

func (s *Store) get(key string, visiting map[string]bool) (Value, error) {
	o, ok := s.opts[key]
	if !ok || len(o.entries) == 0 {
		return undefinedSentinel(key), nil
	}
	if visiting[key] {
		return Value{}, &ValueError{Input: key, Message: "interpolation cycle detected"}
	}
	visiting[key] = true
	defer delete(visiting, key)

	// Interpolate every entry's value before folding.
	interped := make([]entry, len(o.entries))
	for i, e := range o.entries {
		iv, err := s.interpolate(e.value, visiting)
		if err != nil {
			return Value{}, err
		}
		interped[i] = entry{value: iv, op: e.op}
	}

	computed := interped[0].value
	for _, e := range interped[1:] {
		next, err := apply(computed, e.value, e.op)
		if err != nil {
			return Value{}, err
		}
		computed = next
	}
	return computed, nil
}

var interpRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+?)\}`)

// interpolate implements spec.md §4.1 step 3: recursively replace `{key}`
// references inside strings (and inside list/tuple/set/map elements) with
// the resolved value of key. If the whole string equals `{key}`, the
// substitution preserves the looked-up value's type; otherwise the looked-up
// value is stringified and spliced into the surrounding text.
func (s *Store) interpolate(v Value, visiting map[string]bool) (Value, error) {
	switch v.kind {
	case KindString:
		return s.interpolateString(v.s, visiting)
	case KindList:
		return s.interpolateSeq(v, visiting, List)
	case KindTuple:
		return s.interpolateSeq(v, visiting, Tuple)
	case KindSet:
		items, err := s.interpolateItems(v.items, visiting)
		if err != nil {
			return Value{}, err
		}
		return Set(items), nil
	case KindMap:
		keys := make([]Value, len(v.pairs))
		vals := make([]Value, len(v.pairs))
		for i, p := range v.pairs {
			ik, err := s.interpolate(p.Key, visiting)
			if err != nil {
				return Value{}, err
			}
			iv, err := s.interpolate(p.Val, visiting)
			if err != nil {
				return Value{}, err
			}
			keys[i] = ik
			vals[i] = iv
		}
		return Map(keys, vals), nil
	default:
		return v, nil
	}
}

func (s *Store) interpolateSeq(v Value, visiting map[string]bool, ctor func([]Value) Value) (Value, error) {
	items, err := s.interpolateItems(v.items, visiting)
	if err != nil {
		return Value{}, err
	}
	return ctor(items), nil
}

func (s *Store) interpolateItems(items []Value, visiting map[string]bool) ([]Value, error) {
	out := make([]Value, len(items))
	for i, it := range items {
		iv, err := s.interpolate(it, visiting)
		if err != nil {
			return nil, err
		}
		out[i] = iv
	}
	return out, nil
}

func (s *Store) interpolateString(str string, visiting map[string]bool) (Value, error) {
	m := interpRe.FindStringSubmatchIndex(str)
	if m == nil {
		return String(str), nil
	}
	// Whole-string match: preserve the substituted value's type.
	if m[0] == 0 && m[1] == len(str) {
		sub := str[m[2]:m[3]]
		resolved, err := s.get(sub, visiting)
		if err != nil {
			return Value{}, err
		}
		return resolved, nil
	}
	// Partial match: stringify and splice, then keep resolving the rest.
	sub := str[m[2]:m[3]]
	resolved, err := s.get(sub, visiting)
	if err != nil {
		return Value{}, err
	}
	spliced := str[:m[0]] + resolved.String() + str[m[1]:]
	return s.interpolateString(spliced, visiting)
}

// Clone returns a deep, independent copy of the store: subsequent pushes on
// the clone never affect the original, and vice versa. This is what backs
// phase prototype cloning (spec.md §4.2).
func (s *Store) Clone() *Store {
	clone := NewStore()
	for _, key := range s.order {
		o := s.opts[key]
		entries := make([]entry, len(o.entries))
		copy(entries, o.entries)
		clone.opts[key] = &option{name: key, entries: entries}
		clone.order = append(clone.order, key)
	}
	return clone
}
