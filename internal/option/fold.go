package option

import "strings"

// apply folds override onto computed using op, after op has been
// disambiguated against computed's kind. It is a direct port of the
// type-directed dispatch in pyke's Options._apply_op, generalized from
// Python's duck typing to an explicit Kind switch.
func apply(computed, override Value, op Op) (Value, error) {
	if op == Replace {
		return override, nil
	}
	op = resolveAmbiguousOp(op, computed.kind)

	switch computed.kind {
	case KindBool:
		return applyBool(computed, override, op)
	case KindInt, KindFloat:
		return applyNumeric(computed, override, op)
	case KindString:
		return applyString(computed, override, op)
	case KindList:
		return applyList(computed, override, op)
	case KindTuple:
		return applyTuple(computed, override, op)
	case KindSet:
		return applySet(computed, override, op)
	case KindMap:
		return applyMap(computed, override, op)
	default:
		return Value{}, &OperationError{Op: op, Kind: computed.kind, Message: "no operator applies to null"}
	}
}

func applyBool(computed, override Value, op Op) (Value, error) {
	if op == Not {
		if b, ok := override.AsBool(); ok {
			return Bool(!b), nil
		}
	}
	return Value{}, &OperationError{Op: op, Kind: KindBool, Message: "operator on bools must be !="}
}

func applyNumeric(computed, override Value, op Op) (Value, error) {
	if !override.IsNumeric() {
		return Value{}, &OperationError{Op: op, Kind: computed.kind, Message: "operand must be numeric"}
	}
	l, r := computed.numeric(), override.numeric()
	bothInt := computed.kind == KindInt && override.kind == KindInt

	result := func(f float64) Value {
		if bothInt {
			return Int(int64(f))
		}
		return Float(f)
	}

	switch op {
	case Add:
		return result(l + r), nil
	case Sub:
		return result(l - r), nil
	case Mul:
		return result(l * r), nil
	case Div:
		if r == 0.0 {
			return Value{}, &OperationError{Op: op, Kind: computed.kind, Message: "division by zero"}
		}
		return result(l / r), nil
	default:
		return Value{}, &OperationError{Op: op, Kind: computed.kind, Message: "operators on numbers must be +, -, *, / and not dividing by 0"}
	}
}

func applyString(computed, override Value, op Op) (Value, error) {
	switch op {
	case Add:
		return String(computed.s + override.String()), nil
	case Sub:
		sub := override.String()
		if idx := strings.Index(computed.s, sub); idx >= 0 {
			return String(computed.s[:idx] + computed.s[idx+len(sub):]), nil
		}
		return computed, nil
	default:
		return Value{}, &OperationError{Op: op, Kind: KindString, Message: "operators on strings must be + or -"}
	}
}

func applyList(computed, override Value, op Op) (Value, error) {
	switch op {
	case Append:
		return List(append(append([]Value(nil), computed.items...), override)), nil
	case Extend:
		seq, ok := override.AsItems()
		if !ok || override.kind == KindSet {
			return Value{}, &OperationError{Op: op, Kind: KindList, Message: "lists can be extended only by other lists or tuples"}
		}
		return List(append(append([]Value(nil), computed.items...), seq...)), nil
	case Remove:
		return List(filterNotEqual(computed.items, override)), nil
	case Diff:
		idxs, ok := indexSet(override)
		if !ok {
			return Value{}, &OperationError{Op: op, Kind: KindList, Message: "remove-from-list operands must be by integer index"}
		}
		return List(dropIndices(computed.items, idxs)), nil
	default:
		return Value{}, &OperationError{Op: op, Kind: KindList, Message: "unsupported list operator"}
	}
}

func applyTuple(computed, override Value, op Op) (Value, error) {
	switch op {
	case Append:
		return Tuple(append(append([]Value(nil), computed.items...), override)), nil
	case Extend:
		seq, ok := override.AsItems()
		if !ok || override.kind == KindSet {
			return Value{}, &OperationError{Op: op, Kind: KindTuple, Message: "tuples can be extended only by other lists or tuples"}
		}
		return Tuple(append(append([]Value(nil), computed.items...), seq...)), nil
	case Remove:
		return Tuple(filterNotEqual(computed.items, override)), nil
	case Diff:
		idxs, ok := indexSet(override)
		if !ok {
			return Value{}, &OperationError{Op: op, Kind: KindTuple, Message: "remove-from-tuple operands must be by integer index"}
		}
		return Tuple(dropIndices(computed.items, idxs)), nil
	default:
		return Value{}, &OperationError{Op: op, Kind: KindTuple, Message: "unsupported tuple operator"}
	}
}

func applySet(computed, override Value, op Op) (Value, error) {
	switch op {
	case Append:
		return Set(append(append([]Value(nil), computed.items...), override)), nil
	case Remove:
		return Set(filterNotEqual(computed.items, override)), nil
	case Union:
		if override.kind != KindSet {
			return Value{}, &OperationError{Op: op, Kind: KindSet, Message: "union operand must be a set"}
		}
		return Set(append(append([]Value(nil), computed.items...), override.items...)), nil
	case Intersect:
		if override.kind != KindSet {
			return Value{}, &OperationError{Op: op, Kind: KindSet, Message: "intersect operand must be a set"}
		}
		other := make(map[string]bool, len(override.items))
		for _, it := range override.items {
			other[it.canonicalKey()] = true
		}
		out := make([]Value, 0, len(computed.items))
		for _, it := range computed.items {
			if other[it.canonicalKey()] {
				out = append(out, it)
			}
		}
		return Set(out), nil
	case Diff:
		if override.kind != KindSet {
			return Value{}, &OperationError{Op: op, Kind: KindSet, Message: "difference operand must be a set"}
		}
		other := make(map[string]bool, len(override.items))
		for _, it := range override.items {
			other[it.canonicalKey()] = true
		}
		out := make([]Value, 0, len(computed.items))
		for _, it := range computed.items {
			if !other[it.canonicalKey()] {
				out = append(out, it)
			}
		}
		return Set(out), nil
	case SymDiff:
		if override.kind != KindSet {
			return Value{}, &OperationError{Op: op, Kind: KindSet, Message: "symmetric difference operand must be a set"}
		}
		left := make(map[string]bool, len(computed.items))
		for _, it := range computed.items {
			left[it.canonicalKey()] = true
		}
		right := make(map[string]bool, len(override.items))
		for _, it := range override.items {
			right[it.canonicalKey()] = true
		}
		out := make([]Value, 0, len(computed.items)+len(override.items))
		for _, it := range computed.items {
			if !right[it.canonicalKey()] {
				out = append(out, it)
			}
		}
		for _, it := range override.items {
			if !left[it.canonicalKey()] {
				out = append(out, it)
			}
		}
		return Set(out), nil
	default:
		return Value{}, &OperationError{Op: op, Kind: KindSet, Message: "unsupported set operator"}
	}
}

func applyMap(computed, override Value, op Op) (Value, error) {
	switch op {
	case Append, Union:
		if override.kind != KindMap {
			return Value{}, &OperationError{Op: op, Kind: KindMap, Message: "append/union operand must be a map"}
		}
		keys := make([]Value, 0, len(computed.pairs)+len(override.pairs))
		vals := make([]Value, 0, len(computed.pairs)+len(override.pairs))
		for _, p := range computed.pairs {
			keys = append(keys, p.Key)
			vals = append(vals, p.Val)
		}
		for _, p := range override.pairs {
			keys = append(keys, p.Key)
			vals = append(vals, p.Val)
		}
		return Map(keys, vals), nil
	case Remove:
		drop := map[string]bool{}
		switch override.kind {
		case KindList, KindTuple, KindSet:
			for _, it := range override.items {
				drop[it.canonicalKey()] = true
			}
		default:
			drop[override.canonicalKey()] = true
		}
		keys := make([]Value, 0, len(computed.pairs))
		vals := make([]Value, 0, len(computed.pairs))
		for _, p := range computed.pairs {
			if drop[p.Key.canonicalKey()] {
				continue
			}
			keys = append(keys, p.Key)
			vals = append(vals, p.Val)
		}
		return Map(keys, vals), nil
	default:
		return Value{}, &OperationError{Op: op, Kind: KindMap, Message: "unsupported map operator"}
	}
}

func filterNotEqual(items []Value, v Value) []Value {
	out := make([]Value, 0, len(items))
	key := v.canonicalKey()
	for _, it := range items {
		if it.canonicalKey() != key {
			out = append(out, it)
		}
	}
	return out
}

// indexSet interprets override as a single integer index or a collection of
// integer indices, matching the source's "diff by index" semantics.
func indexSet(override Value) (map[int64]bool, bool) {
	if i, ok := override.AsInt(); ok {
		return map[int64]bool{i: true}, true
	}
	items, ok := override.AsItems()
	if !ok {
		return nil, false
	}
	out := make(map[int64]bool, len(items))
	for _, it := range items {
		i, ok := it.AsInt()
		if !ok {
			return nil, false
		}
		out[i] = true
	}
	return out, true
}

func dropIndices(items []Value, idxs map[int64]bool) []Value {
	out := make([]Value, 0, len(items))
	for i, it := range items {
		if idxs[int64(i)] {
			continue
		}
		out = append(out, it)
	}
	return out
}
