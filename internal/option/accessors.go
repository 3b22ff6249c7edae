package option

// The typed accessors give callers a WrongType-style failure (wrapped in
// ErrInvalidKey, matching spec.md §4.1's "InvalidOptionKey" failure mode)
// instead of a type assertion panic when a phase's option doesn't hold the
// kind of value the caller expected.

func (s *Store) Bool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, wrongType(key, KindBool, v.kind)
	}
	return b, nil
}

func (s *Store) Int(key string) (int64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, wrongType(key, KindInt, v.kind)
	}
	return i, nil
}

func (s *Store) Float(key string) (float64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, wrongType(key, KindFloat, v.kind)
	}
	return f, nil
}

func (s *Store) Str(key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	str, ok := v.AsString()
	if !ok {
		return "", wrongType(key, KindString, v.kind)
	}
	return str, nil
}

func (s *Store) List(key string) ([]Value, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.kind != KindList {
		return nil, wrongType(key, KindList, v.kind)
	}
	items, _ := v.AsItems()
	return items, nil
}

func (s *Store) Tuple(key string) ([]Value, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.kind != KindTuple {
		return nil, wrongType(key, KindTuple, v.kind)
	}
	items, _ := v.AsItems()
	return items, nil
}

func (s *Store) SetVal(key string) ([]Value, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.kind != KindSet {
		return nil, wrongType(key, KindSet, v.kind)
	}
	items, _ := v.AsItems()
	return items, nil
}

func (s *Store) Dict(key string) ([]struct{ Key, Val Value }, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.kind != KindMap {
		return nil, wrongType(key, KindMap, v.kind)
	}
	pairs, _ := v.AsPairs()
	out := make([]struct{ Key, Val Value }, len(pairs))
	for i, p := range pairs {
		out[i] = struct{ Key, Val Value }{Key: p.Key, Val: p.Val}
	}
	return out, nil
}

func wrongType(key string, want, got Kind) error {
	return &KeyError{Key: key, Message: "expected " + want.String() + " but option holds " + got.String()}
}
