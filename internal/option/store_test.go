package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUndefinedSentinel(t *testing.T) {
	s := NewStore()
	v, err := s.Get("missing")
	require.NoError(t, err)
	str, _ := v.AsString()
	assert.Equal(t, "!missing!", str)
}

func TestPushPopIsInverse(t *testing.T) {
	s := NewStore()
	s.PushReplace("kind", String("release"))
	before, err := s.Get("kind")
	require.NoError(t, err)

	s.Push("kind", String("debug"), Replace)
	after, err := s.Get("kind")
	require.NoError(t, err)
	assert.NotEqual(t, before.String(), after.String())

	require.NoError(t, s.Pop("kind"))
	restored, err := s.Get("kind")
	require.NoError(t, err)
	assert.True(t, before.Equal(restored))
}

func TestInterpolationWholeStringPreservesType(t *testing.T) {
	s := NewStore()
	s.PushReplace("count", Int(3))
	s.PushReplace("alias", String("{count}"))

	v, err := s.Get("alias")
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
	i, _ := v.AsInt()
	assert.Equal(t, int64(3), i)
}

func TestInterpolationPartialStringSplices(t *testing.T) {
	s := NewStore()
	s.PushReplace("name", String("demo"))
	s.PushReplace("path", String("build/{name}/bin"))

	v, err := s.Get("path")
	require.NoError(t, err)
	str, _ := v.AsString()
	assert.Equal(t, "build/demo/bin", str)
}

func TestInterpolationDescendsIntoLists(t *testing.T) {
	s := NewStore()
	s.PushReplace("n", Int(5))
	s.PushReplace("items", List([]Value{String("{n}"), String("lit")}))

	v, err := s.Get("items")
	require.NoError(t, err)
	items, _ := v.AsItems()
	require.Len(t, items, 2)
	assert.Equal(t, KindInt, items[0].Kind())
	assert.Equal(t, KindString, items[1].Kind())
}

func TestInterpolationCycleDetected(t *testing.T) {
	s := NewStore()
	s.PushReplace("a", String("{b}"))
	s.PushReplace("b", String("{a}"))

	_, err := s.Get("a")
	assert.Error(t, err)
}

func TestInterpolationFixpoint(t *testing.T) {
	s := NewStore()
	s.PushReplace("root", String("/proj"))
	s.PushReplace("bin", String("{root}/bin"))

	first, err := s.Get("bin")
	require.NoError(t, err)
	second, err := s.Get("bin")
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

// Operator laws: one row per (type, operator) pair from spec.md §4.1's table.
func TestOperatorLaws(t *testing.T) {
	t.Run("bool not", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("flag", Bool(true))
		s.Push("flag", Bool(true), Not)
		v, err := s.Get("flag")
		require.NoError(t, err)
		b, _ := v.AsBool()
		assert.False(t, b)
	})

	t.Run("int add/sub/mul/div", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("n", Int(10))
		s.Push("n", Int(5), Add)
		s.Push("n", Int(3), Sub)
		s.Push("n", Int(2), Mul)
		s.Push("n", Int(4), Div)
		v, err := s.Get("n")
		require.NoError(t, err)
		i, _ := v.AsInt()
		assert.Equal(t, int64(6), i) // ((10+5-3)*2)/4 = 6
	})

	t.Run("divide by zero is an error", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("n", Int(10))
		s.Push("n", Int(0), Div)
		_, err := s.Get("n")
		assert.Error(t, err)
	})

	t.Run("string add and sub", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("s", String("hello world"))
		s.Push("s", String("!"), Add)
		s.Push("s", String("world"), Sub)
		v, err := s.Get("s")
		require.NoError(t, err)
		str, _ := v.AsString()
		assert.Equal(t, "hello !", str)
	})

	t.Run("list append and extend", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("l", List([]Value{Int(1)}))
		s.Push("l", Int(2), Append)
		s.Push("l", List([]Value{Int(3), Int(4)}), Extend)
		v, err := s.Get("l")
		require.NoError(t, err)
		items, _ := v.AsItems()
		require.Len(t, items, 4)
	})

	t.Run("list diff by index", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("l", List([]Value{String("a"), String("b"), String("c")}))
		s.Push("l", Int(1), Diff)
		v, err := s.Get("l")
		require.NoError(t, err)
		items, _ := v.AsItems()
		require.Len(t, items, 2)
		first, _ := items[0].AsString()
		second, _ := items[1].AsString()
		assert.Equal(t, "a", first)
		assert.Equal(t, "c", second)
	})

	t.Run("set union", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("set1", Set([]Value{String("a"), String("b")}))
		s.Push("set1", Set([]Value{String("b"), String("c")}), Union)
		v, err := s.Get("set1")
		require.NoError(t, err)
		items, _ := v.AsItems()
		assert.Len(t, items, 3)
	})

	t.Run("map append and remove", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("m", Map([]Value{String("a")}, []Value{Int(1)}))
		s.Push("m", Map([]Value{String("b")}, []Value{Int(2)}), Append)
		s.Push("m", String("a"), Remove)
		v, err := s.Get("m")
		require.NoError(t, err)
		pairs, _ := v.AsPairs()
		require.Len(t, pairs, 1)
		k, _ := pairs[0].Key.AsString()
		assert.Equal(t, "b", k)
	})

	t.Run("unsupported triple is an error", func(t *testing.T) {
		s := NewStore()
		s.PushReplace("b", Bool(true))
		s.Push("b", Int(1), Add)
		_, err := s.Get("b")
		assert.Error(t, err)
	})
}

func TestCloneDiverges(t *testing.T) {
	proto := NewStore()
	proto.PushReplace("sources", List([]Value{String("a.c")}))

	clone := proto.Clone()
	clone.Push("sources", String("x.c"), Append)

	protoVal, _ := proto.Get("sources")
	cloneVal, _ := clone.Get("sources")
	assert.False(t, protoVal.Equal(cloneVal))

	protoItems, _ := protoVal.AsItems()
	assert.Len(t, protoItems, 1)
}
