package typedstruct_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/tree"
)

// fixture declares the schemas most record tests share.
type fixture struct {
	reg    *typedstruct.Registry
	child  *typedstruct.Schema
	parent *typedstruct.Schema
	prims  *typedstruct.Schema
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg := typedstruct.NewRegistry()
	child := reg.Declare("Child").Field("n", typedstruct.Int()).MustBuild()
	parent := reg.Declare("Parent").
		Field("obj", typedstruct.Ref("Child")).
		Field("opt", typedstruct.Ref("Child"), typedstruct.Nilable()).
		Field("arr", typedstruct.Seq(typedstruct.Ref("Child"))).
		Field("grid", typedstruct.Seq(typedstruct.Seq(typedstruct.Int()))).
		MustBuild()
	prims := reg.Declare("Prims").
		Field("i", typedstruct.Int()).
		Field("s", typedstruct.String()).
		Field("f", typedstruct.Float()).
		Field("b", typedstruct.Bool()).
		Field("sym", typedstruct.Sym()).
		Field("any", typedstruct.Any()).
		Field("ni", typedstruct.Int(), typedstruct.Nilable()).
		MustBuild()
	require.NoError(t, reg.Seal())
	return fixture{reg: reg, child: child, parent: parent, prims: prims}
}

func TestRecord_ZeroValues(t *testing.T) {
	f := newFixture(t)
	r := f.prims.Zero()

	cases := map[string]any{
		"i":   int64(0),
		"s":   "",
		"f":   0.0,
		"b":   false,
		"sym": typedstruct.Symbol(""),
		"any": nil,
		"ni":  nil,
	}
	for name, want := range cases {
		got, err := r.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	p := f.parent.Zero()
	obj, err := p.Record("obj")
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.True(t, obj.Equal(f.child.Zero()))

	opt, err := p.Record("opt")
	require.NoError(t, err)
	assert.Nil(t, opt)

	arr, err := p.Seq("arr")
	require.NoError(t, err)
	assert.Empty(t, arr)
}

func TestRecord_ZeroRecordsAreFresh(t *testing.T) {
	f := newFixture(t)
	a, b := f.parent.Zero(), f.parent.Zero()
	objA, _ := a.Record("obj")
	require.NoError(t, objA.Set("n", 5))
	objB, _ := b.Record("obj")
	n, _ := objB.Int("n")
	assert.Equal(t, int64(0), n)
}

func TestRecord_NewAndGet(t *testing.T) {
	f := newFixture(t)
	r, err := f.prims.New(map[string]any{
		"i":       3,
		"s":       "hello",
		"f":       float32(1.5),
		"b":       true,
		"sym":     typedstruct.Symbol("ok"),
		"any":     map[string]any{"k": []int{1}},
		"ignored": "unknown keys are dropped",
	})
	require.NoError(t, err)

	i, err := r.Int("i")
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)
	fl, _ := r.Float("f")
	assert.Equal(t, 1.5, fl)
	s, _ := r.Str("s")
	assert.Equal(t, "hello", s)
	b, _ := r.Bool("b")
	assert.True(t, b)
	sym, _ := r.Symbol("sym")
	assert.Equal(t, typedstruct.Symbol("ok"), sym)

	anyV := r.MustGet("any")
	m, ok := anyV.(*tree.Map)
	require.True(t, ok, "Any trees are normalized, got %T", anyV)
	k, _ := m.Get("k")
	assert.Equal(t, []any{int64(1)}, k)

	ni, err := r.Int("ni")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ni, "nil nilable reads as Go zero")
}

func TestRecord_NoCoercion(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		field string
		value any
	}{
		{"i", "10"},
		{"i", 1.0},
		{"f", 1},
		{"s", typedstruct.Symbol("s")},
		{"sym", "s"},
		{"b", 1},
		{"b", 0},
		{"i", nil},
		{"any", struct{}{}},
	}
	for _, tc := range cases {
		_, err := f.prims.New(map[string]any{tc.field: tc.value})
		tm, ok := typedstruct.AsTypeMismatch(err)
		require.True(t, ok, "%s=%#v: got %v", tc.field, tc.value, err)
		assert.Equal(t, "Prims", tm.Schema)
		assert.Equal(t, tc.field, tm.Field)
		assert.Equal(t, "/"+tc.field, tm.Path)
		assert.Equal(t, typedstruct.CodeTypeMismatch, typedstruct.CodeOf(err))
	}
}

func TestRecord_SetIsAtomic(t *testing.T) {
	f := newFixture(t)
	r := f.prims.MustNew(map[string]any{"i": 7})

	err := r.Set("i", "not an int")
	_, ok := typedstruct.AsTypeMismatch(err)
	require.True(t, ok)
	i, _ := r.Int("i")
	assert.Equal(t, int64(7), i)

	assert.False(t, r.TrySet("i", "nope"))
	assert.True(t, r.TrySet("i", 8))
	i, _ = r.Int("i")
	assert.Equal(t, int64(8), i)

	require.NoError(t, r.Set("ni", nil))
	require.NoError(t, r.Set("any", []any{"x", 1}))
}

func TestRecord_UnknownField(t *testing.T) {
	f := newFixture(t)
	r := f.prims.Zero()

	_, err := r.Get("nope")
	var uf *typedstruct.UnknownFieldError
	require.ErrorAs(t, err, &uf)
	assert.Equal(t, "nope", uf.Field)

	require.ErrorAs(t, r.Set("nope", 1), &uf)
	assert.False(t, r.TrySet("nope", 1))
	assert.Panics(t, func() { r.MustGet("nope") })
}

func TestRecord_NestedTypes(t *testing.T) {
	f := newFixture(t)
	p := f.parent.Zero()

	c := f.child.MustNew(map[string]any{"n": 1})
	require.NoError(t, p.Set("obj", c))
	require.NoError(t, p.Set("opt", c))
	require.NoError(t, p.Set("opt", nil))
	require.NoError(t, p.Set("arr", []*typedstruct.Record{c, f.child.Zero()}))
	require.NoError(t, p.Set("grid", [][]int{{1, 2}, {}}))

	assert.Error(t, p.Set("obj", nil), "non-nilable struct")
	assert.Error(t, p.Set("obj", f.prims.Zero()), "record of another schema")
	assert.Error(t, p.Set("obj", map[string]any{"n": 1}), "plain maps are not records")
	assert.Error(t, p.Set("arr", []any{c, nil}), "sequence elements are never nilable")
	assert.Error(t, p.Set("grid", []int{1, 2}), "flat list for nested sequence")
	assert.Error(t, p.Set("grid", "12"), "strings are not sequences")

	grid, err := p.Seq("grid")
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{int64(1), int64(2)}, []any{}}, grid)
}

func TestRecord_GetReturnsCopies(t *testing.T) {
	f := newFixture(t)
	p := f.parent.MustNew(map[string]any{"grid": [][]int{{1}}})
	grid, _ := p.Seq("grid")
	grid[0] = []any{int64(99)}

	again, _ := p.Seq("grid")
	assert.Equal(t, []any{[]any{int64(1)}}, again)
}

func TestRecord_Equal(t *testing.T) {
	f := newFixture(t)
	a := f.parent.MustNew(map[string]any{"arr": []any{f.child.MustNew(map[string]any{"n": 1})}})
	b := f.parent.MustNew(map[string]any{"arr": []any{f.child.MustNew(map[string]any{"n": 1})}})
	assert.True(t, a.Equal(b))

	arr, _ := b.Seq("arr")
	require.NoError(t, arr[0].(*typedstruct.Record).Set("n", 2))
	assert.False(t, a.Equal(b), "nested records are shared by reference")

	assert.False(t, f.child.Zero().Equal(f.prims.Zero()))
	var nilRec *typedstruct.Record
	assert.True(t, nilRec.Equal(nil))
}

func TestTypeCorrectAndZeroValue(t *testing.T) {
	assert.True(t, typedstruct.TypeCorrect(typedstruct.Int(), int16(3), false))
	assert.False(t, typedstruct.TypeCorrect(typedstruct.Int(), uint64(1<<63), false))
	assert.True(t, typedstruct.TypeCorrect(typedstruct.Any(), nil, false))
	assert.True(t, typedstruct.TypeCorrect(typedstruct.String(), nil, true))
	assert.False(t, typedstruct.TypeCorrect(typedstruct.Seq(typedstruct.Int()), []any{1, nil}, true))

	assert.Nil(t, typedstruct.ZeroValue(typedstruct.Int(), true))
	assert.Equal(t, []any{}, typedstruct.ZeroValue(typedstruct.Seq(typedstruct.Int()), false))
}

func TestRecord_RejectsCycles(t *testing.T) {
	reg := typedstruct.NewRegistry()
	node := reg.Declare("Node").
		Field("next", typedstruct.Ref("Node"), typedstruct.Nilable()).
		Field("kids", typedstruct.Seq(typedstruct.Ref("Node"))).
		Field("meta", typedstruct.Any()).
		MustBuild()
	reg.MustSeal()

	a := node.Zero()
	b := node.Zero()

	t.Run("self", func(t *testing.T) {
		err := a.Set("next", a)
		var ce *typedstruct.CycleError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "/next", ce.Path)
		assert.Equal(t, typedstruct.CodeRecordCycle, typedstruct.CodeOf(err))
		assert.False(t, a.TrySet("next", a))
		assert.Nil(t, a.MustGet("next"))
	})
	t.Run("indirect", func(t *testing.T) {
		require.NoError(t, a.Set("next", b))
		err := b.Set("kids", []*typedstruct.Record{a})
		assert.Equal(t, typedstruct.CodeRecordCycle, typedstruct.CodeOf(err))
		kids, _ := b.Seq("kids")
		assert.Empty(t, kids)
	})
	t.Run("through any", func(t *testing.T) {
		err := b.Set("meta", map[string]any{"back": []any{a}})
		assert.Equal(t, typedstruct.CodeRecordCycle, typedstruct.CodeOf(err))
	})
	t.Run("shared child is not a cycle", func(t *testing.T) {
		c := node.Zero()
		require.NoError(t, c.Set("next", b))
		require.NoError(t, c.Set("kids", []*typedstruct.Record{b, b}))
	})

	out, err := typedstruct.Marshal(a)
	require.NoError(t, err)
	next, _ := out.Get("next")
	require.IsType(t, &tree.Map{}, next)
	assert.Contains(t, a.String(), "Node")
}
