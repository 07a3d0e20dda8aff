package engine_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eng "github.com/reoring/typedstruct/internal/engine"
	"github.com/reoring/typedstruct/tree"
)

// sliceSource replays a fixed token list.
type sliceSource struct {
	toks []eng.Token
	i    int
}

func (s *sliceSource) NextToken() (eng.Token, error) {
	if s.i >= len(s.toks) {
		return eng.Token{}, io.EOF
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.i) }

func obj(kv ...eng.Token) []eng.Token {
	out := []eng.Token{{Kind: eng.KindBeginObject}}
	out = append(out, kv...)
	return append(out, eng.Token{Kind: eng.KindEndObject})
}

func key(k string) eng.Token { return eng.Token{Kind: eng.KindKey, String: k} }
func num(n string) eng.Token { return eng.Token{Kind: eng.KindNumber, Number: n} }
func str(s string) eng.Token { return eng.Token{Kind: eng.KindString, String: s} }

func tokens(ts ...[]eng.Token) []eng.Token {
	var out []eng.Token
	for _, t := range ts {
		out = append(out, t...)
	}
	return out
}

func TestDecodeTree_OrderedAndNumbers(t *testing.T) {
	src := &sliceSource{toks: tokens(
		[]eng.Token{{Kind: eng.KindBeginObject}},
		[]eng.Token{key("z"), num("1")},
		[]eng.Token{key("a"), num("1.0")},
		[]eng.Token{key("e"), num("2e3")},
		[]eng.Token{key("l"), {Kind: eng.KindBeginArray}, str("x"), {Kind: eng.KindNull}, {Kind: eng.KindBool, Bool: true}, {Kind: eng.KindEndArray}},
		[]eng.Token{{Kind: eng.KindEndObject}},
	)}
	v, err := eng.DecodeTree(src)
	require.NoError(t, err)

	m := v.(*tree.Map)
	assert.Equal(t, []string{"z", "a", "e", "l"}, m.Keys())
	z, _ := m.Get("z")
	assert.Equal(t, int64(1), z)
	a, _ := m.Get("a")
	assert.Equal(t, 1.0, a)
	e, _ := m.Get("e")
	assert.Equal(t, 2000.0, e)
	l, _ := m.Get("l")
	assert.Equal(t, []any{"x", nil, true}, l)
}

func TestDecodeTree_IntegerOverflow(t *testing.T) {
	src := &sliceSource{toks: obj(key("n"), num("9223372036854775808"))}
	_, err := eng.DecodeTree(src)
	var ee *eng.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, eng.CodeParseError, ee.Code)
	assert.Equal(t, "/n", ee.Path)
}

func TestDecodeTree_TrailingAndTruncated(t *testing.T) {
	_, err := eng.DecodeTree(&sliceSource{toks: tokens(obj(), obj())})
	var ee *eng.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, eng.CodeParseError, ee.Code)

	_, err = eng.DecodeTree(&sliceSource{toks: []eng.Token{{Kind: eng.KindBeginObject}, key("a")}})
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, eng.CodeTruncated, ee.Code)
	assert.True(t, errors.Is(err, io.EOF))

	_, err = eng.DecodeTree(&sliceSource{})
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, eng.CodeTruncated, ee.Code)
}

func TestEnforcement_DuplicateKeys(t *testing.T) {
	toks := obj(key("o"), eng.Token{Kind: eng.KindBeginObject}, key("a~b"), num("1"), key("a~b"), num("2"), eng.Token{Kind: eng.KindEndObject})

	_, err := eng.DecodeTree(eng.WrapWithEnforcement(&sliceSource{toks: toks}, eng.EnforceOptions{}))
	var ee *eng.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, eng.CodeDuplicateKey, ee.Code)
	assert.Equal(t, "/o/a~0b", ee.Path)

	v, err := eng.DecodeTree(eng.WrapWithEnforcement(&sliceSource{toks: toks}, eng.EnforceOptions{OnDuplicate: eng.DupIgnore}))
	require.NoError(t, err)
	o, _ := v.(*tree.Map).Get("o")
	last, _ := o.(*tree.Map).Get("a~b")
	assert.Equal(t, int64(2), last, "last occurrence wins")
}

func TestEnforcement_SiblingObjectsDoNotShareKeys(t *testing.T) {
	toks := tokens(
		[]eng.Token{{Kind: eng.KindBeginArray}},
		obj(key("a"), num("1")),
		obj(key("a"), num("2")),
		[]eng.Token{{Kind: eng.KindEndArray}},
	)
	_, err := eng.DecodeTree(eng.WrapWithEnforcement(&sliceSource{toks: toks}, eng.EnforceOptions{}))
	require.NoError(t, err)
}

func TestEnforcement_MaxDepth(t *testing.T) {
	toks := obj(key("a"), eng.Token{Kind: eng.KindBeginArray}, eng.Token{Kind: eng.KindBeginArray},
		eng.Token{Kind: eng.KindEndArray}, eng.Token{Kind: eng.KindEndArray})

	_, err := eng.DecodeTree(eng.WrapWithEnforcement(&sliceSource{toks: toks}, eng.EnforceOptions{MaxDepth: 2}))
	var ee *eng.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, eng.CodeParseError, ee.Code)
	assert.Equal(t, "/a/0", ee.Path)

	_, err = eng.DecodeTree(eng.WrapWithEnforcement(&sliceSource{toks: toks}, eng.EnforceOptions{MaxDepth: 3}))
	require.NoError(t, err)
}

func TestJoinPointer(t *testing.T) {
	assert.Equal(t, "/a~1b/c~0d", eng.JoinPointer(eng.JoinPointer("", "a/b"), "c~d"))
}
