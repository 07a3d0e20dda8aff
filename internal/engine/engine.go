package engine

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/reoring/typedstruct/tree"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// Error codes produced by the engine. They match the root package codes.
const (
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// Error is a wire-level failure located by JSON Pointer.
type Error struct {
	Code    string
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Code + ": " + e.Message
	}
	return e.Code + " at " + e.Path + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// DecodeTree reads exactly one value from src and builds an ordered tree:
// objects become *tree.Map in input order, numbers without '.', 'e' or 'E'
// become int64 and the rest float64. Input left after the value is an error.
func DecodeTree(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Code: CodeTruncated, Message: "empty input", Cause: err}
		}
		return nil, wrapSourceErr(err, "")
	}
	d := decoder{src: src}
	v, err := d.value(tok, "")
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); err == nil {
		return nil, &Error{Code: CodeParseError, Message: "trailing data after top-level value"}
	} else if !errors.Is(err, io.EOF) {
		return nil, wrapSourceErr(err, "")
	}
	return v, nil
}

type decoder struct {
	src TokenSource
}

func (d decoder) next(path string) (Token, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		return Token{}, wrapSourceErr(err, path)
	}
	return tok, nil
}

func (d decoder) value(tok Token, path string) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object(path)
	case KindBeginArray:
		return d.array(path)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return ParseNumber(tok.Number, path)
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	}
	return nil, &Error{Code: CodeParseError, Path: path, Message: "unexpected token"}
}

func (d decoder) object(path string) (any, error) {
	m := tree.NewMap(0)
	for {
		tok, err := d.next(path)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, &Error{Code: CodeParseError, Path: path, Message: "expected object key"}
		}
		kp := JoinPointer(path, tok.String)
		vt, err := d.next(kp)
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, kp)
		if err != nil {
			return nil, err
		}
		m.Set(tok.String, v)
	}
}

func (d decoder) array(path string) (any, error) {
	arr := []any{}
	for {
		tok, err := d.next(path)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok, JoinPointer(path, strconv.Itoa(len(arr))))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// ParseNumber converts a JSON number literal into int64 or float64.
func ParseNumber(lit, path string) (any, error) {
	if !strings.ContainsAny(lit, ".eE") {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, &Error{Code: CodeParseError, Path: path, Message: "integer " + lit + " overflows int64", Cause: err}
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, &Error{Code: CodeParseError, Path: path, Message: "number " + lit + " out of range", Cause: err}
	}
	return f, nil
}

func wrapSourceErr(err error, path string) error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Code: CodeTruncated, Path: path, Message: "unexpected end of input", Cause: err}
	}
	return &Error{Code: CodeParseError, Path: path, Message: err.Error(), Cause: err}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPointer appends a reference token to a JSON Pointer.
func JoinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
