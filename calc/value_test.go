package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromWirePreservesIntegerIdentity(t *testing.T) {
	v := FromWire(int64(42))
	n, ok := v.(Number)
	assert := assert.New(t)
	assert.True(ok)
	assert.True(n.IsInt)
	assert.Equal(42.0, n.F)

	v = FromWire(3.5)
	n, ok = v.(Number)
	assert.True(ok)
	assert.False(n.IsInt)
}

func TestParseNumericLiteral(t *testing.T) {
	assert := assert.New(t)

	n, ok := ParseNumericLiteral("42")
	assert.True(ok)
	assert.True(n.IsInt)

	n, ok = ParseNumericLiteral("3.14")
	assert.True(ok)
	assert.False(n.IsInt)

	_, ok = ParseNumericLiteral("not a number")
	assert.False(ok)
}

func TestTruthy(t *testing.T) {
	assert := assert.New(t)
	assert.False(Truthy(Empty{}))
	assert.False(Truthy(Number{F: 0}))
	assert.True(Truthy(Number{F: 1}))
	assert.True(Truthy(Text("hi")))
	assert.False(Truthy(Text("")))
	assert.False(Truthy(ErrNA()))
}

func TestValuesDiffer(t *testing.T) {
	assert := assert.New(t)
	assert.False(ValuesDiffer(Empty{}, Empty{}, 1e-10))
	assert.True(ValuesDiffer(Empty{}, Number{F: 1}, 1e-10))
	assert.False(ValuesDiffer(Number{F: 1.0000000001}, Number{F: 1}, 1e-9))
	assert.True(ValuesDiffer(Number{F: 1.1}, Number{F: 1}, 1e-9))
	assert.True(ValuesDiffer(Text("a"), Text("b"), 1e-9))
}

func TestErrorSingletonsInterned(t *testing.T) {
	assert := assert.New(t)
	assert.Same(ErrNA(), ErrNA())
	assert.True(IsError(ErrDiv0()))
	assert.False(IsError(Number{F: 1}))

	first, ok := FirstError(Number{F: 1}, ErrRef(), ErrValue())
	assert.True(ok)
	assert.Equal("#REF!", first.Code)
}
