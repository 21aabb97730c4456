package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Float(2.5), fnRound([]Value{Float(2.45), Int(1)}))
	assert.Equal(Float(-2.5), fnRound([]Value{Float(-2.45), Int(1)}))
	assert.Equal(Float(1), fnRound([]Value{Float(0.5), Int(0)}))
}

func TestModFollowsDivisorSign(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Float(1), fnMod([]Value{Int(7), Int(3)}))
	assert.Equal(Float(2), fnMod([]Value{Int(-7), Int(3)}))
	assert.Equal(ErrDiv0(), fnMod([]Value{Int(7), Int(0)}))
}

func TestSumSkipsTextAndEmpty(t *testing.T) {
	result := fnSum([]Value{Int(1), Text("ignored"), Empty{}, Int(2)})
	n, ok := result.(Number)
	assert.True(t, ok)
	assert.Equal(t, 3.0, n.F)
}

func TestSumPropagatesError(t *testing.T) {
	assert.Equal(t, ErrValue(), fnSum([]Value{Int(1), ErrValue()}))
}
