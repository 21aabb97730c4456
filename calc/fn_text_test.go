package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteNthOccurrence(t *testing.T) {
	result := fnSubstitute([]Value{Text("a-b-c-d"), Text("-"), Text("_"), Int(2)})
	assert.Equal(t, Text("a-b_c-d"), result)
}

func TestTextGroupedThousands(t *testing.T) {
	result := fnText([]Value{Float(1234567.891), Text("#,##0.00")})
	assert.Equal(t, Text("1,234,567.89"), result)
}

func TestFindIsCaseSensitive(t *testing.T) {
	assert.Equal(t, ErrValue(), fnFind([]Value{Text("b"), Text("ABC")}))
	assert.Equal(t, Int(2), fnFind([]Value{Text("B"), Text("ABC")}))
}

func TestRept(t *testing.T) {
	assert.Equal(t, Text("abab"), fnRept([]Value{Text("ab"), Int(2)}))
}
