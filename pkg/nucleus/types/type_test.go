package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityEquality(t *testing.T) {
	assert.Equal(t, I32, I32)
	assert.NotEqual(t, I32, I64)
	assert.NotEqual(t, I32, Ptr)
}

func TestString(t *testing.T) {
	assert.Equal(t, "i32", I32.String())
	assert.Equal(t, "ptr", Ptr.String())
	assert.Equal(t, "void", Void.String())
}

func TestByName(t *testing.T) {
	ty, ok := ByName("i64")
	assert.True(t, ok)
	assert.Equal(t, I64, ty)

	_, ok = ByName("nope")
	assert.False(t, ok)
}
