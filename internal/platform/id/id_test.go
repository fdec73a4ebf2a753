package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_IsValidAndUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		v := New()
		assert.Len(t, v, 26)
		assert.True(t, Valid(v))
		_, dup := seen[v]
		assert.False(t, dup)
		seen[v] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("01HZX3Q7J5K8M9N0P1Q2R3S4T5"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-an-id"))
	assert.False(t, Valid("507f1f77bcf86cd799439011")) // Mongo ObjectId
}
