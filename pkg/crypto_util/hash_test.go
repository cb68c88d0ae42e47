package crypto_util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateSHA256(t *testing.T) {
	// SHA256("hello")
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		CalculateSHA256([]byte("hello")))
}

func TestCalculateKeccak256(t *testing.T) {
	// Keccak256 of the empty input, the constant Ethereum uses everywhere.
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		CalculateKeccak256(nil))
}

func TestCalculateBlake3(t *testing.T) {
	a := CalculateBlake3([]byte("hello"))
	b := CalculateBlake3([]byte("hello"))
	c := CalculateBlake3([]byte("hellp"))

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
