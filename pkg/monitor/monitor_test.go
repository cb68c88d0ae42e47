package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The server main inits the business metrics before the router calls Init,
// which inits them again. Both paths hit the default prometheus registry, so
// a second registration must be a no-op rather than a panic.
func TestInitIsIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		InitBusinessMetrics()
		Init()
		Init()
		InitBusinessMetrics()
	})

	assert.NotNil(t, Business)
	assert.NotNil(t, Business.SettlementTotal)

	first := Business
	InitBusinessMetrics()
	assert.Same(t, first, Business)
}
