package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 100.5, Round2(100.5001))
	assert.Equal(t, 100.46, Round2(100.456))
	assert.Equal(t, -2.34, Round2(-2.344))
	assert.Equal(t, 124.07, Round2(123.456*1.005))
}

func TestRoundToTick(t *testing.T) {
	assert.Equal(t, 100.25, RoundUpToTick(100.21, 0.25))
	assert.Equal(t, 100.0, RoundDownToTick(100.21, 0.25))

	// Non-positive tick leaves the value alone.
	assert.Equal(t, 100.21, RoundUpToTick(100.21, 0))
	assert.Equal(t, 100.21, RoundDownToTick(100.21, -1))
}
