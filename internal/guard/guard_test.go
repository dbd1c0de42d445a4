package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewZeroCeilingSelectsDefault(t *testing.T) {
	g := New(0)
	assert.Equal(t, DefaultCeiling, g.Ceiling())
}

func TestEnterFailsAtCeiling(t *testing.T) {
	g := New(2)
	assert.True(t, g.Enter())
	assert.True(t, g.Enter())
	assert.False(t, g.Enter())
	assert.Equal(t, 2, g.Depth())
}

func TestExitAllowsReentry(t *testing.T) {
	g := New(1)
	assert.True(t, g.Enter())
	assert.False(t, g.Enter())
	g.Exit()
	assert.True(t, g.Enter())
}

func TestExitAtZeroIsNoop(t *testing.T) {
	g := New(4)
	g.Exit()
	assert.Equal(t, 0, g.Depth())
}

func TestResetZeroesDepthKeepsCeiling(t *testing.T) {
	g := New(3)
	g.Enter()
	g.Enter()
	g.Reset()
	assert.Equal(t, 0, g.Depth())
	assert.Equal(t, 3, g.Ceiling())
}
