package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/napflow/internal/domain"
)

func TestComputeLevelBoundaries(t *testing.T) {
	tests := []struct {
		xp       int
		wantName string
		wantNext string
		wantFrac float64
	}{
		{0, "Schlafwandler", "Novize", 0},
		{50, "Schlafwandler", "Novize", 0.5},
		{99, "Schlafwandler", "Novize", 0.99},
		{100, "Novize", "Meister", 0},
		{300, "Novize", "Meister", 0.5},
		{1500, "Traum-Reisender", "Schlaf-Gott", 0},
		{4999, "Traum-Reisender", "Schlaf-Gott", 3499.0 / 3500.0},
	}

	for _, tt := range tests {
		p := ComputeLevel(tt.xp, DefaultLevels)
		assert.Equal(t, tt.wantName, p.Current.Name, "xp=%d", tt.xp)
		require.NotNil(t, p.Next, "xp=%d", tt.xp)
		assert.Equal(t, tt.wantNext, p.Next.Name, "xp=%d", tt.xp)
		assert.InDelta(t, tt.wantFrac, p.Fraction, 1e-9, "xp=%d", tt.xp)
		assert.Equal(t, p.Next.MinXP-tt.xp, p.XPToNext)
	}
}

func TestComputeLevelMax(t *testing.T) {
	for _, xp := range []int{5000, 123456} {
		p := ComputeLevel(xp, DefaultLevels)
		assert.Equal(t, "Schlaf-Gott", p.Current.Name)
		assert.Nil(t, p.Next)
		assert.True(t, p.MaxLevel())
		assert.Equal(t, 1.0, p.Fraction)
		assert.Zero(t, p.XPToNext)
	}
}

func TestComputeLevelNumericTable(t *testing.T) {
	table := []Level{{"L1", 0}, {"L2", 100}, {"L3", 500}, {"L4", 1500}, {"L5", 5000}}

	assert.Equal(t, "L2", ComputeLevel(100, table).Current.Name)
	assert.Equal(t, "L1", ComputeLevel(99, table).Current.Name)
}

func TestComputeLevelEmptyTable(t *testing.T) {
	p := ComputeLevel(10, nil)
	assert.Nil(t, p.Next)
	assert.Equal(t, 1.0, p.Fraction)
}

func TestValidateLevels(t *testing.T) {
	require.NoError(t, ValidateLevels(DefaultLevels))

	bad := [][]Level{
		nil,
		{{"a", 10}},
		{{"a", 0}, {"b", 0}},
		{{"a", 0}, {"b", 50}, {"c", 20}},
	}
	for _, table := range bad {
		assert.ErrorIs(t, ValidateLevels(table), domain.ErrInvalidLevels)
	}
}
