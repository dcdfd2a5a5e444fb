package dice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollDice_Range(t *testing.T) {
	for range 1000 {
		value := RollDice()

		require.GreaterOrEqual(t, value, 0)
		require.LessOrEqual(t, value, MaxRoll)
	}
}

func TestRoller_Distribution(t *testing.T) {
	// Given: a seeded roller and 10,000 throws
	const samples = 10000
	roller := NewRoller(42)

	var counts [MaxRoll + 1]int
	for range samples {
		counts[roller.Roll()]++
	}

	// Then: each value is within a generous band around binomial(4, 0.5)
	for value, count := range counts {
		expected := Probability(value) * samples
		sigma := math.Sqrt(samples * Probability(value) * (1 - Probability(value)))

		assert.InDelta(t, expected, float64(count), 5*sigma, "value %d", value)
	}

	// And: the distribution is not uniform, 2 is the mode
	assert.Greater(t, counts[2], counts[1])
	assert.Greater(t, counts[1], counts[0])
	assert.Greater(t, counts[3], counts[4])
}

func TestRoller_Mean(t *testing.T) {
	const samples = 10000
	roller := NewRoller(7)

	total := 0
	for range samples {
		total += roller.Roll()
	}

	assert.InDelta(t, 2.0, float64(total)/samples, 0.05)
}

func TestRoller_Deterministic(t *testing.T) {
	first := NewRoller(99)
	second := NewRoller(99)

	for range 100 {
		assert.Equal(t, first.Roll(), second.Roll())
	}
}

func TestProbability(t *testing.T) {
	sum := 0.0
	for value := 0; value <= MaxRoll; value++ {
		sum += Probability(value)
	}

	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 6.0/16, Probability(2), 1e-9)
	assert.Zero(t, Probability(5))
	assert.Zero(t, Probability(-1))
}
