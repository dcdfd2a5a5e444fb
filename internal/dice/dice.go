// Package dice models the four tetrahedral astragali of the Royal Game of Ur.
// Each die shows a marked tip with probability 1/2, so a throw is binomial(4, 0.5):
// 0..4 with mass {1,4,6,4,1}/16.
package dice

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

const (
	Count   = 4
	MaxRoll = Count
)

type Roller struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRoller(seed uint64) *Roller {
	return &Roller{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Roll throws all four dice and returns the number of marked tips.
func (that *Roller) Roll() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	marked := 0
	for range Count {
		marked += int(that.rnd.Uint32() & 1)
	}

	return marked
}

var defaultRoller = NewRoller(uint64(time.Now().UnixNano())) //nolint: gosec // it's ok

// RollDice throws the dice with the process-wide roller.
func RollDice() int {
	return defaultRoller.Roll()
}

// Probability returns the exact chance of rolling value.
func Probability(value int) float64 {
	weights := [MaxRoll + 1]float64{1, 4, 6, 4, 1}
	if value < 0 || value > MaxRoll {
		return 0
	}

	return weights[value] / 16
}
