package relay

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnector(t *testing.T) {
	t.Run("Only one attempt is pending at a time", func(t *testing.T) {
		// Given: a reconnector counting attempts
		var attempts atomic.Int32
		reconnector := NewReconnector(discardLogger, 20*time.Millisecond, func(context.Context) error {
			attempts.Add(1)
			return nil
		})
		t.Cleanup(reconnector.Close)

		// When: two drops are reported back to back
		first := reconnector.Schedule(context.Background())
		second := reconnector.Schedule(context.Background())

		// Then: a single attempt runs
		assert.True(t, first)
		assert.False(t, second)
		assert.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.False(t, reconnector.Pending())
	})

	t.Run("Close cancels a pending attempt", func(t *testing.T) {
		var attempts atomic.Int32
		reconnector := NewReconnector(discardLogger, 20*time.Millisecond, func(context.Context) error {
			attempts.Add(1)
			return nil
		})

		reconnector.Schedule(context.Background())
		reconnector.Close()

		time.Sleep(60 * time.Millisecond)
		assert.Zero(t, attempts.Load())
		assert.False(t, reconnector.Schedule(context.Background()))
	})
}
