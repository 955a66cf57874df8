package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_FirstSlotImmediate(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_SpacesSlots(t *testing.T) {
	t.Parallel()

	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx))
	}

	// First slot is free, the next two are spaced at the interval.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_CanceledContext(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Hour)
	ctx := context.Background()
	require.NoError(t, p.Wait(ctx))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPacer_Interval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5*time.Second, NewPacer(5*time.Second).Interval())
}
