package chrono

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardTimeUsesShanghai(t *testing.T) {
	now := NewStandardTime().Now()
	_, offset := now.Zone()
	require.Equal(t, 8*60*60, offset)
}

func TestStandardSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := NewStandardSleep().Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestFakeSleepRecords(t *testing.T) {
	sleep := &FakeSleep{}
	require.NoError(t, sleep.Sleep(context.Background(), 2*time.Second))
	require.NoError(t, sleep.Sleep(context.Background(), 2*time.Second))
	require.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleep.Calls)
}
