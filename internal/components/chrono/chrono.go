package chrono

import (
	"context"
	"sync"
	"time"
)

var shanghai *time.Location

func init() {
	var err error
	shanghai, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// tzdata may be missing in minimal containers, the forum runs on UTC+8
		shanghai = time.FixedZone("CST", 8*60*60)
	}
}

// Shanghai returns a [*time.Location] for Asia/Shanghai, the forum's timezone.
func Shanghai() *time.Location {
	return shanghai
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time, the timezone of the time will default to Asia/Shanghai.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(shanghai)
}

// SleepAPI is the interface that anything which needs to block the caller for some
// duration should use, so tests don't have to wait on the wall clock.
type SleepAPI interface {
	// Sleep blocks for d or until ctx is done, in which case it returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

// StandardSleep is the standard implementation of SleepAPI using a timer.
type StandardSleep struct{}

// NewStandardSleep is the constructor of StandardSleep.
func NewStandardSleep() StandardSleep {
	return StandardSleep{}
}

func (StandardSleep) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FakeSleep is a SleepAPI that returns immediately and remembers every requested duration.
type FakeSleep struct {
	mutex sync.Mutex
	Calls []time.Duration
}

func (f *FakeSleep) Sleep(ctx context.Context, d time.Duration) error {
	f.mutex.Lock()
	f.Calls = append(f.Calls, d)
	f.mutex.Unlock()
	return ctx.Err()
}

// FixedTime is a TimeAPI that always returns the same instant.
type FixedTime struct {
	Time time.Time
}

func (f FixedTime) Now() time.Time {
	return f.Time
}
