package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFake_AdvanceFiresDueTimers(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	var fired []string
	f.AfterFunc(10*time.Second, func() { fired = append(fired, "b") })
	f.AfterFunc(5*time.Second, func() { fired = append(fired, "a") })

	f.Advance(4 * time.Second)
	require.Empty(t, fired)

	f.Advance(6 * time.Second)
	require.Equal(t, []string{"a", "b"}, fired, "timers fire in deadline order")
}

func TestFake_ResetRearmsTimer(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	n := 0
	timer := f.AfterFunc(10*time.Second, func() { n++ })

	f.Advance(8 * time.Second)
	require.True(t, timer.Reset(10*time.Second))

	f.Advance(8 * time.Second)
	require.Equal(t, 0, n, "reset timer must not fire at the original deadline")

	f.Advance(2 * time.Second)
	require.Equal(t, 1, n)
}

func TestFake_StopPreventsFiring(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	n := 0
	timer := f.AfterFunc(time.Second, func() { n++ })
	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	f.Advance(2 * time.Second)
	require.Equal(t, 0, n)
}

func TestFake_CallbackMayRescheduleItself(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	n := 0
	var timer Timer
	timer = f.AfterFunc(time.Second, func() {
		n++
		if n < 3 {
			timer.Reset(time.Second)
		}
	})

	f.Advance(time.Second)
	f.Advance(time.Second)
	f.Advance(time.Second)
	require.Equal(t, 3, n)
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	now := Real{}.Now()
	require.False(t, now.Before(before))
}
