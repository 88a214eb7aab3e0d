package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerOrdering(t *testing.T) {
	sched := NewScheduler(1)

	var order []int
	sched.Schedule(30*time.Millisecond, func() { order = append(order, 3) })
	sched.Schedule(10*time.Millisecond, func() { order = append(order, 1) })
	sched.Schedule(20*time.Millisecond, func() { order = append(order, 2) })

	sched.Run()
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 30*time.Millisecond, sched.Elapsed())
}

func TestSchedulerNestedEvents(t *testing.T) {
	sched := NewScheduler(1)

	var times []time.Duration
	sched.Schedule(10*time.Millisecond, func() {
		times = append(times, sched.Elapsed())
		sched.Schedule(5*time.Millisecond, func() {
			times = append(times, sched.Elapsed())
		})
	})

	sched.Run()
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, times)
}

func TestSchedulerRunFor(t *testing.T) {
	sched := NewScheduler(1)

	fired := 0
	sched.Schedule(time.Second, func() { fired++ })
	sched.Schedule(3*time.Second, func() { fired++ })

	sched.RunFor(2 * time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 2*time.Second, sched.Elapsed())

	// the remaining event is still pending
	sched.RunFor(2 * time.Second)
	assert.Equal(t, 2, fired)
}

func TestSchedulerCancel(t *testing.T) {
	sched := NewScheduler(1)

	fired := false
	cancel := sched.Schedule(10*time.Millisecond, func() { fired = true })
	require.NoError(t, cancel())

	sched.Run()
	assert.False(t, fired)

	// canceling twice fails
	assert.Error(t, cancel())
}

func TestSchedulerCancelAfterFire(t *testing.T) {
	sched := NewScheduler(1)

	cancel := sched.Schedule(10*time.Millisecond, func() {})
	sched.Run()
	assert.Error(t, cancel())
}

func TestSchedulerZeroDelay(t *testing.T) {
	sched := NewScheduler(1)

	fired := false
	sched.Schedule(0, func() { fired = true })
	sched.RunFor(0)
	assert.True(t, fired)
}

func TestSchedulerSameTimeFIFO(t *testing.T) {
	sched := NewScheduler(1)

	// events armed for the same instant fire in arming order
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		sched.Schedule(5*time.Millisecond, func() { order = append(order, i) })
	}
	sched.Run()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestSchedulerCancelRemovesFromQueue(t *testing.T) {
	sched := NewScheduler(1)

	cancel := sched.Schedule(10*time.Millisecond, func() {})
	sched.Schedule(20*time.Millisecond, func() {})
	require.Equal(t, 2, sched.Pending())

	require.NoError(t, cancel())
	assert.Equal(t, 1, sched.Pending())

	sched.Run()
	assert.Equal(t, 0, sched.Pending())
	assert.EqualValues(t, 1, sched.EventCount())
}

func TestSchedulerDeterministicRand(t *testing.T) {
	a := NewScheduler(42)
	b := NewScheduler(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Rand().Float64(), b.Rand().Float64())
	}
}
