package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second
const tick = 5 * time.Millisecond

func TestTimer_RunsAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock)
	var runs atomic.Int32

	require.True(t, tm.Schedule(time.Second, func() { runs.Add(1) }))
	assert.True(t, tm.Pending())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, waitFor, tick)
	assert.False(t, tm.Pending())
}

func TestTimer_RescheduleReplacesPendingWork(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock)
	var first, second atomic.Int32

	tm.Schedule(time.Second, func() { first.Add(1) })
	clock.Advance(500 * time.Millisecond)
	tm.Schedule(time.Second, func() { second.Add(1) })

	clock.Advance(600 * time.Millisecond)
	clock.Advance(500 * time.Millisecond)

	assert.Eventually(t, func() bool { return second.Load() == 1 }, waitFor, tick)
	assert.Equal(t, int32(0), first.Load())
}

func TestTimer_CancelAndStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock)
	var runs atomic.Int32

	tm.Schedule(time.Second, func() { runs.Add(1) })
	assert.True(t, tm.Cancel())
	assert.False(t, tm.Cancel())

	tm.Stop()
	assert.False(t, tm.Schedule(time.Second, func() { runs.Add(1) }))

	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) add(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_DeliversOnlyLastValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	d := NewDebouncer(clock, DefaultDebounce, rec.add)

	d.Push("first")
	clock.Advance(100 * time.Millisecond)
	d.Push("second")
	clock.Advance(100 * time.Millisecond)
	d.Push("third")
	clock.Advance(100 * time.Millisecond)
	d.Push("fourth")

	clock.Advance(299 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.get())

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"fourth"}, rec.get())
}

func TestDebouncer_EmptyStringIsAValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	d := NewDebouncer(clock, 0, rec.add)

	d.Push("")
	clock.Advance(DefaultDebounce)

	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{""}, rec.get())
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	d := NewDebouncer(clock, DefaultDebounce, rec.add)

	d.Push("now")
	d.Flush()
	assert.Equal(t, []string{"now"}, rec.get())

	d.Push("dropped")
	d.Stop()
	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"now"}, rec.get())

	d.Flush()
	assert.Equal(t, []string{"now"}, rec.get())
}
