package face

import (
	"testing"
	"time"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShaperConfig(mode string) core.ShaperConfig {
	return core.ShaperConfig{
		MaxInterest:          100,
		Headroom:             0.98,
		UpdateInterval:       0.1,
		QueueMode:            mode,
		DelayTarget:          0.02,
		MaxBurst:             0.1,
		DelayObserveInterval: 0.1,
	}
}

// testPair builds two connected faces with the given bit-rates.
func testPair(t *testing.T, mode string, rateA, rateB uint64, delay time.Duration) (*core.Scheduler, *trace.Collector, *Face, *Face) {
	t.Helper()
	sched := core.NewScheduler(1)
	tr := trace.NewCollector()
	a, err := NewFace(sched, 1, "a", "b", rateA, testShaperConfig(mode), tr)
	require.NoError(t, err)
	b, err := NewFace(sched, 1, "b", "a", rateB, testShaperConfig(mode), tr)
	require.NoError(t, err)
	a.SetInRate(rateB)
	b.SetInRate(rateA)
	Connect(sched, a, b, delay)
	return sched, tr, a, b
}

func TestEwma(t *testing.T) {
	e := ewma{v: 1100, first: true}
	e.observe(1000)
	assert.Equal(t, 1000.0, e.v) // first sample initializes

	e.observe(1080)
	assert.InDelta(t, 1000+80.0/8, e.v, 1e-9)
}

func TestParseQueueMode(t *testing.T) {
	for s, want := range map[string]QueueMode{
		"":          QueueModeDropTail,
		"drop_tail": QueueModeDropTail,
		"pie":       QueueModePie,
		"codel":     QueueModeCodel,
	} {
		mode, err := ParseQueueMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, mode)
	}
	_, err := ParseQueueMode("red")
	assert.Error(t, err)
}

func TestShaperQueueBound(t *testing.T) {
	sched, tr, a, b := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	b.OnPacket(func(*Face, *defn.Pkt) {})
	a.OnPacket(func(*Face, *defn.Pkt) {})

	admitted := 0
	for i := 0; i < 150; i++ {
		if a.Send(defn.NewInterest("/p/x", 40, uint32(i))) {
			admitted++
		}
	}

	// one dequeued immediately, maxInterest queued, the rest tail-dropped
	assert.Equal(t, 101, admitted)
	assert.Equal(t, 100, a.Shaper().QueueLen())
	assert.Equal(t, 49, tr.DropCount(a.Name(), trace.DropTail))

	sched.RunFor(10 * time.Second)
	assert.Equal(t, 0, a.Shaper().QueueLen())
}

func TestShaperPacing(t *testing.T) {
	sched, _, a, b := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	a.OnPacket(func(*Face, *defn.Pkt) {})

	var arrivals []time.Time
	b.OnPacket(func(_ *Face, pkt *defn.Pkt) {
		arrivals = append(arrivals, sched.Now())
	})

	// settle the content-size average so the rate is constant
	a.Shaper().inContentSize.observe(1000)

	for i := 0; i < 10; i++ {
		require.True(t, a.Send(defn.NewInterest("/p/x", 40, uint32(i))))
	}
	sched.RunFor(time.Second)
	require.Len(t, arrivals, 10)

	rate := a.Shaper().shapingBitRate()
	wantGap := 40 * 8.0 / rate
	for i := 1; i < len(arrivals); i++ {
		gap := arrivals[i].Sub(arrivals[i-1]).Seconds()
		assert.InDelta(t, wantGap, gap, 1e-6, "gap %d", i)
	}
}

func TestShapingRateSymmetric(t *testing.T) {
	_, _, a, _ := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	s := a.Shaper()
	s.inContentSize = ewma{v: 1000}
	s.outContentSize = ewma{v: 1000}
	s.inInterestSize = ewma{v: 40}
	s.outInterestSize = ewma{v: 40}

	// no reverse demand: the rate converges to headroom * C_in/r1
	assert.InDelta(t, 0.98*40000, s.shapingBitRate(), 1e-6)
}

func TestShapingRateAsymmetric(t *testing.T) {
	_, _, a, _ := testPair(t, "drop_tail", 10_000_000, 1_000_000, time.Millisecond)
	s := a.Shaper()
	s.inContentSize = ewma{v: 1000}
	s.outContentSize = ewma{v: 1000}
	s.inInterestSize = ewma{v: 40}
	s.outInterestSize = ewma{v: 40}

	// R_max is set by the reverse link: 1e6 / 25
	assert.InDelta(t, 0.98*40000, s.shapingBitRate(), 1e-6)
	assert.LessOrEqual(t, s.shapingBitRate(), 40000.0)
}

func TestShapingRateUnderReverseDemand(t *testing.T) {
	_, _, a, _ := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	s := a.Shaper()
	s.inContentSize = ewma{v: 1000}
	s.outContentSize = ewma{v: 1000}
	s.inInterestSize = ewma{v: 40}
	s.outInterestSize = ewma{v: 40}

	idle := s.shapingBitRate()

	// saturated reverse demand pins the rate at the minimum
	s.observedInInterestBitRate = 1e9
	r1, r2 := 25.0, 25.0
	wantMin := (r2*1e6 - 1e6) / (r1*r2 - 1) * 0.98
	assert.InDelta(t, wantMin, s.shapingBitRate(), 1e-6)
	assert.Less(t, s.shapingBitRate(), idle)

	// partial demand lies strictly between min and max
	s.observedInInterestBitRate = 10000
	partial := s.shapingBitRate()
	assert.Greater(t, partial, wantMin)
	assert.Less(t, partial, idle)
}

func TestObservedInInterestRate(t *testing.T) {
	sched, _, a, b := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	a.OnPacket(func(*Face, *defn.Pkt) {})
	b.OnPacket(func(*Face, *defn.Pkt) {})

	// 40-byte interests every 10 ms for 200 ms
	for i := 0; i < 20; i++ {
		nonce := uint32(i)
		sched.Schedule(time.Duration(i)*10*time.Millisecond, func() {
			b.Send(defn.NewInterest("/q/x", 40, nonce))
		})
	}
	sched.RunFor(time.Second)

	// ~40 bytes per 10 ms = 32 kbps
	assert.InDelta(t, 32000, a.Shaper().observedInInterestBitRate, 4000)
}

func TestContentBypassesShaper(t *testing.T) {
	sched, _, a, b := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	a.OnPacket(func(*Face, *defn.Pkt) {})

	var got []*defn.Pkt
	b.OnPacket(func(_ *Face, pkt *defn.Pkt) { got = append(got, pkt) })

	// fill the shaper queue with interests, then send content
	for i := 0; i < 5; i++ {
		a.Send(defn.NewInterest("/p/x", 40, uint32(i)))
	}
	require.True(t, a.Send(defn.NewContent("/q/y", 1000)))
	sched.RunFor(time.Second)

	require.NotEmpty(t, got)
	// content is not held behind the paced interests
	var contentAt, lastInterestAt int
	for i, pkt := range got {
		if pkt.Type == defn.PktContent {
			contentAt = i
		} else {
			lastInterestAt = i
		}
	}
	assert.Less(t, contentAt, lastInterestAt)
}

func TestNackBypassesShaper(t *testing.T) {
	sched, _, a, b := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	a.OnPacket(func(*Face, *defn.Pkt) {})

	var got []*defn.Pkt
	b.OnPacket(func(_ *Face, pkt *defn.Pkt) { got = append(got, pkt) })

	for i := 0; i < 5; i++ {
		a.Send(defn.NewInterest("/p/x", 40, uint32(i)))
	}
	nack := defn.MakeNack(defn.NewInterest("/p/z", 40, 99), defn.NackCongestion)
	require.True(t, a.Send(nack))
	sched.RunFor(time.Second)

	require.NotEmpty(t, got)
	assert.True(t, got[0].IsNack() || got[1].IsNack())
}

func TestMalformedDropped(t *testing.T) {
	_, tr, a, _ := testPair(t, "drop_tail", 1_000_000, 1_000_000, time.Millisecond)
	assert.False(t, a.Send(&defn.Pkt{}))
	assert.Equal(t, 1, tr.DropCount(a.Name(), trace.DropMalformed))
}
