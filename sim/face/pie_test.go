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

func TestPieMeasurementCycle(t *testing.T) {
	var p pieState
	p.init(100 * time.Millisecond)
	require.Equal(t, -1, p.dqCount)

	start := time.Unix(0, 0)

	// short queue: no cycle starts
	p.onDequeue(5, start)
	assert.Equal(t, -1, p.dqCount)

	// queue at threshold: cycle starts and runs for ten dequeues
	p.onDequeue(10, start)
	require.Equal(t, 1, p.dqCount)
	for i := 2; i <= 9; i++ {
		p.onDequeue(9, start.Add(time.Duration(i)*100*time.Millisecond))
	}
	require.Equal(t, 9, p.dqCount)

	// tenth dequeue closes the cycle: 10 packets over 1 s
	p.onDequeue(9, start.Add(time.Second))
	assert.InDelta(t, 10.0, p.avgDqRate, 1e-9)
	// queue below threshold: back out of measurement
	assert.Equal(t, -1, p.dqCount)
	// burst allowance consumed by the cycle duration
	assert.LessOrEqual(t, p.burstAllowance, time.Duration(0))
}

func TestPieMeasurementSmoothing(t *testing.T) {
	var p pieState
	p.init(time.Hour)
	start := time.Unix(0, 0)

	p.onDequeue(10, start)
	for i := 2; i <= 10; i++ {
		p.onDequeue(20, start.Add(time.Duration(i-1)*100*time.Millisecond))
	}
	require.InDelta(t, 10.0/0.9, p.avgDqRate, 1e-9)
	// queue still long: next cycle starts immediately
	require.Equal(t, 0, p.dqCount)

	first := p.avgDqRate
	for i := 1; i <= 10; i++ {
		p.onDequeue(20, start.Add(900*time.Millisecond).Add(time.Duration(i)*50*time.Millisecond))
	}
	// second sample is smoothed: 0.9*old + 0.1*(10/0.5s)
	assert.InDelta(t, 0.9*first+0.1*20.0, p.avgDqRate, 1e-9)
}

func TestPieUpdateProbabilityBounds(t *testing.T) {
	sched := core.NewScheduler(1)
	tr := trace.NewCollector()
	a, err := NewFace(sched, 1, "a", "b", 1_000_000, testShaperConfig("pie"), tr)
	require.NoError(t, err)
	b, err := NewFace(sched, 1, "b", "a", 1_000_000, testShaperConfig("pie"), tr)
	require.NoError(t, err)
	Connect(sched, a, b, time.Millisecond)
	b.OnPacket(func(*Face, *defn.Pkt) {})
	a.OnPacket(func(*Face, *defn.Pkt) {})

	s := a.Shaper()

	// force a large positive error: long queue, slow dequeue rate
	for i := 0; i < 90; i++ {
		s.queue = append(s.queue, defn.NewInterest("/p/x", 40, uint32(i)))
	}
	s.pie.avgDqRate = 10
	for i := 0; i < 100; i++ {
		s.pieUpdate()
		assert.GreaterOrEqual(t, s.pie.dropProb, 0.0)
		assert.LessOrEqual(t, s.pie.dropProb, 1.0)
	}
	assert.Equal(t, 1.0, s.pie.dropProb)

	// empty queue drives it back to zero and resets the burst allowance
	s.queue = nil
	for i := 0; i < 10000; i++ {
		s.pieUpdate()
		assert.GreaterOrEqual(t, s.pie.dropProb, 0.0)
		assert.LessOrEqual(t, s.pie.dropProb, 1.0)
	}
	assert.Equal(t, 0.0, s.pie.dropProb)
	assert.Equal(t, -1, s.pie.dqCount)
	assert.Equal(t, s.maxBurst, s.pie.burstAllowance)
}

// Overload at twice the sustainable interest rate: PIE must engage and
// keep the estimated queueing delay in the neighborhood of the target.
func TestPieUnderOverload(t *testing.T) {
	sched, tr, a, b := testPair(t, "pie", 1_000_000, 1_000_000, time.Millisecond)
	a.OnPacket(func(*Face, *defn.Pkt) {})
	// echo 1000-byte content for every interest
	b.OnPacket(func(_ *Face, pkt *defn.Pkt) {
		if pkt.Type == defn.PktInterest && !pkt.IsNack() {
			b.Send(defn.NewContent(pkt.Name, 1000))
		}
	})

	// sustainable rate is ~122 interests/s; offer ~250/s
	nonce := uint32(0)
	var offer func()
	offer = func() {
		nonce++
		a.Send(defn.NewInterest("/p/x", 40, nonce))
		sched.Schedule(4*time.Millisecond, offer)
	}
	sched.Schedule(0, offer)
	sched.RunFor(10 * time.Second)

	s := a.Shaper()
	assert.Greater(t, s.pie.dropProb, 0.0)
	assert.LessOrEqual(t, s.pie.dropProb, 1.0)
	assert.Greater(t, tr.DropCount(a.Name(), trace.DropPie), 0)

	// estimated queueing delay is controlled, far below the worst case
	// of a full queue (~0.8 s)
	require.Greater(t, s.pie.avgDqRate, 0.0)
	qdelay := float64(len(s.queue)) / s.pie.avgDqRate
	assert.Less(t, qdelay, 0.2)
}
