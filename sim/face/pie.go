/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"time"

	"github.com/named-data/yancs/sim/core"
)

// pieUpdateInterval is the period of the drop-probability recomputation.
const pieUpdateInterval = 30 * time.Millisecond

// pieMeasureLen is the number of dequeues per rate-measurement cycle, and
// also the queue length that starts one.
const pieMeasureLen = 10

// pieState is the PIE controller substate: a drop probability driven by
// the estimated queueing delay, an average dequeue rate measured over
// cycles of pieMeasureLen packets, and a burst allowance that suspends
// early drops.
type pieState struct {
	oldDelay float64 // seconds
	dropProb float64

	// dqCount is -1 outside a measurement cycle.
	dqCount   int
	avgDqRate float64 // packets per second
	dqStart   time.Time

	burstAllowance time.Duration
}

func (p *pieState) init(maxBurst time.Duration) {
	p.dqCount = -1
	p.burstAllowance = maxBurst
}

// pieUpdate is the periodic drop-probability update. It re-arms itself
// for the life of the face.
func (s *Shaper) pieUpdate() {
	p := &s.pie
	target := s.delayTarget.Seconds()

	qdelay := 0.0
	if p.avgDqRate > 0 {
		qdelay = float64(len(s.queue)) / p.avgDqRate
	}

	tmp := 0.125*(qdelay-target) + 1.25*(qdelay-p.oldDelay)
	if p.dropProb < 0.01 {
		tmp /= 8.0
	} else if p.dropProb < 0.1 {
		tmp /= 2.0
	}

	tmp += p.dropProb
	switch {
	case tmp < 0:
		p.dropProb = 0.0
	case tmp > 1:
		p.dropProb = 1.0
	default:
		p.dropProb = tmp
	}

	core.Log.Trace(s, "PIE update", "qdelay", qdelay, "prob", p.dropProb)

	if qdelay < target/2 && p.oldDelay < target/2 && p.dropProb == 0.0 {
		p.dqCount = -1
		p.avgDqRate = 0.0
		p.burstAllowance = s.maxBurst
	}

	p.oldDelay = qdelay
	s.face.sched.Schedule(pieUpdateInterval, s.pieUpdate)
}

// onDequeue advances the dequeue-rate measurement. qlen is the queue
// length after the pop.
func (p *pieState) onDequeue(qlen int, now time.Time) {
	if p.dqCount == -1 && qlen >= pieMeasureLen {
		// start a measurement cycle
		p.dqStart = now
		p.dqCount = 0
	}

	if p.dqCount == -1 {
		return
	}
	p.dqCount++
	if p.dqCount < pieMeasureLen {
		return
	}

	// done with a measurement cycle
	elapsed := now.Sub(p.dqStart)
	rate := float64(p.dqCount) / elapsed.Seconds()
	if p.avgDqRate == 0.0 {
		p.avgDqRate = rate
	} else {
		p.avgDqRate = 0.9*p.avgDqRate + 0.1*rate
	}

	if qlen >= pieMeasureLen {
		p.dqStart = now
		p.dqCount = 0
	} else {
		p.dqCount = -1
	}

	if p.burstAllowance > 0 {
		p.burstAllowance -= elapsed
	}
}
