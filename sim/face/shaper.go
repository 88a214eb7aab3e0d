/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"time"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/trace"
)

// QueueMode selects the AQM discipline applied to the interest queue.
type QueueMode int

const (
	QueueModeDropTail QueueMode = iota
	QueueModePie
	QueueModeCodel
)

// ParseQueueMode parses the queue_mode config value.
func ParseQueueMode(s string) (QueueMode, error) {
	switch s {
	case "drop_tail", "":
		return QueueModeDropTail, nil
	case "pie":
		return QueueModePie, nil
	case "codel":
		return QueueModeCodel, nil
	}
	return QueueModeDropTail, fmt.Errorf("invalid queue mode: %s", s)
}

func (m QueueMode) String() string {
	switch m {
	case QueueModeDropTail:
		return "drop_tail"
	case QueueModePie:
		return "pie"
	case QueueModeCodel:
		return "codel"
	default:
		return "unknown"
	}
}

type shaperState int

const (
	shaperOpen shaperState = iota
	shaperBlocked
)

// ewma is an exponentially weighted moving average with weight 1/8. The
// first sample initializes the average instead of smoothing into the
// prior.
type ewma struct {
	v     float64
	first bool
}

func (e *ewma) observe(sample float64) {
	if e.first {
		e.v = sample
		e.first = false
		return
	}
	e.v += (sample - e.v) / 8.0
}

// Shaper paces outbound interests on one face so that the induced reverse
// content rate stays within the inbound link capacity minus the reverse
// interest demand, and bounds queueing delay with an AQM discipline.
type Shaper struct {
	face *Face
	mode QueueMode

	maxInterest          int
	headroom             float64
	updateInterval       time.Duration
	delayTarget          time.Duration
	maxBurst             time.Duration
	delayObserveInterval time.Duration

	queue []*defn.Pkt
	state shaperState

	outInterestSize ewma
	inInterestSize  ewma
	outContentSize  ewma
	inContentSize   ewma

	lastUpdateTime       time.Time
	bytesSinceLastUpdate int
	// Observed reverse-direction interest demand in bps.
	observedInInterestBitRate float64

	pie   pieState
	codel codelState
}

func newShaper(f *Face, cfg core.ShaperConfig) (*Shaper, error) {
	mode, err := ParseQueueMode(cfg.QueueMode)
	if err != nil {
		return nil, err
	}
	if cfg.MaxInterest <= 0 {
		return nil, fmt.Errorf("max_interest must be positive, got %d", cfg.MaxInterest)
	}
	s := &Shaper{
		face: f,
		mode: mode,

		maxInterest:          cfg.MaxInterest,
		headroom:             cfg.Headroom,
		updateInterval:       core.Seconds(cfg.UpdateInterval),
		delayTarget:          core.Seconds(cfg.DelayTarget),
		maxBurst:             core.Seconds(cfg.MaxBurst),
		delayObserveInterval: core.Seconds(cfg.DelayObserveInterval),

		state: shaperOpen,

		// Priors used by the rate formula until the first samples arrive.
		outInterestSize: ewma{v: 40, first: true},
		inInterestSize:  ewma{v: 40, first: true},
		outContentSize:  ewma{v: 1100, first: true},
		inContentSize:   ewma{v: 1100, first: true},
	}
	s.pie.init(s.maxBurst)
	if mode == QueueModePie {
		f.sched.Schedule(pieUpdateInterval, s.pieUpdate)
	}
	return s, nil
}

func (s *Shaper) String() string {
	return fmt.Sprintf("shaper (%s %s)", s.face.Name(), s.mode)
}

// Mode returns the AQM discipline in use.
func (s *Shaper) Mode() QueueMode {
	return s.mode
}

// QueueLen returns the number of queued interests.
func (s *Shaper) QueueLen() int {
	return len(s.queue)
}

// Send admits an interest to the shaper queue, applying tail-drop and the
// AQM discipline. Returns false if the interest was dropped.
func (s *Shaper) Send(pkt *defn.Pkt) bool {
	now := s.face.sched.Now()

	if len(s.queue) >= s.maxInterest {
		core.Log.Trace(s, "Tail drop", "qlen", len(s.queue))
		s.face.tr.Drop(now, s.face.Name(), string(pkt.Name), trace.DropTail)
		return false
	}

	switch s.mode {
	case QueueModePie:
		if s.pie.burstAllowance <= 0 &&
			!(s.pie.oldDelay < s.delayTarget.Seconds()/2 && s.pie.dropProb < 0.2) {
			if s.face.sched.Rand().Float64() < s.pie.dropProb {
				core.Log.Trace(s, "PIE drop", "prob", s.pie.dropProb)
				s.face.tr.Drop(now, s.face.Name(), string(pkt.Name), trace.DropPie)
				return false
			}
		}
	case QueueModeCodel:
		if s.codel.dropping && !now.Before(s.codel.dropNext) {
			s.codel.dropCount++
			s.codel.dropNext = s.codel.dropNext.Add(s.codel.nextInterval(s.delayObserveInterval))
			core.Log.Trace(s, "CoDel drop", "count", s.codel.dropCount)
			s.face.tr.Drop(now, s.face.Name(), string(pkt.Name), trace.DropCodel)
			return false
		}
		pkt.Sojourn = now
	}

	s.queue = append(s.queue, pkt)
	s.face.tr.Queue(now, s.face.Name(), len(s.queue))

	if s.state == shaperOpen {
		s.dequeue()
	}
	return true
}

// shaperOpenTimer fires when the per-packet gap has elapsed.
func (s *Shaper) shaperOpenTimer() {
	if len(s.queue) > 0 {
		s.dequeue()
		return
	}
	s.state = shaperOpen
	if s.mode == QueueModeCodel && s.codel.dropping {
		// leave dropping state if queue is empty
		core.Log.Trace(s, "CoDel leave dropping state - queue empty")
		s.codel.leaveDropping()
	}
}

// dequeue pops the head of the queue, computes the bandwidth-balance gap,
// arms the ShaperOpen timer and emits the interest. The timer is armed
// before the send so a synchronous re-entry cannot arm a second one.
func (s *Shaper) dequeue() {
	now := s.face.sched.Now()
	pkt := s.queue[0]
	s.queue = s.queue[1:]

	switch s.mode {
	case QueueModePie:
		s.pie.onDequeue(len(s.queue), now)
	case QueueModeCodel:
		sojourn := now.Sub(pkt.Sojourn)
		pkt.Sojourn = time.Time{}
		s.codel.onDequeue(now, sojourn, s.delayTarget, s.delayObserveInterval)
		s.face.tr.Sojourn(now, s.face.Name(), sojourn, s.codel.dropping)
	}

	s.outInterestSize.observe(float64(pkt.Size))
	s.state = shaperBlocked

	rate := s.shapingBitRate()
	gap := time.Duration(float64(pkt.Size) * 8 / rate * float64(time.Second))
	core.Log.Trace(s, "Dequeue", "rate", rate, "gap", gap, "qlen", len(s.queue))

	s.face.sched.Schedule(gap, s.shaperOpenTimer)

	s.face.tr.Emit(now, s.face.Name(), pkt.Size, rate)
	s.face.tr.Rate(now, s.face.Name(), rate, s.observedInInterestBitRate)
	s.face.transmit(pkt)
}

// shapingBitRate solves the bandwidth-balance equation for the current
// shaping rate in bps.
//
// r1 is the expected content bytes returned per outbound interest byte,
// r2 the same for the reverse direction. The maximum rate assumes no
// reverse demand; the minimum rate assumes full reverse demand. The
// actual rate interpolates between them by the observed reverse interest
// bit-rate against the expected one.
func (s *Shaper) shapingBitRate() float64 {
	outBitRate := float64(s.face.outBitRate)
	inBitRate := float64(s.face.inBitRate)

	r1 := s.inContentSize.v / s.outInterestSize.v
	r2 := s.outContentSize.v / s.inInterestSize.v
	rho := outBitRate / inBitRate

	// max shaping rate when there's no demand in the reverse direction
	maxBitRate := inBitRate / r1

	// min shaping rate when there's infinite demand in the reverse direction
	var minBitRate, expectedInInterestBitRate float64
	switch {
	case rho < (2*r2)/(r1*r2+1):
		minBitRate = outBitRate / 2.0
		expectedInInterestBitRate = outBitRate / (2 * r2)
	case rho > (r1*r2+1)/(2*r1):
		minBitRate = inBitRate / (2 * r1)
		expectedInInterestBitRate = inBitRate / 2.0
	default:
		minBitRate = (r2*inBitRate - outBitRate) / (r1*r2 - 1)
		expectedInInterestBitRate = (r1*outBitRate - inBitRate) / (r1*r2 - 1)
	}

	expectedInInterestBitRate *= s.headroom

	var shapingBitRate float64
	if s.observedInInterestBitRate >= expectedInInterestBitRate {
		shapingBitRate = minBitRate
	} else {
		idle := 1.0 - s.observedInInterestBitRate/expectedInInterestBitRate
		shapingBitRate = minBitRate + (maxBitRate-minBitRate)*idle*idle
	}

	return shapingBitRate * s.headroom
}

// onInbound updates the size averages and the observed reverse interest
// bit-rate from a packet arriving on the link.
func (s *Shaper) onInbound(pkt *defn.Pkt) {
	now := s.face.sched.Now()
	switch pkt.Type {
	case defn.PktInterest:
		if s.inInterestSize.first {
			s.inInterestSize.observe(float64(pkt.Size))
			s.lastUpdateTime = now
			s.bytesSinceLastUpdate = pkt.Size
			return
		}
		s.inInterestSize.observe(float64(pkt.Size))
		if now.Sub(s.lastUpdateTime) >= s.updateInterval {
			s.observedInInterestBitRate = float64(s.bytesSinceLastUpdate) * 8 / now.Sub(s.lastUpdateTime).Seconds()
			s.lastUpdateTime = now
			s.bytesSinceLastUpdate = 0
		} else {
			s.bytesSinceLastUpdate += pkt.Size
		}
	case defn.PktContent:
		s.inContentSize.observe(float64(pkt.Size))
	}
}
