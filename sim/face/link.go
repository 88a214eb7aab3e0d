/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"time"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
)

// linkEnd is one transmit direction of a point-to-point link: the sender
// face's serialization queue plus the propagation delay to the peer.
// Delivery is strictly in order.
type linkEnd struct {
	sched     *core.Scheduler
	from      *Face
	to        *Face
	delay     time.Duration
	busyUntil time.Time
}

// Connect wires two faces together as a duplex point-to-point link with
// the given one-way propagation delay.
func Connect(sched *core.Scheduler, a, b *Face, delay time.Duration) {
	a.peer = &linkEnd{sched: sched, from: a, to: b, delay: delay}
	b.peer = &linkEnd{sched: sched, from: b, to: a, delay: delay}
}

// transmit serializes the packet at the sender's outbound bit-rate and
// schedules delivery after the propagation delay. Back-to-back sends
// queue behind the transmitter.
func (l *linkEnd) transmit(pkt *defn.Pkt) {
	now := l.sched.Now()
	start := l.busyUntil
	if start.Before(now) {
		start = now
	}
	serialization := time.Duration(float64(pkt.Size) * 8 / float64(l.from.outBitRate) * float64(time.Second))
	done := start.Add(serialization)
	l.busyUntil = done

	to := l.to
	l.sched.Schedule(done.Add(l.delay).Sub(now), func() {
		to.receiveFromLink(pkt)
	})
}
