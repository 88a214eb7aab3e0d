/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package face implements the simulated link endpoint and the per-face
// interest shaper with its AQM disciplines.
package face

import (
	"fmt"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/trace"
)

// Face is a bi-directional link endpoint owned by exactly one node. It
// owns the outbound and inbound bit-rates and embeds the interest shaper.
// Outbound interests go through the shaper; outbound content and NACKs
// bypass it. Inbound packets update the shaper's size averages before
// being passed up.
type Face struct {
	id     uint64
	local  string
	remote string

	outBitRate uint64
	inBitRate  uint64

	sched  *core.Scheduler
	shaper *Shaper
	tr     *trace.Collector

	peer   *linkEnd
	onRecv func(f *Face, pkt *defn.Pkt)
}

// NewFace creates a face with the given outbound bit-rate. The inbound
// bit-rate defaults to the outbound one until SetInRate is called. The
// face is not usable until connected to a peer with Connect.
func NewFace(sched *core.Scheduler, id uint64, local, remote string, bitRate uint64, cfg core.ShaperConfig, tr *trace.Collector) (*Face, error) {
	if bitRate == 0 {
		return nil, fmt.Errorf("face %s->%s: zero bit-rate", local, remote)
	}
	f := &Face{
		id:         id,
		local:      local,
		remote:     remote,
		outBitRate: bitRate,
		inBitRate:  bitRate,
		sched:      sched,
		tr:         tr,
	}
	shaper, err := newShaper(f, cfg)
	if err != nil {
		return nil, err
	}
	f.shaper = shaper
	return f, nil
}

func (f *Face) String() string {
	return fmt.Sprintf("face (id=%d %s->%s)", f.id, f.local, f.remote)
}

// Name returns the stable trace key for this face.
func (f *Face) Name() string {
	return f.local + "->" + f.remote
}

// ID returns the face's node-scoped identifier.
func (f *Face) ID() uint64 {
	return f.id
}

// OutBitRate returns the outbound link bit-rate in bps.
func (f *Face) OutBitRate() uint64 {
	return f.outBitRate
}

// InBitRate returns the inbound link bit-rate in bps.
func (f *Face) InBitRate() uint64 {
	return f.inBitRate
}

// SetInRate overrides the inbound bit-rate, for asymmetric links.
func (f *Face) SetInRate(bps uint64) {
	f.inBitRate = bps
}

// Shaper exposes the face's shaper, mainly for tests and tracing.
func (f *Face) Shaper() *Shaper {
	return f.shaper
}

// OnPacket sets the callback invoked for every packet received from the
// link, after the shaper's inbound accounting has run.
func (f *Face) OnPacket(onRecv func(f *Face, pkt *defn.Pkt)) {
	f.onRecv = onRecv
}

// Send queues a packet for transmission. It returns false if the packet
// was dropped: malformed header, shaper queue full, or AQM early drop.
// Interests are shaped; content and NACK packets go straight to the link.
func (f *Face) Send(pkt *defn.Pkt) bool {
	if !pkt.Valid() {
		f.tr.Drop(f.sched.Now(), f.Name(), "", trace.DropMalformed)
		return false
	}

	switch pkt.Type {
	case defn.PktInterest:
		if pkt.IsNack() {
			f.transmit(pkt) // no shaping for NACK packets
			return true
		}
		return f.shaper.Send(pkt)
	case defn.PktContent:
		f.shaper.outContentSize.observe(float64(pkt.Size))
		f.transmit(pkt) // no shaping for content packets
		return true
	}
	return false
}

// transmit hands a packet to the link medium, past the shaper.
func (f *Face) transmit(pkt *defn.Pkt) {
	if f.peer == nil {
		core.Log.Warn(f, "Send on disconnected face - DROP")
		return
	}
	f.peer.transmit(pkt)
}

// receiveFromLink is invoked by the link medium when a packet arrives.
func (f *Face) receiveFromLink(pkt *defn.Pkt) {
	f.shaper.onInbound(pkt)
	if f.onRecv == nil {
		core.Log.Warn(f, "No receive callback - DROP", "pkt", pkt)
		return
	}
	f.onRecv(f, pkt)
}
