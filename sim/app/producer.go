/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

import (
	"fmt"
	"time"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
)

// Producer answers every interest under its prefix with a content packet
// of the configured payload size, after an optional service time.
type Producer struct {
	name   string
	sched  *core.Scheduler
	face   *face.Face
	prefix defn.Name

	payloadSize int
	serviceTime time.Duration

	nServed uint64
}

func NewProducer(sched *core.Scheduler, f *face.Face, prefix defn.Name, payloadSize int, serviceTime time.Duration, name string) *Producer {
	p := &Producer{
		name:        name,
		sched:       sched,
		face:        f,
		prefix:      prefix,
		payloadSize: payloadSize,
		serviceTime: serviceTime,
	}
	f.OnPacket(p.onPacket)
	return p
}

func (p *Producer) String() string {
	return fmt.Sprintf("producer (%s %s)", p.name, p.prefix)
}

// Served returns the number of interests answered.
func (p *Producer) Served() uint64 {
	return p.nServed
}

func (p *Producer) onPacket(_ *face.Face, pkt *defn.Pkt) {
	if pkt.Type != defn.PktInterest || pkt.IsNack() {
		return
	}
	if !p.prefix.IsPrefixOf(pkt.Name) {
		core.Log.Debug(p, "Interest outside prefix", "name", pkt.Name)
		return
	}

	content := defn.NewContent(pkt.Name, p.payloadSize)
	p.nServed++
	if p.serviceTime > 0 {
		p.sched.Schedule(p.serviceTime, func() { p.face.Send(content) })
		return
	}
	p.face.Send(content)
}
