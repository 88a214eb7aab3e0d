/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"fmt"
	"time"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
	"github.com/named-data/yancs/sim/table"
	"github.com/named-data/yancs/sim/trace"
)

// Forwarder is one node's forwarding plane: its faces, PIT, FIB and
// strategy. All packet handling runs inside scheduler callbacks.
type Forwarder struct {
	name  string
	sched *core.Scheduler
	tr    *trace.Collector

	faces      map[uint64]*face.Face
	nextFaceID uint64

	pit      *table.Pit
	fib      *table.Fib
	strategy Strategy

	interestLifetime time.Duration
}

// NewForwarder creates a forwarder with the configured strategy.
func NewForwarder(sched *core.Scheduler, name string, cfg core.FwConfig, tr *trace.Collector) (*Forwarder, error) {
	fw := &Forwarder{
		name:             name,
		sched:            sched,
		tr:               tr,
		faces:            make(map[uint64]*face.Face),
		nextFaceID:       1,
		pit:              table.NewPit(),
		fib:              table.NewFib(),
		interestLifetime: core.Seconds(cfg.InterestLifetime),
	}
	strategy, err := NewStrategy(cfg.Strategy, fw)
	if err != nil {
		return nil, err
	}
	fw.strategy = strategy
	return fw, nil
}

func (fw *Forwarder) String() string {
	return fmt.Sprintf("fw (%s)", fw.name)
}

// NodeName returns the node this forwarder belongs to.
func (fw *Forwarder) NodeName() string {
	return fw.name
}

// Fib returns the node's FIB for route administration.
func (fw *Forwarder) Fib() *table.Fib {
	return fw.fib
}

// Pit returns the node's PIT.
func (fw *Forwarder) Pit() *table.Pit {
	return fw.pit
}

// NewFaceID allocates a node-scoped face identifier.
func (fw *Forwarder) NewFaceID() uint64 {
	id := fw.nextFaceID
	fw.nextFaceID++
	return id
}

// AddFace attaches a face to the forwarder and takes over its receive
// path.
func (fw *Forwarder) AddFace(f *face.Face) {
	fw.faces[f.ID()] = f
	f.OnPacket(fw.onIncoming)
}

func (fw *Forwarder) onIncoming(in *face.Face, pkt *defn.Pkt) {
	if !pkt.Valid() {
		return // malformed, silently discarded
	}
	switch {
	case pkt.IsNack():
		fw.onNack(in, pkt)
	case pkt.Type == defn.PktInterest:
		fw.onInterest(in, pkt)
	case pkt.Type == defn.PktContent:
		fw.onContent(in, pkt)
	}
}

func (fw *Forwarder) onInterest(in *face.Face, interest *defn.Pkt) {
	core.Log.Trace(fw, "Incoming interest", "name", interest.Name, "faceid", in.ID())

	fibEntry := fw.fib.FindLongestPrefix(interest.Name)
	pitEntry, isNew := fw.pit.FindOrInsert(interest.Name, fibEntry)

	if !isNew && pitEntry.HasNonce(interest.Nonce) {
		core.Log.Debug(fw, "Looped interest", "name", interest.Name, "nonce", interest.Nonce)
		return
	}

	pitEntry.InsertInRecord(in, interest.Nonce, fw.sched.Now().Add(fw.interestLifetime))
	if isNew {
		pitEntry.SetExpiryCancel(fw.sched.Schedule(fw.interestLifetime, func() {
			fw.onPitExpiry(pitEntry)
		}))
	}

	if !isNew && len(pitEntry.OutRecords()) > 0 {
		// Already propagated; the content will satisfy this record too.
		return
	}

	propagated, congested := fw.strategy.PropagateInterest(in, interest, pitEntry)
	if propagated > 0 {
		return
	}

	code := defn.NackGiveupPit
	if congested {
		code = defn.NackCongestion
	}
	fw.nackDownstream(pitEntry, interest, code)
	fw.pit.Remove(pitEntry)
}

func (fw *Forwarder) onContent(in *face.Face, content *defn.Pkt) {
	pitEntry := fw.pit.Find(content.Name)
	if pitEntry == nil {
		core.Log.Debug(fw, "Unsolicited content", "name", content.Name)
		return
	}

	fw.strategy.WillSatisfyPendingInterest(in, pitEntry)

	for _, record := range pitEntry.InRecords() {
		if record.Face.ID() == in.ID() {
			continue
		}
		core.Log.Trace(fw, "Forwarding content", "name", content.Name, "faceid", record.Face.ID())
		record.Face.Send(defn.NewContent(content.Name, content.Size))
	}
	fw.pit.Remove(pitEntry)
}

// onNack handles an arriving congestion or giveup NACK: mark the upstream
// congested, try the remaining upstreams, and only then give up and
// propagate the NACK downstream.
func (fw *Forwarder) onNack(in *face.Face, nack *defn.Pkt) {
	pitEntry := fw.pit.Find(nack.Name)
	if pitEntry == nil {
		return
	}

	core.Log.Debug(fw, "Incoming NACK", "name", nack.Name, "code", nack.Nack, "faceid", in.ID())
	fw.tr.Nack(fw.sched.Now(), fw.name, in.Name(), nack.Nack.String(), string(nack.Name))

	fw.strategy.DidReceiveValidNack(in, nack.Nack, pitEntry)
	pitEntry.RemoveOutRecord(in.ID())

	interest := defn.NewInterest(nack.Name, nack.Size, nack.Nonce)
	propagated, _ := fw.strategy.PropagateInterest(nil, interest, pitEntry)
	if propagated > 0 {
		return
	}

	fw.nackDownstream(pitEntry, interest, nack.Nack)
	fw.pit.Remove(pitEntry)
}

func (fw *Forwarder) onPitExpiry(pitEntry *table.PitEntry) {
	if fw.pit.Find(pitEntry.Name()) != pitEntry {
		return // already satisfied and removed
	}
	core.Log.Trace(fw, "PIT entry expired", "name", pitEntry.Name())
	fw.pit.Remove(pitEntry)
}

// nackDownstream sends a NACK toward every downstream still waiting on
// the entry. NACKs bypass the shaper.
func (fw *Forwarder) nackDownstream(pitEntry *table.PitEntry, interest *defn.Pkt, code defn.NackCode) {
	for _, record := range pitEntry.InRecords() {
		nack := defn.MakeNack(interest, code)
		core.Log.Trace(fw, "NACK downstream", "name", interest.Name, "code", code, "faceid", record.Face.ID())
		record.Face.Send(nack)
	}
}
