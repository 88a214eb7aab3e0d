/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package fw implements the per-node forwarder and its forwarding
// strategies.
package fw

import (
	"fmt"

	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
	"github.com/named-data/yancs/sim/table"
)

// Strategy decides where to propagate interests and reacts to returning
// content and NACKs.
type Strategy interface {
	Instantiate(fw *Forwarder)
	String() string

	// PropagateInterest picks outgoing faces for an interest arriving on
	// inFace (nil for a locally re-propagated interest). It returns the
	// number of faces propagated to and whether any candidate was refused
	// only by shaper back-pressure.
	PropagateInterest(inFace *face.Face, interest *defn.Pkt, pitEntry *table.PitEntry) (int, bool)

	// WillSatisfyPendingInterest runs when content arrives on inFace for
	// a pending entry, before the content is forwarded downstream.
	WillSatisfyPendingInterest(inFace *face.Face, pitEntry *table.PitEntry)

	// DidReceiveValidNack runs when a NACK for a pending entry arrives on
	// inFace.
	DidReceiveValidNack(inFace *face.Face, code defn.NackCode, pitEntry *table.PitEntry)
}

// strategies maps registered strategy names to constructors.
var strategies = map[string]func() Strategy{}

// RegisterStrategy adds a strategy constructor to the registry. Called
// from init in each strategy's file.
func RegisterStrategy(name string, ctor func() Strategy) {
	strategies[name] = ctor
}

// NewStrategy instantiates a registered strategy for a forwarder.
func NewStrategy(name string, fw *Forwarder) (Strategy, error) {
	ctor, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	s := ctor()
	s.Instantiate(fw)
	return s, nil
}

// StrategyBase provides the send predicates shared by strategy
// implementations.
type StrategyBase struct {
	fw      *Forwarder
	name    string
	version uint64
}

// NewStrategyBase initializes the embedded base.
func (s *StrategyBase) NewStrategyBase(fw *Forwarder, name string, version uint64) {
	s.fw = fw
	s.name = name
	s.version = version
}

func (s *StrategyBase) String() string {
	return fmt.Sprintf("%s-v%d (%s)", s.name, s.version, s.fw.name)
}

// CanSendOutInterest applies the policy checks for propagating an
// interest out a face: never back out the arrival face, and never twice
// with the same nonce.
func (s *StrategyBase) CanSendOutInterest(inFace, outFace *face.Face, interest *defn.Pkt, pitEntry *table.PitEntry) bool {
	if inFace != nil && outFace.ID() == inFace.ID() {
		return false
	}
	if r, ok := pitEntry.OutRecords()[outFace.ID()]; ok && r.LatestNonce == interest.Nonce {
		return false
	}
	return true
}

// TrySendOutInterest propagates the interest out a face if policy allows
// and the face's shaper admits it. An out record is added on success.
func (s *StrategyBase) TrySendOutInterest(inFace, outFace *face.Face, interest *defn.Pkt, pitEntry *table.PitEntry) bool {
	if !s.CanSendOutInterest(inFace, outFace, interest, pitEntry) {
		return false
	}
	if !outFace.Send(interest) {
		return false
	}
	pitEntry.InsertOutRecord(outFace, interest.Nonce, s.fw.sched.Now())
	return true
}
