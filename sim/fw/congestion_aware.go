/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
	"github.com/named-data/yancs/sim/table"
)

// CongestionAware is a single-path strategy that orders candidate faces
// by their congestion level. Shaper back-pressure and congestion NACKs
// raise a face's level; returning content lowers it. The FIB ordering by
// level is what redirects traffic away from congested paths.
type CongestionAware struct {
	StrategyBase
}

func init() {
	RegisterStrategy("congestion-aware", func() Strategy { return &CongestionAware{} })
}

// Instantiate binds the strategy to a forwarder.
func (s *CongestionAware) Instantiate(fw *Forwarder) {
	s.NewStrategyBase(fw, "congestion-aware", 1)
}

// PropagateInterest walks the FIB faces in congestion order and sends out
// the first that accepts. A face that policy would allow but the shaper
// refuses gets its congestion level raised.
func (s *CongestionAware) PropagateInterest(
	inFace *face.Face,
	interest *defn.Pkt,
	pitEntry *table.PitEntry,
) (int, bool) {
	fibEntry := pitEntry.FibEntry()
	if fibEntry == nil {
		return 0, false
	}

	propagatedCount := 0
	congested := false
	for _, metric := range fibEntry.NextHops() {
		core.Log.Trace(s, "Considering face", "face", metric.Face, "cnglevel", metric.CngLevel)
		if !s.TrySendOutInterest(inFace, metric.Face, interest, pitEntry) {
			if s.CanSendOutInterest(inFace, metric.Face, interest, pitEntry) {
				// only shaper back-pressure stopped it
				fibEntry.UpdateFaceCngLevelCounter(metric.Face, true)
				congested = true
			}
			continue
		}

		s.fw.tr.Pick(s.fw.sched.Now(), s.fw.name, metric.Face.Name(), string(interest.Name))
		propagatedCount++
		break // do only once
	}

	core.Log.Debug(s, "Propagated interest", "name", interest.Name, "count", propagatedCount)
	return propagatedCount, congested
}

// WillSatisfyPendingInterest lowers the congestion level of the face the
// content arrived on.
func (s *CongestionAware) WillSatisfyPendingInterest(inFace *face.Face, pitEntry *table.PitEntry) {
	if inFace == nil || pitEntry.FibEntry() == nil {
		return
	}
	pitEntry.FibEntry().UpdateFaceCngLevelCounter(inFace, false)
}

// DidReceiveValidNack raises the congestion level of the face a
// congestion or PIT-giveup NACK arrived on.
func (s *CongestionAware) DidReceiveValidNack(inFace *face.Face, code defn.NackCode, pitEntry *table.PitEntry) {
	if inFace == nil || pitEntry.FibEntry() == nil {
		return
	}
	if code == defn.NackCongestion || code == defn.NackGiveupPit {
		pitEntry.FibEntry().UpdateFaceCngLevelCounter(inFace, true)
	}
}
