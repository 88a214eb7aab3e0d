/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package table implements the FIB and PIT consumed by the forwarding
// strategy. Entries are owned by one node's forwarder; the single-threaded
// event loop serializes all access.
package table

import (
	"sort"

	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
)

// FaceMetric is the per-(prefix, outgoing face) state: the configured
// ordering rank and the congestion level counter. A higher CngLevel means
// more recent congestion observed on that face.
type FaceMetric struct {
	Face     *face.Face
	Rank     int
	CngLevel int
}

// FibEntry is a name prefix with its ranked outgoing faces.
type FibEntry struct {
	name    defn.Name
	metrics []*FaceMetric
}

// Name returns the entry's prefix.
func (e *FibEntry) Name() defn.Name {
	return e.name
}

// AddNextHop registers an outgoing face with the given rank. Re-adding a
// face updates its rank and resets its congestion level.
func (e *FibEntry) AddNextHop(f *face.Face, rank int) {
	for _, m := range e.metrics {
		if m.Face == f {
			m.Rank = rank
			m.CngLevel = 0
			return
		}
	}
	e.metrics = append(e.metrics, &FaceMetric{Face: f, Rank: rank})
}

// NextHops returns the faces ordered for propagation: ascending congestion
// level, then configured rank. This reordering is the only mechanism by
// which congestion redirects traffic.
func (e *FibEntry) NextHops() []*FaceMetric {
	hops := make([]*FaceMetric, len(e.metrics))
	copy(hops, e.metrics)
	sort.SliceStable(hops, func(i, j int) bool {
		if hops[i].CngLevel != hops[j].CngLevel {
			return hops[i].CngLevel < hops[j].CngLevel
		}
		return hops[i].Rank < hops[j].Rank
	})
	return hops
}

// UpdateFaceCngLevelCounter raises or lowers the congestion level of the
// given face. Lowering stops at zero.
func (e *FibEntry) UpdateFaceCngLevelCounter(f *face.Face, increment bool) {
	for _, m := range e.metrics {
		if m.Face != f {
			continue
		}
		if increment {
			m.CngLevel++
		} else if m.CngLevel > 0 {
			m.CngLevel--
		}
		return
	}
}

// Fib is a name-prefix table with longest-prefix match.
type Fib struct {
	entries map[uint64]*FibEntry
}

func NewFib() *Fib {
	return &Fib{entries: make(map[uint64]*FibEntry)}
}

// InsertEntry returns the entry for the exact prefix, creating it if
// needed.
func (f *Fib) InsertEntry(name defn.Name) *FibEntry {
	h := name.Hash()
	if e, ok := f.entries[h]; ok {
		return e
	}
	e := &FibEntry{name: name}
	f.entries[h] = e
	return e
}

// FindLongestPrefix returns the entry with the longest prefix of name, or
// nil if no prefix matches.
func (f *Fib) FindLongestPrefix(name defn.Name) *FibEntry {
	for depth := name.Depth(); depth >= 1; depth-- {
		prefix := name.Prefix(depth)
		if e, ok := f.entries[prefix.Hash()]; ok && e.name.IsPrefixOf(name) {
			return e
		}
	}
	return nil
}
