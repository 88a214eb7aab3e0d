/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
)

// PitInRecord tracks a downstream face awaiting content for an entry.
type PitInRecord struct {
	Face           *face.Face
	LatestNonce    uint32
	ExpirationTime time.Time
}

// PitOutRecord tracks an upstream face an interest was propagated to.
type PitOutRecord struct {
	Face            *face.Face
	LatestNonce     uint32
	LatestTimestamp time.Time
}

// PitEntry is one outstanding interest name with its downstream and
// upstream records and a back-reference to the matched FIB entry.
type PitEntry struct {
	name       defn.Name
	fibEntry   *FibEntry
	inRecords  map[uint64]*PitInRecord
	outRecords map[uint64]*PitOutRecord

	expiryCancel func() error
}

func (e *PitEntry) Name() defn.Name {
	return e.name
}

// FibEntry returns the FIB entry matched at insertion; nil if the
// interest had no route.
func (e *PitEntry) FibEntry() *FibEntry {
	return e.fibEntry
}

func (e *PitEntry) InRecords() map[uint64]*PitInRecord {
	return e.inRecords
}

func (e *PitEntry) OutRecords() map[uint64]*PitOutRecord {
	return e.outRecords
}

// InsertInRecord adds or refreshes the downstream record for a face.
// Returns whether a record for the face already existed.
func (e *PitEntry) InsertInRecord(f *face.Face, nonce uint32, expiry time.Time) bool {
	if r, ok := e.inRecords[f.ID()]; ok {
		r.LatestNonce = nonce
		r.ExpirationTime = expiry
		return true
	}
	e.inRecords[f.ID()] = &PitInRecord{Face: f, LatestNonce: nonce, ExpirationTime: expiry}
	return false
}

// InsertOutRecord adds or refreshes the upstream record for a face.
func (e *PitEntry) InsertOutRecord(f *face.Face, nonce uint32, now time.Time) {
	if r, ok := e.outRecords[f.ID()]; ok {
		r.LatestNonce = nonce
		r.LatestTimestamp = now
		return
	}
	e.outRecords[f.ID()] = &PitOutRecord{Face: f, LatestNonce: nonce, LatestTimestamp: now}
}

// RemoveInRecord drops the downstream record for a face.
func (e *PitEntry) RemoveInRecord(faceID uint64) {
	delete(e.inRecords, faceID)
}

// RemoveOutRecord drops the upstream record for a face.
func (e *PitEntry) RemoveOutRecord(faceID uint64) {
	delete(e.outRecords, faceID)
}

// HasNonce reports whether any record already carries the nonce; a match
// means the interest is a looped duplicate.
func (e *PitEntry) HasNonce(nonce uint32) bool {
	for _, r := range e.inRecords {
		if r.LatestNonce == nonce {
			return true
		}
	}
	for _, r := range e.outRecords {
		if r.LatestNonce == nonce {
			return true
		}
	}
	return false
}

// SetExpiryCancel stores the cancellation for the entry's lifetime timer.
func (e *PitEntry) SetExpiryCancel(cancel func() error) {
	e.expiryCancel = cancel
}

// Pit is the pending interest table, exact-matched by name.
type Pit struct {
	entries map[uint64]*PitEntry
}

func NewPit() *Pit {
	return &Pit{entries: make(map[uint64]*PitEntry)}
}

// Len returns the number of outstanding entries.
func (p *Pit) Len() int {
	return len(p.entries)
}

// Find returns the entry for the exact name, or nil.
func (p *Pit) Find(name defn.Name) *PitEntry {
	return p.entries[name.Hash()]
}

// FindOrInsert returns the entry for the name, creating it against the
// given FIB entry if absent. The second return is true for a new entry.
func (p *Pit) FindOrInsert(name defn.Name, fibEntry *FibEntry) (*PitEntry, bool) {
	h := name.Hash()
	if e, ok := p.entries[h]; ok {
		return e, false
	}
	e := &PitEntry{
		name:       name,
		fibEntry:   fibEntry,
		inRecords:  make(map[uint64]*PitInRecord),
		outRecords: make(map[uint64]*PitOutRecord),
	}
	p.entries[h] = e
	return e, true
}

// Remove deletes the entry and cancels its lifetime timer.
func (p *Pit) Remove(e *PitEntry) {
	if e.expiryCancel != nil {
		e.expiryCancel()
		e.expiryCancel = nil
	}
	delete(p.entries, e.name.Hash())
}
