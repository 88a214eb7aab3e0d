/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package defn holds the packet and name model shared by every layer of
// the simulator. Packets are in-memory records; there is no wire encoding.
package defn

import (
	"fmt"
	"time"
)

// PktType discriminates the packet header.
type PktType int

const (
	PktInvalid PktType = iota
	PktInterest
	PktContent
)

func (t PktType) String() string {
	switch t {
	case PktInterest:
		return "interest"
	case PktContent:
		return "content"
	default:
		return "invalid"
	}
}

// NackCode marks an interest as a negative acknowledgement. A NACK is an
// interest with a non-zero code.
type NackCode int

const (
	NackNone NackCode = iota
	NackCongestion
	NackGiveupPit
)

func (c NackCode) String() string {
	switch c {
	case NackNone:
		return "none"
	case NackCongestion:
		return "congestion"
	case NackGiveupPit:
		return "giveup-pit"
	default:
		return fmt.Sprintf("nack-%d", int(c))
	}
}

// Pkt is a simulated packet: a header type, a name, a size on the wire,
// and an optional nack code. Sojourn is a per-packet timestamp tag set at
// shaper admission and cleared at dequeue (CoDel).
type Pkt struct {
	Type  PktType
	Name  Name
	Size  int
	Nonce uint32
	Nack  NackCode

	Sojourn time.Time
}

// NewInterest makes an interest packet of the given size.
func NewInterest(name Name, size int, nonce uint32) *Pkt {
	return &Pkt{Type: PktInterest, Name: name, Size: size, Nonce: nonce}
}

// NewContent makes a content packet of the given size.
func NewContent(name Name, size int) *Pkt {
	return &Pkt{Type: PktContent, Name: name, Size: size}
}

// MakeNack derives a NACK from an interest, preserving name and nonce.
// NACKs keep the interest's size on the wire.
func MakeNack(interest *Pkt, code NackCode) *Pkt {
	return &Pkt{
		Type:  PktInterest,
		Name:  interest.Name,
		Size:  interest.Size,
		Nonce: interest.Nonce,
		Nack:  code,
	}
}

// IsNack reports whether the packet is a NACK.
func (p *Pkt) IsNack() bool {
	return p.Type == PktInterest && p.Nack != NackNone
}

// Valid reports whether the header type is well formed.
func (p *Pkt) Valid() bool {
	return p != nil && (p.Type == PktInterest || p.Type == PktContent)
}

func (p *Pkt) String() string {
	if p.IsNack() {
		return fmt.Sprintf("nack(%s)=%s", p.Nack, p.Name)
	}
	return fmt.Sprintf("%s=%s", p.Type, p.Name)
}
