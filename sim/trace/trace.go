// Package trace collects simulation events: shaper drops, rate samples,
// CoDel sojourns, strategy face picks and NACKs. A nil *Collector is a
// valid no-op sink, so components trace unconditionally.
package trace

import (
	"time"
)

type DropReason int

const (
	DropTail DropReason = iota
	DropPie
	DropCodel
	DropMalformed
)

func (r DropReason) String() string {
	switch r {
	case DropTail:
		return "tail"
	case DropPie:
		return "pie"
	case DropCodel:
		return "codel"
	case DropMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

type DropEvent struct {
	Time   time.Time
	Face   string
	Name   string
	Reason DropReason
}

type EmitEvent struct {
	Time time.Time
	Face string
	Size int
	Rate float64 // shaping bit-rate at dequeue
}

type RateSample struct {
	Time       time.Time
	Face       string
	Shaping    float64 // bps
	ObservedIn float64 // bps
}

type SojournSample struct {
	Time     time.Time
	Face     string
	Sojourn  time.Duration
	Dropping bool
}

type QueueSample struct {
	Time time.Time
	Face string
	Len  int
}

type PickEvent struct {
	Time time.Time
	Node string
	Face string
	Name string
}

type NackEvent struct {
	Time time.Time
	Node string
	Face string
	Code string
	Name string
}

type DataEvent struct {
	Time time.Time
	App  string
	Name string
	Freq float64 // consumer frequency after adjustment
}

// Collector accumulates events in memory. The simulation is
// single-threaded, so no locking is needed.
type Collector struct {
	Drops    []DropEvent
	Emits    []EmitEvent
	Rates    []RateSample
	Sojourns []SojournSample
	Queues   []QueueSample
	Picks    []PickEvent
	Nacks    []NackEvent
	Datas    []DataEvent
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Drop(t time.Time, face, name string, reason DropReason) {
	if c == nil {
		return
	}
	c.Drops = append(c.Drops, DropEvent{t, face, name, reason})
}

func (c *Collector) Emit(t time.Time, face string, size int, rate float64) {
	if c == nil {
		return
	}
	c.Emits = append(c.Emits, EmitEvent{t, face, size, rate})
}

func (c *Collector) Rate(t time.Time, face string, shaping, observedIn float64) {
	if c == nil {
		return
	}
	c.Rates = append(c.Rates, RateSample{t, face, shaping, observedIn})
}

func (c *Collector) Sojourn(t time.Time, face string, sojourn time.Duration, dropping bool) {
	if c == nil {
		return
	}
	c.Sojourns = append(c.Sojourns, SojournSample{t, face, sojourn, dropping})
}

func (c *Collector) Queue(t time.Time, face string, qlen int) {
	if c == nil {
		return
	}
	c.Queues = append(c.Queues, QueueSample{t, face, qlen})
}

func (c *Collector) Pick(t time.Time, node, face, name string) {
	if c == nil {
		return
	}
	c.Picks = append(c.Picks, PickEvent{t, node, face, name})
}

func (c *Collector) Nack(t time.Time, node, face, code, name string) {
	if c == nil {
		return
	}
	c.Nacks = append(c.Nacks, NackEvent{t, node, face, code, name})
}

func (c *Collector) Data(t time.Time, app, name string, freq float64) {
	if c == nil {
		return
	}
	c.Datas = append(c.Datas, DataEvent{t, app, name, freq})
}

// DropCount returns the number of drops matching face and reason. An
// empty face matches every face.
func (c *Collector) DropCount(face string, reason DropReason) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.Drops {
		if (face == "" || d.Face == face) && d.Reason == reason {
			n++
		}
	}
	return n
}
