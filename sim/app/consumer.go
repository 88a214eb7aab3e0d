/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package app holds the traffic endpoints: the rate-feedback consumer
// and the producer.
package app

import (
	"fmt"
	"time"

	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
	"github.com/named-data/yancs/sim/trace"
)

// ConsumerRateFeedback emits one interest every 1/frequency seconds and
// adapts the frequency to the observed inter-arrival of content. In slow
// start it doubles the observed good-put rate; after the first observed
// slowdown it probes additively above it, letting the shaper absorb the
// excess and signal congestion when capacity is reached.
type ConsumerRateFeedback struct {
	name   string
	sched  *core.Scheduler
	face   *face.Face
	prefix defn.Name
	tr     *trace.Collector

	frequency             float64 // interest emission rate, Hz
	incomingDataFrequency float64 // EWMA of 1/dt between content arrivals
	prevData              time.Time
	inSlowStart           bool
	probeFactor           float64

	interestSize int
	seq          uint64
	nonce        uint32

	running    bool
	sendCancel func() error
	lastSend   time.Time

	// Counters
	nSent uint64
	nData uint64
	nNack uint64
}

// NewConsumerRateFeedback attaches a consumer to its application face.
func NewConsumerRateFeedback(sched *core.Scheduler, f *face.Face, prefix defn.Name, cfg core.ConsumerConfig, tr *trace.Collector, name string) *ConsumerRateFeedback {
	c := &ConsumerRateFeedback{
		name:         name,
		sched:        sched,
		face:         f,
		prefix:       prefix,
		tr:           tr,
		frequency:    cfg.StartFrequency,
		inSlowStart:  true,
		probeFactor:  cfg.ProbeFactor,
		interestSize: cfg.InterestSize,
	}
	f.OnPacket(c.onPacket)
	return c
}

func (c *ConsumerRateFeedback) String() string {
	return fmt.Sprintf("consumer (%s %s)", c.name, c.prefix)
}

// Start schedules the first interest after the given delay.
func (c *ConsumerRateFeedback) Start(after time.Duration) {
	c.running = true
	c.sendCancel = c.sched.Schedule(after, c.sendInterest)
}

// Stop halts emission.
func (c *ConsumerRateFeedback) Stop() {
	c.running = false
	if c.sendCancel != nil {
		c.sendCancel()
		c.sendCancel = nil
	}
}

// Frequency returns the current emission rate in Hz.
func (c *ConsumerRateFeedback) Frequency() float64 {
	return c.frequency
}

// IncomingDataFrequency returns the smoothed observed content rate in Hz.
func (c *ConsumerRateFeedback) IncomingDataFrequency() float64 {
	return c.incomingDataFrequency
}

// InSlowStart reports whether slow start has not yet been exited.
func (c *ConsumerRateFeedback) InSlowStart() bool {
	return c.inSlowStart
}

// Received returns the number of content packets received.
func (c *ConsumerRateFeedback) Received() uint64 {
	return c.nData
}

// Sent returns the number of interests emitted.
func (c *ConsumerRateFeedback) Sent() uint64 {
	return c.nSent
}

// Nacked returns the number of NACKs received.
func (c *ConsumerRateFeedback) Nacked() uint64 {
	return c.nNack
}

func (c *ConsumerRateFeedback) sendInterest() {
	if !c.running {
		return
	}
	c.seq++
	c.nonce++
	name := c.prefix.Append(fmt.Sprintf("seq=%d", c.seq))
	interest := defn.NewInterest(name, c.interestSize, c.nonce)
	c.face.Send(interest)
	c.nSent++
	c.lastSend = c.sched.Now()

	c.scheduleNext(c.period())
}

func (c *ConsumerRateFeedback) period() time.Duration {
	return time.Duration(float64(time.Second) / c.frequency)
}

// scheduleNext re-arms the send timer, replacing any pending one.
func (c *ConsumerRateFeedback) scheduleNext(after time.Duration) {
	if !c.running {
		return
	}
	if c.sendCancel != nil {
		c.sendCancel()
	}
	c.sendCancel = c.sched.Schedule(after, c.sendInterest)
}

func (c *ConsumerRateFeedback) onPacket(_ *face.Face, pkt *defn.Pkt) {
	switch {
	case pkt.IsNack():
		c.nNack++
		core.Log.Debug(c, "NACK received", "name", pkt.Name, "code", pkt.Nack)
	case pkt.Type == defn.PktContent:
		c.nData++
		c.adjustFrequencyOnContent()
		c.tr.Data(c.sched.Now(), c.name, string(pkt.Name), c.frequency)
	}
}

// adjustFrequencyOnContent updates the smoothed incoming content rate and
// derives the next emission frequency from it.
func (c *ConsumerRateFeedback) adjustFrequencyOnContent() {
	now := c.sched.Now()
	if !c.prevData.IsZero() {
		freq := 1.0 / now.Sub(c.prevData).Seconds()
		if c.incomingDataFrequency == 0.0 {
			c.incomingDataFrequency = freq
		} else {
			c.incomingDataFrequency = c.incomingDataFrequency*7.0/8.0 + freq/8.0
			if freq < c.incomingDataFrequency {
				c.inSlowStart = false
			}
		}

		if c.inSlowStart {
			c.frequency = c.incomingDataFrequency * 2.0
		} else {
			c.frequency = c.incomingDataFrequency + c.probeFactor
		}

		core.Log.Trace(c, "Adjusted frequency", "frequency", c.frequency, "incoming", c.incomingDataFrequency)
		// next emission one new period after the last one, not after this content
		c.scheduleNext(c.lastSend.Add(c.period()).Sub(now))
	}

	c.prevData = now
}
