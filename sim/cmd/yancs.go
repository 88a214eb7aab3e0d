/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package cmd builds a simulation from a scenario file and runs it.
package cmd

import (
	"fmt"

	"github.com/named-data/yancs/sim/app"
	"github.com/named-data/yancs/sim/core"
	"github.com/named-data/yancs/sim/defn"
	"github.com/named-data/yancs/sim/face"
	"github.com/named-data/yancs/sim/fw"
	"github.com/named-data/yancs/sim/trace"
)

// appLinkBitRate is the bit-rate of the local link between an application
// and its node; fast enough that it never shapes.
const appLinkBitRate = 1_000_000_000

// Yancs is one assembled simulation: scheduler, forwarders, links and
// applications built from a Config.
type Yancs struct {
	config *core.Config
	sched  *core.Scheduler
	tr     *trace.Collector

	forwarders map[string]*fw.Forwarder
	// faces indexes node-owned faces by node then remote peer.
	faces map[string]map[string]*face.Face

	consumers []*app.ConsumerRateFeedback
	producers []*app.Producer
}

func (y *Yancs) String() string {
	return "yancs"
}

// NewYancs assembles the topology, routes and applications described by
// the config.
func NewYancs(config *core.Config) (*Yancs, error) {
	y := &Yancs{
		config:     config,
		sched:      core.NewScheduler(config.Core.Seed),
		tr:         trace.NewCollector(),
		forwarders: make(map[string]*fw.Forwarder),
		faces:      make(map[string]map[string]*face.Face),
	}

	for _, node := range config.Topology.Nodes {
		forwarder, err := fw.NewForwarder(y.sched, node, config.Fw, y.tr)
		if err != nil {
			return nil, err
		}
		y.forwarders[node] = forwarder
		y.faces[node] = make(map[string]*face.Face)
	}

	for _, link := range config.Topology.Links {
		if err := y.buildLink(link); err != nil {
			return nil, err
		}
	}

	for _, route := range config.Workload.Routes {
		forwarder, ok := y.forwarders[route.Node]
		if !ok {
			return nil, fmt.Errorf("route for unknown node %s", route.Node)
		}
		outFace, ok := y.faces[route.Node][route.Via]
		if !ok {
			return nil, fmt.Errorf("route on %s via unknown neighbor %s", route.Node, route.Via)
		}
		forwarder.Fib().InsertEntry(defn.Name(route.Prefix)).AddNextHop(outFace, route.Rank)
	}

	for i, inst := range config.Workload.Producers {
		name := fmt.Sprintf("producer%d", i)
		appFace, nodeFace, err := y.buildAppLink(inst.Node, name)
		if err != nil {
			return nil, err
		}
		producer := app.NewProducer(y.sched, appFace, defn.Name(inst.Prefix),
			inst.PayloadSize, core.Seconds(inst.ServiceTime), name)
		y.forwarders[inst.Node].Fib().InsertEntry(defn.Name(inst.Prefix)).AddNextHop(nodeFace, 0)
		y.producers = append(y.producers, producer)
	}

	for i, inst := range config.Workload.Consumers {
		name := fmt.Sprintf("consumer%d", i)
		appFace, _, err := y.buildAppLink(inst.Node, name)
		if err != nil {
			return nil, err
		}
		consumer := app.NewConsumerRateFeedback(y.sched, appFace, defn.Name(inst.Prefix),
			y.config.Consumer, y.tr, name)
		y.consumers = append(y.consumers, consumer)
	}

	return y, nil
}

func (y *Yancs) buildLink(link core.LinkConfig) error {
	fwA, ok := y.forwarders[link.A]
	if !ok {
		return fmt.Errorf("link endpoint %s is not a node", link.A)
	}
	fwB, ok := y.forwarders[link.B]
	if !ok {
		return fmt.Errorf("link endpoint %s is not a node", link.B)
	}

	forward := link.BitRate
	reverse := link.BitRateReverse
	if reverse == 0 {
		reverse = forward
	}

	faceA, err := face.NewFace(y.sched, fwA.NewFaceID(), link.A, link.B, forward, y.config.Shaper, y.tr)
	if err != nil {
		return err
	}
	faceA.SetInRate(reverse)

	faceB, err := face.NewFace(y.sched, fwB.NewFaceID(), link.B, link.A, reverse, y.config.Shaper, y.tr)
	if err != nil {
		return err
	}
	faceB.SetInRate(forward)

	face.Connect(y.sched, faceA, faceB, core.Seconds(link.Delay))
	fwA.AddFace(faceA)
	fwB.AddFace(faceB)
	y.faces[link.A][link.B] = faceA
	y.faces[link.B][link.A] = faceB
	return nil
}

// buildAppLink connects an application to its node over a fast local
// link. Returns the application-side and node-side faces.
func (y *Yancs) buildAppLink(node, appName string) (*face.Face, *face.Face, error) {
	forwarder, ok := y.forwarders[node]
	if !ok {
		return nil, nil, fmt.Errorf("app %s on unknown node %s", appName, node)
	}

	nodeFace, err := face.NewFace(y.sched, forwarder.NewFaceID(), node, appName, appLinkBitRate, y.config.Shaper, y.tr)
	if err != nil {
		return nil, nil, err
	}
	appFace, err := face.NewFace(y.sched, 1, appName, node, appLinkBitRate, y.config.Shaper, y.tr)
	if err != nil {
		return nil, nil, err
	}

	face.Connect(y.sched, appFace, nodeFace, 0)
	forwarder.AddFace(nodeFace)
	y.faces[node][appName] = nodeFace
	return appFace, nodeFace, nil
}

// Face returns the node-owned face toward a neighbor, for tests and
// tracing.
func (y *Yancs) Face(node, peer string) *face.Face {
	return y.faces[node][peer]
}

// Trace returns the simulation's event collector.
func (y *Yancs) Trace() *trace.Collector {
	return y.tr
}

// Scheduler returns the simulation's scheduler.
func (y *Yancs) Scheduler() *core.Scheduler {
	return y.sched
}

// Consumers returns the instantiated consumers.
func (y *Yancs) Consumers() []*app.ConsumerRateFeedback {
	return y.consumers
}

// Run executes the scenario for its configured duration, then flushes
// the trace database if one is configured.
func (y *Yancs) Run() error {
	for i, consumer := range y.consumers {
		consumer.Start(core.Seconds(y.config.Workload.Consumers[i].Start))
	}

	y.sched.RunFor(core.Seconds(y.config.Workload.Duration))

	for _, consumer := range y.consumers {
		consumer.Stop()
	}

	for _, consumer := range y.consumers {
		core.Log.Info(y, "Consumer finished",
			"consumer", consumer.String(),
			"sent", consumer.Sent(),
			"received", consumer.Received(),
			"nacks", consumer.Nacked(),
			"frequency", consumer.Frequency())
	}
	for _, producer := range y.producers {
		core.Log.Info(y, "Producer finished", "producer", producer.String(), "served", producer.Served())
	}
	core.Log.Info(y, "Drops",
		"tail", y.tr.DropCount("", trace.DropTail),
		"pie", y.tr.DropCount("", trace.DropPie),
		"codel", y.tr.DropCount("", trace.DropCodel))

	if y.config.Core.TraceDb != "" {
		if err := y.tr.WriteSQLite(y.config.Core.TraceDb); err != nil {
			return fmt.Errorf("write trace db: %w", err)
		}
		core.Log.Info(y, "Trace database written", "path", y.config.Core.TraceDb)
	}
	return nil
}
