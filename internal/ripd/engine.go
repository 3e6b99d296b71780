/*
 * ripd routing daemon. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package ripd implements the core routing engine: the routing table
// (table.go), the Bellman-Ford update engine with split-horizon
// poisoned reverse (engine.go), and the cooperative event loop
// (loop.go) that drives them from channels and timers.
package ripd

import (
	"time"

	"ripd/internal/riplog"
	"ripd/internal/ripwire"
)

// Neighbor is the immutable (outgoing_port, link_cost) pair a configured
// neighbor is reached through.
type Neighbor struct {
	OutgoingPort uint16
	LinkCost     uint8
}

// Transport sends an encoded packet to a neighbor's outgoing port. The
// engine is agnostic to how this happens; cmd/ripd wires a UDP socket,
// tests wire a recording fake.
type Transport interface {
	SendTo(port uint16, payload []byte) error
}

// Engine owns the routing table and the neighbor model, and implements
// the operations the scheduler drives: datagram processing, sending
// updates, and the periodic expiry/GC tick.
type Engine struct {
	selfID    uint16
	neighbors map[uint16]Neighbor
	table     *Table
	transport Transport
	log       riplog.Notifier
	now       func() time.Time
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a Notifier; the default is riplog.Nil{}.
func WithLogger(n riplog.Notifier) Option {
	return func(e *Engine) { e.log = n }
}

// WithClock overrides the engine's time source; the default is
// time.Now. Tests use this to drive the expiry/GC state machine
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an Engine for selfID with the given neighbor table,
// route-timeout and gc-period, and transport.
func NewEngine(selfID uint16, neighbors map[uint16]Neighbor, routeTimeout, gcPeriod time.Duration, transport Transport, opts ...Option) *Engine {
	e := &Engine{
		selfID:    selfID,
		neighbors: neighbors,
		transport: transport,
		log:       riplog.Nil{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.table = NewTable(selfID, routeTimeout, gcPeriod, e.now)
	return e
}

// Table exposes the underlying routing table for diagnostics.
func (e *Engine) Table() *Table { return e.table }

// SelfID returns the router identifier this engine was built for.
func (e *Engine) SelfID() uint16 { return e.selfID }

// Bootstrap ensures the self-route entry exists.
func (e *Engine) Bootstrap() {
	e.table.Bootstrap()
}

// OnDatagram decodes and processes one received datagram. Decode
// failures and entries from unconfigured neighbors are dropped with a
// log entry and cause no state change; individual malformed entries
// are already filtered out by ripwire.Decode.
func (e *Engine) OnDatagram(data []byte) {
	d := ripwire.Decode(data)

	if d.Status != ripwire.Accepted {
		e.log.Warn("recv", map[string]any{
			"event":  "malformed_packet",
			"status": d.Status.String(),
			"bytes":  len(data),
		})
		return
	}

	neighbor, ok := e.neighbors[d.Sender]
	if !ok {
		e.log.Warn("recv", map[string]any{
			"event":  "unknown_sender",
			"sender": d.Sender,
		})
		return
	}

	triggered := false

	for _, entry := range d.Entries {
		if entry.Destination == e.selfID {
			continue
		}

		switch {
		case entry.Metric <= 15:
			// Metric 0 is a neighbor's own self route; adding the link
			// cost turns it into the direct route to that neighbor.
			newMetric := entry.Metric + neighbor.LinkCost
			if newMetric > ripwire.MaxMetric {
				newMetric = ripwire.MaxMetric
			}
			e.table.InsertOrRelax(entry.Destination, d.Sender, newMetric, neighbor.OutgoingPort)

		case entry.Metric == ripwire.MaxMetric:
			if e.table.MarkUnreachableIfNextHop(entry.Destination, d.Sender) {
				triggered = true
			}
		}
	}

	if triggered {
		e.log.Info("recv", map[string]any{"event": "triggered_update", "cause": "peer_withdrawal", "sender": d.Sender})
		e.SendPeriodicUpdates()
	}
}

// SendUpdateTo encodes the table's view for neighborID with
// sender=selfID and transmits it to that neighbor's outgoing port.
func (e *Engine) SendUpdateTo(neighborID uint16) {
	neighbor, ok := e.neighbors[neighborID]
	if !ok {
		return
	}

	entries := e.table.SnapshotForNeighbor(neighborID)
	payload := ripwire.Encode(e.selfID, entries)

	if err := e.transport.SendTo(neighbor.OutgoingPort, payload); err != nil {
		e.log.Error("send", map[string]any{
			"event":     "send_failure",
			"neighbor":  neighborID,
			"port":      neighbor.OutgoingPort,
			"error":     err.Error(),
			"n_entries": len(entries),
		})
	}
}

// SendPeriodicUpdates sends an update to every configured neighbor.
func (e *Engine) SendPeriodicUpdates() {
	for neighborID := range e.neighbors {
		e.SendUpdateTo(neighborID)
	}
}

// Tick runs one expiry/GC scan: find routes whose timer has elapsed,
// mark each unreachable (arming its GC timer), send one triggered
// update if any transition actually happened, then collect routes
// whose GC timer has elapsed. The triggered update is sent only after
// every unreachability transition for this tick has been applied, so
// a single update reflects the whole batch rather than firing once
// per destination.
func (e *Engine) Tick(now time.Time) {
	expired := e.table.SweepExpired(now)

	var transitioned bool
	for _, dest := range expired {
		if e.table.MarkUnreachable(dest) {
			transitioned = true
			e.log.Info("timer", map[string]any{"event": "route_expired", "destination": dest})
		}
	}

	if transitioned {
		e.SendPeriodicUpdates()
	}

	removed := e.table.SweepGC(now)
	for _, dest := range removed {
		e.log.Info("timer", map[string]any{"event": "route_collected", "destination": dest})
	}
}
