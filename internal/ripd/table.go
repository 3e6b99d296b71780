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

package ripd

import (
	"sort"
	"time"

	"ripd/internal/ripwire"
)

// neverExpires is the sentinel duration used for the self route's
// timeout deadline. It is applied relative to the clock at bootstrap
// time, rather than leaving the deadline zero, so diagnostic rendering
// still produces a sensible (very large) seconds-until-timeout value.
const neverExpires = 100 * 365 * 24 * time.Hour

// State is the derived Active/Expired discriminant of a route entry.
// It is carried explicitly rather than inferred solely from the metric
// so that gcDeadline is only meaningful in the Expired case.
type State int

const (
	Active State = iota
	Expired
)

func (s State) String() string {
	if s == Expired {
		return "Expired"
	}
	return "Active"
}

type routeEntry struct {
	nextHop       uint16
	metric        uint8
	outgoingPort  uint16
	routeDeadline time.Time
	gcDeadline    time.Time
	neverExpires  bool
	state         State
}

// RouteView is a read-only snapshot of one table entry, shaped for the
// diagnostic renderer.
type RouteView struct {
	Destination              uint16
	NextHop                  uint16
	Metric                   uint8
	OutgoingPort             uint16
	SecondsUntilRouteTimeout int
	SecondsUntilGC           int
	State                    State
}

// Table is the indexed collection of route entries: insert/relax under
// Bellman-Ford, with per-entry route-timeout and garbage-collection
// timers.
type Table struct {
	selfID       uint16
	routes       map[uint16]*routeEntry
	routeTimeout time.Duration
	gcPeriod     time.Duration
	now          func() time.Time
}

// NewTable constructs an empty table. Call Bootstrap to install the
// self route before using it.
func NewTable(selfID uint16, routeTimeout, gcPeriod time.Duration, now func() time.Time) *Table {
	if now == nil {
		now = time.Now
	}
	return &Table{
		selfID:       selfID,
		routes:       map[uint16]*routeEntry{},
		routeTimeout: routeTimeout,
		gcPeriod:     gcPeriod,
		now:          now,
	}
}

// Bootstrap ensures the self-route entry exists with metric 0 and a
// non-expiring timeout. It is idempotent: calling it again leaves the
// existing self entry alone.
func (t *Table) Bootstrap() {
	if _, ok := t.routes[t.selfID]; ok {
		return
	}
	t.routes[t.selfID] = &routeEntry{
		nextHop:       t.selfID,
		metric:        0,
		outgoingPort:  0,
		routeDeadline: t.now().Add(neverExpires),
		neverExpires:  true,
		state:         Active,
	}
}

// InsertOrRelax implements the Bellman-Ford relaxation step: install a
// fresh route if dest is unknown, refresh it unconditionally if the
// update comes from its current next hop (even all the way to
// ripwire.MaxMetric, which is how count-to-infinity resolves), or
// replace it if a different next hop now offers a strictly better
// metric. A metric above 15 from a next hop that is not already
// authoritative for dest is rejected outright. The engine passes
// advertised metric-16 entries to MarkUnreachableIfNextHop instead,
// which acts only when the advertiser is the authoritative next hop.
func (t *Table) InsertOrRelax(dest, nextHop uint16, metric uint8, port uint16) bool {
	if dest == t.selfID {
		return false
	}

	now := t.now()
	existing, ok := t.routes[dest]

	if ok && existing.nextHop == nextHop {
		// Same-source refresh: unconditionally take the new value, even
		// if it is worse, and reset the hold-down timer. The advertising
		// router remains authoritative for this destination regardless
		// of metric, which is what lets count-to-infinity resolve. When
		// the refreshed metric reaches MaxMetric the route must still
		// transition to Expired and arm its GC timer, the same as an
		// explicit MarkUnreachable, rather than being silently dropped.
		existing.outgoingPort = port
		existing.routeDeadline = now.Add(t.routeTimeout)
		if metric >= ripwire.MaxMetric {
			existing.metric = ripwire.MaxMetric
			existing.state = Expired
			existing.gcDeadline = now.Add(t.gcPeriod)
		} else {
			existing.metric = metric
			existing.state = Active
			existing.gcDeadline = time.Time{}
		}
		return true
	}

	if metric > 15 {
		return false
	}

	if !ok {
		t.routes[dest] = &routeEntry{
			nextHop:       nextHop,
			metric:        metric,
			outgoingPort:  port,
			routeDeadline: now.Add(t.routeTimeout),
			state:         Active,
		}
		return true
	}

	if metric < existing.metric {
		existing.nextHop = nextHop
		existing.metric = metric
		existing.outgoingPort = port
		existing.routeDeadline = now.Add(t.routeTimeout)
		existing.state = Active
		existing.gcDeadline = time.Time{}
		return true
	}

	// Tie or worse from a different next_hop: keep the current route.
	return false
}

// MarkUnreachable sets dest's metric to 16 and arms its GC timer,
// transitioning Active -> Expired. It is idempotent on an already
// Expired entry and returns whether a transition actually occurred.
func (t *Table) MarkUnreachable(dest uint16) bool {
	e, ok := t.routes[dest]
	if !ok || dest == t.selfID {
		return false
	}
	if e.state == Expired {
		return false
	}

	e.metric = ripwire.MaxMetric
	e.state = Expired
	e.gcDeadline = t.now().Add(t.gcPeriod)
	return true
}

// MarkUnreachableIfNextHop marks dest unreachable only if its current
// route is Active and its authoritative source matches nextHop — an
// unreachability advertisement from any other next hop is ignored.
func (t *Table) MarkUnreachableIfNextHop(dest, nextHop uint16) bool {
	e, ok := t.routes[dest]
	if !ok || e.state != Active || e.nextHop != nextHop {
		return false
	}
	return t.MarkUnreachable(dest)
}

// SweepExpired returns the destinations whose Active route timeout has
// elapsed by now, excluding the self route. It does not mutate the
// table; the caller (Engine.Tick) is responsible for calling
// MarkUnreachable on each returned destination.
func (t *Table) SweepExpired(now time.Time) []uint16 {
	var out []uint16
	for dest, e := range t.routes {
		if dest == t.selfID || e.neverExpires {
			continue
		}
		if e.state == Active && !now.Before(e.routeDeadline) {
			out = append(out, dest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SweepGC removes and returns destinations whose Expired GC timer has
// elapsed by now.
func (t *Table) SweepGC(now time.Time) []uint16 {
	var out []uint16
	for dest, e := range t.routes {
		if e.state == Expired && !now.Before(e.gcDeadline) {
			out = append(out, dest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	for _, dest := range out {
		delete(t.routes, dest)
	}
	return out
}

// SnapshotForNeighbor renders the table as wire entries for transmission
// to neighborID, applying split-horizon with poisoned reverse: any
// destination whose current next_hop is neighborID is advertised with
// metric 16. The self route is always included with its real metric.
func (t *Table) SnapshotForNeighbor(neighborID uint16) []ripwire.Entry {
	dests := make([]uint16, 0, len(t.routes))
	for dest := range t.routes {
		dests = append(dests, dest)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	entries := make([]ripwire.Entry, 0, len(dests))
	for _, dest := range dests {
		e := t.routes[dest]
		metric := e.metric
		if dest != t.selfID && e.nextHop == neighborID {
			metric = ripwire.MaxMetric
		}
		entries = append(entries, ripwire.Entry{Destination: dest, Metric: metric})
	}
	return entries
}

// Snapshot renders the full table for diagnostics.
func (t *Table) Snapshot(now time.Time) []RouteView {
	dests := make([]uint16, 0, len(t.routes))
	for dest := range t.routes {
		dests = append(dests, dest)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	views := make([]RouteView, 0, len(dests))
	for _, dest := range dests {
		e := t.routes[dest]

		routeSeconds := int(e.routeDeadline.Sub(now) / time.Second)
		if routeSeconds < 0 {
			routeSeconds = -1
		}

		gcSeconds := 0
		if e.state == Expired {
			gcSeconds = int(e.gcDeadline.Sub(now) / time.Second)
			if gcSeconds < 0 {
				gcSeconds = 0
			}
		}

		views = append(views, RouteView{
			Destination:              dest,
			NextHop:                  e.nextHop,
			Metric:                   e.metric,
			OutgoingPort:             e.outgoingPort,
			SecondsUntilRouteTimeout: routeSeconds,
			SecondsUntilGC:           gcSeconds,
			State:                    e.state,
		})
	}
	return views
}

// Len reports the number of entries currently in the table (including
// the self route), mainly useful for tests.
func (t *Table) Len() int {
	return len(t.routes)
}
