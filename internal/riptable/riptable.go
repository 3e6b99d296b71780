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

// Package riptable renders a routing table snapshot as a
// human-readable diagnostic table, sorted by destination so the
// output is stable across runs rather than following map order.
package riptable

import (
	"fmt"
	"strconv"
	"strings"

	"ripd/internal/ripd"
)

const header = "" +
	" DESTINATION | NEXT HOP | METRIC | PORT | ROUTE TIMEOUT | GC TIMER\n" +
	"-------------+----------+--------+------+---------------+---------"

// Render formats views (already sorted by destination by
// Table.Snapshot) into a fixed-width column layout.
func Render(views []ripd.RouteView) string {
	var b strings.Builder

	fmt.Fprintln(&b, "=========================== ROUTING TABLE ===========================")
	fmt.Fprintln(&b, header)

	for _, v := range views {
		fmt.Fprintf(&b, " %-11d | %-8d | %-6d | %-4d | %-13s | %-7d\n",
			v.Destination,
			v.NextHop,
			v.Metric,
			v.OutgoingPort,
			routeTimeoutCell(v),
			v.SecondsUntilGC,
		)
	}

	return b.String()
}

func routeTimeoutCell(v ripd.RouteView) string {
	if v.SecondsUntilRouteTimeout < 0 {
		return "-1"
	}
	return strconv.Itoa(v.SecondsUntilRouteTimeout)
}
