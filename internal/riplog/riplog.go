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

// Package riplog adapts a structured logger to the small notification
// interface used throughout ripd. The engine and the scheduler accept a
// Notifier and fall back to a zero-cost Nil implementation when none is
// supplied, so logging is always an optional collaborator rather than
// a hard dependency.
package riplog

import "go.uber.org/zap"

// Notifier receives structured events from the routing engine. Fields
// are a flat key/value map.
type Notifier interface {
	Info(facility string, fields map[string]any)
	Warn(facility string, fields map[string]any)
	Error(facility string, fields map[string]any)
}

// Nil discards every event. It is the default when a component is built
// without an explicit Notifier.
type Nil struct{}

func (Nil) Info(string, map[string]any)  {}
func (Nil) Warn(string, map[string]any)  {}
func (Nil) Error(string, map[string]any) {}

type zapNotifier struct {
	l *zap.SugaredLogger
}

// New adapts a *zap.Logger to Notifier. facility becomes the message of
// every emitted entry, and fields become its key/value pairs.
func New(l *zap.Logger) Notifier {
	return &zapNotifier{l: l.Sugar()}
}

func (z *zapNotifier) Info(facility string, fields map[string]any) {
	z.l.Infow(facility, flatten(fields)...)
}

func (z *zapNotifier) Warn(facility string, fields map[string]any) {
	z.l.Warnw(facility, flatten(fields)...)
}

func (z *zapNotifier) Error(facility string, fields map[string]any) {
	z.l.Errorw(facility, flatten(fields)...)
}

func flatten(fields map[string]any) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

// NewProduction builds a zap-backed Notifier using production defaults
// (JSON encoding, info level). Callers that want a different encoder
// config should build their own *zap.Logger and call New directly.
func NewProduction() (Notifier, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(l), nil
}
