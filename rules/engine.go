/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package rules

import (
	"fmt"
	"sync"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// Engine owns the mutable rule set. Add/Remove/Enable/Disable are the
// only ways to mutate it; Evaluate takes a read lock so many evaluations
// run concurrently with no mutation in flight.
type Engine struct {
	mtx   sync.RWMutex
	rules map[string]*record.AlertRule
	order []string // preserves insertion order for deterministic evaluation
	log   *log.Logger
}

// NewEngine builds an Engine seeded with rules (typically DefaultLibrary()).
func NewEngine(lg *log.Logger, seed []record.AlertRule) *Engine {
	e := &Engine{rules: make(map[string]*record.AlertRule), log: lg}
	for _, r := range seed {
		r := r
		e.rules[r.Name] = &r
		e.order = append(e.order, r.Name)
	}
	return e
}

// Add inserts or replaces a rule by name.
func (e *Engine) Add(r record.AlertRule) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if _, exists := e.rules[r.Name]; !exists {
		e.order = append(e.order, r.Name)
	}
	e.rules[r.Name] = &r
}

// Remove deletes a rule by name; a no-op if it doesn't exist.
func (e *Engine) Remove(name string) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if _, exists := e.rules[name]; !exists {
		return
	}
	delete(e.rules, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (e *Engine) setEnabled(name string, enabled bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if r, ok := e.rules[name]; ok {
		r.Enabled = enabled
	}
}

// Enable turns a rule on by name.
func (e *Engine) Enable(name string) { e.setEnabled(name, true) }

// Disable turns a rule off by name.
func (e *Engine) Disable(name string) { e.setEnabled(name, false) }

// List returns a snapshot of every rule in insertion order.
func (e *Engine) List() []record.AlertRule {
	e.mtx.RLock()
	defer e.mtx.RUnlock()
	out := make([]record.AlertRule, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, *e.rules[name])
	}
	return out
}

// Evaluate runs every enabled rule's predicate against rec and returns an
// AlertEvent for each one that fires. A predicate that panics is treated
// as "did not fire": it is recovered, logged, and evaluation continues
// with the next rule, mirroring the original's per-rule try/except.
func (e *Engine) Evaluate(rec *record.EnrichedRecord) []record.AlertEvent {
	e.mtx.RLock()
	snapshot := make([]record.AlertRule, 0, len(e.order))
	for _, name := range e.order {
		snapshot = append(snapshot, *e.rules[name])
	}
	e.mtx.RUnlock()

	var events []record.AlertEvent
	for _, r := range snapshot {
		if !r.Enabled {
			continue
		}
		if e.fires(r, rec) {
			events = append(events, record.AlertEvent{
				RuleName:    r.Name,
				Description: r.Description,
				Severity:    r.Severity,
				Timestamp:   record.Now(),
				LogData:     *rec,
			})
		}
	}
	return events
}

func (e *Engine) fires(r record.AlertRule, rec *record.EnrichedRecord) (matched bool) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error("rule predicate panicked, treating as no-match",
				log.KV("rule_name", r.Name), log.KVErr(fmt.Errorf("%v", p)))
			matched = false
		}
	}()
	return r.Predicate(rec)
}
