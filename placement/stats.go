// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"github.com/juju/bundleplacer/core/assignment"
	"github.com/juju/bundleplacer/core/machine"
)

// Stats is a consistent summary of the engine, taken in one critical
// section.
type Stats struct {
	CharmsByState     map[State]int
	Unplaced          int
	AssignmentsByType map[assignment.Type]int
	Machines          int
	ReadyMachines     int
}

// Stats summarises the current plan.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	cl := e.classify()
	stats := Stats{
		CharmsByState:     map[State]int{Required: 0, Conflicted: 0, Optional: 0},
		AssignmentsByType: make(map[assignment.Type]int),
		Unplaced:          len(e.unassignedUndeployed(cl)),
		Machines:          len(e.machines),
	}
	for _, t := range assignment.All() {
		stats.AssignmentsByType[t] = 0
	}
	for _, ch := range e.charms {
		stats.CharmsByState[cl.state(ch)]++
	}
	for machineID, byType := range e.plan {
		if machine.IsPlaceholderID(machineID) {
			continue
		}
		for t, names := range byType {
			stats.AssignmentsByType[t] += len(names)
		}
	}
	for _, m := range e.machines {
		if m.Status == machine.Ready {
			stats.ReadyMachines++
		}
	}
	return stats
}
