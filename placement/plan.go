// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"github.com/juju/bundleplacer/core/assignment"
)

// Plan is an assignment table: machine instance id to assignment type to
// charm names, in the order they were assigned. Empty buckets are never
// kept, so two plans holding the same assignments compare equal.
type Plan map[string]map[assignment.Type][]string

// Copy returns a deep copy of the plan.
func (p Plan) Copy() Plan {
	result := make(Plan, len(p))
	for machineID, byType := range p {
		types := make(map[assignment.Type][]string, len(byType))
		for t, names := range byType {
			types[t] = append([]string(nil), names...)
		}
		result[machineID] = types
	}
	return result
}

// Contains reports whether the (charm, machine, type) triple is recorded.
func (p Plan) Contains(machineID, charmName string, t assignment.Type) bool {
	for _, name := range p[machineID][t] {
		if name == charmName {
			return true
		}
	}
	return false
}

// CountFor returns the number of assignments referencing the charm,
// ignoring those on the given machines.
func (p Plan) CountFor(charmName string, ignore ...string) int {
	skip := make(map[string]bool, len(ignore))
	for _, id := range ignore {
		skip[id] = true
	}
	count := 0
	for machineID, byType := range p {
		if skip[machineID] {
			continue
		}
		for _, names := range byType {
			for _, name := range names {
				if name == charmName {
					count++
				}
			}
		}
	}
	return count
}

// Len returns the total number of assignments.
func (p Plan) Len() int {
	count := 0
	for _, byType := range p {
		for _, names := range byType {
			count += len(names)
		}
	}
	return count
}

func (p Plan) add(machineID, charmName string, t assignment.Type) {
	if p.Contains(machineID, charmName, t) {
		return
	}
	byType, ok := p[machineID]
	if !ok {
		byType = make(map[assignment.Type][]string)
		p[machineID] = byType
	}
	byType[t] = append(byType[t], charmName)
}

// removeCharm drops every assignment of the charm on the machine.
func (p Plan) removeCharm(machineID, charmName string) {
	byType, ok := p[machineID]
	if !ok {
		return
	}
	for t, names := range byType {
		kept := names[:0:0]
		for _, name := range names {
			if name != charmName {
				kept = append(kept, name)
			}
		}
		if len(kept) == 0 {
			delete(byType, t)
		} else {
			byType[t] = kept
		}
	}
	if len(byType) == 0 {
		delete(p, machineID)
	}
}
