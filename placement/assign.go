// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/bundleplacer/core/assignment"
	"github.com/juju/bundleplacer/core/charm"
	"github.com/juju/bundleplacer/core/machine"
)

// Assign places the named charm on the machine using the given assignment
// type. Assigning an identical triple twice is a no-op. Placing a charm on
// a real machine takes it off the default placeholder.
//
// A rejected call leaves the table untouched.
func (e *Engine) Assign(machineID, charmName string, t assignment.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return errors.Trace(e.assign(machineID, charmName, t))
}

func (e *Engine) assign(machineID, charmName string, t assignment.Type) error {
	ch, err := e.charm(charmName)
	if err != nil {
		return errors.Trace(err)
	}
	m, err := e.machine(machineID)
	if err != nil {
		return errors.Trace(err)
	}
	if err := e.checkAssign(ch, m, t); err != nil {
		logger.Debugf("rejected %s on %s as %s: %v", ch, m, t, err)
		return errors.Trace(err)
	}
	if m.IsPlaceholder() {
		e.pick(m.InstanceID, ch.Name)
	}
	if e.plan.Contains(m.InstanceID, ch.Name, t) {
		return nil
	}

	if !m.IsPlaceholder() {
		e.plan.removeCharm(machine.DefaultPlaceholderID, ch.Name)
		e.unpick(machine.DefaultPlaceholderID, ch.Name)
	}
	e.plan.add(m.InstanceID, ch.Name, t)
	logger.Debugf("assigned %s to %s as %s", ch, m, t)
	return nil
}

func (e *Engine) pick(machineID, charmName string) {
	picks, ok := e.picked[machineID]
	if !ok {
		picks = set.NewStrings()
		e.picked[machineID] = picks
	}
	picks.Add(charmName)
}

func (e *Engine) unpick(machineID, charmName string) {
	if picks, ok := e.picked[machineID]; ok {
		picks.Remove(charmName)
	}
}

// selected reports whether the operator has chosen the charm: it is on a
// real machine, deployed, or was explicitly assigned to a placeholder.
func (e *Engine) selected(charmName string) bool {
	if e.realAssignmentCount(charmName) > 0 || e.deploymentCount(charmName) > 0 {
		return true
	}
	for _, picks := range e.picked {
		if picks.Contains(charmName) {
			return true
		}
	}
	return false
}

func (e *Engine) checkAssign(ch charm.Charm, m machine.Machine, t assignment.Type) error {
	if !ch.Allows(t) {
		return errors.Annotatef(ErrAssignmentTypeNotAllowed, "%s allows %v, not %s", ch, ch.AllowedAssignmentTypes, t)
	}
	onSubordinatePlaceholder := m.InstanceID == machine.SubordinatePlaceholderID
	if ch.Subordinate() && !onSubordinatePlaceholder {
		return errors.Annotatef(ErrSubordinatePlacement, "subordinate %s on machine %q", ch, m.InstanceID)
	}
	if !ch.Subordinate() && onSubordinatePlaceholder {
		return errors.Annotatef(ErrSubordinatePlacement, "principal %s on the subordinate placeholder", ch)
	}
	if ch.AllowMultiUnits || e.plan.Contains(m.InstanceID, ch.Name, t) {
		return nil
	}
	// A charm moving onto a real machine vacates the default placeholder,
	// so that entry does not count against it.
	var ignore []string
	if !m.IsPlaceholder() {
		ignore = append(ignore, machine.DefaultPlaceholderID)
	}
	if e.plan.CountFor(ch.Name, ignore...) > 0 {
		return errors.Annotatef(ErrMultipleUnitsNotAllowed, "%s is already assigned", ch)
	}
	return nil
}

// ClearAssignments removes every assignment bound to the machine.
func (e *Engine) ClearAssignments(machineID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.plan[machineID]; !ok {
		return
	}
	delete(e.plan, machineID)
	delete(e.picked, machineID)
	logger.Debugf("cleared assignments on machine %q", machineID)
}

// ClearAllAssignments resets the table to the default plan.
func (e *Engine) ClearAllAssignments() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.plan = e.defaultPlan()
	e.picked = make(map[string]set.Strings)
	logger.Debugf("reset to default plan")
}

// DefaultPlan returns the plan the engine starts from: every subordinate
// charm on the subordinate placeholder and every core charm on the default
// placeholder. Optional charms are left out.
func (e *Engine) DefaultPlan() Plan {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.defaultPlan()
}

func (e *Engine) defaultPlan() Plan {
	plan := make(Plan)
	for _, ch := range e.charms {
		t := defaultType(ch)
		switch {
		case ch.Subordinate():
			plan.add(machine.SubordinatePlaceholderID, ch.Name, t)
		case ch.IsCore:
			plan.add(machine.DefaultPlaceholderID, ch.Name, t)
		}
	}
	return plan
}

// defaultType is bare metal when the charm allows it, otherwise its first
// allowed type.
func defaultType(ch charm.Charm) assignment.Type {
	if ch.Allows(assignment.BareMetal) {
		return assignment.BareMetal
	}
	return ch.AllowedAssignmentTypes[0]
}

// Plan returns a copy of the current assignment table, for writing out a
// deployment descriptor.
func (e *Engine) Plan() Plan {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.plan.Copy()
}

// AssignmentsForMachine returns the charms bound to the machine, keyed by
// assignment type, in assignment order.
func (e *Engine) AssignmentsForMachine(machineID string) map[assignment.Type][]charm.Charm {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make(map[assignment.Type][]charm.Charm)
	for t, names := range e.plan[machineID] {
		for _, name := range names {
			ch, err := e.charm(name)
			if err != nil {
				continue
			}
			result[t] = append(result[t], ch.Copy())
		}
	}
	return result
}

// Assignments returns the machines the charm is assigned to, keyed by
// assignment type.
func (e *Engine) Assignments(charmName string) (map[assignment.Type][]machine.Machine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.charm(charmName); err != nil {
		return nil, errors.Trace(err)
	}
	result := make(map[assignment.Type][]machine.Machine)
	for _, machineID := range e.machineOrder() {
		for t, names := range e.plan[machineID] {
			for _, name := range names {
				if name != charmName {
					continue
				}
				m, err := e.machine(machineID)
				if err != nil {
					continue
				}
				result[t] = append(result[t], m)
			}
		}
	}
	return result, nil
}

// Deployments returns the machines the charm is already deployed to, keyed
// by assignment type. Machines not in the current snapshot are left out.
func (e *Engine) Deployments(charmName string) (map[assignment.Type][]machine.Machine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.charm(charmName); err != nil {
		return nil, errors.Trace(err)
	}
	return e.deployedMachines(charmName), nil
}

func (e *Engine) deployedMachines(charmName string) map[assignment.Type][]machine.Machine {
	result := make(map[assignment.Type][]machine.Machine)
	if e.deployments == nil {
		return result
	}
	for t, ids := range e.deployments.Deployments(charmName) {
		for _, id := range ids {
			if machine.IsPlaceholderID(id) {
				continue
			}
			m, err := e.machine(id)
			if err != nil {
				logger.Tracef("deployment of %q on unknown machine %q ignored", charmName, id)
				continue
			}
			result[t] = append(result[t], m)
		}
	}
	return result
}

// realAssignmentCount returns the number of assignments of the charm to
// machines other than the placeholders.
func (e *Engine) realAssignmentCount(charmName string) int {
	return e.plan.CountFor(charmName, machine.SubordinatePlaceholderID, machine.DefaultPlaceholderID)
}

func (e *Engine) deploymentCount(charmName string) int {
	count := 0
	for _, ms := range e.deployedMachines(charmName) {
		count += len(ms)
	}
	return count
}
