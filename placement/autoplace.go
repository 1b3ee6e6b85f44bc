// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/naturalsort"

	"github.com/juju/bundleplacer/core/charm"
	"github.com/juju/bundleplacer/core/machine"
)

// UnassignedUndeployedCharms returns, in bundle order, the required
// principal charms that are neither assigned to a real machine nor
// deployed. This is the work auto-placement has left to do.
func (e *Engine) UnassignedUndeployedCharms() []charm.Charm {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result []charm.Charm
	for _, ch := range e.unassignedUndeployed(e.classify()) {
		result = append(result, ch.Copy())
	}
	return result
}

func (e *Engine) unassignedUndeployed(cl classification) []charm.Charm {
	return e.unplaced(cl, Required)
}

// unplaced returns the principal charms in the given state with no real
// assignment and no deployment, in bundle order.
func (e *Engine) unplaced(cl classification, state State) []charm.Charm {
	var result []charm.Charm
	for _, ch := range e.charms {
		if ch.Subordinate() || cl.state(ch) != state {
			continue
		}
		if e.realAssignmentCount(ch.Name) > 0 || e.deploymentCount(ch.Name) > 0 {
			continue
		}
		result = append(result, ch)
	}
	return result
}

// AutoAssignUnassignedCharms places every charm returned by
// UnassignedUndeployedCharms on untouched ready machines, one machine per
// unit, taking machines in ascending hostname order. A charm needing more
// machines than remain is left where it is and reported in the message;
// the others are still placed. Conflicted charms that are not yet placed
// are reported too, since only the operator can resolve them. ok is false
// when at least one required or conflicted charm is left unplaced. An
// error is only returned if the engine's inputs are inconsistent.
func (e *Engine) AutoAssignUnassignedCharms() (bool, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDeployments(); err != nil {
		return false, "", errors.Trace(err)
	}

	cl := e.classify()
	var shortfalls []string
	for _, ch := range e.unplaced(cl, Conflicted) {
		logger.Warningf("cannot place %s: conflicts with %v", ch, charmNames(cl.conflicts(ch)))
		shortfalls = append(shortfalls, fmt.Sprintf(
			"%s conflicts with %s", ch.Name, strings.Join(charmNames(cl.conflicts(ch)), ", "),
		))
	}

	pending := e.unassignedUndeployed(cl)
	free := e.untouchedReadyMachines()
	placed := 0
	for _, ch := range pending {
		need := ch.RequiredUnits()
		if need > len(free) {
			logger.Warningf("cannot place %s: %d units needed, %d ready machines left", ch, need, len(free))
			shortfalls = append(shortfalls, fmt.Sprintf(
				"%s needs %d units but only %d ready machines are available (short by %d)",
				ch.Name, need, len(free), need-len(free),
			))
			continue
		}

		t := ch.AllowedAssignmentTypes[0]
		claimed, rest := free[:need], free[need:]
		for _, m := range claimed {
			if err := e.assign(m.InstanceID, ch.Name, t); err != nil {
				return false, "", errors.Annotatef(ErrInvariantViolation, "auto-placing %s on %s: %v", ch, m, err)
			}
		}
		free = rest
		placed++
		logger.Infof("auto-placed %s on %d machines as %s", ch, need, t)
	}

	if len(shortfalls) > 0 {
		return false, "Unable to place: " + strings.Join(shortfalls, "; "), nil
	}
	return true, fmt.Sprintf("Placed %d of %d unplaced charms", placed, len(pending)), nil
}

// checkDeployments returns ErrInvariantViolation if the deployment tracker
// reports a charm on a placeholder machine.
func (e *Engine) checkDeployments() error {
	if e.deployments == nil {
		return nil
	}
	for _, ch := range e.charms {
		for t, ids := range e.deployments.Deployments(ch.Name) {
			for _, id := range ids {
				if machine.IsPlaceholderID(id) {
					return errors.Annotatef(ErrInvariantViolation, "%s reported deployed on placeholder %q as %s", ch, id, t)
				}
			}
		}
	}
	return nil
}

// untouchedReadyMachines returns the ready real machines with no
// assignments and no deployments, in natural hostname order. Ties on
// hostname are broken by instance id.
func (e *Engine) untouchedReadyMachines() []machine.Machine {
	busy := set.NewStrings()
	for machineID := range e.plan {
		busy.Add(machineID)
	}
	if e.deployments != nil {
		for _, ch := range e.charms {
			for _, ids := range e.deployments.Deployments(ch.Name) {
				for _, id := range ids {
					busy.Add(id)
				}
			}
		}
	}

	byHostname := make(map[string][]machine.Machine)
	var hostnames []string
	for _, m := range e.machines {
		if m.Status != machine.Ready || busy.Contains(m.InstanceID) {
			continue
		}
		name := m.DisplayName()
		if _, ok := byHostname[name]; !ok {
			hostnames = append(hostnames, name)
		}
		byHostname[name] = append(byHostname[name], m)
	}

	var result []machine.Machine
	for _, name := range naturalsort.Sort(hostnames) {
		ms := byHostname[name]
		sort.Slice(ms, func(i, j int) bool { return ms[i].InstanceID < ms[j].InstanceID })
		result = append(result, ms...)
	}
	return result
}

func charmNames(charms []charm.Charm) []string {
	names := make([]string, len(charms))
	for i, ch := range charms {
		names[i] = ch.Name
	}
	return names
}
