// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/bundleplacer/core/charm"
)

// State is the placement readiness of a charm. It is always derived from
// the charms and the current table, never stored.
type State string

const (
	// Required charms must be placed before deploying.
	Required State = "required"

	// Conflicted charms are required but mutually exclusive with another
	// required charm. The operator has to resolve this; the engine never
	// does.
	Conflicted State = "conflicted"

	// Optional charms are left to the operator and skipped by
	// auto-placement.
	Optional State = "optional"
)

// CharmState explains the readiness of one charm.
type CharmState struct {
	State       State
	Constraints map[string]string

	// RequiredBy lists the required charms whose dependencies made a
	// non-core charm required.
	RequiredBy []charm.Charm

	// ConflictsWith lists the required charms this one conflicts with.
	ConflictsWith []charm.Charm
}

// CharmState classifies the named charm.
func (e *Engine) CharmState(charmName string) (CharmState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.charm(charmName)
	if err != nil {
		return CharmState{}, errors.Trace(err)
	}
	return e.classify().stateOf(ch), nil
}

// classification is a snapshot of the required closure over the current
// table.
type classification struct {
	engine     *Engine
	required   set.Strings
	requiredBy map[string][]string
}

// classify computes which charms are required: the core charms and any
// charm the operator has selected, closed over their dependencies.
func (e *Engine) classify() classification {
	required := set.NewStrings()
	var queue []string
	for _, ch := range e.charms {
		if ch.IsCore || e.selected(ch.Name) {
			required.Add(ch.Name)
			queue = append(queue, ch.Name)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ch, err := e.charm(name)
		if err != nil {
			continue
		}
		for _, dep := range ch.Depends {
			if _, ok := e.charmIndex[dep]; !ok || required.Contains(dep) {
				continue
			}
			required.Add(dep)
			queue = append(queue, dep)
		}
	}

	requiredBy := make(map[string][]string)
	for _, ch := range e.charms {
		if !required.Contains(ch.Name) {
			continue
		}
		for _, dep := range ch.Depends {
			if required.Contains(dep) {
				requiredBy[dep] = append(requiredBy[dep], ch.Name)
			}
		}
	}
	return classification{
		engine:     e,
		required:   required,
		requiredBy: requiredBy,
	}
}

func (cl classification) conflicts(ch charm.Charm) []charm.Charm {
	var result []charm.Charm
	for _, other := range cl.engine.charms {
		if other.Name == ch.Name || !cl.required.Contains(other.Name) {
			continue
		}
		if other.ConflictsWith(ch.Name) || ch.ConflictsWith(other.Name) {
			result = append(result, other.Copy())
		}
	}
	return result
}

func (cl classification) state(ch charm.Charm) State {
	if !cl.required.Contains(ch.Name) {
		return Optional
	}
	if len(cl.conflicts(ch)) > 0 {
		return Conflicted
	}
	return Required
}

func (cl classification) stateOf(ch charm.Charm) CharmState {
	result := CharmState{
		State:       cl.state(ch),
		Constraints: ch.Copy().Constraints,
	}
	if result.State == Optional {
		return result
	}
	result.ConflictsWith = cl.conflicts(ch)
	if !ch.IsCore {
		for _, name := range cl.requiredBy[ch.Name] {
			dependent, err := cl.engine.charm(name)
			if err != nil {
				continue
			}
			result.RequiredBy = append(result.RequiredBy, dependent.Copy())
		}
	}
	return result
}
