// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package placement owns the mapping of a bundle's charms onto machines.
//
// The Engine keeps the assignment table, enforces the charms' placement
// constraints, classifies each charm's readiness and can place the
// remaining required charms automatically. It performs no I/O: machine
// snapshots, charm records and deployment state are handed to it already
// resolved.
//
// Every public method runs as a single critical section, so an Engine may
// be shared between the interactive session and a machine refresher.
package placement

import (
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/bundleplacer/core/assignment"
	"github.com/juju/bundleplacer/core/charm"
	"github.com/juju/bundleplacer/core/machine"
)

var logger = loggo.GetLogger("bundleplacer.placement")

// DeploymentTracker reports where charms are already deployed. The engine
// only reads it.
type DeploymentTracker interface {
	// Deployments returns the instance ids of the machines the named charm
	// is deployed to, keyed by assignment type.
	Deployments(charmName string) map[assignment.Type][]string
}

// Config holds the inputs of an Engine.
type Config struct {
	// Charms are the bundle's charms in declared order.
	Charms []charm.Charm

	// Machines is the initial inventory snapshot, without placeholders.
	Machines []machine.Machine

	// Deployments is optional; when nil nothing is considered deployed.
	Deployments DeploymentTracker
}

// Validate returns an error if the config cannot drive an Engine.
func (config Config) Validate() error {
	seen := make(map[string]bool, len(config.Charms))
	for _, ch := range config.Charms {
		if err := ch.Validate(); err != nil {
			return errors.Trace(err)
		}
		if seen[ch.Name] {
			return errors.NotValidf("duplicate charm %q", ch.Name)
		}
		seen[ch.Name] = true
	}
	return errors.Trace(validateMachines(config.Machines))
}

func validateMachines(machines []machine.Machine) error {
	seen := make(map[string]bool, len(machines))
	for _, m := range machines {
		if err := m.Validate(); err != nil {
			return errors.Trace(err)
		}
		if seen[m.InstanceID] {
			return errors.NotValidf("duplicate machine %q", m.InstanceID)
		}
		seen[m.InstanceID] = true
	}
	return nil
}

// Engine is the authoritative charm to machine assignment table.
type Engine struct {
	mu sync.Mutex

	charms     []charm.Charm
	charmIndex map[string]int

	machines     []machine.Machine
	machineIndex map[string]int

	deployments DeploymentTracker
	plan        Plan

	// picked records the charms the operator assigned to a placeholder,
	// by placeholder id. Entries written by the default plan are not
	// picks.
	picked map[string]set.Strings
}

// NewEngine returns an Engine holding the default plan for the given
// charms.
func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	e := &Engine{
		charmIndex:  make(map[string]int, len(config.Charms)),
		deployments: config.Deployments,
	}
	for i, ch := range config.Charms {
		e.charms = append(e.charms, ch.Copy())
		e.charmIndex[ch.Name] = i
	}
	e.setMachines(config.Machines)
	e.plan = e.defaultPlan()
	e.picked = make(map[string]set.Strings)
	return e, nil
}

// Charms returns every charm of the bundle in declared order.
func (e *Engine) Charms() []charm.Charm {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]charm.Charm, len(e.charms))
	for i, ch := range e.charms {
		result[i] = ch.Copy()
	}
	return result
}

// Charm returns the named charm.
func (e *Engine) Charm(name string) (charm.Charm, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.charm(name)
	if err != nil {
		return charm.Charm{}, errors.Trace(err)
	}
	return ch.Copy(), nil
}

// Machines returns the current snapshot followed by the subordinate and
// default placeholders.
func (e *Engine) Machines() []machine.Machine {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]machine.Machine, 0, len(e.machines)+2)
	result = append(result, e.machines...)
	return append(result, machine.SubordinatePlaceholder(), machine.DefaultPlaceholder())
}

// ReadyMachines returns the real machines whose status is ready.
func (e *Engine) ReadyMachines() []machine.Machine {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result []machine.Machine
	for _, m := range e.machines {
		if m.Status == machine.Ready {
			result = append(result, m)
		}
	}
	return result
}

// SetMachines replaces the machine snapshot. Assignments to machines that
// are no longer present are dropped.
func (e *Engine) SetMachines(machines []machine.Machine) error {
	if err := validateMachines(machines); err != nil {
		return errors.Trace(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.setMachines(machines)
	for machineID, byType := range e.plan {
		if machine.IsPlaceholderID(machineID) {
			continue
		}
		if _, ok := e.machineIndex[machineID]; ok {
			continue
		}
		for t, names := range byType {
			logger.Warningf("machine %q has gone, dropping %s assignments of %v", machineID, t, names)
		}
		delete(e.plan, machineID)
	}
	return nil
}

func (e *Engine) setMachines(machines []machine.Machine) {
	e.machines = append([]machine.Machine(nil), machines...)
	e.machineIndex = make(map[string]int, len(machines))
	for i, m := range e.machines {
		e.machineIndex[m.InstanceID] = i
	}
}

func (e *Engine) charm(name string) (charm.Charm, error) {
	i, ok := e.charmIndex[name]
	if !ok {
		return charm.Charm{}, errors.NotFoundf("charm %q", name)
	}
	return e.charms[i], nil
}

func (e *Engine) machine(id string) (machine.Machine, error) {
	switch id {
	case machine.SubordinatePlaceholderID:
		return machine.SubordinatePlaceholder(), nil
	case machine.DefaultPlaceholderID:
		return machine.DefaultPlaceholder(), nil
	}
	i, ok := e.machineIndex[id]
	if !ok {
		return machine.Machine{}, errors.NotFoundf("machine %q", id)
	}
	return e.machines[i], nil
}

// machineOrder returns every known machine id, real machines first, in
// snapshot order.
func (e *Engine) machineOrder() []string {
	ids := make([]string, 0, len(e.machines)+2)
	for _, m := range e.machines {
		ids = append(ids, m.InstanceID)
	}
	return append(ids, machine.SubordinatePlaceholderID, machine.DefaultPlaceholderID)
}
