// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm holds the placement view of a deployable service: its
// identity, unit count and the constraints the placement engine enforces.
package charm

import (
	"fmt"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/bundleplacer/core/assignment"
)

// Relation is one bundle relation, expressed as its two endpoints. An
// endpoint is either "service" or "service:endpoint".
type Relation [2]string

// Charm describes one service of a bundle, merged with any operator
// supplied metadata.
type Charm struct {
	// Name is the service name, unique within a bundle.
	Name        string
	DisplayName string
	Summary     string

	// Constraints are passed through to the deployment untouched.
	Constraints map[string]string

	// Depends names the services that must also be placed when this one
	// is.
	Depends []string

	// Conflicts names the services that cannot be placed alongside this
	// one.
	Conflicts []string

	// AllowedAssignmentTypes is never empty and is kept in canonical order.
	AllowedAssignmentTypes []assignment.Type

	// NumUnits is the number of units the bundle asks for. Zero marks a
	// subordinate charm.
	NumUnits int

	// AllowMultiUnits, when false, limits the charm to a single
	// assignment across all machines and assignment types.
	AllowMultiUnits bool

	// IsCore is set when the bundle mandates the charm regardless of the
	// operator's selection.
	IsCore bool

	// Relations are the bundle relations naming this charm.
	Relations []Relation
}

// Subordinate reports whether the charm piggybacks on another charm's
// machine rather than occupying its own.
func (c Charm) Subordinate() bool {
	return c.NumUnits == 0
}

// RequiredUnits returns the number of units that must be placed.
func (c Charm) RequiredUnits() int {
	return c.NumUnits
}

// DependsOn reports whether name is one of the charm's dependencies.
func (c Charm) DependsOn(name string) bool {
	return set.NewStrings(c.Depends...).Contains(name)
}

// ConflictsWith reports whether name is listed in the charm's conflicts.
func (c Charm) ConflictsWith(name string) bool {
	return set.NewStrings(c.Conflicts...).Contains(name)
}

// Allows reports whether t is one of the charm's allowed assignment types.
func (c Charm) Allows(t assignment.Type) bool {
	return assignment.Contains(c.AllowedAssignmentTypes, t)
}

// Validate returns an error satisfying errors.NotValid if the charm
// violates any of its invariants.
func (c Charm) Validate() error {
	if c.Name == "" {
		return errors.NotValidf("empty charm name")
	}
	if len(c.AllowedAssignmentTypes) == 0 {
		return errors.NotValidf("charm %q with no allowed assignment types", c.Name)
	}
	for _, t := range c.AllowedAssignmentTypes {
		if err := t.Validate(); err != nil {
			return errors.Annotatef(err, "charm %q", c.Name)
		}
	}
	if c.NumUnits < 0 {
		return errors.NotValidf("charm %q with %d units", c.Name, c.NumUnits)
	}
	if !c.AllowMultiUnits && c.NumUnits > 1 {
		return errors.NotValidf("charm %q asking for %d units without allowing multiple units", c.Name, c.NumUnits)
	}
	both := set.NewStrings(c.Depends...).Intersection(set.NewStrings(c.Conflicts...))
	if !both.IsEmpty() {
		return errors.NotValidf("charm %q both depending on and conflicting with %v", c.Name, both.SortedValues())
	}
	if c.DependsOn(c.Name) || c.ConflictsWith(c.Name) {
		return errors.NotValidf("charm %q referring to itself", c.Name)
	}
	return nil
}

// Copy returns a deep copy of the charm.
func (c Charm) Copy() Charm {
	result := c
	if c.Constraints != nil {
		result.Constraints = make(map[string]string, len(c.Constraints))
		for k, v := range c.Constraints {
			result.Constraints[k] = v
		}
	}
	result.Depends = append([]string(nil), c.Depends...)
	result.Conflicts = append([]string(nil), c.Conflicts...)
	result.AllowedAssignmentTypes = append([]assignment.Type(nil), c.AllowedAssignmentTypes...)
	result.Relations = append([]Relation(nil), c.Relations...)
	return result
}

func (c Charm) String() string {
	return fmt.Sprintf("charm %q", c.Name)
}
