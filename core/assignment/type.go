// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package assignment defines the container strategies used to co-locate a
// charm on a machine.
package assignment

import (
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Type is the isolation strategy used when placing a charm on a machine.
type Type int

const (
	// BareMetal places the charm directly on the machine. It is also what
	// juju does when no placement type is given, so the DEFAULT label
	// parses to it.
	BareMetal Type = iota

	// KVM places the charm inside a KVM guest on the machine.
	KVM

	// LXC places the charm inside a system container on the machine.
	LXC
)

// DefaultLabel is the alternate label for BareMetal.
const DefaultLabel = "DEFAULT"

var labels = map[Type]string{
	BareMetal: "BareMetal",
	KVM:       "KVM",
	LXC:       "LXC",
}

// All returns every assignment type in canonical order.
func All() []Type {
	return []Type{BareMetal, KVM, LXC}
}

// String returns the display label of the type.
func (t Type) String() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return "Unknown"
}

// Validate returns an error if t is not a known assignment type.
func (t Type) Validate() error {
	if _, ok := labels[t]; !ok {
		return errors.NotValidf("assignment type %d", int(t))
	}
	return nil
}

// ParseType returns the assignment type for the given label. Matching is
// case-insensitive.
func ParseType(label string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "default", "baremetal", "bare-metal":
		return BareMetal, nil
	case "kvm":
		return KVM, nil
	case "lxc":
		return LXC, nil
	}
	return BareMetal, errors.NotValidf("assignment type %q", label)
}

// ParseTypes converts a list of labels into a set of assignment types in
// canonical order. If any label is not recognised, or the list is empty,
// the whole result collapses to {BareMetal}.
func ParseTypes(labels []string) []Type {
	if len(labels) == 0 {
		return []Type{BareMetal}
	}
	var types []Type
	for _, label := range labels {
		t, err := ParseType(label)
		if err != nil {
			logger.Warningf("unknown assignment type %q, falling back to %s", label, DefaultLabel)
			return []Type{BareMetal}
		}
		types = append(types, t)
	}
	return Normalise(types)
}

// Normalise returns the given types de-duplicated and in canonical order.
func Normalise(types []Type) []Type {
	seen := make(map[Type]bool, len(types))
	result := make([]Type, 0, len(types))
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Contains reports whether t is a member of types.
func Contains(types []Type, t Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
