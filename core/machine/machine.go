// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package machine describes the placement targets offered by a machine
// inventory, plus the two synthetic placeholder machines every placement
// plan carries.
package machine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
)

const (
	// SubordinatePlaceholderID identifies the synthetic machine holding
	// subordinate charms. It is the only legal target for them.
	SubordinatePlaceholderID = "_subordinates"

	// DefaultPlaceholderID identifies the synthetic machine holding charms
	// that have not been given a real machine yet.
	DefaultPlaceholderID = "_default"
)

// Machine is one placement target. Hardware facts are informational only
// and never influence placement feasibility.
type Machine struct {
	// InstanceID uniquely identifies the machine within the inventory.
	InstanceID string

	Hostname string
	Status   Status

	Arch     string
	CPUCores int

	// Mem and Storage are in MiB.
	Mem     uint64
	Storage uint64
}

// SubordinatePlaceholder returns the synthetic subordinate machine.
func SubordinatePlaceholder() Machine {
	return Machine{
		InstanceID: SubordinatePlaceholderID,
		Hostname:   "subordinate charms",
		Status:     Ready,
	}
}

// DefaultPlaceholder returns the synthetic machine for charms that juju
// will place itself.
func DefaultPlaceholder() Machine {
	return Machine{
		InstanceID: DefaultPlaceholderID,
		Hostname:   "juju default",
		Status:     Ready,
	}
}

// IsPlaceholderID reports whether id names one of the synthetic machines.
func IsPlaceholderID(id string) bool {
	return id == SubordinatePlaceholderID || id == DefaultPlaceholderID
}

// IsPlaceholder reports whether m is one of the synthetic machines.
func (m Machine) IsPlaceholder() bool {
	return IsPlaceholderID(m.InstanceID)
}

// Validate returns an error if the machine cannot be used as a placement
// target.
func (m Machine) Validate() error {
	if m.InstanceID == "" {
		return errors.NotValidf("empty machine instance id")
	}
	if m.IsPlaceholder() {
		return errors.NotValidf("reserved machine instance id %q", m.InstanceID)
	}
	return errors.Trace(m.Status.Validate())
}

// DisplayName returns the hostname, falling back to the instance id.
func (m Machine) DisplayName() string {
	if m.Hostname != "" {
		return m.Hostname
	}
	return m.InstanceID
}

// HardwareSummary renders the hardware facts for display, for example
// "amd64, 4 cores, 8.0 GiB RAM, 500 GiB storage". Unknown facts are left out.
func (m Machine) HardwareSummary() string {
	var parts []string
	if m.Arch != "" {
		parts = append(parts, m.Arch)
	}
	if m.CPUCores > 0 {
		parts = append(parts, fmt.Sprintf("%d cores", m.CPUCores))
	}
	if m.Mem > 0 {
		parts = append(parts, humanize.IBytes(m.Mem*humanize.MiByte)+" RAM")
	}
	if m.Storage > 0 {
		parts = append(parts, humanize.IBytes(m.Storage*humanize.MiByte)+" storage")
	}
	if len(parts) == 0 {
		return "hardware unknown"
	}
	return strings.Join(parts, ", ")
}

func (m Machine) String() string {
	return fmt.Sprintf("%s (%s)", m.DisplayName(), m.InstanceID)
}
