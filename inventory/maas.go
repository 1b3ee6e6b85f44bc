// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package inventory

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/gomaasapi/v2"

	"github.com/juju/bundleplacer/core/machine"
)

// MAASConfig holds the dependencies of a MAASSource.
type MAASConfig struct {
	Controller gomaasapi.Controller

	// ExcludeHostnames are never offered for placement. When nil
	// DefaultExcludeHostnames is used.
	ExcludeHostnames []string
}

// Validate returns an error if the config cannot be used.
func (config MAASConfig) Validate() error {
	if config.Controller == nil {
		return errors.NotValidf("nil Controller")
	}
	return nil
}

// MAASSource is a Source backed by a MAAS controller.
type MAASSource struct {
	controller gomaasapi.Controller
	exclude    set.Strings
}

// NewMAASSource returns a Source listing the machines of a MAAS
// controller.
func NewMAASSource(config MAASConfig) (*MAASSource, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	hostnames := config.ExcludeHostnames
	if hostnames == nil {
		hostnames = DefaultExcludeHostnames
	}
	return &MAASSource{
		controller: config.Controller,
		exclude:    set.NewStrings(hostnames...),
	}, nil
}

// Machines is part of the Source interface.
func (s *MAASSource) Machines() ([]machine.Machine, error) {
	maasMachines, err := s.controller.Machines(gomaasapi.MachinesArgs{})
	if err != nil {
		return nil, errors.Annotate(err, "listing MAAS machines")
	}
	result := make([]machine.Machine, 0, len(maasMachines))
	for _, mm := range maasMachines {
		m := convertMAASMachine(mm)
		if err := m.Validate(); err != nil {
			logger.Warningf("ignoring MAAS machine %q: %v", mm.SystemID(), err)
			continue
		}
		result = append(result, m)
	}
	return exclude(result, s.exclude), nil
}

// Summary is part of the Source interface.
func (s *MAASSource) Summary() string {
	machines, err := s.Machines()
	if err != nil {
		return "MAAS unavailable: " + err.Error()
	}
	return Summarise(machines)
}

func convertMAASMachine(mm gomaasapi.Machine) machine.Machine {
	var storage uint64
	for _, device := range mm.BlockDevices() {
		storage += device.Size()
	}
	return machine.Machine{
		InstanceID: mm.SystemID(),
		Hostname:   mm.Hostname(),
		Status:     machine.ParseStatus(mm.StatusName()),
		Arch:       archOf(mm.Architecture()),
		CPUCores:   mm.CPUCount(),
		Mem:        uint64(mm.Memory()),
		Storage:    storage / humanize.MiByte,
	}
}

// archOf drops the MAAS sub-architecture: "amd64/generic" is "amd64".
func archOf(architecture string) string {
	arch, _, _ := strings.Cut(architecture, "/")
	return arch
}
