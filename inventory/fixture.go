// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package inventory

import (
	"encoding/json"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/bundleplacer/core/machine"
)

// fixtureNode is a MAAS node record as returned by the nodes API.
type fixtureNode struct {
	SystemID     string  `json:"system_id"`
	Hostname     string  `json:"hostname"`
	StatusName   string  `json:"status_name"`
	Architecture string  `json:"architecture"`
	CPUCount     int     `json:"cpu_count"`
	Memory       float64 `json:"memory"`
	Storage      float64 `json:"storage"`
}

// ReadFixture decodes a JSON list of MAAS node records. MAAS reports memory
// in MiB and storage in MB; storage is converted to MiB.
func ReadFixture(r io.Reader) ([]machine.Machine, error) {
	var nodes []fixtureNode
	if err := json.NewDecoder(r).Decode(&nodes); err != nil {
		return nil, errors.NewNotValid(err, "machine fixture")
	}
	result := make([]machine.Machine, 0, len(nodes))
	for _, node := range nodes {
		m := machine.Machine{
			InstanceID: node.SystemID,
			Hostname:   node.Hostname,
			Status:     machine.ParseStatus(node.StatusName),
			Arch:       archOf(node.Architecture),
			CPUCores:   node.CPUCount,
			Mem:        uint64(node.Memory),
			Storage:    uint64(node.Storage * humanize.MByte / humanize.MiByte),
		}
		if err := m.Validate(); err != nil {
			return nil, errors.Annotatef(err, "machine fixture node %q", node.Hostname)
		}
		result = append(result, m)
	}
	return result, nil
}

// FixtureSource is a Source reading MAAS node records from a JSON file. The
// file is re-read on every call so it can be edited while in use.
type FixtureSource struct {
	path    string
	exclude set.Strings
}

// NewFixtureSource returns a Source for the JSON file at path. The default
// excluded hostnames are dropped.
func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{
		path:    path,
		exclude: set.NewStrings(DefaultExcludeHostnames...),
	}
}

// Machines is part of the Source interface.
func (s *FixtureSource) Machines() ([]machine.Machine, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	machines, err := ReadFixture(f)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", s.path)
	}
	return exclude(machines, s.exclude), nil
}

// Summary is part of the Source interface.
func (s *FixtureSource) Summary() string {
	machines, err := s.Machines()
	if err != nil {
		return "machine fixture unavailable: " + err.Error()
	}
	return Summarise(machines)
}
