// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package inventory adapts machine inventories into snapshots the
// placement engine can consume.
package inventory

import (
	"fmt"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/loggo/v2"
	"github.com/juju/naturalsort"

	"github.com/juju/bundleplacer/core/machine"
)

var logger = loggo.GetLogger("bundleplacer.inventory")

// DefaultExcludeHostnames holds the hostnames never offered for placement:
// the juju bootstrap node.
var DefaultExcludeHostnames = []string{"juju-bootstrap.maas"}

// Source provides machine snapshots.
type Source interface {
	// Machines returns the current inventory. Each call returns a fresh
	// snapshot.
	Machines() ([]machine.Machine, error)

	// Summary returns a human readable description of the inventory.
	Summary() string
}

// Summarise describes the machines by counting them per status.
func Summarise(machines []machine.Machine) string {
	if len(machines) == 0 {
		return "no machines"
	}
	counts := make(map[string]int)
	for _, m := range machines {
		counts[string(m.Status)]++
	}
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	parts := make([]string, 0, len(statuses))
	for _, status := range naturalsort.Sort(statuses) {
		parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
	}
	noun := "machines"
	if len(machines) == 1 {
		noun = "machine"
	}
	return fmt.Sprintf("%d %s: %s", len(machines), noun, strings.Join(parts, ", "))
}

// exclude drops the machines whose hostname is in the excluded set.
func exclude(machines []machine.Machine, hostnames set.Strings) []machine.Machine {
	result := make([]machine.Machine, 0, len(machines))
	for _, m := range machines {
		if hostnames.Contains(m.Hostname) {
			logger.Debugf("excluding machine %s", m)
			continue
		}
		result = append(result, m)
	}
	return result
}
