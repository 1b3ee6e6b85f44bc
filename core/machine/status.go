// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package machine

import (
	"strings"

	"github.com/juju/errors"
)

// Status is the inventory-defined readiness of a machine.
type Status string

const (
	Unknown       Status = "unknown"
	New           Status = "new"
	Commissioning Status = "commissioning"
	Ready         Status = "ready"
	Allocated     Status = "allocated"
	Deploying     Status = "deploying"
	Deployed      Status = "deployed"
	Broken        Status = "broken"
	Failed        Status = "failed"
)

var knownStatuses = map[Status]bool{
	Unknown:       true,
	New:           true,
	Commissioning: true,
	Ready:         true,
	Allocated:     true,
	Deploying:     true,
	Deployed:      true,
	Broken:        true,
	Failed:        true,
}

// Validate returns an error if s is not a known status.
func (s Status) Validate() error {
	if !knownStatuses[s] {
		return errors.NotValidf("machine status %q", string(s))
	}
	return nil
}

// ParseStatus maps an inventory status name onto a Status. MAAS reports
// names such as "Ready" or "Failed commissioning"; anything unrecognised
// becomes Unknown.
func ParseStatus(name string) Status {
	name = strings.ToLower(strings.TrimSpace(name))
	if s := Status(name); knownStatuses[s] {
		return s
	}
	switch {
	case strings.HasPrefix(name, "failed"):
		return Failed
	case strings.HasPrefix(name, "testing"), strings.HasPrefix(name, "commission"):
		return Commissioning
	case name == "reserved":
		return Allocated
	}
	return Unknown
}
