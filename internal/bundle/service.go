// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package bundle

import (
	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// Validate returns an error if the service entry is unusable.
func (s Service) Validate() error {
	if !names.IsValidApplication(s.Name) {
		return errors.NotValidf("service name %q", s.Name)
	}
	if s.Charm == "" {
		return errors.NotValidf("service %q with no charm", s.Name)
	}
	if s.NumUnits < 0 {
		return errors.NotValidf("service %q with %d units", s.Name, s.NumUnits)
	}
	return nil
}
