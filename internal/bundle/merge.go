// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package bundle

import (
	"fmt"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/bundleplacer/core/assignment"
	"github.com/juju/bundleplacer/core/charm"
)

var logger = loggo.GetLogger("bundleplacer.bundle")

// Merger builds charm records from bundle services and operator metadata.
type Merger struct {
	store CharmStore
}

// NewMerger returns a Merger that fills display names and summaries from
// store. A nil store leaves them derived from the service alone.
func NewMerger(store CharmStore) *Merger {
	return &Merger{store: store}
}

// Charms merges every service of the bundle with its override and
// returns the charms in the bundle's declared order.
func (m *Merger) Charms(data Data, metadata Metadata) ([]charm.Charm, error) {
	if err := data.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	known := set.NewStrings(data.ServiceNames()...)
	for name := range metadata.Services {
		if !known.Contains(name) {
			logger.Debugf("metadata for %q ignored, not in bundle", name)
		}
	}

	charms := make([]charm.Charm, 0, len(data.Services))
	for _, svc := range data.Services {
		ch, err := m.Merge(svc, metadata.For(svc.Name), data.relationsFor(svc.Name))
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, dep := range ch.Depends {
			if !known.Contains(dep) {
				logger.Warningf("service %q depends on %q which is not in the bundle", ch.Name, dep)
			}
		}
		charms = append(charms, ch)
	}
	return charms, nil
}

// Merge builds the charm for a single service.
func (m *Merger) Merge(svc Service, override Override, relations []charm.Relation) (charm.Charm, error) {
	if err := svc.Validate(); err != nil {
		return charm.Charm{}, errors.Trace(err)
	}

	displayName, summary := svc.Name, ""
	if m.store != nil && (override.DisplayName == nil || override.Summary == nil) {
		storeName := CharmName(svc.Charm)
		info, err := m.store.CharmInfo(storeName)
		if err != nil {
			return charm.Charm{}, errors.Annotatef(err, "looking up charm %q for service %q", storeName, svc.Name)
		}
		displayName = fmt.Sprintf("%s (%s)", svc.Name, info.Name)
		summary = info.Summary
	}
	if override.DisplayName != nil {
		displayName = *override.DisplayName
	}
	if override.Summary != nil {
		summary = *override.Summary
	}

	allowed := assignment.All()
	if override.AllowedAssignmentTypes != nil {
		allowed = assignment.ParseTypes(override.AllowedAssignmentTypes)
	}

	ch := charm.Charm{
		Name:                   svc.Name,
		DisplayName:            displayName,
		Summary:                summary,
		Constraints:            override.Constraints,
		Depends:                override.Depends,
		Conflicts:              override.Conflicts,
		AllowedAssignmentTypes: allowed,
		NumUnits:               svc.NumUnits,
		AllowMultiUnits:        boolOr(override.AllowMultiUnits, true),
		IsCore:                 boolOr(override.Required, true),
		Relations:              relations,
	}
	if ch.Constraints == nil {
		ch.Constraints = make(map[string]string)
	}
	if err := ch.Validate(); err != nil {
		return charm.Charm{}, errors.Trace(err)
	}
	return ch, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
