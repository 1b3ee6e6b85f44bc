// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package bundle merges the services of a deployment bundle with operator
// supplied metadata into the charm records used for placement.
package bundle

import (
	"regexp"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/bundleplacer/core/charm"
)

// Data is an already parsed bundle. Services are kept in the order the
// bundle declares them; that order is the tie-break used by
// auto-placement.
type Data struct {
	// Services is nil when the bundle has no services section at all.
	Services []Service

	// Relations holds the bundle's relation pairs, each endpoint being
	// "service" or "service:endpoint".
	Relations [][]string
}

// Service is a single service entry of a bundle.
type Service struct {
	Name     string
	Charm    string
	NumUnits int
	Options  map[string]interface{}

	// To holds any placement hints the bundle author gave.
	To []string
}

// Validate returns an error satisfying errors.NotValid if the bundle cannot
// be merged.
func (d Data) Validate() error {
	if d.Services == nil {
		return errors.NotValidf("bundle with no services section")
	}
	seen := make(map[string]bool, len(d.Services))
	for _, svc := range d.Services {
		if err := svc.Validate(); err != nil {
			return errors.Trace(err)
		}
		if seen[svc.Name] {
			return errors.NotValidf("duplicate service %q", svc.Name)
		}
		seen[svc.Name] = true
	}
	for _, rel := range d.Relations {
		if len(rel) != 2 {
			return errors.NotValidf("relation %v", rel)
		}
	}
	return nil
}

// ServiceNames returns the service names in declared order.
func (d Data) ServiceNames() []string {
	result := make([]string, len(d.Services))
	for i, svc := range d.Services {
		result[i] = svc.Name
	}
	return result
}

// relationsFor returns the relations that name the given service on
// either side.
func (d Data) relationsFor(name string) []charm.Relation {
	var result []charm.Relation
	for _, rel := range d.Relations {
		if len(rel) != 2 {
			continue
		}
		if endpointService(rel[0]) == name || endpointService(rel[1]) == name {
			result = append(result, charm.Relation{rel[0], rel[1]})
		}
	}
	return result
}

func endpointService(endpoint string) string {
	if i := strings.Index(endpoint, ":"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

var revisionSuffix = regexp.MustCompile(`-\d+$`)

// CharmName extracts the store name from a charm reference, dropping the
// schema, any owner or series path and the revision, so that
// "cs:trusty/keystone-30" becomes "keystone".
func CharmName(ref string) string {
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return revisionSuffix.ReplaceAllString(ref, "")
}
