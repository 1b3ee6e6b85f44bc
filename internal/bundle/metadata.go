// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package bundle

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"
)

// Metadata holds the operator supplied overrides, keyed by service name.
type Metadata struct {
	Services map[string]Override
}

// Override holds the per-service values an operator may force. A nil field
// means the value was not given and the default applies.
type Override struct {
	DisplayName            *string
	Summary                *string
	Constraints            map[string]string
	Depends                []string
	Conflicts              []string
	AllowedAssignmentTypes []string
	Required               *bool
	AllowMultiUnits        *bool
}

// For returns the override for the named service, or an empty override if
// there is none.
func (m Metadata) For(service string) Override {
	if m.Services == nil {
		return Override{}
	}
	return m.Services[service]
}

// ReadMetadata reads an operator metadata file of the form
//
//	services:
//	  keystone:
//	    display-name: Identity
//	    depends: [mysql]
//	    allowed_assignment_types: [LXC, KVM]
//	    allow_multi_units: false
func ReadMetadata(r io.Reader) (Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Metadata{}, errors.Trace(err)
	}
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Metadata{}, errors.Annotate(err, "metadata")
	}
	v, err := metadataSchema.Coerce(raw, nil)
	if err != nil {
		return Metadata{}, errors.NewNotValid(err, "metadata")
	}
	m := v.(map[string]interface{})
	result := Metadata{Services: make(map[string]Override)}
	services, _ := m["services"].(map[string]interface{})
	for name, svc := range services {
		result.Services[name] = parseOverride(svc.(map[string]interface{}))
	}
	return result, nil
}

func parseOverride(m map[string]interface{}) Override {
	var o Override
	if v, ok := m["display-name"]; ok {
		s := v.(string)
		o.DisplayName = &s
	}
	if v, ok := m["summary"]; ok {
		s := v.(string)
		o.Summary = &s
	}
	if v, ok := m["constraints"]; ok {
		o.Constraints = make(map[string]string)
		for name, value := range v.(map[string]interface{}) {
			o.Constraints[name] = fmt.Sprint(value)
		}
	}
	o.Depends = stringList(m["depends"])
	o.Conflicts = stringList(m["conflicts"])
	o.AllowedAssignmentTypes = stringList(m["allowed_assignment_types"])
	if v, ok := m["required"]; ok {
		b := v.(bool)
		o.Required = &b
	}
	if v, ok := m["allow_multi_units"]; ok {
		b := v.(bool)
		o.AllowMultiUnits = &b
	}
	return o
}

func stringList(v interface{}) []string {
	if v == nil {
		return nil
	}
	items := v.([]interface{})
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = item.(string)
	}
	return result
}

var overrideSchema = schema.FieldMap(
	schema.Fields{
		"display-name":             schema.String(),
		"summary":                  schema.String(),
		"constraints":              schema.StringMap(schema.Any()),
		"depends":                  schema.List(schema.String()),
		"conflicts":                schema.List(schema.String()),
		"allowed_assignment_types": schema.List(schema.String()),
		"required":                 schema.Bool(),
		"allow_multi_units":        schema.Bool(),
	},
	schema.Defaults{
		"display-name":             schema.Omit,
		"summary":                  schema.Omit,
		"constraints":              schema.Omit,
		"depends":                  schema.Omit,
		"conflicts":                schema.Omit,
		"allowed_assignment_types": schema.Omit,
		"required":                 schema.Omit,
		"allow_multi_units":        schema.Omit,
	},
)

var metadataSchema = schema.FieldMap(
	schema.Fields{
		"services": schema.StringMap(overrideSchema),
	},
	schema.Defaults{
		"services": schema.Omit,
	},
)
