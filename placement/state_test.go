// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/bundleplacer/core/assignment"
	"github.com/juju/bundleplacer/core/charm"
	"github.com/juju/bundleplacer/core/machine"
	"github.com/juju/bundleplacer/placement"
)

type stateSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&stateSuite{})

func (s *stateSuite) charmState(c *gc.C, e *placement.Engine, name string) placement.CharmState {
	state, err := e.CharmState(name)
	c.Assert(err, jc.ErrorIsNil)
	return state
}

func (s *stateSuite) TestCoreCharmsAreRequired(c *gc.C) {
	mysql := newCharm("mysql", 1)
	mysql.Constraints = map[string]string{"mem": "4G"}
	e := newEngine(c, []charm.Charm{mysql, newCharm("ceph", 3, optional)}, nil)

	state := s.charmState(c, e, "mysql")
	c.Check(state.State, gc.Equals, placement.Required)
	c.Check(state.Constraints, jc.DeepEquals, map[string]string{"mem": "4G"})
	c.Check(state.RequiredBy, gc.HasLen, 0)
	c.Check(state.ConflictsWith, gc.HasLen, 0)

	state = s.charmState(c, e, "ceph")
	c.Check(state.State, gc.Equals, placement.Optional)
	c.Check(state.Constraints, jc.DeepEquals, map[string]string{})
}

func (s *stateSuite) TestDependencyPropagation(c *gc.C) {
	e := newEngine(c,
		[]charm.Charm{
			newCharm("nova-compute", 2, dependsOn("rabbitmq")),
			newCharm("rabbitmq", 1, optional, dependsOn("memcached")),
			newCharm("memcached", 1, optional),
			newCharm("swift", 1, optional, dependsOn("memcached")),
		},
		nil,
	)

	rabbit := s.charmState(c, e, "rabbitmq")
	c.Check(rabbit.State, gc.Equals, placement.Required)
	c.Check(charmNames(rabbit.RequiredBy), jc.DeepEquals, []string{"nova-compute"})

	memcached := s.charmState(c, e, "memcached")
	c.Check(memcached.State, gc.Equals, placement.Required)
	c.Check(charmNames(memcached.RequiredBy), jc.DeepEquals, []string{"rabbitmq"})

	c.Check(s.charmState(c, e, "swift").State, gc.Equals, placement.Optional)
}

func (s *stateSuite) TestSelectingOptionalCharmMakesItRequired(c *gc.C) {
	e := newEngine(c,
		[]charm.Charm{
			newCharm("swift", 1, optional, dependsOn("memcached")),
			newCharm("memcached", 1, optional),
		},
		[]machine.Machine{readyMachine("node-1", "tuco")},
	)
	c.Assert(s.charmState(c, e, "memcached").State, gc.Equals, placement.Optional)

	c.Assert(e.Assign("node-1", "swift", assignment.LXC), jc.ErrorIsNil)
	c.Check(s.charmState(c, e, "swift").State, gc.Equals, placement.Required)
	memcached := s.charmState(c, e, "memcached")
	c.Check(memcached.State, gc.Equals, placement.Required)
	c.Check(charmNames(memcached.RequiredBy), jc.DeepEquals, []string{"swift"})
	c.Check(charmNames(e.UnassignedUndeployedCharms()), jc.DeepEquals, []string{"memcached"})

	e.ClearAssignments("node-1")
	c.Check(s.charmState(c, e, "memcached").State, gc.Equals, placement.Optional)
}

func (s *stateSuite) TestOptionalSubordinateStaysOptional(c *gc.C) {
	e := newEngine(c,
		[]charm.Charm{
			newCharm("ceph", 1, optional),
			newCharm("ntp", 0, optional, dependsOn("ceph")),
		},
		[]machine.Machine{readyMachine("node-1", "tuco")},
	)
	c.Check(s.charmState(c, e, "ntp").State, gc.Equals, placement.Optional)
	c.Check(s.charmState(c, e, "ceph").State, gc.Equals, placement.Optional)

	ok, msg, err := e.AutoAssignUnassignedCharms()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ok, jc.IsTrue)
	c.Check(msg, gc.Equals, "Placed 0 of 0 unplaced charms")
	c.Check(e.AssignmentsForMachine("node-1"), gc.HasLen, 0)
}

func (s *stateSuite) TestPickingSubordinateMakesItRequired(c *gc.C) {
	e := newEngine(c,
		[]charm.Charm{
			newCharm("ceph", 1, optional),
			newCharm("ntp", 0, optional, dependsOn("ceph")),
		},
		nil,
	)
	c.Assert(e.Assign(machine.SubordinatePlaceholderID, "ntp", assignment.BareMetal), jc.ErrorIsNil)
	c.Check(s.charmState(c, e, "ntp").State, gc.Equals, placement.Required)
	ceph := s.charmState(c, e, "ceph")
	c.Check(ceph.State, gc.Equals, placement.Required)
	c.Check(charmNames(ceph.RequiredBy), jc.DeepEquals, []string{"ntp"})

	e.ClearAssignments(machine.SubordinatePlaceholderID)
	c.Check(s.charmState(c, e, "ntp").State, gc.Equals, placement.Optional)
	c.Check(s.charmState(c, e, "ceph").State, gc.Equals, placement.Optional)

	c.Assert(e.Assign(machine.SubordinatePlaceholderID, "ntp", assignment.BareMetal), jc.ErrorIsNil)
	e.ClearAllAssignments()
	c.Check(s.charmState(c, e, "ntp").State, gc.Equals, placement.Optional)
}

func (s *stateSuite) TestDeployedCharmIsSelected(c *gc.C) {
	e, err := placement.NewEngine(placement.Config{
		Charms:      []charm.Charm{newCharm("swift", 1, optional)},
		Machines:    []machine.Machine{readyMachine("node-1", "tuco")},
		Deployments: fakeDeployments{"swift": {assignment.BareMetal: {"node-1"}}},
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.charmState(c, e, "swift").State, gc.Equals, placement.Required)
}

func (s *stateSuite) TestUnknownDependencyIgnored(c *gc.C) {
	e := newEngine(c, []charm.Charm{newCharm("keystone", 1, dependsOn("ldap"))}, nil)
	c.Assert(s.charmState(c, e, "keystone").State, gc.Equals, placement.Required)
}

func (s *stateSuite) TestConflictDetection(c *gc.C) {
	e := newEngine(c,
		[]charm.Charm{
			newCharm("mysql", 1),
			newCharm("percona", 1, conflictsWith("mysql")),
			newCharm("postgresql", 1, optional, conflictsWith("mysql")),
		},
		nil,
	)

	mysql := s.charmState(c, e, "mysql")
	c.Check(mysql.State, gc.Equals, placement.Conflicted)
	c.Check(charmNames(mysql.ConflictsWith), jc.DeepEquals, []string{"percona"})

	percona := s.charmState(c, e, "percona")
	c.Check(percona.State, gc.Equals, placement.Conflicted)
	c.Check(charmNames(percona.ConflictsWith), jc.DeepEquals, []string{"mysql"})

	// An optional charm never conflicts.
	c.Check(s.charmState(c, e, "postgresql").State, gc.Equals, placement.Optional)
}

func (s *stateSuite) TestConflictedCharmsAreNotAutoPlaced(c *gc.C) {
	e := newEngine(c,
		[]charm.Charm{
			newCharm("mysql", 1),
			newCharm("percona", 1, conflictsWith("mysql")),
		},
		[]machine.Machine{readyMachine("node-1", "tuco"), readyMachine("node-2", "tio")},
	)
	c.Assert(e.UnassignedUndeployedCharms(), gc.HasLen, 0)
}

func (s *stateSuite) TestCharmStateNotFound(c *gc.C) {
	e := newEngine(c, nil, nil)
	_, err := e.CharmState("nova")
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
}

func (s *stateSuite) TestStats(c *gc.C) {
	broken := readyMachine("node-3", "gus")
	broken.Status = machine.Broken
	e := newEngine(c,
		[]charm.Charm{
			newCharm("mysql", 1),
			newCharm("keystone", 1),
			newCharm("ntp", 0),
			newCharm("ceph", 1, optional),
		},
		[]machine.Machine{readyMachine("node-1", "tuco"), readyMachine("node-2", "tio"), broken},
	)
	c.Assert(e.Assign("node-1", "mysql", assignment.LXC), jc.ErrorIsNil)

	stats := e.Stats()
	c.Check(stats.CharmsByState, jc.DeepEquals, map[placement.State]int{
		placement.Required:   3,
		placement.Conflicted: 0,
		placement.Optional:   1,
	})
	c.Check(stats.Unplaced, gc.Equals, 1)
	c.Check(stats.AssignmentsByType, jc.DeepEquals, map[assignment.Type]int{
		assignment.BareMetal: 0,
		assignment.KVM:       0,
		assignment.LXC:       1,
	})
	c.Check(stats.Machines, gc.Equals, 3)
	c.Check(stats.ReadyMachines, gc.Equals, 2)
}
