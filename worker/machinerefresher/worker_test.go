// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package machinerefresher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/juju/bundleplacer/core/assignment"
	"github.com/juju/bundleplacer/core/charm"
	"github.com/juju/bundleplacer/core/machine"
	"github.com/juju/bundleplacer/inventory"
	"github.com/juju/bundleplacer/placement"
	coretesting "github.com/juju/bundleplacer/testing"
)

type workerSuite struct {
	testing.IsolationSuite

	source *MockMachineSource
	engine *MockEngine
	clock  *testclock.Clock
	logger *coretesting.CheckLogger
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Now())
	s.logger = coretesting.NewCheckLogger(c)
}

func (s *workerSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.source = NewMockMachineSource(ctrl)
	s.engine = NewMockEngine(ctrl)
	return ctrl
}

func (s *workerSuite) config() Config {
	return Config{
		Source:        s.source,
		Engine:        s.engine,
		Clock:         s.clock,
		Logger:        s.logger,
		Interval:      time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

func (s *workerSuite) waitFor(c *gc.C, ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(coretesting.LongWait):
		c.Fatalf("timed out waiting for worker")
	}
}

func (s *workerSuite) advance(c *gc.C, d time.Duration) {
	err := s.clock.WaitAdvance(d, coretesting.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)
}

var snapshot = []machine.Machine{{
	InstanceID: "node-1",
	Hostname:   "tuco",
	Status:     machine.Ready,
}}

func (s *workerSuite) TestValidate(c *gc.C) {
	defer s.setupMocks(c).Finish()

	for i, test := range []struct {
		mutate func(*Config)
		err    string
	}{{
		mutate: func(cfg *Config) { cfg.Source = nil },
		err:    "nil Source not valid",
	}, {
		mutate: func(cfg *Config) { cfg.Engine = nil },
		err:    "nil Engine not valid",
	}, {
		mutate: func(cfg *Config) { cfg.Clock = nil },
		err:    "nil Clock not valid",
	}, {
		mutate: func(cfg *Config) { cfg.Logger = nil },
		err:    "nil Logger not valid",
	}, {
		mutate: func(cfg *Config) { cfg.Interval = 0 },
		err:    "non-positive Interval not valid",
	}, {
		mutate: func(cfg *Config) { cfg.RetryAttempts = 0 },
		err:    "non-positive RetryAttempts not valid",
	}, {
		mutate: func(cfg *Config) { cfg.RetryDelay = -time.Second },
		err:    "non-positive RetryDelay not valid",
	}} {
		c.Logf("test %d: %s", i, test.err)
		cfg := s.config()
		test.mutate(&cfg)
		c.Check(cfg.Validate(), gc.ErrorMatches, test.err)

		_, err := New(cfg)
		c.Check(err, jc.Satisfies, errors.IsNotValid)
	}
	c.Assert(s.config().Validate(), jc.ErrorIsNil)
}

func (s *workerSuite) TestRefreshesImmediately(c *gc.C) {
	defer s.setupMocks(c).Finish()

	done := make(chan struct{})
	s.source.EXPECT().Machines().Return(snapshot, nil)
	s.engine.EXPECT().SetMachines(snapshot).DoAndReturn(func([]machine.Machine) error {
		close(done)
		return nil
	})

	w, err := New(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.waitFor(c, done)
}

func (s *workerSuite) TestRefreshesEveryInterval(c *gc.C) {
	defer s.setupMocks(c).Finish()

	later := []machine.Machine{
		snapshot[0],
		{InstanceID: "node-2", Hostname: "tio", Status: machine.Ready},
	}
	refreshed := make(chan []machine.Machine, 2)
	s.source.EXPECT().Machines().Return(snapshot, nil)
	s.source.EXPECT().Machines().Return(later, nil)
	s.engine.EXPECT().SetMachines(gomock.Any()).DoAndReturn(func(ms []machine.Machine) error {
		refreshed <- ms
		return nil
	}).Times(2)

	w, err := New(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.checkRefreshed(c, refreshed, snapshot)
	s.advance(c, time.Minute)
	s.checkRefreshed(c, refreshed, later)
}

func (s *workerSuite) checkRefreshed(c *gc.C, refreshed <-chan []machine.Machine, expected []machine.Machine) {
	select {
	case ms := <-refreshed:
		c.Assert(ms, jc.DeepEquals, expected)
	case <-time.After(coretesting.LongWait):
		c.Fatalf("timed out waiting for refresh")
	}
}

func (s *workerSuite) TestRetriesTransientFailure(c *gc.C) {
	defer s.setupMocks(c).Finish()

	done := make(chan struct{})
	gomock.InOrder(
		s.source.EXPECT().Machines().Return(nil, errors.New("connection refused")),
		s.source.EXPECT().Machines().Return(snapshot, nil),
	)
	s.engine.EXPECT().SetMachines(snapshot).DoAndReturn(func([]machine.Machine) error {
		close(done)
		return nil
	})

	w, err := New(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.advance(c, time.Second)
	s.waitFor(c, done)
	c.Check(s.logger.Warnings(), gc.HasLen, 0)
}

func (s *workerSuite) TestKeepsSnapshotWhenRetriesExhausted(c *gc.C) {
	defer s.setupMocks(c).Finish()

	done := make(chan struct{})
	s.source.EXPECT().Machines().Return(nil, errors.New("connection refused")).Times(3)
	s.source.EXPECT().Machines().Return(snapshot, nil)
	s.engine.EXPECT().SetMachines(snapshot).DoAndReturn(func([]machine.Machine) error {
		close(done)
		return nil
	})

	w, err := New(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.advance(c, time.Second)
	s.advance(c, time.Second)

	// The worker survives and tries again on the next interval.
	s.advance(c, time.Minute)
	s.waitFor(c, done)
	c.Check(s.logger.Warnings(), jc.DeepEquals, []string{
		"keeping previous machine snapshot: connection refused",
	})
}

func (s *workerSuite) TestRejectedSnapshot(c *gc.C) {
	defer s.setupMocks(c).Finish()

	done := make(chan struct{})
	s.source.EXPECT().Machines().Return(snapshot, nil).Times(2)
	gomock.InOrder(
		s.engine.EXPECT().SetMachines(snapshot).Return(errors.NotValidf("duplicate machine %q", "node-1")),
		s.engine.EXPECT().SetMachines(snapshot).DoAndReturn(func([]machine.Machine) error {
			close(done)
			return nil
		}),
	)

	w, err := New(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.advance(c, time.Minute)
	s.waitFor(c, done)
	c.Check(s.logger.Warnings(), jc.DeepEquals, []string{
		`machine snapshot rejected: duplicate machine "node-1" not valid`,
	})
}

func (s *workerSuite) TestKilledWhileRetrying(c *gc.C) {
	defer s.setupMocks(c).Finish()

	fetched := make(chan struct{})
	s.source.EXPECT().Machines().DoAndReturn(func() ([]machine.Machine, error) {
		close(fetched)
		return nil, errors.New("connection refused")
	})

	w, err := New(s.config())
	c.Assert(err, jc.ErrorIsNil)
	s.waitFor(c, fetched)
	workertest.CleanKill(c, w)
}

type refreshEngineSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&refreshEngineSuite{})

func (s *refreshEngineSuite) TestRefreshesEngineFromFixture(c *gc.C) {
	path := filepath.Join(c.MkDir(), "maas-machines.json")
	err := os.WriteFile(path, []byte(`[
		{"system_id": "node-1", "hostname": "tuco", "status_name": "Ready"},
		{"system_id": "node-2", "hostname": "tio", "status_name": "Deployed"},
		{"system_id": "node-3", "hostname": "juju-bootstrap.maas", "status_name": "Deployed"}
	]`), 0644)
	c.Assert(err, jc.ErrorIsNil)

	engine, err := placement.NewEngine(placement.Config{
		Charms: []charm.Charm{{
			Name:                   "keystone",
			AllowedAssignmentTypes: []assignment.Type{assignment.LXC},
			NumUnits:               1,
			AllowMultiUnits:        true,
			IsCore:                 true,
		}},
	})
	c.Assert(err, jc.ErrorIsNil)

	w, err := New(Config{
		Source:        inventory.NewFixtureSource(path),
		Engine:        engine,
		Clock:         testclock.NewClock(time.Now()),
		Logger:        coretesting.NewCheckLogger(c),
		Interval:      time.Minute,
		RetryAttempts: 1,
		RetryDelay:    time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	timeout := time.After(coretesting.LongWait)
	for len(engine.Machines()) != 4 {
		select {
		case <-timeout:
			c.Fatalf("timed out waiting for machines")
		case <-time.After(coretesting.ShortWait):
		}
	}
	c.Assert(engine.ReadyMachines(), gc.HasLen, 1)

	ok, _, err := engine.AutoAssignUnassignedCharms()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ok, jc.IsTrue)
	c.Assert(engine.AssignmentsForMachine("node-1"), gc.HasLen, 1)
}
