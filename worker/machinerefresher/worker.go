// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package machinerefresher provides a worker that keeps a placement
// engine's machine snapshot in step with the machine inventory.
package machinerefresher

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/bundleplacer/core/machine"
)

// Logger represents the methods used by the worker to log information.
type Logger interface {
	Debugf(string, ...any)
	Warningf(string, ...any)
}

// MachineSource provides machine inventory snapshots.
type MachineSource interface {
	Machines() ([]machine.Machine, error)
}

// Engine receives the snapshots.
type Engine interface {
	SetMachines([]machine.Machine) error
}

// Config defines the operation of the Worker.
type Config struct {
	Source MachineSource
	Engine Engine
	Clock  clock.Clock
	Logger Logger

	// Interval is the time between two snapshots.
	Interval time.Duration

	// RetryAttempts and RetryDelay bound the fetching of a single
	// snapshot.
	RetryAttempts int
	RetryDelay    time.Duration
}

// Validate returns an error if config cannot drive the Worker.
func (config Config) Validate() error {
	if config.Source == nil {
		return errors.NotValidf("nil Source")
	}
	if config.Engine == nil {
		return errors.NotValidf("nil Engine")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Interval <= 0 {
		return errors.NotValidf("non-positive Interval")
	}
	if config.RetryAttempts <= 0 {
		return errors.NotValidf("non-positive RetryAttempts")
	}
	if config.RetryDelay <= 0 {
		return errors.NotValidf("non-positive RetryDelay")
	}
	return nil
}

// New returns a Worker that keeps the engine's machine snapshot current.
func New(config Config) (worker.Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	w := &Worker{
		config: config,
	}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	})
	return w, errors.Trace(err)
}

// Worker periodically hands fresh machine snapshots to the engine.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

func (w *Worker) loop() error {
	for {
		if err := w.refresh(); err != nil {
			return errors.Trace(err)
		}
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case <-w.config.Clock.After(w.config.Interval):
		}
	}
}

// refresh fetches a snapshot and hands it to the engine. A snapshot that
// cannot be fetched or is rejected leaves the previous one in place.
func (w *Worker) refresh() error {
	var machines []machine.Machine
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			var err error
			machines, err = w.config.Source.Machines()
			return err
		},
		NotifyFunc: func(err error, attempt int) {
			w.config.Logger.Debugf("fetching machines, attempt %d: %v", attempt, err)
		},
		Attempts: w.config.RetryAttempts,
		Delay:    w.config.RetryDelay,
		Clock:    w.config.Clock,
		Stop:     w.catacomb.Dying(),
	})
	if retry.IsRetryStopped(err) {
		return w.catacomb.ErrDying()
	}
	if err != nil {
		w.config.Logger.Warningf("keeping previous machine snapshot: %v", retry.LastError(err))
		return nil
	}

	if err := w.config.Engine.SetMachines(machines); err != nil {
		w.config.Logger.Warningf("machine snapshot rejected: %v", err)
		return nil
	}
	w.config.Logger.Debugf("refreshed %d machines", len(machines))
	return nil
}
