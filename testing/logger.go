// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"fmt"
	"sync"

	"github.com/juju/loggo/v2"
)

// CheckLog is an interface that can be used to log messages to a
// *testing.T or *check.C.
type CheckLog interface {
	Logf(string, ...any)
}

// CheckLogger is a worker logger that logs to a *testing.T or *check.C.
// Entries at WARNING and above are also kept so tests can assert on them.
type CheckLogger struct {
	Log CheckLog

	mu       sync.Mutex
	warnings []string
}

// NewCheckLogger returns a CheckLogger that logs to the given CheckLog.
func NewCheckLogger(log CheckLog) *CheckLogger {
	return &CheckLogger{Log: log}
}

func (c *CheckLogger) Errorf(msg string, args ...any) {
	c.logf(loggo.ERROR, msg, args...)
}

func (c *CheckLogger) Warningf(msg string, args ...any) {
	c.logf(loggo.WARNING, msg, args...)
}

func (c *CheckLogger) Infof(msg string, args ...any) {
	c.logf(loggo.INFO, msg, args...)
}

func (c *CheckLogger) Debugf(msg string, args ...any) {
	c.logf(loggo.DEBUG, msg, args...)
}

func (c *CheckLogger) logf(level loggo.Level, msg string, args ...any) {
	line := fmt.Sprintf(msg, args...)
	c.Log.Logf("%s: %s", level, line)
	if level < loggo.WARNING {
		return
	}
	c.mu.Lock()
	c.warnings = append(c.warnings, line)
	c.mu.Unlock()
}

// Warnings returns the messages logged at WARNING and above.
func (c *CheckLogger) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}
