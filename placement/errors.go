// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import "github.com/juju/errors"

const (
	// ErrAssignmentTypeNotAllowed is returned when a charm is placed using
	// an assignment type it does not allow.
	ErrAssignmentTypeNotAllowed = errors.ConstError("assignment type not allowed")

	// ErrSubordinatePlacement is returned when a subordinate charm is
	// placed anywhere but the subordinate placeholder, or a principal
	// charm is placed on it.
	ErrSubordinatePlacement = errors.ConstError("invalid subordinate placement")

	// ErrMultipleUnitsNotAllowed is returned when a charm that only allows
	// a single unit would be assigned a second time.
	ErrMultipleUnitsNotAllowed = errors.ConstError("multiple units not allowed")

	// ErrInvariantViolation is returned by auto-placement when its inputs
	// are inconsistent, such as a charm reported deployed on a placeholder,
	// or when a placement it computed is rejected.
	ErrInvariantViolation = errors.ConstError("placement invariant violated")
)
