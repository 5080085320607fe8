/*
Copyright © 2019 the rte authors.
This file is part of rte.

rte is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rte is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rte.  If not, see <http://www.gnu.org/licenses/>.
*/

package rte

import (
	"errors"
	"fmt"
)

// These are the kinds of error returned by this package and the solvers
// built on it. Use errors.Is to check which kind an error is.
var (
	// ErrShapeMismatch means operand extents or band structures disagree.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidDimension means a column, layer or spectral point count
	// or range is not valid.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrDomainViolation means an input value is outside of its
	// physically valid range.
	ErrDomainViolation = errors.New("domain violation")
)

// Error is an error of a specific kind.
type Error struct {
	// Kind is one of ErrShapeMismatch, ErrInvalidDimension,
	// or ErrDomainViolation.
	Kind error

	// Msg describes the failing field or extent.
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Msg, e.Kind) }

// Unwrap returns the error kind.
func (e *Error) Unwrap() error { return e.Kind }

// Errorf formats an error of the given kind.
func Errorf(kind error, format string, a ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}
