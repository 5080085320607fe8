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
	"math"

	"github.com/ctessum/sparse"
)

// Epsilon is the machine epsilon for float64. It is the floor used for
// denominators when normalizing by optical depth.
var Epsilon = math.Nextafter(1, 2) - 1

// All fields are row-major sparse.DenseArrays with the column as the
// first dimension, so every column occupies a contiguous block of
// Elements. The dimension orders used throughout are:
//
//	layer fields:    (column, layer, gpt)
//	level fields:    (column, level, gpt), level = layer + 1
//	surface fields:  (column, gpt) or (column, band)
//	column scalars:  (column)
//	broadband flux:  (column, level)
//	byband flux:     (column, level, band)

// CheckShape returns an ErrShapeMismatch error if field a is missing or
// does not have the given shape.
func CheckShape(name string, a *sparse.DenseArray, shape ...int) error {
	if a == nil {
		return Errorf(ErrShapeMismatch, "rte: %s is missing; want shape %v", name, shape)
	}
	if len(a.Shape) != len(shape) {
		return Errorf(ErrShapeMismatch, "rte: %s has shape %v; want %v", name, a.Shape, shape)
	}
	for i, n := range shape {
		if a.Shape[i] != n {
			return Errorf(ErrShapeMismatch, "rte: %s has shape %v; want %v", name, a.Shape, shape)
		}
	}
	return nil
}

// CheckRange returns an ErrDomainViolation error if any value in a
// is outside of [lo, hi] or is NaN.
func CheckRange(name string, a *sparse.DenseArray, lo, hi float64) error {
	for i, v := range a.Elements {
		if !(v >= lo && v <= hi) {
			return Errorf(ErrDomainViolation, "rte: %s element %d = %g is outside of [%g, %g]",
				name, i, v, lo, hi)
		}
	}
	return nil
}

// columnSize returns the number of elements in one column of a.
func columnSize(a *sparse.DenseArray) int {
	n := 1
	for _, s := range a.Shape[1:] {
		n *= s
	}
	return n
}

// Column returns the contiguous block of elements belonging to column
// icol of a. The returned slice shares memory with a.
func Column(a *sparse.DenseArray, icol int) []float64 {
	n := columnSize(a)
	return a.Elements[icol*n : (icol+1)*n]
}

func checkColumnRange(ncol, colStart, colEnd int) error {
	if colStart < 0 || colEnd > ncol || colStart > colEnd {
		return Errorf(ErrInvalidDimension, "rte: column range [%d, %d) is outside of [0, %d)",
			colStart, colEnd, ncol)
	}
	return nil
}

// SubsetColumns returns a copy of columns [colStart, colEnd) of a.
func SubsetColumns(a *sparse.DenseArray, colStart, colEnd int) (*sparse.DenseArray, error) {
	if err := checkColumnRange(a.Shape[0], colStart, colEnd); err != nil {
		return nil, err
	}
	shape := append([]int{colEnd - colStart}, a.Shape[1:]...)
	o := sparse.ZerosDense(shape...)
	n := columnSize(a)
	copy(o.Elements, a.Elements[colStart*n:colEnd*n])
	return o, nil
}

// InsertColumns copies all columns of src into dst, starting at
// column colStart of dst.
func InsertColumns(dst, src *sparse.DenseArray, colStart int) error {
	if len(dst.Shape) != len(src.Shape) {
		return Errorf(ErrShapeMismatch, "rte: cannot insert shape %v into %v", src.Shape, dst.Shape)
	}
	for i := 1; i < len(dst.Shape); i++ {
		if dst.Shape[i] != src.Shape[i] {
			return Errorf(ErrShapeMismatch, "rte: cannot insert shape %v into %v", src.Shape, dst.Shape)
		}
	}
	if err := checkColumnRange(dst.Shape[0], colStart, colStart+src.Shape[0]); err != nil {
		return err
	}
	n := columnSize(dst)
	copy(dst.Elements[colStart*n:], src.Elements)
	return nil
}
