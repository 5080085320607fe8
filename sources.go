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

import "github.com/ctessum/sparse"

// SourceFuncLW holds longwave emission sources. Values are in flux units
// [W/m2] per spectral point and are filled by gas optics.
type SourceFuncLW struct {
	spectral *Spectral

	// LaySource is the layer source with dimensions (column, layer, gpt).
	LaySource *sparse.DenseArray

	// LevSourceInc is the source at the layer edge emission leaves
	// in the direction of increasing level index,
	// with dimensions (column, layer, gpt).
	LevSourceInc *sparse.DenseArray

	// LevSourceDec is the source at the layer edge emission leaves
	// in the direction of decreasing level index,
	// with dimensions (column, layer, gpt).
	LevSourceDec *sparse.DenseArray

	// SfcSource is the surface source with dimensions (column, gpt).
	SfcSource *sparse.DenseArray

	// SfcSourceJac is the derivative of SfcSource with respect to surface
	// temperature [W/m2/K], with dimensions (column, gpt).
	SfcSourceJac *sparse.DenseArray
}

// NewSourceFuncLW returns zeroed longwave sources for ncol columns and
// nlay layers that match optical properties op.
func NewSourceFuncLW(ncol, nlay int, op OpticalProps) (*SourceFuncLW, error) {
	if ncol < 0 || nlay < 0 {
		return nil, Errorf(ErrInvalidDimension, "rte: sources: ncol=%d, nlay=%d", ncol, nlay)
	}
	opCol, opLay, ngpt := op.Dims()
	if opCol != ncol || opLay != nlay {
		return nil, Errorf(ErrShapeMismatch, "rte: sources: (ncol, nlay) = (%d, %d) but optical properties have (%d, %d)",
			ncol, nlay, opCol, opLay)
	}
	return &SourceFuncLW{
		spectral:     op.Spectral(),
		LaySource:    sparse.ZerosDense(ncol, nlay, ngpt),
		LevSourceInc: sparse.ZerosDense(ncol, nlay, ngpt),
		LevSourceDec: sparse.ZerosDense(ncol, nlay, ngpt),
		SfcSource:    sparse.ZerosDense(ncol, ngpt),
		SfcSourceJac: sparse.ZerosDense(ncol, ngpt),
	}, nil
}

// Spectral returns the spectral discretization.
func (s *SourceFuncLW) Spectral() *Spectral { return s.spectral }

// Dims returns the number of columns, layers and spectral points.
func (s *SourceFuncLW) Dims() (ncol, nlay, ngpt int) {
	return s.LaySource.Shape[0], s.LaySource.Shape[1], s.LaySource.Shape[2]
}

// CheckConsistent returns an ErrShapeMismatch error if any source field
// does not match the extents and band structure of op.
func (s *SourceFuncLW) CheckConsistent(op OpticalProps) error {
	ncol, nlay, ngpt := op.Dims()
	if s.spectral != nil && !s.spectral.SameBands(op.Spectral()) {
		return Errorf(ErrShapeMismatch, "rte: sources and optical properties have different bands")
	}
	for _, f := range []struct {
		name string
		a    *sparse.DenseArray
	}{{"lay_src", s.LaySource}, {"lev_src_inc", s.LevSourceInc}, {"lev_src_dec", s.LevSourceDec}} {
		if err := CheckShape(f.name, f.a, ncol, nlay, ngpt); err != nil {
			return err
		}
	}
	if err := CheckShape("sfc_src", s.SfcSource, ncol, ngpt); err != nil {
		return err
	}
	return CheckShape("sfc_src_jac", s.SfcSourceJac, ncol, ngpt)
}

// Subset returns a copy of columns [colStart, colEnd).
func (s *SourceFuncLW) Subset(colStart, colEnd int) (*SourceFuncLW, error) {
	o := &SourceFuncLW{spectral: s.spectral}
	var err error
	for _, f := range []struct {
		dst **sparse.DenseArray
		src *sparse.DenseArray
	}{
		{&o.LaySource, s.LaySource},
		{&o.LevSourceInc, s.LevSourceInc},
		{&o.LevSourceDec, s.LevSourceDec},
		{&o.SfcSource, s.SfcSource},
		{&o.SfcSourceJac, s.SfcSourceJac},
	} {
		if *f.dst, err = SubsetColumns(f.src, colStart, colEnd); err != nil {
			return nil, err
		}
	}
	return o, nil
}
