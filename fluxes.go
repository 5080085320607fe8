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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// SpectralFluxes receives solver output. When Broadband is false the
// fields have dimensions (column, level, gpt). When Broadband is true
// they have dimensions (column, level) and the solver sums over spectral
// points as it goes, in the same order SumBroadband does, so the result
// is identical to reducing afterwards.
type SpectralFluxes struct {
	Broadband bool

	// Up and Dn are upward and total downward flux [W/m2].
	Up, Dn *sparse.DenseArray

	// DnDir is the downward direct-beam flux. It is nil
	// unless AddDirect has been called.
	DnDir *sparse.DenseArray

	// UpJac is the derivative of upward flux with respect to surface
	// temperature. It is nil unless AddJacobian has been called.
	UpJac *sparse.DenseArray

	ncol, nlev, ngpt int
}

// NewSpectralFluxes allocates up and down flux output for ncol columns,
// nlev levels and ngpt spectral points.
func NewSpectralFluxes(ncol, nlev, ngpt int, broadband bool) *SpectralFluxes {
	f := &SpectralFluxes{Broadband: broadband, ncol: ncol, nlev: nlev, ngpt: ngpt}
	f.Up = f.newField()
	f.Dn = f.newField()
	return f
}

func (f *SpectralFluxes) newField() *sparse.DenseArray {
	if f.Broadband {
		return sparse.ZerosDense(f.ncol, f.nlev)
	}
	return sparse.ZerosDense(f.ncol, f.nlev, f.ngpt)
}

// AddDirect allocates the direct-beam field.
func (f *SpectralFluxes) AddDirect() *SpectralFluxes {
	f.DnDir = f.newField()
	return f
}

// AddJacobian allocates the surface temperature Jacobian field.
func (f *SpectralFluxes) AddJacobian() *SpectralFluxes {
	f.UpJac = f.newField()
	return f
}

// Dims returns the number of columns, levels and spectral points
// the output was allocated for.
func (f *SpectralFluxes) Dims() (ncol, nlev, ngpt int) { return f.ncol, f.nlev, f.ngpt }

// Check returns an ErrShapeMismatch error if f was not allocated for
// the given extents.
func (f *SpectralFluxes) Check(ncol, nlev, ngpt int) error {
	if f.ncol != ncol || f.nlev != nlev || f.ngpt != ngpt {
		return Errorf(ErrShapeMismatch, "rte: flux output is (%d, %d, %d); want (%d, %d, %d)",
			f.ncol, f.nlev, f.ngpt, ncol, nlev, ngpt)
	}
	return nil
}

// Reset zeroes every allocated field. Solvers call it before
// storing results so that reused output does not carry earlier sums.
func (f *SpectralFluxes) Reset() {
	for _, a := range []*sparse.DenseArray{f.Up, f.Dn, f.DnDir, f.UpJac} {
		if a == nil {
			continue
		}
		for i := range a.Elements {
			a.Elements[i] = 0
		}
	}
}

// Store records the level profiles of spectral point igpt in column icol.
// Profiles for fields that were not allocated are ignored, and nil
// profiles are skipped. Store is safe for concurrent use by
// goroutines working on different columns.
func (f *SpectralFluxes) Store(icol, igpt int, up, dn, dnDir, upJac []float64) {
	f.store(f.Up, icol, igpt, up)
	f.store(f.Dn, icol, igpt, dn)
	f.store(f.DnDir, icol, igpt, dnDir)
	f.store(f.UpJac, icol, igpt, upJac)
}

func (f *SpectralFluxes) store(a *sparse.DenseArray, icol, igpt int, v []float64) {
	if a == nil || v == nil {
		return
	}
	if f.Broadband {
		floats.Add(a.Elements[icol*f.nlev:(icol+1)*f.nlev], v)
		return
	}
	for ilev, x := range v {
		a.Elements[(icol*f.nlev+ilev)*f.ngpt+igpt] = x
	}
}

// SumBroadband sums spectral field (column, level, gpt) over spectral
// points into out (column, level). Spectral points carry their own
// weights so the sum is unweighted.
func SumBroadband(spectral, out *sparse.DenseArray) error {
	if len(spectral.Shape) != 3 {
		return Errorf(ErrShapeMismatch, "rte: sum broadband: spectral flux has shape %v", spectral.Shape)
	}
	ncol, nlev, ngpt := spectral.Shape[0], spectral.Shape[1], spectral.Shape[2]
	if err := CheckShape("broadband flux", out, ncol, nlev); err != nil {
		return err
	}
	for i := range out.Elements {
		out.Elements[i] = floats.Sum(spectral.Elements[i*ngpt : (i+1)*ngpt])
	}
	return nil
}

// SumByband sums spectral field (column, level, gpt) within each band
// into out (column, level, band).
func SumByband(spectral *sparse.DenseArray, bands BandLimits, out *sparse.DenseArray) error {
	if len(spectral.Shape) != 3 {
		return Errorf(ErrShapeMismatch, "rte: sum by band: spectral flux has shape %v", spectral.Shape)
	}
	ncol, nlev, ngpt := spectral.Shape[0], spectral.Shape[1], spectral.Shape[2]
	if bands.NumGpt() != ngpt {
		return Errorf(ErrShapeMismatch, "rte: sum by band: %d spectral points but band limits cover %d",
			ngpt, bands.NumGpt())
	}
	nband := bands.NumBands()
	if err := CheckShape("byband flux", out, ncol, nlev, nband); err != nil {
		return err
	}
	for i := 0; i < ncol*nlev; i++ {
		row := spectral.Elements[i*ngpt : (i+1)*ngpt]
		for ib, l := range bands {
			out.Elements[i*nband+ib] = floats.Sum(row[l[0] : l[1]+1])
		}
	}
	return nil
}

// NetBroadband sets net = dn - up for broadband (column, level) fields.
func NetBroadband(dn, up, net *sparse.DenseArray) error {
	return difference("net broadband", dn, up, net)
}

// NetByband sets net = dn - up for byband (column, level, band) fields.
func NetByband(dn, up, net *sparse.DenseArray) error {
	return difference("net by band", dn, up, net)
}

func difference(name string, dn, up, net *sparse.DenseArray) error {
	if err := CheckShape(name+" up", up, dn.Shape...); err != nil {
		return err
	}
	if err := CheckShape(name, net, dn.Shape...); err != nil {
		return err
	}
	floats.SubTo(net.Elements, dn.Elements, up.Elements)
	return nil
}

// FluxReducer is implemented by holders of reduced flux output.
type FluxReducer interface {
	// Reduce aggregates solver output f, whose spectral points are
	// described by s.
	Reduce(f *SpectralFluxes, s *Spectral) error
}

// FluxesBroadband holds fluxes summed over all spectral points, with
// dimensions (column, level).
type FluxesBroadband struct {
	Up, Dn, Net *sparse.DenseArray

	// DnDir is nil unless the solver output included direct-beam flux.
	DnDir *sparse.DenseArray

	// UpJac is nil unless the solver output included a Jacobian.
	UpJac *sparse.DenseArray
}

// Reduce implements FluxReducer. Output computed in broadband mode is
// copied rather than summed.
func (o *FluxesBroadband) Reduce(f *SpectralFluxes, s *Spectral) error {
	ncol, nlev, ngpt := f.Dims()
	if ngpt != s.NumGpt() {
		return Errorf(ErrShapeMismatch, "rte: reduce: %d spectral points but discretization has %d",
			ngpt, s.NumGpt())
	}
	reduce := func(dst **sparse.DenseArray, src *sparse.DenseArray) error {
		if src == nil {
			*dst = nil
			return nil
		}
		*dst = sparse.ZerosDense(ncol, nlev)
		if f.Broadband {
			copy((*dst).Elements, src.Elements)
			return nil
		}
		return SumBroadband(src, *dst)
	}
	if err := reduce(&o.Up, f.Up); err != nil {
		return err
	}
	if err := reduce(&o.Dn, f.Dn); err != nil {
		return err
	}
	if err := reduce(&o.DnDir, f.DnDir); err != nil {
		return err
	}
	if err := reduce(&o.UpJac, f.UpJac); err != nil {
		return err
	}
	o.Net = sparse.ZerosDense(ncol, nlev)
	return NetBroadband(o.Dn, o.Up, o.Net)
}

// FluxesByband holds broadband fluxes as well as fluxes summed within
// each band, with dimensions (column, level, band).
type FluxesByband struct {
	FluxesBroadband

	BndUp, BndDn, BndNet *sparse.DenseArray

	// BndDnDir is nil unless the solver output included direct-beam flux.
	BndDnDir *sparse.DenseArray
}

// Reduce implements FluxReducer. f must hold spectrally resolved output.
func (o *FluxesByband) Reduce(f *SpectralFluxes, s *Spectral) error {
	if f.Broadband {
		return Errorf(ErrShapeMismatch, "rte: reduce by band: solver output is already broadband")
	}
	if err := o.FluxesBroadband.Reduce(f, s); err != nil {
		return err
	}
	ncol, nlev, _ := f.Dims()
	nband := s.NumBands()
	reduce := func(dst **sparse.DenseArray, src *sparse.DenseArray) error {
		if src == nil {
			*dst = nil
			return nil
		}
		*dst = sparse.ZerosDense(ncol, nlev, nband)
		return SumByband(src, s.BandLimsGpt, *dst)
	}
	if err := reduce(&o.BndUp, f.Up); err != nil {
		return err
	}
	if err := reduce(&o.BndDn, f.Dn); err != nil {
		return err
	}
	if err := reduce(&o.BndDnDir, f.DnDir); err != nil {
		return err
	}
	o.BndNet = sparse.ZerosDense(ncol, nlev, nband)
	return NetByband(o.BndDn, o.BndUp, o.BndNet)
}
