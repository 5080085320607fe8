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

// OpticalProps is implemented by holders of per-(column, layer, gpt)
// optical properties.
type OpticalProps interface {
	// Spectral returns the spectral discretization.
	Spectral() *Spectral

	// Dims returns the number of columns, layers and spectral points.
	Dims() (ncol, nlay, ngpt int)

	// OpticalDepth returns the optical depth field.
	OpticalDepth() *sparse.DenseArray

	// Validate checks field shapes and value ranges.
	Validate() error
}

// OpticalProps1Scl holds absorption optical depth only. It is
// used by the longwave no-scattering solver.
type OpticalProps1Scl struct {
	spectral *Spectral

	// Tau is optical depth with dimensions (column, layer, gpt).
	Tau *sparse.DenseArray
}

// OpticalProps2Str holds optical depth, single-scattering albedo and
// asymmetry factor for the two-stream approximation.
type OpticalProps2Str struct {
	spectral *Spectral

	// Tau is optical depth with dimensions (column, layer, gpt).
	Tau *sparse.DenseArray

	// SSA is single-scattering albedo with dimensions (column, layer, gpt).
	SSA *sparse.DenseArray

	// G is asymmetry factor with dimensions (column, layer, gpt).
	G *sparse.DenseArray
}

func checkPropDims(ncol, nlay int, s *Spectral) error {
	if ncol < 0 || nlay < 0 {
		return Errorf(ErrInvalidDimension, "rte: optical properties: ncol=%d, nlay=%d", ncol, nlay)
	}
	if s == nil || s.NumGpt() <= 0 {
		return Errorf(ErrInvalidDimension, "rte: optical properties: no spectral points")
	}
	return nil
}

// NewOpticalProps1Scl returns zeroed absorption-only optical properties.
func NewOpticalProps1Scl(ncol, nlay int, s *Spectral) (*OpticalProps1Scl, error) {
	if err := checkPropDims(ncol, nlay, s); err != nil {
		return nil, err
	}
	return &OpticalProps1Scl{
		spectral: s,
		Tau:      sparse.ZerosDense(ncol, nlay, s.NumGpt()),
	}, nil
}

// NewOpticalProps2Str returns zeroed two-stream optical properties.
func NewOpticalProps2Str(ncol, nlay int, s *Spectral) (*OpticalProps2Str, error) {
	if err := checkPropDims(ncol, nlay, s); err != nil {
		return nil, err
	}
	ngpt := s.NumGpt()
	return &OpticalProps2Str{
		spectral: s,
		Tau:      sparse.ZerosDense(ncol, nlay, ngpt),
		SSA:      sparse.ZerosDense(ncol, nlay, ngpt),
		G:        sparse.ZerosDense(ncol, nlay, ngpt),
	}, nil
}

// Spectral implements OpticalProps.
func (o *OpticalProps1Scl) Spectral() *Spectral { return o.spectral }

// Dims implements OpticalProps.
func (o *OpticalProps1Scl) Dims() (ncol, nlay, ngpt int) {
	return o.Tau.Shape[0], o.Tau.Shape[1], o.Tau.Shape[2]
}

// OpticalDepth implements OpticalProps.
func (o *OpticalProps1Scl) OpticalDepth() *sparse.DenseArray { return o.Tau }

// Validate implements OpticalProps.
func (o *OpticalProps1Scl) Validate() error {
	if o.Tau == nil || len(o.Tau.Shape) != 3 {
		return Errorf(ErrShapeMismatch, "rte: tau must have dimensions (column, layer, gpt)")
	}
	ncol, nlay, _ := o.Dims()
	if err := CheckShape("tau", o.Tau, ncol, nlay, o.spectral.NumGpt()); err != nil {
		return err
	}
	return CheckRange("tau", o.Tau, 0, math.Inf(1))
}

// Spectral implements OpticalProps.
func (o *OpticalProps2Str) Spectral() *Spectral { return o.spectral }

// Dims implements OpticalProps.
func (o *OpticalProps2Str) Dims() (ncol, nlay, ngpt int) {
	return o.Tau.Shape[0], o.Tau.Shape[1], o.Tau.Shape[2]
}

// OpticalDepth implements OpticalProps.
func (o *OpticalProps2Str) OpticalDepth() *sparse.DenseArray { return o.Tau }

// Validate implements OpticalProps.
func (o *OpticalProps2Str) Validate() error {
	if o.Tau == nil || len(o.Tau.Shape) != 3 {
		return Errorf(ErrShapeMismatch, "rte: tau must have dimensions (column, layer, gpt)")
	}
	ncol, nlay, _ := o.Dims()
	ngpt := o.spectral.NumGpt()
	for _, f := range []struct {
		name string
		a    *sparse.DenseArray
	}{{"tau", o.Tau}, {"ssa", o.SSA}, {"g", o.G}} {
		if err := CheckShape(f.name, f.a, ncol, nlay, ngpt); err != nil {
			return err
		}
	}
	if err := CheckRange("tau", o.Tau, 0, math.Inf(1)); err != nil {
		return err
	}
	if err := CheckRange("ssa", o.SSA, 0, 1); err != nil {
		return err
	}
	return CheckRange("g", o.G, -1, 1)
}

// Subset returns a copy of columns [colStart, colEnd) with the same
// spectral discretization.
func (o *OpticalProps1Scl) Subset(colStart, colEnd int) (*OpticalProps1Scl, error) {
	tau, err := SubsetColumns(o.Tau, colStart, colEnd)
	if err != nil {
		return nil, err
	}
	return &OpticalProps1Scl{spectral: o.spectral, Tau: tau}, nil
}

// Subset returns a copy of columns [colStart, colEnd) with the same
// spectral discretization.
func (o *OpticalProps2Str) Subset(colStart, colEnd int) (*OpticalProps2Str, error) {
	s := &OpticalProps2Str{spectral: o.spectral}
	var err error
	if s.Tau, err = SubsetColumns(o.Tau, colStart, colEnd); err != nil {
		return nil, err
	}
	if s.SSA, err = SubsetColumns(o.SSA, colStart, colEnd); err != nil {
		return nil, err
	}
	if s.G, err = SubsetColumns(o.G, colStart, colEnd); err != nil {
		return nil, err
	}
	return s, nil
}

// Increment adds in to o. in must have the same extents and band
// structure as o. When in is a two-stream instance only its absorption
// optical depth, τ(1-ω), is added.
func (o *OpticalProps1Scl) Increment(in OpticalProps) error {
	if err := checkIncrement(o, in, false); err != nil {
		return err
	}
	return o.increment(in, identityIndex)
}

// IncrementByBand adds band-resolved optical properties in to o: the
// value of each band of in is added to every spectral point of that band.
func (o *OpticalProps1Scl) IncrementByBand(in OpticalProps) error {
	if err := checkIncrement(o, in, true); err != nil {
		return err
	}
	return o.increment(in, byBandIndex(o.spectral))
}

func (o *OpticalProps1Scl) increment(in OpticalProps, index func(int) int) error {
	tau := o.Tau.Elements
	switch in := in.(type) {
	case *OpticalProps1Scl:
		for i := range tau {
			tau[i] += in.Tau.Elements[index(i)]
		}
	case *OpticalProps2Str:
		for i := range tau {
			j := index(i)
			tau[i] += in.Tau.Elements[j] * (1 - in.SSA.Elements[j])
		}
	default:
		return Errorf(ErrShapeMismatch, "rte: cannot increment by %T", in)
	}
	return nil
}

// Increment adds in to o. in must have the same extents and band
// structure as o. The combined single-scattering albedo and asymmetry
// factor are weighted by the scattering optical depth of each
// contributor, with denominators floored at Epsilon. An absorption-only
// in leaves the scattering optical depth and asymmetry factor of o
// unchanged.
func (o *OpticalProps2Str) Increment(in OpticalProps) error {
	if err := checkIncrement(o, in, false); err != nil {
		return err
	}
	return o.increment(in, identityIndex)
}

// IncrementByBand adds band-resolved optical properties in to o: the
// value of each band of in is combined with every spectral point of
// that band.
func (o *OpticalProps2Str) IncrementByBand(in OpticalProps) error {
	if err := checkIncrement(o, in, true); err != nil {
		return err
	}
	return o.increment(in, byBandIndex(o.spectral))
}

func (o *OpticalProps2Str) increment(in OpticalProps, index func(int) int) error {
	tau, ssa, g := o.Tau.Elements, o.SSA.Elements, o.G.Elements
	switch in := in.(type) {
	case *OpticalProps1Scl:
		for i := range tau {
			tau12 := tau[i] + in.Tau.Elements[index(i)]
			ssa[i] = tau[i] * ssa[i] / math.Max(Epsilon, tau12)
			tau[i] = tau12
		}
	case *OpticalProps2Str:
		for i := range tau {
			j := index(i)
			t2, w2, g2 := in.Tau.Elements[j], in.SSA.Elements[j], in.G.Elements[j]
			tau12 := tau[i] + t2
			tauScat12 := tau[i]*ssa[i] + t2*w2
			g[i] = (tau[i]*ssa[i]*g[i] + t2*w2*g2) / math.Max(Epsilon, tauScat12)
			ssa[i] = tauScat12 / math.Max(Epsilon, tau12)
			tau[i] = tau12
		}
	default:
		return Errorf(ErrShapeMismatch, "rte: cannot increment by %T", in)
	}
	return nil
}

// DeltaScale applies delta-Eddington scaling in place, using the
// square of the asymmetry factor as the forward-scattering fraction.
func (o *OpticalProps2Str) DeltaScale() {
	tau, ssa, g := o.Tau.Elements, o.SSA.Elements, o.G.Elements
	for i := range tau {
		f := g[i] * g[i]
		wf := ssa[i] * f
		tau[i] *= 1 - wf
		ssa[i] = ssa[i] * (1 - f) / math.Max(Epsilon, 1-wf)
		g[i] = (g[i] - f) / math.Max(Epsilon, 1-f)
	}
}

func identityIndex(i int) int { return i }

// byBandIndex maps an element index of a (column, layer, gpt) field to the
// matching element of a (column, layer, band) field.
func byBandIndex(s *Spectral) func(int) int {
	ngpt, nband := s.NumGpt(), s.NumBands()
	gpt2band := s.BandLimsGpt.GptToBand()
	return func(i int) int {
		return (i/ngpt)*nband + gpt2band[i%ngpt]
	}
}

func checkIncrement(o, in OpticalProps, byBand bool) error {
	if in == nil {
		return Errorf(ErrShapeMismatch, "rte: increment: missing optical properties")
	}
	ncol, nlay, ngpt := o.Dims()
	ncol2, nlay2, ngpt2 := in.Dims()
	if ncol != ncol2 || nlay != nlay2 {
		return Errorf(ErrShapeMismatch, "rte: increment: (ncol, nlay) = (%d, %d) and (%d, %d)",
			ncol, nlay, ncol2, nlay2)
	}
	if byBand {
		if !o.Spectral().ByBand(in.Spectral()) {
			return Errorf(ErrShapeMismatch, "rte: increment by band: %d bands but %d spectral points",
				o.Spectral().NumBands(), ngpt2)
		}
		return nil
	}
	if ngpt != ngpt2 || !o.Spectral().SameBands(in.Spectral()) {
		return Errorf(ErrShapeMismatch, "rte: increment: band structures differ")
	}
	return nil
}
