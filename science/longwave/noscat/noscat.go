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

// Package noscat solves longwave radiative transfer through absorbing
// and emitting layers without scattering, integrating over a small
// number of Gaussian quadrature angles.
package noscat

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
)

// Quadrature holds the secants of the quadrature angles and their
// weights. Intensities are carried in flux units, so the weights
// sum to one.
type Quadrature struct {
	Secants []float64
	Weights []float64
}

var gaussSecants = [][]float64{
	{1.66},
	{1.18350343, 2.81649655},
	{1.09719858, 1.69338507, 4.70941630},
	{1.06056257, 1.38282560, 2.40148179, 7.15513024},
}

var gaussWeights = [][]float64{
	{1},
	{0.6360827634, 0.3639172366},
	{0.4018638274, 0.4584822128, 0.1396539598},
	{0.2710138268, 0.4069291360, 0.2596950952, 0.0623619420},
}

// GaussQuadrature returns the quadrature for n = 1 to 4 angles. A single
// angle uses the diffusivity secant 1.66.
func GaussQuadrature(n int) (Quadrature, error) {
	if n < 1 || n > len(gaussSecants) {
		return Quadrature{}, rte.Errorf(rte.ErrInvalidDimension,
			"noscat: quadrature is available for 1 to %d angles, not %d", len(gaussSecants), n)
	}
	return Quadrature{
		Secants: append([]float64{}, gaussSecants[n-1]...),
		Weights: append([]float64{}, gaussWeights[n-1]...),
	}, nil
}

// Solver solves longwave radiative transfer without scattering.
type Solver struct {
	// NAngles is the number of quadrature angles.
	NAngles int

	// Quadrature holds one secant and weight for each angle.
	Quadrature

	// TopAt1 specifies that level 0 is the top of the domain.
	// Otherwise level 0 is at the surface.
	TopAt1 bool

	// Hook, if not nil, receives instrumentation.
	Hook rte.Hook
}

func (s *Solver) check() error {
	if s.NAngles < 1 {
		return rte.Errorf(rte.ErrInvalidDimension, "noscat: %d quadrature angles", s.NAngles)
	}
	if len(s.Secants) != s.NAngles || len(s.Weights) != s.NAngles {
		return rte.Errorf(rte.ErrShapeMismatch, "noscat: %d angles but %d secants and %d weights",
			s.NAngles, len(s.Secants), len(s.Weights))
	}
	for i, sec := range s.Secants {
		if !(sec >= 1) || !(s.Weights[i] >= 0) {
			return rte.Errorf(rte.ErrDomainViolation, "noscat: angle %d has secant %g and weight %g",
				i, sec, s.Weights[i])
		}
	}
	return nil
}

// Solve calculates upward and downward fluxes for optical properties op
// and sources src, and stores them in out. sfcEmis is surface emissivity
// with dimensions (column, band). incFlux, with dimensions (column, gpt),
// is the incident flux at the top of the domain; nil means no incident
// flux. If out has a Jacobian field, the derivative of upward flux with
// respect to surface temperature is calculated as well.
func (s *Solver) Solve(op *rte.OpticalProps1Scl, src *rte.SourceFuncLW, sfcEmis, incFlux *sparse.DenseArray, out *rte.SpectralFluxes) error {
	if err := s.check(); err != nil {
		return err
	}
	if op.Tau == nil || len(op.Tau.Shape) != 3 {
		return rte.Errorf(rte.ErrShapeMismatch, "noscat: optical depth must have dimensions (column, layer, gpt)")
	}
	ncol, nlay, ngpt := op.Dims()
	if ncol == 0 || nlay == 0 {
		return nil
	}
	if err := op.Validate(); err != nil {
		return err
	}
	if err := src.CheckConsistent(op); err != nil {
		return err
	}
	nband := op.Spectral().NumBands()
	if err := rte.CheckShape("sfc_emis", sfcEmis, ncol, nband); err != nil {
		return err
	}
	if err := rte.CheckRange("sfc_emis", sfcEmis, 0, 1); err != nil {
		return err
	}
	if incFlux != nil {
		if err := rte.CheckShape("inc_flux", incFlux, ncol, ngpt); err != nil {
			return err
		}
	}
	if err := out.Check(ncol, nlay+1, ngpt); err != nil {
		return err
	}
	out.Reset()
	gpt2band := op.Spectral().BandLimsGpt.GptToBand()
	return rte.Timed(s.Hook, "lw_solver_noscat", ncol, func() error {
		rte.Calculations(ncol, func(icol int) {
			s.column(icol, op, src, sfcEmis, incFlux, gpt2band, out)
		})
		return nil
	})
}

// column solves all spectral points of one column.
func (s *Solver) column(icol int, op *rte.OpticalProps1Scl, src *rte.SourceFuncLW,
	sfcEmis, incFlux *sparse.DenseArray, gpt2band []int, out *rte.SpectralFluxes) {

	_, nlay, ngpt := op.Dims()
	nlev := nlay + 1
	tau := rte.Column(op.Tau, icol)
	lay := rte.Column(src.LaySource, icol)
	levDn, levUp := rte.Column(src.LevSourceInc, icol), rte.Column(src.LevSourceDec, icol)
	if !s.TopAt1 {
		levDn, levUp = levUp, levDn
	}
	sfcSrc, sfcJac := rte.Column(src.SfcSource, icol), rte.Column(src.SfcSourceJac, icol)
	emis := rte.Column(sfcEmis, icol)
	var inc []float64
	if incFlux != nil {
		inc = rte.Column(incFlux, icol)
	}
	doJac := out.UpJac != nil

	// Profiles are indexed from the top of the domain down.
	trans := make([]float64, nlay)
	srcDn := make([]float64, nlay)
	srcUp := make([]float64, nlay)
	iDn := make([]float64, nlev)
	iUp := make([]float64, nlev)
	iJac := make([]float64, nlev)
	fluxUp := make([]float64, nlev)
	fluxDn := make([]float64, nlev)
	var fluxJac []float64
	if doJac {
		fluxJac = make([]float64, nlev)
	}

	layer := func(j int) int { return j }
	level := func(k int) int { return k }
	if !s.TopAt1 {
		layer = func(j int) int { return nlay - 1 - j }
		level = func(k int) int { return nlev - 1 - k }
	}

	for igpt := 0; igpt < ngpt; igpt++ {
		for k := range fluxUp {
			fluxUp[k], fluxDn[k] = 0, 0
			if doJac {
				fluxJac[k] = 0
			}
		}
		e := emis[gpt2band[igpt]]
		for ia, secant := range s.Secants {
			for j := 0; j < nlay; j++ {
				i := layer(j)*ngpt + igpt
				trans[j], srcDn[j], srcUp[j] = layerSource(tau[i]*secant, lay[i], levDn[i], levUp[i])
			}
			iDn[0] = 0
			if inc != nil {
				iDn[0] = inc[igpt]
			}
			for j := 0; j < nlay; j++ {
				iDn[j+1] = trans[j]*iDn[j] + srcDn[j]
			}
			iUp[nlay] = (1-e)*iDn[nlay] + e*sfcSrc[igpt]
			iJac[nlay] = e * sfcJac[igpt]
			for j := nlay - 1; j >= 0; j-- {
				iUp[j] = trans[j]*iUp[j+1] + srcUp[j]
				iJac[j] = trans[j] * iJac[j+1]
			}
			w := s.Weights[ia]
			for k := 0; k < nlev; k++ {
				fluxUp[level(k)] += w * iUp[k]
				fluxDn[level(k)] += w * iDn[k]
				if doJac {
					fluxJac[level(k)] += w * iJac[k]
				}
			}
		}
		out.Store(icol, igpt, fluxUp, fluxDn, nil, fluxJac)
	}
}

// tauThresh is the optical depth below which the emission term is
// evaluated with a Taylor series.
var tauThresh = math.Sqrt(rte.Epsilon)

// layerSource returns the transmissivity of a layer with optical path
// tauLoc, and its emission in the downward and upward directions. The
// source is assumed to vary linearly in optical depth between the layer
// source and the source at the edge the radiation leaves through.
func layerSource(tauLoc, lay, levDn, levUp float64) (trans, srcDn, srcUp float64) {
	trans = math.Exp(-tauLoc)
	var fact float64
	if tauLoc > tauThresh {
		fact = (1-trans)/tauLoc - trans
	} else {
		fact = tauLoc * (0.5 - tauLoc/3)
	}
	srcDn = (1-trans)*levDn + 2*fact*(lay-levDn)
	srcUp = (1-trans)*levUp + 2*fact*(lay-levUp)
	return
}
