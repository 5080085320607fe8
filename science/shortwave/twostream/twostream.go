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

// Package twostream solves shortwave radiative transfer with the
// two-stream approximation, combining layers with the adding method.
// Layer coefficients follow the practical improved flux method of
// Zdunkowski et al. (1980) in the form given by Meador and Weaver (1980).
package twostream

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
)

// Coefficients are the reflectance and transmittance of one layer.
type Coefficients struct {
	// Rdif and Tdif are the reflectance and transmittance for
	// diffuse radiation.
	Rdif, Tdif float64

	// Rdir and Tdir are the fractions of the incoming direct beam that
	// leave the layer as diffuse radiation upward and downward.
	Rdir, Tdir float64

	// Tnoscat is the transmittance of the direct beam.
	Tnoscat float64
}

// kMin2 is the floor for the square of the eigenvalue k, which is zero
// for conservative scattering.
const kMin2 = 1e-12

// TwoStream calculates the coefficients of a layer with optical depth tau,
// single-scattering albedo w0 and asymmetry factor g, for a direct beam
// with cosine of solar zenith angle mu0. When mu0 <= 0 the direct-beam
// coefficients are zero.
func TwoStream(tau, w0, g, mu0 float64) Coefficients {
	var c Coefficients
	gamma1 := (8 - w0*(5+3*g)) * 0.25
	gamma2 := 3 * (w0 * (1 - g)) * 0.25
	gamma3 := (2 - 3*mu0*g) * 0.25
	gamma4 := 1 - gamma3
	alpha1 := gamma1*gamma4 + gamma2*gamma3
	alpha2 := gamma1*gamma3 + gamma2*gamma4

	k := math.Sqrt(math.Max((gamma1-gamma2)*(gamma1+gamma2), kMin2))
	exp1 := math.Exp(-tau * k)
	exp2 := exp1 * exp1
	rt := 1 / (k*(1+exp2) + gamma1*(1-exp2))
	c.Rdif = rt * gamma2 * (1 - exp2)
	c.Tdif = rt * 2 * k * exp1

	if mu0 <= 0 {
		return c
	}
	c.Tnoscat = math.Exp(-tau / mu0)
	kmu := k * mu0
	denom := 1 - kmu*kmu
	if math.Abs(denom) < rte.Epsilon {
		denom = rte.Epsilon
	}
	rt = w0 * rt / denom
	c.Rdir = rt * ((1-kmu)*(alpha2+k*gamma3) -
		(1+kmu)*(alpha2-k*gamma3)*exp2 -
		2*(k*gamma3-alpha2*kmu)*exp1*c.Tnoscat)
	c.Tdir = -rt * ((1+kmu)*(alpha1+k*gamma4)*c.Tnoscat -
		(1-kmu)*(alpha1-k*gamma4)*exp2*c.Tnoscat -
		2*(k*gamma4+alpha1*kmu)*exp1)

	// Round-off can push the direct coefficients out of their
	// physical range for very thin or very thick layers.
	c.Rdir = math.Max(0, math.Min(c.Rdir, 1-c.Tnoscat))
	c.Tdir = math.Max(0, math.Min(c.Tdir, 1-c.Tnoscat-c.Rdir))
	return c
}

// Solver solves shortwave radiative transfer with the two-stream
// approximation.
type Solver struct {
	// TopAt1 specifies that level 0 is the top of the domain.
	// Otherwise level 0 is at the surface.
	TopAt1 bool

	// Hook, if not nil, receives instrumentation.
	Hook rte.Hook
}

// Solve calculates fluxes for optical properties op and stores them in
// out. mu0, with dimensions (column), is the cosine of the solar zenith
// angle; columns with mu0 <= 0 are not illuminated. sfcAlbDir and
// sfcAlbDif are surface albedo for direct and diffuse radiation with
// dimensions (column, band). incFluxDir is the direct flux normal to the
// beam at the top of the domain and incFluxDif, which may be nil, is the
// incident diffuse flux, both with dimensions (column, gpt). out.Dn
// receives total (diffuse plus direct) downward flux and, if allocated,
// out.DnDir receives the direct-beam flux on a horizontal surface.
func (s *Solver) Solve(op *rte.OpticalProps2Str, mu0, sfcAlbDir, sfcAlbDif, incFluxDir, incFluxDif *sparse.DenseArray, out *rte.SpectralFluxes) error {
	if op.Tau == nil || len(op.Tau.Shape) != 3 {
		return rte.Errorf(rte.ErrShapeMismatch, "twostream: optical depth must have dimensions (column, layer, gpt)")
	}
	ncol, nlay, ngpt := op.Dims()
	if ncol == 0 || nlay == 0 {
		return nil
	}
	if err := op.Validate(); err != nil {
		return err
	}
	if err := rte.CheckShape("mu0", mu0, ncol); err != nil {
		return err
	}
	if err := rte.CheckRange("mu0", mu0, -1, 1); err != nil {
		return err
	}
	nband := op.Spectral().NumBands()
	for _, v := range []struct {
		name string
		a    *sparse.DenseArray
	}{{"sfc_alb_dir", sfcAlbDir}, {"sfc_alb_dif", sfcAlbDif}} {
		if err := rte.CheckShape(v.name, v.a, ncol, nband); err != nil {
			return err
		}
		if err := rte.CheckRange(v.name, v.a, 0, 1); err != nil {
			return err
		}
	}
	if err := rte.CheckShape("inc_flux_dir", incFluxDir, ncol, ngpt); err != nil {
		return err
	}
	if incFluxDif != nil {
		if err := rte.CheckShape("inc_flux_dif", incFluxDif, ncol, ngpt); err != nil {
			return err
		}
	}
	if err := out.Check(ncol, nlay+1, ngpt); err != nil {
		return err
	}
	out.Reset()
	gpt2band := op.Spectral().BandLimsGpt.GptToBand()
	return rte.Timed(s.Hook, "sw_solver_2stream", ncol, func() error {
		rte.Calculations(ncol, func(icol int) {
			s.column(icol, op, mu0.Elements[icol], sfcAlbDir, sfcAlbDif, incFluxDir, incFluxDif, gpt2band, out)
		})
		return nil
	})
}

// column solves all spectral points of one column.
func (s *Solver) column(icol int, op *rte.OpticalProps2Str, mu0 float64,
	sfcAlbDir, sfcAlbDif, incFluxDir, incFluxDif *sparse.DenseArray, gpt2band []int, out *rte.SpectralFluxes) {

	_, nlay, ngpt := op.Dims()
	nlev := nlay + 1
	tau, ssa, g := rte.Column(op.Tau, icol), rte.Column(op.SSA, icol), rte.Column(op.G, icol)
	albDir, albDif := rte.Column(sfcAlbDir, icol), rte.Column(sfcAlbDif, icol)
	incDir := rte.Column(incFluxDir, icol)
	var incDif []float64
	if incFluxDif != nil {
		incDif = rte.Column(incFluxDif, icol)
	}
	lit := mu0 > 0

	// Profiles are indexed from the top of the domain down.
	coef := make([]Coefficients, nlay)
	srcUp := make([]float64, nlay)
	srcDn := make([]float64, nlay)
	denom := make([]float64, nlay)
	albedo := make([]float64, nlev)
	src := make([]float64, nlev)
	dir := make([]float64, nlev)
	up := make([]float64, nlev)
	dn := make([]float64, nlev)
	// Outputs in storage order.
	upOut := make([]float64, nlev)
	dnOut := make([]float64, nlev)
	dirOut := make([]float64, nlev)

	layer := func(j int) int { return j }
	level := func(k int) int { return k }
	if !s.TopAt1 {
		layer = func(j int) int { return nlay - 1 - j }
		level = func(k int) int { return nlev - 1 - k }
	}

	for igpt := 0; igpt < ngpt; igpt++ {
		for j := 0; j < nlay; j++ {
			i := layer(j)*ngpt + igpt
			coef[j] = TwoStream(tau[i], ssa[i], g[i], mu0)
		}

		// Direct beam and the diffuse sources it generates.
		dir[0] = 0
		if lit {
			dir[0] = incDir[igpt] * mu0
		}
		for j, c := range coef {
			srcUp[j] = c.Rdir * dir[j]
			srcDn[j] = c.Tdir * dir[j]
			dir[j+1] = c.Tnoscat * dir[j]
		}

		// Adding: albedo and source of the column below each level.
		ib := gpt2band[igpt]
		albedo[nlay] = albDif[ib]
		src[nlay] = dir[nlay] * albDir[ib]
		for j := nlay - 1; j >= 0; j-- {
			c := coef[j]
			denom[j] = 1 / (1 - c.Rdif*albedo[j+1])
			albedo[j] = c.Rdif + c.Tdif*c.Tdif*albedo[j+1]*denom[j]
			src[j] = srcUp[j] + c.Tdif*denom[j]*(src[j+1]+albedo[j+1]*srcDn[j])
		}

		// Diffuse fluxes from the top down.
		dn[0] = 0
		if incDif != nil {
			dn[0] = incDif[igpt]
		}
		up[0] = dn[0]*albedo[0] + src[0]
		for j, c := range coef {
			dn[j+1] = (c.Tdif*dn[j] + c.Rdif*src[j+1] + srcDn[j]) * denom[j]
			up[j+1] = dn[j+1]*albedo[j+1] + src[j+1]
		}

		for k := 0; k < nlev; k++ {
			l := level(k)
			upOut[l] = up[k]
			dnOut[l] = dn[k] + dir[k]
			dirOut[l] = dir[k]
		}
		out.Store(icol, igpt, upOut, dnOut, dirOut, nil)
	}
}
