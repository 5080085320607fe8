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

// Package aerotable calculates aerosol optical properties from mass mixing
// ratios of eleven aerosol species using a lookup table of mass extinction
// coefficient, single-scattering albedo and asymmetry factor. Properties
// of hydrophilic species depend on relative humidity.
package aerotable

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
)

// Species is an aerosol species or size mode. The order of the species
// is the order of the mass mixing ratio fields aermr01 through aermr11.
type Species int

// These are the aerosol species.
const (
	SeaSalt1 Species = iota
	SeaSalt2
	SeaSalt3
	Dust1
	Dust2
	Dust3
	OrganicHydrophilic
	OrganicHydrophobic
	BlackCarbon1
	BlackCarbon2
	Sulfate

	// NumSpecies is the number of species.
	NumSpecies
)

var speciesNames = [NumSpecies]string{
	"SS1", "SS2", "SS3", "DU1", "DU2", "DU3", "OM2", "OM1", "BC1", "BC2", "SU",
}

func (s Species) String() string {
	if s < 0 || s >= NumSpecies {
		return fmt.Sprintf("Species(%d)", int(s))
	}
	return speciesNames[s]
}

// MixingRatioName returns the name of the mass mixing ratio field
// for s, e.g., "aermr01".
func (s Species) MixingRatioName() string {
	return fmt.Sprintf("aermr%02d", int(s)+1)
}

// tableEntry locates the coefficients of a species in the table.
type tableEntry struct {
	hydrophilic bool
	index       int // species column in the hydrophobic or hydrophilic table
}

var speciesTable = [NumSpecies]tableEntry{
	SeaSalt1:           {hydrophilic: true, index: 0},
	SeaSalt2:           {hydrophilic: true, index: 1},
	SeaSalt3:           {hydrophilic: true, index: 2},
	Dust1:              {hydrophilic: false, index: 0},
	Dust2:              {hydrophilic: false, index: 7},
	Dust3:              {hydrophilic: false, index: 5},
	OrganicHydrophilic: {hydrophilic: true, index: 3},
	OrganicHydrophobic: {hydrophilic: false, index: 9},
	BlackCarbon1:       {hydrophilic: false, index: 10},
	BlackCarbon2:       {hydrophilic: false, index: 10},
	Sulfate:            {hydrophilic: true, index: 4},
}

// minSpeciesColumns returns the number of hydrophobic and hydrophilic
// species columns a table needs.
func minSpeciesColumns() (nphobic, nphilic int) {
	for _, e := range speciesTable {
		if e.hydrophilic && e.index+1 > nphilic {
			nphilic = e.index + 1
		} else if !e.hydrophilic && e.index+1 > nphobic {
			nphobic = e.index + 1
		}
	}
	return
}

// Table holds aerosol optical coefficients. It must not be modified
// after it is created.
type Table struct {
	// Spectral is the band-resolved discretization of the table.
	Spectral *rte.Spectral

	// RHUpper holds the ascending upper relative humidity bound of
	// each humidity bin. The last bin has no upper bound.
	RHUpper []float64

	// MextPhobic, SSAPhobic and GPhobic hold the mass extinction
	// coefficient [m2/kg], single-scattering albedo and asymmetry
	// factor of hydrophobic species, with dimensions (band, species).
	MextPhobic, SSAPhobic, GPhobic *sparse.DenseArray

	// MextPhilic, SSAPhilic and GPhilic hold the coefficients of
	// hydrophilic species, with dimensions (band, rh bin, species).
	MextPhilic, SSAPhilic, GPhilic *sparse.DenseArray
}

// NewTable checks the coefficients and returns them as a Table.
func NewTable(bandLimsWvn [][2]float64, rhUpper []float64,
	mextPhobic, ssaPhobic, gPhobic, mextPhilic, ssaPhilic, gPhilic *sparse.DenseArray) (*Table, error) {

	s, err := rte.NewSpectral(bandLimsWvn, nil)
	if err != nil {
		return nil, err
	}
	if len(rhUpper) == 0 {
		return nil, rte.Errorf(rte.ErrInvalidDimension, "aerotable: no humidity bins")
	}
	for i := 1; i < len(rhUpper); i++ {
		if !(rhUpper[i] > rhUpper[i-1]) {
			return nil, rte.Errorf(rte.ErrDomainViolation, "aerotable: humidity bin bounds are not ascending: %v", rhUpper)
		}
	}
	nband := s.NumBands()
	if mextPhobic == nil || len(mextPhobic.Shape) != 2 {
		return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: hydrophobic table must have dimensions (band, species)")
	}
	if mextPhilic == nil || len(mextPhilic.Shape) != 3 {
		return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: hydrophilic table must have dimensions (band, rh, species)")
	}
	nphobic, nphilic := mextPhobic.Shape[1], mextPhilic.Shape[2]
	minPhobic, minPhilic := minSpeciesColumns()
	if nphobic < minPhobic || nphilic < minPhilic {
		return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: table has %d hydrophobic and %d hydrophilic species; want at least %d and %d",
			nphobic, nphilic, minPhobic, minPhilic)
	}
	t := &Table{
		Spectral:   s,
		RHUpper:    rhUpper,
		MextPhobic: mextPhobic, SSAPhobic: ssaPhobic, GPhobic: gPhobic,
		MextPhilic: mextPhilic, SSAPhilic: ssaPhilic, GPhilic: gPhilic,
	}
	type field struct {
		name   string
		a      *sparse.DenseArray
		lo, hi float64
	}
	for _, f := range []field{
		{"mext_phobic", mextPhobic, 0, math.Inf(1)},
		{"ssa_phobic", ssaPhobic, 0, 1},
		{"g_phobic", gPhobic, -1, 1},
	} {
		if err := rte.CheckShape(f.name, f.a, nband, nphobic); err != nil {
			return nil, err
		}
		if err := rte.CheckRange(f.name, f.a, f.lo, f.hi); err != nil {
			return nil, err
		}
	}
	for _, f := range []field{
		{"mext_philic", mextPhilic, 0, math.Inf(1)},
		{"ssa_philic", ssaPhilic, 0, 1},
		{"g_philic", gPhilic, -1, 1},
	} {
		if err := rte.CheckShape(f.name, f.a, nband, len(rhUpper), nphilic); err != nil {
			return nil, err
		}
		if err := rte.CheckRange(f.name, f.a, f.lo, f.hi); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// RHClass returns the index of the humidity bin for relative humidity rh,
// given the ascending upper bounds of the bins: the first bin whose upper
// bound is not less than rh. Humidity above the last bound falls in the
// last bin.
func RHClass(rh float64, upper []float64) int {
	i := 0
	for i < len(upper)-1 && upper[i] < rh {
		i++
	}
	return i
}

// MixingRatios holds the mass mixing ratio [kg/kg] of each species, with
// dimensions (column, layer).
type MixingRatios [NumSpecies]*sparse.DenseArray

// check validates the inputs and returns the number of columns and layers.
func check(mmr MixingRatios, rh, dpg *sparse.DenseArray) (ncol, nlay int, err error) {
	if rh == nil || len(rh.Shape) != 2 {
		return 0, 0, rte.Errorf(rte.ErrShapeMismatch, "aerotable: relative humidity must have dimensions (column, layer)")
	}
	ncol, nlay = rh.Shape[0], rh.Shape[1]
	if err = rte.CheckShape("dry air path", dpg, ncol, nlay); err != nil {
		return
	}
	if err = rte.CheckRange("relative humidity", rh, 0, math.Inf(1)); err != nil {
		return
	}
	if err = rte.CheckRange("dry air path", dpg, 0, math.Inf(1)); err != nil {
		return
	}
	for s, m := range mmr {
		name := Species(s).MixingRatioName()
		if err = rte.CheckShape(name, m, ncol, nlay); err != nil {
			return
		}
		if err = rte.CheckRange(name, m, 0, math.Inf(1)); err != nil {
			return
		}
	}
	return
}

// ComputeFromTable calculates, for each column, layer and band, the
// aerosol optical depth and its products with single-scattering albedo
// and with single-scattering albedo times asymmetry factor, summed over
// species. rh is relative humidity (fraction) and dpg is the dry air mass
// path [kg/m2], both with dimensions (column, layer). The outputs have
// dimensions (column, layer, band).
func (t *Table) ComputeFromTable(mmr MixingRatios, rh, dpg *sparse.DenseArray) (tau, tauSSA, tauSSAG *sparse.DenseArray, err error) {
	ncol, nlay, err := check(mmr, rh, dpg)
	if err != nil {
		return nil, nil, nil, err
	}
	nband := t.Spectral.NumBands()
	tau = sparse.ZerosDense(ncol, nlay, nband)
	tauSSA = sparse.ZerosDense(ncol, nlay, nband)
	tauSSAG = sparse.ZerosDense(ncol, nlay, nband)
	rte.Calculations(ncol, func(icol int) {
		t.column(icol, nlay, mmr, rh, dpg, rte.Column(tau, icol), rte.Column(tauSSA, icol), rte.Column(tauSSAG, icol))
	})
	return tau, tauSSA, tauSSAG, nil
}

// column accumulates the sums for one column. The outputs are the
// column's (layer, band) blocks.
func (t *Table) column(icol, nlay int, mmr MixingRatios, rh, dpg *sparse.DenseArray, tau, tauSSA, tauSSAG []float64) {
	nband := t.Spectral.NumBands()
	nrh := len(t.RHUpper)
	nphobic, nphilic := t.MextPhobic.Shape[1], t.MextPhilic.Shape[2]
	rhCol, dpgCol := rte.Column(rh, icol), rte.Column(dpg, icol)
	for ilay := 0; ilay < nlay; ilay++ {
		irh := RHClass(rhCol[ilay], t.RHUpper)
		for ib := 0; ib < nband; ib++ {
			var sumTau, sumTauSSA, sumTauSSAG float64
			for s, e := range speciesTable {
				var i int
				var mext, ssa, g *sparse.DenseArray
				if e.hydrophilic {
					i = (ib*nrh+irh)*nphilic + e.index
					mext, ssa, g = t.MextPhilic, t.SSAPhilic, t.GPhilic
				} else {
					i = ib*nphobic + e.index
					mext, ssa, g = t.MextPhobic, t.SSAPhobic, t.GPhobic
				}
				tauLocal := rte.Column(mmr[s], icol)[ilay] * dpgCol[ilay] * mext.Elements[i]
				sumTau += tauLocal
				sumTauSSA += tauLocal * ssa.Elements[i]
				sumTauSSAG += tauLocal * ssa.Elements[i] * g.Elements[i]
			}
			j := ilay*nband + ib
			tau[j], tauSSA[j], tauSSAG[j] = sumTau, sumTauSSA, sumTauSSAG
		}
	}
}

// Optics calculates aerosol optical properties and writes them to op,
// overwriting its contents. op must be band-resolved with the same bands
// as the table; combining it with gas optics is up to the caller, for
// example with IncrementByBand.
func (t *Table) Optics(mmr MixingRatios, rh, dpg *sparse.DenseArray, op *rte.OpticalProps2Str) error {
	if !t.Spectral.ByBand(op.Spectral()) {
		return rte.Errorf(rte.ErrShapeMismatch, "aerotable: optical properties have %d spectral points but the table has %d bands",
			op.Spectral().NumGpt(), t.Spectral.NumBands())
	}
	tau, tauSSA, tauSSAG, err := t.ComputeFromTable(mmr, rh, dpg)
	if err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		a    *sparse.DenseArray
	}{{"tau", op.Tau}, {"ssa", op.SSA}, {"g", op.G}} {
		if err := rte.CheckShape(f.name, f.a, tau.Shape...); err != nil {
			return err
		}
	}
	for i, tt := range tau.Elements {
		op.Tau.Elements[i] = tt
		op.SSA.Elements[i] = tauSSA.Elements[i] / math.Max(rte.Epsilon, tt)
		op.G.Elements[i] = tauSSAG.Elements[i] / math.Max(rte.Epsilon, tauSSA.Elements[i])
	}
	return nil
}
