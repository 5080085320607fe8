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

package aerotable

import (
	"errors"
	"io/ioutil"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
	"github.com/spatialmodel/rte"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

var rhUpper = []float64{0.0, 0.5, 0.8, 0.9, 0.95, 0.99}

func TestRHClass(t *testing.T) {
	for _, c := range []struct {
		rh   float64
		want int
	}{
		{rh: 0, want: 0},
		{rh: 0.3, want: 1},
		{rh: 0.5, want: 1},
		{rh: 0.85, want: 3},
		{rh: 0.99, want: 5},
		{rh: 0.999, want: 5},
		{rh: 1.2, want: 5},
	} {
		if have := RHClass(c.rh, rhUpper); have != c.want {
			t.Errorf("rh=%g: have bin %d, want %d", c.rh, have, c.want)
		}
	}
}

// testTable returns a table with 2 bands, where the mass extinction
// coefficient encodes the band, humidity bin and species column.
func testTable(t *testing.T) *Table {
	const nband, nphobic, nphilic = 2, 11, 5
	nrh := len(rhUpper)
	mextPhobic := sparse.ZerosDense(nband, nphobic)
	ssaPhobic := sparse.ZerosDense(nband, nphobic)
	gPhobic := sparse.ZerosDense(nband, nphobic)
	for ib := 0; ib < nband; ib++ {
		for is := 0; is < nphobic; is++ {
			i := ib*nphobic + is
			mextPhobic.Elements[i] = float64(100*(ib+1) + is)
			ssaPhobic.Elements[i] = 0.5
			gPhobic.Elements[i] = 0.6
		}
	}
	mextPhilic := sparse.ZerosDense(nband, nrh, nphilic)
	ssaPhilic := sparse.ZerosDense(nband, nrh, nphilic)
	gPhilic := sparse.ZerosDense(nband, nrh, nphilic)
	for ib := 0; ib < nband; ib++ {
		for irh := 0; irh < nrh; irh++ {
			for is := 0; is < nphilic; is++ {
				i := (ib*nrh+irh)*nphilic + is
				mextPhilic.Elements[i] = float64(1000*(ib+1) + 10*irh + is)
				ssaPhilic.Elements[i] = 0.9
				gPhilic.Elements[i] = 0.7
			}
		}
	}
	tbl, err := NewTable([][2]float64{{10, 350}, {350, 500}}, rhUpper,
		mextPhobic, ssaPhobic, gPhobic, mextPhilic, ssaPhilic, gPhilic)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func singleLayer(species Species, mmr, rh, dpg float64) (MixingRatios, *sparse.DenseArray, *sparse.DenseArray) {
	var m MixingRatios
	for i := range m {
		m[i] = sparse.ZerosDense(1, 1)
	}
	m[species].Elements[0] = mmr
	rhA, dpgA := sparse.ZerosDense(1, 1), sparse.ZerosDense(1, 1)
	rhA.Elements[0], dpgA.Elements[0] = rh, dpg
	return m, rhA, dpgA
}

func TestSpeciesMapping(t *testing.T) {
	tbl := testTable(t)
	// Expected mass extinction coefficient in band 0 at rh 0.85 (bin 3).
	want := map[Species]float64{
		SeaSalt1:           1030,
		SeaSalt2:           1031,
		SeaSalt3:           1032,
		Dust1:              100,
		Dust2:              107,
		Dust3:              105,
		OrganicHydrophilic: 1033,
		OrganicHydrophobic: 109,
		BlackCarbon1:       110,
		BlackCarbon2:       110,
		Sulfate:            1034,
	}
	for s := Species(0); s < NumSpecies; s++ {
		m, rh, dpg := singleLayer(s, 1e-6, 0.85, 2000)
		tau, _, _, err := tbl.ComputeFromTable(m, rh, dpg)
		if err != nil {
			t.Fatal(err)
		}
		if have := tau.Elements[0]; different(have, 1e-6*2000*want[s], 1e-12) {
			t.Errorf("%v: have tau %g, want %g", s, have, 1e-6*2000*want[s])
		}
	}
}

func TestOptics(t *testing.T) {
	tbl := testTable(t)
	m, rh, dpg := singleLayer(Dust1, 2e-6, 0.999, 1000)
	m[Sulfate].Elements[0] = 1e-6
	op, err := rte.NewOpticalProps2Str(1, 1, tbl.Spectral)
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.Optics(m, rh, dpg, op); err != nil {
		t.Fatal(err)
	}
	if err := op.Validate(); err != nil {
		t.Fatal(err)
	}
	// Band 1, humidity bin 5.
	tauDust := 2e-6 * 1000 * 200
	tauSU := 1e-6 * 1000 * (2000 + 50 + 4)
	wantTau := tauDust + tauSU
	wantSSA := (tauDust*0.5 + tauSU*0.9) / wantTau
	wantG := (tauDust*0.5*0.6 + tauSU*0.9*0.7) / (tauDust*0.5 + tauSU*0.9)
	if have := op.Tau.Get(0, 0, 1); different(have, wantTau, 1e-12) {
		t.Errorf("tau: have %g, want %g", have, wantTau)
	}
	if have := op.SSA.Get(0, 0, 1); different(have, wantSSA, 1e-12) {
		t.Errorf("ssa: have %g, want %g", have, wantSSA)
	}
	if have := op.G.Get(0, 0, 1); different(have, wantG, 1e-12) {
		t.Errorf("g: have %g, want %g", have, wantG)
	}

	// No aerosol gives zero everything without dividing by zero.
	m, rh, dpg = singleLayer(Dust1, 0, 0.5, 1000)
	if err := tbl.Optics(m, rh, dpg, op); err != nil {
		t.Fatal(err)
	}
	for _, a := range []*sparse.DenseArray{op.Tau, op.SSA, op.G} {
		for _, v := range a.Elements {
			if v != 0 {
				t.Errorf("no aerosol: %v", a.Elements)
			}
		}
	}
}

func TestOpticsErrors(t *testing.T) {
	tbl := testTable(t)
	m, rh, dpg := singleLayer(Dust1, -1, 0.5, 1000)
	op, _ := rte.NewOpticalProps2Str(1, 1, tbl.Spectral)
	if err := tbl.Optics(m, rh, dpg, op); !errors.Is(err, rte.ErrDomainViolation) {
		t.Errorf("negative mixing ratio: want domain violation, have %v", err)
	}
	m, rh, dpg = singleLayer(Dust1, 1e-6, 0.5, 1000)
	byGpt, _ := rte.NewSpectral(nil, [][2]int{{0, 1}, {2, 3}})
	gas, _ := rte.NewOpticalProps2Str(1, 1, byGpt)
	if err := tbl.Optics(m, rh, dpg, gas); !errors.Is(err, rte.ErrShapeMismatch) {
		t.Errorf("g-point resolved target: want shape mismatch, have %v", err)
	}
	m[Sulfate] = sparse.ZerosDense(2, 1)
	if err := tbl.Optics(m, rh, dpg, op); !errors.Is(err, rte.ErrShapeMismatch) {
		t.Errorf("mixing ratio shape: want shape mismatch, have %v", err)
	}
}

func TestNewTableErrors(t *testing.T) {
	tbl := testTable(t)
	if _, err := NewTable(tbl.Spectral.BandLimsWvn, []float64{0, 0.9, 0.5, 0.95, 0.97, 0.99},
		tbl.MextPhobic, tbl.SSAPhobic, tbl.GPhobic, tbl.MextPhilic, tbl.SSAPhilic, tbl.GPhilic); !errors.Is(err, rte.ErrDomainViolation) {
		t.Errorf("unsorted bins: want domain violation, have %v", err)
	}
	small := sparse.ZerosDense(2, 4)
	if _, err := NewTable(tbl.Spectral.BandLimsWvn, rhUpper,
		small, small, small, tbl.MextPhilic, tbl.SSAPhilic, tbl.GPhilic); !errors.Is(err, rte.ErrShapeMismatch) {
		t.Errorf("too few species: want shape mismatch, have %v", err)
	}
}

func TestLoadTable(t *testing.T) {
	tbl := testTable(t)
	f, err := ioutil.TempFile("", "aerotable")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if err := tbl.Dataset().Write(f); err != nil {
		t.Fatal(err)
	}
	tbl2, err := LoadTable(f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(tbl.RHUpper, tbl2.RHUpper); len(diff) > 0 {
		t.Errorf("rh_upper: %v", diff)
	}
	if diff := pretty.Diff(tbl.Spectral.BandLimsWvn, tbl2.Spectral.BandLimsWvn); len(diff) > 0 {
		t.Errorf("band_lims_wvn: %v", diff)
	}
	if diff := pretty.Diff(tbl.MextPhilic.Elements, tbl2.MextPhilic.Elements); len(diff) > 0 {
		t.Errorf("mext_philic: %v", diff)
	}
}

const tomlTableText = `
rh_upper = [0.0, 0.8]

[[band]]
wavenumbers = [10.0, 350.0]
mext_phobic = [1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0, 11.0]
ssa_phobic = [0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5]
g_phobic = [0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6]
mext_philic = [[1.0, 2.0, 3.0, 4.0, 5.0], [10.0, 20.0, 30.0, 40.0, 50.0]]
ssa_philic = [[0.9, 0.9, 0.9, 0.9, 0.9], [0.95, 0.95, 0.95, 0.95, 0.95]]
g_philic = [[0.7, 0.7, 0.7, 0.7, 0.7], [0.75, 0.75, 0.75, 0.75, 0.75]]
`

func TestDecodeTable(t *testing.T) {
	tbl, err := DecodeTable(strings.NewReader(tomlTableText))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Spectral.NumBands() != 1 || len(tbl.RHUpper) != 2 {
		t.Fatalf("bands=%d, bins=%d", tbl.Spectral.NumBands(), len(tbl.RHUpper))
	}
	// Sulfate at rh 0.9 uses the last bin, column 4.
	m, rh, dpg := singleLayer(Sulfate, 1, 0.9, 1)
	tau, tauSSA, _, err := tbl.ComputeFromTable(m, rh, dpg)
	if err != nil {
		t.Fatal(err)
	}
	if tau.Elements[0] != 50 || tauSSA.Elements[0] != 50*0.95 {
		t.Errorf("tau=%g, tau*ssa=%g", tau.Elements[0], tauSSA.Elements[0])
	}
	if _, err := DecodeTable(strings.NewReader("rh_upper = [0.0]\n")); !errors.Is(err, rte.ErrInvalidDimension) {
		t.Errorf("no bands: want invalid dimension, have %v", err)
	}
}
