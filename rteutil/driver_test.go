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


package rteutil

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
	"github.com/spatialmodel/rte/science/aerosol/aerotable"
	"gonum.org/v1/gonum/floats"
)

const (
	testLay  = 3
	testGpt  = 3
	testBand = 2
)

// field returns an array with the given shape whose element i is f(i).
func field(f func(i int) float64, shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	for i := range a.Elements {
		a.Elements[i] = f(i)
	}
	return a
}

func constant(v float64) func(int) float64 { return func(int) float64 { return v } }

// testCase returns the variables shared by longwave and shortwave cases.
// Level 0 is at the top of the domain.
func testCase(ncol int) *rte.Dataset {
	d := new(rte.Dataset)
	d.AddVariable("band_lims_gpt", []string{"band", "pair"}, "", "", field(func(i int) float64 {
		return []float64{0, 1, 2, 2}[i]
	}, testBand, 2))
	d.AddVariable("band_lims_wvn", []string{"band", "pair"}, "", "cm-1", field(func(i int) float64 {
		return []float64{10, 350, 350, 500}[i]
	}, testBand, 2))
	d.AddVariable("tau", []string{"col", "lay", "gpt"}, "", "", field(func(i int) float64 {
		return 0.1 * float64(1+i%7)
	}, ncol, testLay, testGpt))
	d.AddVariable("p_lay", []string{"col", "lay"}, "", "Pa", field(func(i int) float64 {
		return 1e4 * float64(1+i%testLay)
	}, ncol, testLay))
	d.AddVariable("p_lev", []string{"col", "lev"}, "", "Pa", field(func(i int) float64 {
		return 1e4 * (0.5 + float64(i%(testLay+1)))
	}, ncol, testLay+1))
	return d
}

func lwCase(ncol int) *rte.Dataset {
	d := testCase(ncol)
	lay := []string{"col", "lay", "gpt"}
	d.AddVariable("lay_src", lay, "", "W/m2", field(func(i int) float64 { return 10 + float64(i%5) }, ncol, testLay, testGpt))
	d.AddVariable("lev_src_inc", lay, "", "W/m2", field(func(i int) float64 { return 9 + float64(i%4) }, ncol, testLay, testGpt))
	d.AddVariable("lev_src_dec", lay, "", "W/m2", field(func(i int) float64 { return 11 + float64(i%3) }, ncol, testLay, testGpt))
	d.AddVariable("sfc_src", []string{"col", "gpt"}, "", "W/m2", field(func(i int) float64 { return 20 + float64(i%3) }, ncol, testGpt))
	d.AddVariable("sfc_src_jac", []string{"col", "gpt"}, "", "W/m2/K", field(constant(0.5), ncol, testGpt))
	d.AddVariable("emis_sfc", []string{"col", "band"}, "", "", field(constant(0.9), ncol, testBand))
	return d
}

func swCase(ncol int) *rte.Dataset {
	d := testCase(ncol)
	lay := []string{"col", "lay", "gpt"}
	d.AddVariable("ssa", lay, "", "", field(constant(0.9), ncol, testLay, testGpt))
	d.AddVariable("g", lay, "", "", field(constant(0.7), ncol, testLay, testGpt))
	d.AddVariable("mu0", []string{"col"}, "", "", field(func(i int) float64 {
		if i == 1 {
			return 0 // Column 1 is not illuminated.
		}
		return 0.6
	}, ncol))
	d.AddVariable("sfc_alb_dir", []string{"col", "band"}, "", "", field(constant(0.2), ncol, testBand))
	d.AddVariable("sfc_alb_dif", []string{"col", "band"}, "", "", field(constant(0.3), ncol, testBand))
	d.AddVariable("inc_flux_dir", []string{"col", "gpt"}, "", "W/m2", field(constant(100), ncol, testGpt))
	return d
}

func TestLWBlockSizeInvariance(t *testing.T) {
	in := lwCase(7)
	var want string
	for _, bs := range []int{1, 2, 3, 4, 0, 10} {
		d := &Driver{ColumnBlockSize: bs, NumAngles: 3, TopAt1: "auto", Byband: true, Jacobian: true}
		o, err := d.LW(in)
		if err != nil {
			t.Fatal(err)
		}
		if bs == 1 {
			want = o.Checksum()
			continue
		}
		if have := o.Checksum(); have != want {
			t.Errorf("block size %d: checksum %s; want %s", bs, have, want)
		}
	}
}

func TestSWBlockSizeInvariance(t *testing.T) {
	in := swCase(5)
	var want string
	for _, bs := range []int{1, 2, 4} {
		d := &Driver{ColumnBlockSize: bs, TopAt1: "auto", Byband: true}
		o, err := d.SW(in)
		if err != nil {
			t.Fatal(err)
		}
		if bs == 1 {
			want = o.Checksum()
			continue
		}
		if have := o.Checksum(); have != want {
			t.Errorf("block size %d: checksum %s; want %s", bs, have, want)
		}
	}
}

func TestLWTransparent(t *testing.T) {
	const ncol = 3
	in := lwCase(ncol)
	for _, name := range []string{"tau", "lay_src", "lev_src_inc", "lev_src_dec"} {
		v, _ := in.Var(name)
		for i := range v.Elements {
			v.Elements[i] = 0
		}
	}
	sfc, _ := in.Var("sfc_src")
	emis, _ := in.Var("emis_sfc")
	for i := range sfc.Elements {
		sfc.Elements[i] = []float64{1, 2, 4}[i%testGpt]
	}
	for i := range emis.Elements {
		emis.Elements[i] = 1
	}
	o, err := (&Driver{ColumnBlockSize: 2, NumAngles: 1, TopAt1: "true"}).LW(in)
	if err != nil {
		t.Fatal(err)
	}
	up, _ := o.Var("lw_flux_up")
	dn, _ := o.Var("lw_flux_dn")
	hr, _ := o.Var("lw_heating_rate")
	for i := range up.Elements {
		if up.Elements[i] != 7 || dn.Elements[i] != 0 {
			t.Errorf("element %d: up=%g, dn=%g", i, up.Elements[i], dn.Elements[i])
		}
	}
	for i, v := range hr.Elements {
		if v != 0 {
			t.Errorf("heating rate %d = %g", i, v)
		}
	}
	s, err := o.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if s != (Summary{TOANetMean: -7, TOANetMin: -7, TOANetMax: -7}) {
		t.Errorf("summary: %+v", s)
	}
	if o.Has("lw_flux_up_jac") || o.Has("lw_bnd_flux_up") {
		t.Error("optional output should not be present")
	}
}

func TestLWByband(t *testing.T) {
	in := lwCase(4)
	o, err := (&Driver{NumAngles: 2, TopAt1: "auto", Byband: true, Jacobian: true}).LW(in)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := (&Driver{NumAngles: 2, TopAt1: "auto"}).LW(in)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"up", "dn", "net"} {
		bnd, _ := o.Var("lw_bnd_flux_" + name)
		total, _ := o.Var("lw_flux_" + name)
		fused, _ := bb.Var("lw_flux_" + name)
		for i := range total.Elements {
			sum := floats.Sum(bnd.Elements[i*testBand : (i+1)*testBand])
			if !floats.EqualWithinAbs(sum, total.Elements[i], 1e-10) {
				t.Errorf("%s %d: band sum %g; total %g", name, i, sum, total.Elements[i])
			}
		}
		if !floats.EqualApprox(total.Elements, fused.Elements, 1e-12) {
			t.Errorf("%s: fused broadband output differs", name)
		}
	}
	jac, _ := o.Var("lw_flux_up_jac")
	for i, v := range jac.Elements {
		if !(v > 0) {
			t.Errorf("jacobian %d = %g", i, v)
		}
	}
}

func TestTopAt1(t *testing.T) {
	in := lwCase(2)
	o, err := (&Driver{NumAngles: 1, TopAt1: "auto"}).LW(in)
	if err != nil {
		t.Fatal(err)
	}
	if !o.TopAt1 {
		t.Error("pressure increases with layer index so level 0 should be the top")
	}

	// Reverse the vertical order of all fields.
	flipped := lwCase(2)
	for _, name := range []string{"tau", "lay_src", "p_lay", "p_lev"} {
		v, _ := flipped.Var(name)
		reverseLayers(v)
	}
	inc, _ := flipped.Var("lev_src_inc")
	dec, _ := flipped.Var("lev_src_dec")
	reverseLayers(inc)
	reverseLayers(dec)
	inc.Elements, dec.Elements = dec.Elements, inc.Elements
	f, err := (&Driver{NumAngles: 1, TopAt1: "auto"}).LW(flipped)
	if err != nil {
		t.Fatal(err)
	}
	if f.TopAt1 {
		t.Error("pressure decreases with layer index so level 0 should be the surface")
	}
	up, _ := o.Var("lw_flux_up")
	upF, _ := f.Var("lw_flux_up")
	reverseLayers(upF)
	if !floats.EqualApprox(up.Elements, upF.Elements, 1e-12) {
		t.Errorf("orientations differ: %v and %v", up.Elements, upF.Elements)
	}

	if _, err := (&Driver{NumAngles: 1, TopAt1: "maybe"}).LW(in); err == nil {
		t.Error("invalid TopAt1 should be an error")
	}
	delete(in.Data, "p_lay")
	if _, err := (&Driver{NumAngles: 1, TopAt1: "auto"}).LW(in); err == nil {
		t.Error("auto TopAt1 without p_lay should be an error")
	}
}

// reverseLayers reverses the second dimension of a.
func reverseLayers(a *sparse.DenseArray) {
	ncol, nz := a.Shape[0], a.Shape[1]
	n := len(a.Elements) / (ncol * nz)
	for icol := 0; icol < ncol; icol++ {
		col := a.Elements[icol*nz*n : (icol+1)*nz*n]
		for i, j := 0, nz-1; i < j; i, j = i+1, j-1 {
			for k := 0; k < n; k++ {
				col[i*n+k], col[j*n+k] = col[j*n+k], col[i*n+k]
			}
		}
	}
}

func TestSW(t *testing.T) {
	in := swCase(3)
	o, err := (&Driver{TopAt1: "auto"}).SW(in)
	if err != nil {
		t.Fatal(err)
	}
	dir, _ := o.Var("sw_flux_dn_dir")
	dn, _ := o.Var("sw_flux_dn")
	nlev := testLay + 1
	for icol := 0; icol < 3; icol++ {
		top := dir.Elements[icol*nlev]
		want := 180.0
		if icol == 1 {
			want = 0
		}
		if top != want {
			t.Errorf("column %d: direct flux at top %g; want %g", icol, top, want)
		}
		if dn.Elements[icol*nlev] != want {
			t.Errorf("column %d: total flux at top %g; want %g", icol, dn.Elements[icol*nlev], want)
		}
	}
	hr, _ := o.Var("sw_heating_rate")
	for i, v := range hr.Elements {
		if i/testLay == 1 {
			if v != 0 {
				t.Errorf("unlit heating rate %d = %g", i, v)
			}
		} else if !(v > 0) {
			t.Errorf("absorbing layers should be heated: %d = %g", i, v)
		}
	}

	scaled, err := (&Driver{TopAt1: "auto", DeltaScale: true}).SW(in)
	if err != nil {
		t.Fatal(err)
	}
	if scaled.Checksum() == o.Checksum() {
		t.Error("delta scaling should change the result")
	}

	mu0, _ := in.Var("mu0")
	mu0.Elements[0] = 1.5
	if _, err := (&Driver{TopAt1: "auto"}).SW(in); !errors.Is(err, rte.ErrDomainViolation) {
		t.Errorf("want domain violation, have %v", err)
	}
}

const testTableText = `
rh_upper = [0.0, 0.8]

[[band]]
wavenumbers = [10.0, 350.0]
mext_phobic = [1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0, 11.0]
ssa_phobic = [0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5]
g_phobic = [0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6]
mext_philic = [[1.0, 2.0, 3.0, 4.0, 5.0], [10.0, 20.0, 30.0, 40.0, 50.0]]
ssa_philic = [[0.9, 0.9, 0.9, 0.9, 0.9], [0.95, 0.95, 0.95, 0.95, 0.95]]
g_philic = [[0.7, 0.7, 0.7, 0.7, 0.7], [0.75, 0.75, 0.75, 0.75, 0.75]]

[[band]]
wavenumbers = [350.0, 500.0]
mext_phobic = [1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0, 11.0]
ssa_phobic = [0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5]
g_phobic = [0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6]
mext_philic = [[1.0, 2.0, 3.0, 4.0, 5.0], [10.0, 20.0, 30.0, 40.0, 50.0]]
ssa_philic = [[0.9, 0.9, 0.9, 0.9, 0.9], [0.95, 0.95, 0.95, 0.95, 0.95]]
g_philic = [[0.7, 0.7, 0.7, 0.7, 0.7], [0.75, 0.75, 0.75, 0.75, 0.75]]
`

// addAerosol adds aerosol inputs to in, with mass mixing ratio mmr
// of sulfate and none of the other species.
func addAerosol(in *rte.Dataset, ncol int, mmr float64) {
	lay := []string{"col", "lay"}
	for s := aerotable.Species(0); s < aerotable.NumSpecies; s++ {
		v := 0.0
		if s == aerotable.Sulfate {
			v = mmr
		}
		in.AddVariable(s.MixingRatioName(), lay, "", "kg/kg", field(constant(v), ncol, testLay))
	}
	in.AddVariable("rh", lay, "", "", field(constant(0.9), ncol, testLay))
	in.AddVariable("dpg", lay, "", "kg/m2", field(constant(3000), ncol, testLay))
}

func TestAerosol(t *testing.T) {
	dir, err := ioutil.TempDir("", "rteutil")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	table := filepath.Join(dir, "aerosol.toml")
	if err := ioutil.WriteFile(table, []byte(testTableText), 0644); err != nil {
		t.Fatal(err)
	}

	const ncol = 2
	clean := lwCase(ncol)
	want, err := (&Driver{NumAngles: 1, TopAt1: "auto"}).LW(clean)
	if err != nil {
		t.Fatal(err)
	}
	zero := lwCase(ncol)
	addAerosol(zero, ncol, 0)
	have, err := (&Driver{NumAngles: 1, TopAt1: "auto", AerosolTable: table}).LW(zero)
	if err != nil {
		t.Fatal(err)
	}
	if have.Checksum() != want.Checksum() {
		t.Error("zero aerosol should not change longwave fluxes")
	}

	sw := swCase(ncol)
	swClean, err := (&Driver{TopAt1: "auto"}).SW(sw)
	if err != nil {
		t.Fatal(err)
	}
	addAerosol(sw, ncol, 1e-8)
	swAer, err := (&Driver{TopAt1: "auto", AerosolTable: table}).SW(sw)
	if err != nil {
		t.Fatal(err)
	}
	d1, _ := swClean.Var("sw_flux_dn_dir")
	d2, _ := swAer.Var("sw_flux_dn_dir")
	sfc := testLay // surface level of column 0
	if !(d2.Elements[sfc] < d1.Elements[sfc]) {
		t.Errorf("aerosol should reduce direct flux at the surface: %g >= %g", d2.Elements[sfc], d1.Elements[sfc])
	}
	if d2.Elements[0] != d1.Elements[0] {
		t.Errorf("direct flux at the top should not change: %g != %g", d2.Elements[0], d1.Elements[0])
	}

	missing := lwCase(ncol)
	if _, err := (&Driver{NumAngles: 1, TopAt1: "auto", AerosolTable: table}).LW(missing); err == nil {
		t.Error("missing aerosol inputs should be an error")
	}
}

func TestPlot(t *testing.T) {
	o, err := (&Driver{NumAngles: 1, TopAt1: "auto"}).LW(lwCase(2))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := o.Plot(&b, 1); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b.Bytes(), []byte("\x89PNG")) {
		t.Error("plot is not a PNG image")
	}
	if err := o.Plot(&b, 2); !errors.Is(err, rte.ErrInvalidDimension) {
		t.Errorf("want invalid dimension, have %v", err)
	}
}

func TestEmptyCase(t *testing.T) {
	o, err := (&Driver{ColumnBlockSize: 4, NumAngles: 1, TopAt1: "true"}).LW(lwCase(0))
	if err != nil {
		t.Fatal(err)
	}
	up, _ := o.Var("lw_flux_up")
	if len(up.Elements) != 0 {
		t.Errorf("up = %v", up.Elements)
	}
	if s, err := o.Summary(); err != nil || s != (Summary{}) {
		t.Errorf("summary %+v, %v", s, err)
	}
}
