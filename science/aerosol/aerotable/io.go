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
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
)

// LoadTable reads a table from a netcdf file with variables
// band_lims_wvn (band, pair), rh_upper (rh),
// mext_phobic, ssa_phobic and g_phobic (band, species_phobic), and
// mext_philic, ssa_philic and g_philic (band, rh, species_philic).
func LoadTable(rw cdf.ReaderWriterAt) (*Table, error) {
	d, err := rte.LoadDataset(rw)
	if err != nil {
		return nil, fmt.Errorf("aerotable: %v", err)
	}
	vars := make(map[string]*sparse.DenseArray)
	for _, name := range []string{"band_lims_wvn", "rh_upper", "mext_phobic", "ssa_phobic", "g_phobic",
		"mext_philic", "ssa_philic", "g_philic"} {
		if vars[name], err = d.Var(name); err != nil {
			return nil, fmt.Errorf("aerotable: %v", err)
		}
	}
	wvn := vars["band_lims_wvn"]
	if len(wvn.Shape) != 2 || wvn.Shape[1] != 2 {
		return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: band_lims_wvn has shape %v; want (band, 2)", wvn.Shape)
	}
	bandLims := make([][2]float64, wvn.Shape[0])
	for i := range bandLims {
		bandLims[i] = [2]float64{wvn.Elements[2*i], wvn.Elements[2*i+1]}
	}
	return NewTable(bandLims, vars["rh_upper"].Elements,
		vars["mext_phobic"], vars["ssa_phobic"], vars["g_phobic"],
		vars["mext_philic"], vars["ssa_philic"], vars["g_philic"])
}

// tomlTable is the TOML representation of a table. Each band holds
// per-species hydrophobic values and per-humidity-bin, per-species
// hydrophilic values.
type tomlTable struct {
	RHUpper []float64 `toml:"rh_upper"`
	Bands   []struct {
		Wavenumbers []float64   `toml:"wavenumbers"`
		MextPhobic  []float64   `toml:"mext_phobic"`
		SSAPhobic   []float64   `toml:"ssa_phobic"`
		GPhobic     []float64   `toml:"g_phobic"`
		MextPhilic  [][]float64 `toml:"mext_philic"`
		SSAPhilic   [][]float64 `toml:"ssa_philic"`
		GPhilic     [][]float64 `toml:"g_philic"`
	} `toml:"band"`
}

// DecodeTable reads a table in TOML format, for example:
//
//	rh_upper = [0.0, 0.5, 0.8]
//
//	[[band]]
//	wavenumbers = [10.0, 350.0]
//	mext_phobic = [...] # one value per hydrophobic species
//	mext_philic = [[...], ...] # one row per humidity bin
//	...
func DecodeTable(r io.Reader) (*Table, error) {
	var tt tomlTable
	if _, err := toml.DecodeReader(r, &tt); err != nil {
		return nil, fmt.Errorf("aerotable: decoding table: %v", err)
	}
	nband, nrh := len(tt.Bands), len(tt.RHUpper)
	if nband == 0 {
		return nil, rte.Errorf(rte.ErrInvalidDimension, "aerotable: table has no bands")
	}
	nphobic := len(tt.Bands[0].MextPhobic)
	var nphilic int
	if len(tt.Bands[0].MextPhilic) > 0 {
		nphilic = len(tt.Bands[0].MextPhilic[0])
	}
	bandLims := make([][2]float64, nband)
	phobic := [3]*sparse.DenseArray{}
	philic := [3]*sparse.DenseArray{}
	for i := range phobic {
		phobic[i] = sparse.ZerosDense(nband, nphobic)
		philic[i] = sparse.ZerosDense(nband, nrh, nphilic)
	}
	for ib, b := range tt.Bands {
		if len(b.Wavenumbers) != 2 {
			return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: band %d has %d wavenumber limits", ib, len(b.Wavenumbers))
		}
		bandLims[ib] = [2]float64{b.Wavenumbers[0], b.Wavenumbers[1]}
		for i, v := range [][]float64{b.MextPhobic, b.SSAPhobic, b.GPhobic} {
			if len(v) != nphobic {
				return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: band %d has %d hydrophobic values; want %d", ib, len(v), nphobic)
			}
			copy(phobic[i].Elements[ib*nphobic:], v)
		}
		for i, v := range [][][]float64{b.MextPhilic, b.SSAPhilic, b.GPhilic} {
			if len(v) != nrh {
				return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: band %d has %d humidity bins; want %d", ib, len(v), nrh)
			}
			for irh, row := range v {
				if len(row) != nphilic {
					return nil, rte.Errorf(rte.ErrShapeMismatch, "aerotable: band %d bin %d has %d hydrophilic values; want %d",
						ib, irh, len(row), nphilic)
				}
				copy(philic[i].Elements[(ib*nrh+irh)*nphilic:], row)
			}
		}
	}
	return NewTable(bandLims, tt.RHUpper, phobic[0], phobic[1], phobic[2], philic[0], philic[1], philic[2])
}

// Dataset returns the table as a dataset that can be written to a
// netcdf file and read with LoadTable.
func (t *Table) Dataset() *rte.Dataset {
	d := &rte.Dataset{Comment: "aerosol optics lookup table"}
	nband := t.Spectral.NumBands()
	wvn := sparse.ZerosDense(nband, 2)
	for i, l := range t.Spectral.BandLimsWvn {
		wvn.Elements[2*i], wvn.Elements[2*i+1] = l[0], l[1]
	}
	rh := sparse.ZerosDense(len(t.RHUpper))
	copy(rh.Elements, t.RHUpper)
	d.AddVariable("band_lims_wvn", []string{"band", "pair"}, "Wavenumber limits of each band", "1/cm", wvn)
	d.AddVariable("rh_upper", []string{"rh"}, "Upper relative humidity bound of each bin", "fraction", rh)
	phobic := []string{"band", "species_phobic"}
	philic := []string{"band", "rh", "species_philic"}
	d.AddVariable("mext_phobic", phobic, "Mass extinction coefficient", "m2/kg", t.MextPhobic)
	d.AddVariable("ssa_phobic", phobic, "Single-scattering albedo", "-", t.SSAPhobic)
	d.AddVariable("g_phobic", phobic, "Asymmetry factor", "-", t.GPhobic)
	d.AddVariable("mext_philic", philic, "Mass extinction coefficient", "m2/kg", t.MextPhilic)
	d.AddVariable("ssa_philic", philic, "Single-scattering albedo", "-", t.SSAPhilic)
	d.AddVariable("g_philic", philic, "Asymmetry factor", "-", t.GPhilic)
	return d
}
