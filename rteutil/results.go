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
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
)

// results collects reduced fluxes for all columns of a case.
type results struct {
	s      *rte.Spectral
	byband bool

	up, dn, net, dnDir, upJac   *sparse.DenseArray // (column, level)
	bndUp, bndDn, bndNet, bndDir *sparse.DenseArray // (column, level, band)
}

func newResults(ncol, nlev int, s *rte.Spectral, byband, direct, jacobian bool) *results {
	r := &results{
		s:      s,
		byband: byband,
		up:     sparse.ZerosDense(ncol, nlev),
		dn:     sparse.ZerosDense(ncol, nlev),
		net:    sparse.ZerosDense(ncol, nlev),
	}
	if direct {
		r.dnDir = sparse.ZerosDense(ncol, nlev)
	}
	if jacobian {
		r.upJac = sparse.ZerosDense(ncol, nlev)
	}
	if byband {
		nband := s.NumBands()
		r.bndUp = sparse.ZerosDense(ncol, nlev, nband)
		r.bndDn = sparse.ZerosDense(ncol, nlev, nband)
		r.bndNet = sparse.ZerosDense(ncol, nlev, nband)
		if direct {
			r.bndDir = sparse.ZerosDense(ncol, nlev, nband)
		}
	}
	return r
}

// insert reduces the solver output for the block of columns starting at
// column start and stores it.
func (r *results) insert(f *rte.SpectralFluxes, start int) error {
	var bb *rte.FluxesBroadband
	var bnd *rte.FluxesByband
	var red rte.FluxReducer
	if r.byband {
		bnd = new(rte.FluxesByband)
		bb, red = &bnd.FluxesBroadband, bnd
	} else {
		bb = new(rte.FluxesBroadband)
		red = bb
	}
	if err := red.Reduce(f, r.s); err != nil {
		return err
	}
	pairs := [][2]*sparse.DenseArray{
		{r.up, bb.Up}, {r.dn, bb.Dn}, {r.net, bb.Net}, {r.dnDir, bb.DnDir}, {r.upJac, bb.UpJac},
	}
	if bnd != nil {
		pairs = append(pairs, [][2]*sparse.DenseArray{
			{r.bndUp, bnd.BndUp}, {r.bndDn, bnd.BndDn}, {r.bndNet, bnd.BndNet}, {r.bndDir, bnd.BndDnDir},
		}...)
	}
	for _, p := range pairs {
		if p[0] == nil {
			continue
		}
		if p[1] == nil {
			return fmt.Errorf("rteutil: solver output is missing a field")
		}
		if err := rte.InsertColumns(p[0], p[1], start); err != nil {
			return err
		}
	}
	return nil
}

// output returns the results as variables with names starting with
// prefix. Heating rates are included if in holds level pressure p_lev.
func (r *results) output(prefix string, topAt1 bool, in *rte.Dataset) (*Output, error) {
	o := &Output{Dataset: new(rte.Dataset), Prefix: prefix, TopAt1: topAt1}
	o.Comment = fmt.Sprintf("rte v%s %s fluxes", rte.Version, prefix)
	lev := []string{"col", "lev"}
	bnd := []string{"col", "lev", "band"}
	o.AddVariable(prefix+"_flux_up", lev, "Upward flux", "W/m2", r.up)
	o.AddVariable(prefix+"_flux_dn", lev, "Downward flux", "W/m2", r.dn)
	o.AddVariable(prefix+"_flux_net", lev, "Net (downward minus upward) flux", "W/m2", r.net)
	if r.dnDir != nil {
		o.AddVariable(prefix+"_flux_dn_dir", lev, "Downward direct-beam flux", "W/m2", r.dnDir)
	}
	if r.upJac != nil {
		o.AddVariable(prefix+"_flux_up_jac", lev, "Derivative of upward flux with respect to surface temperature", "W/m2/K", r.upJac)
	}
	if r.byband {
		o.AddVariable(prefix+"_bnd_flux_up", bnd, "Upward flux in each band", "W/m2", r.bndUp)
		o.AddVariable(prefix+"_bnd_flux_dn", bnd, "Downward flux in each band", "W/m2", r.bndDn)
		o.AddVariable(prefix+"_bnd_flux_net", bnd, "Net flux in each band", "W/m2", r.bndNet)
		if r.bndDir != nil {
			o.AddVariable(prefix+"_bnd_flux_dn_dir", bnd, "Downward direct-beam flux in each band", "W/m2", r.bndDir)
		}
	}
	if in.Has("p_lev") {
		pLev, err := readVar(in, "p_lev", r.net.Shape...)
		if err != nil {
			return nil, fmt.Errorf("rteutil: %w", err)
		}
		hr, err := rte.HeatingRates(r.net, pLev)
		if err != nil {
			return nil, fmt.Errorf("rteutil: %w", err)
		}
		o.AddVariable(prefix+"_heating_rate", []string{"col", "lay"}, "Radiative heating rate", "K/s", hr)
	}
	return o, nil
}
