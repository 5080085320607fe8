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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rte"
	"github.com/spatialmodel/rte/science/aerosol/aerotable"
)

// tableCache holds aerosol tables that have already been loaded,
// keyed by file path.
var tableCache = requestcache.NewCache(loadTable, runtime.GOMAXPROCS(-1),
	requestcache.Deduplicate(), requestcache.Memory(10))

// loadTable loads the aerosol table at the file path given by request.
// Files ending in ".toml" are decoded as TOML; others are read as netcdf.
func loadTable(ctx context.Context, request interface{}) (interface{}, error) {
	path := request.(string)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rteutil: opening aerosol table: %v", err)
	}
	defer f.Close()
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return aerotable.DecodeTable(f)
	}
	return aerotable.LoadTable(f)
}

// aerosolTable returns the aerosol table specified in d.
func (d *Driver) aerosolTable() (*aerotable.Table, error) {
	path := os.ExpandEnv(d.AerosolTable)
	r := tableCache.NewRequest(context.Background(), path, path)
	t, err := r.Result()
	if err != nil {
		return nil, err
	}
	return t.(*aerotable.Table), nil
}

// aerosolOptics calculates band-resolved aerosol optical properties for
// the case in in, whose gas optics have spectral discretization s. It
// returns nil if no aerosol table is specified.
func (d *Driver) aerosolOptics(in *rte.Dataset, s *rte.Spectral, ncol, nlay int) (*rte.OpticalProps2Str, error) {
	if d.AerosolTable == "" {
		return nil, nil
	}
	t, err := d.aerosolTable()
	if err != nil {
		return nil, err
	}
	var mmr aerotable.MixingRatios
	for i := range mmr {
		if mmr[i], err = readVar(in, aerotable.Species(i).MixingRatioName(), ncol, nlay); err != nil {
			return nil, fmt.Errorf("rteutil: aerosol: %w", err)
		}
	}
	rh, err := readVar(in, "rh", ncol, nlay)
	if err != nil {
		return nil, fmt.Errorf("rteutil: aerosol: %w", err)
	}
	dpg, err := readVar(in, "dpg", ncol, nlay)
	if err != nil {
		return nil, fmt.Errorf("rteutil: aerosol: %w", err)
	}
	wvn := s.BandLimsWvn
	if wvn == nil {
		wvn = t.Spectral.BandLimsWvn
	}
	bands, err := rte.NewSpectral(wvn, nil)
	if err != nil {
		return nil, err
	}
	aer, err := rte.NewOpticalProps2Str(ncol, nlay, bands)
	if err != nil {
		return nil, err
	}
	if err := t.Optics(mmr, rh, dpg, aer); err != nil {
		return nil, fmt.Errorf("rteutil: aerosol: %w", err)
	}
	d.log().WithFields(logrus.Fields{
		"table": d.AerosolTable,
		"bands": bands.NumBands(),
	}).Info("calculated aerosol optical properties")
	return aer, nil
}
