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
	"math"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rte"
	"github.com/spatialmodel/rte/science/longwave/noscat"
	"github.com/spatialmodel/rte/science/shortwave/twostream"
	"github.com/spf13/cast"
)

// Driver runs radiative transfer calculations on cases held in
// datasets, processing the columns in blocks.
type Driver struct {
	// ColumnBlockSize is the number of columns solved at a time.
	// Results do not depend on it.
	ColumnBlockSize int

	// NumAngles is the number of longwave quadrature angles.
	NumAngles int

	// TopAt1 is "true" if level 0 is the top of the domain, "false" if
	// it is the surface, or "auto" to decide from layer pressure p_lay.
	TopAt1 string

	// Byband specifies whether to also output fluxes summed within
	// each band.
	Byband bool

	// Jacobian specifies whether to calculate the derivative of longwave
	// upward flux with respect to surface temperature.
	Jacobian bool

	// DeltaScale specifies whether to apply delta-Eddington scaling
	// to shortwave optical properties before solving.
	DeltaScale bool

	// AerosolTable is the path to an aerosol optics table in netcdf or
	// TOML format. If it is not empty, aerosol optical properties are
	// calculated from the aermr01 through aermr11, rh and dpg variables
	// of the case and added to the gas optical properties.
	AerosolTable string

	// Log receives progress messages. If it is nil the standard
	// logger is used.
	Log logrus.FieldLogger
}

func (d *Driver) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

func (d *Driver) blockSize(ncol int) (int, error) {
	switch {
	case d.ColumnBlockSize < 0:
		return 0, rte.Errorf(rte.ErrInvalidDimension, "rteutil: column block size %d", d.ColumnBlockSize)
	case d.ColumnBlockSize == 0 || d.ColumnBlockSize > ncol:
		return ncol, nil
	}
	return d.ColumnBlockSize, nil
}

// topAt1 returns whether level 0 is the top of the domain.
func (d *Driver) topAt1(in *rte.Dataset, ncol, nlay int) (bool, error) {
	if d.TopAt1 != "" && d.TopAt1 != "auto" {
		t, err := cast.ToBoolE(d.TopAt1)
		if err != nil {
			return false, fmt.Errorf("rteutil: TopAt1 must be true, false or auto: %v", err)
		}
		return t, nil
	}
	pLay, err := readVar(in, "p_lay", ncol, nlay)
	if err != nil {
		return false, fmt.Errorf("rteutil: TopAt1 is auto: %w", err)
	}
	if nlay == 0 {
		return true, nil
	}
	return pLay.Elements[0] < pLay.Elements[nlay-1], nil
}

// readVar returns the named variable after checking its shape.
func readVar(in *rte.Dataset, name string, shape ...int) (*sparse.DenseArray, error) {
	a, err := in.Var(name)
	if err != nil {
		return nil, err
	}
	if err := rte.CheckShape(name, a, shape...); err != nil {
		return nil, err
	}
	return a, nil
}

// readOptional is like readVar but returns nil if the variable
// is not present.
func readOptional(in *rte.Dataset, name string, shape ...int) (*sparse.DenseArray, error) {
	if !in.Has(name) {
		return nil, nil
	}
	return readVar(in, name, shape...)
}

// caseSpectral reads the spectral discretization from variables
// band_lims_gpt, with zero-based inclusive limits, and the optional
// band_lims_wvn, both with dimensions (band, 2).
func caseSpectral(in *rte.Dataset) (*rte.Spectral, error) {
	g, err := in.Var("band_lims_gpt")
	if err != nil {
		return nil, err
	}
	if len(g.Shape) != 2 || g.Shape[1] != 2 {
		return nil, rte.Errorf(rte.ErrShapeMismatch, "rteutil: band_lims_gpt has shape %v; want (band, 2)", g.Shape)
	}
	nband := g.Shape[0]
	gpt := make([][2]int, nband)
	for i := range gpt {
		lo, hi := g.Elements[2*i], g.Elements[2*i+1]
		if lo != math.Trunc(lo) || hi != math.Trunc(hi) {
			return nil, rte.Errorf(rte.ErrDomainViolation, "rteutil: band_lims_gpt[%d] = (%g, %g) is not integer", i, lo, hi)
		}
		gpt[i] = [2]int{int(lo), int(hi)}
	}
	var wvn [][2]float64
	w, err := readOptional(in, "band_lims_wvn", nband, 2)
	if err != nil {
		return nil, err
	}
	if w != nil {
		wvn = make([][2]float64, nband)
		for i := range wvn {
			wvn[i] = [2]float64{w.Elements[2*i], w.Elements[2*i+1]}
		}
	}
	return rte.NewSpectral(wvn, gpt)
}

// caseDims reads the spectral discretization and the number of columns
// and layers from optical depth variable tau (column, layer, gpt).
func caseDims(in *rte.Dataset) (s *rte.Spectral, tau *sparse.DenseArray, ncol, nlay int, err error) {
	if s, err = caseSpectral(in); err != nil {
		return
	}
	if tau, err = in.Var("tau"); err != nil {
		return
	}
	if len(tau.Shape) != 3 {
		err = rte.Errorf(rte.ErrShapeMismatch, "rteutil: tau has shape %v; want (column, layer, gpt)", tau.Shape)
		return
	}
	ncol, nlay = tau.Shape[0], tau.Shape[1]
	err = rte.CheckShape("tau", tau, ncol, nlay, s.NumGpt())
	return
}

// destination is a case variable and the field it is copied into.
type destination struct {
	name string
	a    *sparse.DenseArray
}

// fill copies the named variables into the corresponding destinations,
// in order.
func fill(in *rte.Dataset, dst ...destination) error {
	for _, d := range dst {
		v, err := readVar(in, d.name, d.a.Shape...)
		if err != nil {
			return err
		}
		copy(d.a.Elements, v.Elements)
	}
	return nil
}

// LW calculates longwave fluxes for the case in in, which must hold
// variables tau, lay_src, lev_src_inc and lev_src_dec (column, layer, gpt),
// sfc_src and sfc_src_jac (column, gpt), emis_sfc (column, band) and
// band_lims_gpt (band, 2). Variables inc_flux (column, gpt),
// band_lims_wvn (band, 2), p_lay (column, layer) and
// p_lev (column, level) are optional.
func (d *Driver) LW(in *rte.Dataset) (*Output, error) {
	s, tau, ncol, nlay, err := caseDims(in)
	if err != nil {
		return nil, fmt.Errorf("rteutil: longwave: %w", err)
	}
	ngpt, nband := s.NumGpt(), s.NumBands()
	op, err := rte.NewOpticalProps1Scl(ncol, nlay, s)
	if err != nil {
		return nil, err
	}
	copy(op.Tau.Elements, tau.Elements)
	src, err := rte.NewSourceFuncLW(ncol, nlay, op)
	if err != nil {
		return nil, err
	}
	if err := fill(in,
		destination{"lay_src", src.LaySource},
		destination{"lev_src_inc", src.LevSourceInc},
		destination{"lev_src_dec", src.LevSourceDec},
		destination{"sfc_src", src.SfcSource},
		destination{"sfc_src_jac", src.SfcSourceJac},
	); err != nil {
		return nil, fmt.Errorf("rteutil: longwave: %w", err)
	}
	emis, err := readVar(in, "emis_sfc", ncol, nband)
	if err != nil {
		return nil, fmt.Errorf("rteutil: longwave: %w", err)
	}
	incFlux, err := readOptional(in, "inc_flux", ncol, ngpt)
	if err != nil {
		return nil, fmt.Errorf("rteutil: longwave: %w", err)
	}
	topAt1, err := d.topAt1(in, ncol, nlay)
	if err != nil {
		return nil, err
	}
	aer, err := d.aerosolOptics(in, s, ncol, nlay)
	if err != nil {
		return nil, err
	}
	if aer != nil {
		if err := op.IncrementByBand(aer); err != nil {
			return nil, fmt.Errorf("rteutil: longwave: adding aerosol: %w", err)
		}
	}

	q, err := noscat.GaussQuadrature(d.NumAngles)
	if err != nil {
		return nil, err
	}
	solver := &noscat.Solver{NAngles: d.NumAngles, Quadrature: q, TopAt1: topAt1, Hook: logHook{d.log()}}
	res := newResults(ncol, nlay+1, s, d.Byband, false, d.Jacobian)
	err = d.blocks(ncol, func(start, end int) error {
		opB, err := op.Subset(start, end)
		if err != nil {
			return err
		}
		srcB, err := src.Subset(start, end)
		if err != nil {
			return err
		}
		emisB, err := rte.SubsetColumns(emis, start, end)
		if err != nil {
			return err
		}
		var incB *sparse.DenseArray
		if incFlux != nil {
			if incB, err = rte.SubsetColumns(incFlux, start, end); err != nil {
				return err
			}
		}
		out := rte.NewSpectralFluxes(end-start, nlay+1, ngpt, !d.Byband)
		if d.Jacobian {
			out.AddJacobian()
		}
		if err := solver.Solve(opB, srcB, emisB, incB, out); err != nil {
			return err
		}
		return res.insert(out, start)
	})
	if err != nil {
		return nil, fmt.Errorf("rteutil: longwave: %w", err)
	}
	return res.output("lw", topAt1, in)
}

// SW calculates shortwave fluxes for the case in in, which must hold
// variables tau, ssa and g (column, layer, gpt), mu0 (column),
// sfc_alb_dir and sfc_alb_dif (column, band), inc_flux_dir (column, gpt)
// and band_lims_gpt (band, 2). Variables inc_flux_dif (column, gpt),
// band_lims_wvn (band, 2), p_lay (column, layer) and
// p_lev (column, level) are optional.
func (d *Driver) SW(in *rte.Dataset) (*Output, error) {
	s, tau, ncol, nlay, err := caseDims(in)
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	ngpt, nband := s.NumGpt(), s.NumBands()
	op, err := rte.NewOpticalProps2Str(ncol, nlay, s)
	if err != nil {
		return nil, err
	}
	copy(op.Tau.Elements, tau.Elements)
	if err := fill(in, destination{"ssa", op.SSA}, destination{"g", op.G}); err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	mu0, err := readVar(in, "mu0", ncol)
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	albDir, err := readVar(in, "sfc_alb_dir", ncol, nband)
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	albDif, err := readVar(in, "sfc_alb_dif", ncol, nband)
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	incDir, err := readVar(in, "inc_flux_dir", ncol, ngpt)
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	incDif, err := readOptional(in, "inc_flux_dif", ncol, ngpt)
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	topAt1, err := d.topAt1(in, ncol, nlay)
	if err != nil {
		return nil, err
	}
	aer, err := d.aerosolOptics(in, s, ncol, nlay)
	if err != nil {
		return nil, err
	}
	if aer != nil {
		if err := op.IncrementByBand(aer); err != nil {
			return nil, fmt.Errorf("rteutil: shortwave: adding aerosol: %w", err)
		}
	}
	if d.DeltaScale {
		op.DeltaScale()
	}

	solver := &twostream.Solver{TopAt1: topAt1, Hook: logHook{d.log()}}
	res := newResults(ncol, nlay+1, s, d.Byband, true, false)
	err = d.blocks(ncol, func(start, end int) error {
		opB, err := op.Subset(start, end)
		if err != nil {
			return err
		}
		var sub [5]*sparse.DenseArray
		for i, a := range []*sparse.DenseArray{mu0, albDir, albDif, incDir, incDif} {
			if a == nil {
				continue
			}
			if sub[i], err = rte.SubsetColumns(a, start, end); err != nil {
				return err
			}
		}
		out := rte.NewSpectralFluxes(end-start, nlay+1, ngpt, !d.Byband).AddDirect()
		if err := solver.Solve(opB, sub[0], sub[1], sub[2], sub[3], sub[4], out); err != nil {
			return err
		}
		return res.insert(out, start)
	})
	if err != nil {
		return nil, fmt.Errorf("rteutil: shortwave: %w", err)
	}
	return res.output("sw", topAt1, in)
}

// blocks calls f for consecutive column ranges [start, end).
func (d *Driver) blocks(ncol int, f func(start, end int) error) error {
	blk, err := d.blockSize(ncol)
	if err != nil {
		return err
	}
	for start := 0; start < ncol; start += blk {
		end := start + blk
		if end > ncol {
			end = ncol
		}
		if err := f(start, end); err != nil {
			return fmt.Errorf("columns [%d, %d): %w", start, end, err)
		}
		d.log().WithFields(logrus.Fields{
			"start": start,
			"end":   end,
			"ncol":  ncol,
		}).Debug("solved column block")
	}
	return nil
}
