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
	"io"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rte"
	"github.com/spatialmodel/rte/internal/hash"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Output holds the results of a calculation.
type Output struct {
	*rte.Dataset

	// Prefix is the prefix of the flux variable names, "lw" or "sw".
	Prefix string

	// TopAt1 is whether level 0 is the top of the domain.
	TopAt1 bool
}

// Summary holds statistics of net flux at the top of the domain
// across columns.
type Summary struct {
	TOANetMean, TOANetMin, TOANetMax float64
}

// Summary calculates statistics of the net flux at the top of the domain.
func (o *Output) Summary() (Summary, error) {
	net, err := o.Var(o.Prefix + "_flux_net")
	if err != nil {
		return Summary{}, err
	}
	ncol, nlev := net.Shape[0], net.Shape[1]
	if ncol == 0 || nlev == 0 {
		return Summary{}, nil
	}
	top := 0
	if !o.TopAt1 {
		top = nlev - 1
	}
	toa := make([]float64, ncol)
	for i := range toa {
		toa[i] = net.Elements[i*nlev+top]
	}
	return Summary{
		TOANetMean: stats.StatsMean(toa),
		TOANetMin:  stats.StatsMin(toa),
		TOANetMax:  stats.StatsMax(toa),
	}, nil
}

// Checksum returns a hash of all output values, which can be used to
// check that runs with different settings give identical results.
func (o *Output) Checksum() string {
	names := make([]string, 0, len(o.Data))
	for name := range o.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	data := make([][]float64, len(names))
	for i, name := range names {
		data[i] = o.Data[name].Data.Elements
	}
	return hash.Hash(data)
}

// Plot draws the vertical profile of broadband upward, downward and
// net flux in column icol and writes it to w in PNG format.
func (o *Output) Plot(w io.Writer, icol int) error {
	var vars [3]*sparse.DenseArray
	for i, name := range []string{"_flux_up", "_flux_dn", "_flux_net"} {
		v, err := o.Var(o.Prefix + name)
		if err != nil {
			return err
		}
		vars[i] = v
	}
	ncol, nlev := vars[0].Shape[0], vars[0].Shape[1]
	if icol < 0 || icol >= ncol {
		return rte.Errorf(rte.ErrInvalidDimension, "rteutil: plot column %d is outside of [0, %d)", icol, ncol)
	}
	profile := func(a *sparse.DenseArray) plotter.XYs {
		col := rte.Column(a, icol)
		xy := make(plotter.XYs, nlev)
		for ilev, v := range col {
			h := ilev
			if o.TopAt1 {
				h = nlev - 1 - ilev
			}
			xy[ilev].X = v
			xy[ilev].Y = float64(h)
		}
		return xy
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("%s flux profile\nin column %d", o.Prefix, icol)
	p.X.Label.Text = "Flux (W/m²)"
	p.Y.Label.Text = "Level above surface"
	err = plotutil.AddLinePoints(p,
		"up", profile(vars[0]),
		"down", profile(vars[1]),
		"net", profile(vars[2]))
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(4*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
