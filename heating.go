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

package rte

import (
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

const (
	gravity = 9.80665 // m/s2
	cpDryAir = 1004.64 // J/kg/K
)

// heatingFactor converts a net flux difference [W/m2] across a pressure
// difference [Pa] into a temperature tendency [K/s].
var heatingFactor = func() float64 {
	g := unit.New(gravity, unit.MeterPerSecond2)
	cp := unit.Div(unit.New(cpDryAir, unit.Joule), unit.New(1, unit.Kilogram), unit.New(1, unit.Kelvin))
	flux := unit.Div(unit.New(1, unit.Watt), unit.New(1, unit.Meter2))
	f := unit.Mul(unit.Div(g, cp), unit.Div(flux, unit.New(1, unit.Pascal)))
	if err := f.Check(unit.Dimensions{unit.TemperatureDim: 1, unit.TimeDim: -1}); err != nil {
		panic(err)
	}
	return f.Value()
}()

// HeatingRates calculates the radiative heating rate [K/s] of each layer
// from net (down minus up) flux [W/m2] and level pressure [Pa], both with
// dimensions (column, level). The result has dimensions (column, layer).
// The result does not depend on whether level 0 is at the top or the
// bottom of the domain.
func HeatingRates(net, pLev *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(net.Shape) != 2 {
		return nil, Errorf(ErrShapeMismatch, "rte: heating rates: net flux has shape %v", net.Shape)
	}
	if err := CheckShape("p_lev", pLev, net.Shape...); err != nil {
		return nil, err
	}
	ncol, nlev := net.Shape[0], net.Shape[1]
	if nlev < 2 {
		return nil, Errorf(ErrInvalidDimension, "rte: heating rates: %d levels", nlev)
	}
	nlay := nlev - 1
	o := sparse.ZerosDense(ncol, nlay)
	for icol := 0; icol < ncol; icol++ {
		n, p := Column(net, icol), Column(pLev, icol)
		hr := Column(o, icol)
		for ilay := 0; ilay < nlay; ilay++ {
			dp := p[ilay+1] - p[ilay]
			if dp == 0 {
				return nil, Errorf(ErrDomainViolation, "rte: heating rates: column %d layer %d has zero thickness", icol, ilay)
			}
			hr[ilay] = -heatingFactor * (n[ilay+1] - n[ilay]) / dp
		}
	}
	return o, nil
}
