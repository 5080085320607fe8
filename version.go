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


// Package rte holds the containers and reductions shared by the
// radiative transfer solvers: optical properties of absorbing and
// scattering layers, longwave sources, and spectrally resolved flux
// output summed to broadband or band totals. All fields are
// github.com/ctessum/sparse arrays with the column dimension first.
// The solvers themselves are in the science subpackages.
package rte

// Version gives the version number.
const Version = "0.1.0"
