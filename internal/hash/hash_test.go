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


package hash

import "testing"

func TestHash(t *testing.T) {
	a := [][]float64{{1, 2, 3}, {4}}
	b := [][]float64{{1, 2, 3}, {4}}
	c := [][]float64{{1, 2, 3}, {4.000000000000001}}
	if Hash(a) != Hash(b) {
		t.Error("equal values should have equal hashes")
	}
	if Hash(a) == Hash(c) {
		t.Error("different values should have different hashes")
	}
	if len(Hash(a)) != 32 {
		t.Errorf("hash %s should have 32 hex digits", Hash(a))
	}
}

func TestHashUnencodable(t *testing.T) {
	// gob cannot encode structs without exported fields.
	type private struct {
		x int
	}
	if Hash(private{x: 1}) == Hash(private{x: 2}) {
		t.Error("different values should have different hashes")
	}
	if Hash(private{x: 1}) != Hash(private{x: 1}) {
		t.Error("equal values should have equal hashes")
	}
}
