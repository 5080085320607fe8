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

// BandLimits holds the first and last (inclusive, 0-based) spectral
// point of each band.
type BandLimits [][2]int

// NewBandLimits checks that lims describes contiguous, non-empty bands
// starting at spectral point 0 and returns it as a BandLimits.
func NewBandLimits(lims [][2]int) (BandLimits, error) {
	if len(lims) == 0 {
		return nil, Errorf(ErrInvalidDimension, "rte: band limits: no bands")
	}
	next := 0
	for i, l := range lims {
		if l[0] != next {
			return nil, Errorf(ErrShapeMismatch, "rte: band %d starts at spectral point %d; want %d", i, l[0], next)
		}
		if l[1] < l[0] {
			return nil, Errorf(ErrInvalidDimension, "rte: band %d is empty (%d-%d)", i, l[0], l[1])
		}
		next = l[1] + 1
	}
	return BandLimits(lims), nil
}

// NumBands returns the number of bands.
func (b BandLimits) NumBands() int { return len(b) }

// NumGpt returns the total number of spectral points.
func (b BandLimits) NumGpt() int {
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1][1] + 1
}

// GptToBand returns the band index of every spectral point.
func (b BandLimits) GptToBand() []int {
	o := make([]int, b.NumGpt())
	for ib, l := range b {
		for igpt := l[0]; igpt <= l[1]; igpt++ {
			o[igpt] = ib
		}
	}
	return o
}

// Equal returns whether b and b2 describe the same band structure.
func (b BandLimits) Equal(b2 BandLimits) bool {
	if len(b) != len(b2) {
		return false
	}
	for i := range b {
		if b[i] != b2[i] {
			return false
		}
	}
	return true
}

// Spectral describes a spectral discretization: the wavenumber range of
// each band and the spectral points (g-points) within each band.
// It is shared by all optical properties derived from the same
// discretization and must not be modified after it is created.
type Spectral struct {
	// BandLimsGpt holds the spectral point range of each band.
	BandLimsGpt BandLimits

	// BandLimsWvn holds the wavenumber range of each band [1/cm].
	// It may be nil when the wavenumbers are not known.
	BandLimsWvn [][2]float64
}

// NewSpectral creates a new spectral discretization. If bandLimsGpt is
// nil, each band holds exactly one spectral point, which is the
// band-resolved discretization used for aerosol and cloud optics.
func NewSpectral(bandLimsWvn [][2]float64, bandLimsGpt [][2]int) (*Spectral, error) {
	if bandLimsGpt == nil {
		if len(bandLimsWvn) == 0 {
			return nil, Errorf(ErrInvalidDimension, "rte: spectral: no bands")
		}
		bandLimsGpt = make([][2]int, len(bandLimsWvn))
		for i := range bandLimsGpt {
			bandLimsGpt[i] = [2]int{i, i}
		}
	}
	b, err := NewBandLimits(bandLimsGpt)
	if err != nil {
		return nil, err
	}
	if bandLimsWvn != nil && len(bandLimsWvn) != len(b) {
		return nil, Errorf(ErrShapeMismatch, "rte: %d wavenumber bands but %d g-point bands",
			len(bandLimsWvn), len(b))
	}
	return &Spectral{BandLimsGpt: b, BandLimsWvn: bandLimsWvn}, nil
}

// NumBands returns the number of bands.
func (s *Spectral) NumBands() int { return s.BandLimsGpt.NumBands() }

// NumGpt returns the number of spectral points.
func (s *Spectral) NumGpt() int { return s.BandLimsGpt.NumGpt() }

// SameBands returns whether s and s2 have the same band structure.
// Wavenumber limits are only compared when both are known.
func (s *Spectral) SameBands(s2 *Spectral) bool {
	if s == s2 {
		return true
	}
	if !s.BandLimsGpt.Equal(s2.BandLimsGpt) {
		return false
	}
	return sameWavenumbers(s.BandLimsWvn, s2.BandLimsWvn)
}

// ByBand returns whether s2 is the band-resolved counterpart of s: it has
// one spectral point for each band of s.
func (s *Spectral) ByBand(s2 *Spectral) bool {
	if s2.NumGpt() != s.NumBands() || s2.NumBands() != s.NumBands() {
		return false
	}
	return sameWavenumbers(s.BandLimsWvn, s2.BandLimsWvn)
}

func sameWavenumbers(a, b [][2]float64) bool {
	if a == nil || b == nil {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
