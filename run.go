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
	"runtime"
	"sync"
	"time"
)

// ColumnManipulator is a function that operates on a single column.
// It must only write to the parts of its outputs that belong to
// column icol.
type ColumnManipulator func(icol int)

// Calculations concurrently runs a series of calculations on
// columns [0, ncol). Each goroutine handles a fixed stride of columns,
// so the result does not depend on the number of processors.
func Calculations(ncol int, calculators ...ColumnManipulator) {
	nprocs := runtime.GOMAXPROCS(0) // number of processors
	if nprocs > ncol {
		nprocs = ncol
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for icol := pp; icol < ncol; icol += nprocs {
				for _, f := range calculators {
					f(icol)
				}
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()
}

// Hook receives instrumentation from solvers. It is optional: solvers
// do nothing with a nil Hook.
type Hook interface {
	// KernelDone is called after the named kernel has finished
	// processing ncol columns.
	KernelDone(name string, ncol int, elapsed time.Duration)
}

// Timed runs f and reports its duration to h, if h is not nil.
func Timed(h Hook, name string, ncol int, f func() error) error {
	if h == nil {
		return f()
	}
	start := time.Now()
	err := f()
	h.KernelDone(name, ncol, time.Since(start))
	return err
}
