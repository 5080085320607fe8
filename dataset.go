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
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Variable is a named field with its netcdf dimensions.
type Variable struct {
	Dims        []string           // netcdf dimensions for this variable
	Description string             // variable description
	Units       string             // variable units
	Data        *sparse.DenseArray // variable data
}

// Dataset holds a set of fields read from or to be written to a
// netcdf file. Dimension orders follow the conventions of this package,
// with the slowest-varying dimension first.
type Dataset struct {
	// Comment is the global comment attribute.
	Comment string

	// Data is a map of variables, with the keys being the variable names.
	Data map[string]Variable
}

// AddVariable adds data for a new variable to d.
func (d *Dataset) AddVariable(name string, dims []string, description, units string, data *sparse.DenseArray) {
	if d.Data == nil {
		d.Data = make(map[string]Variable)
	}
	d.Data[name] = Variable{
		Dims:        dims,
		Description: description,
		Units:       units,
		Data:        data,
	}
}

// Var returns the data for the named variable.
func (d *Dataset) Var(name string) (*sparse.DenseArray, error) {
	v, ok := d.Data[name]
	if !ok {
		return nil, fmt.Errorf("rte: dataset is missing variable `%s`", name)
	}
	return v.Data, nil
}

// Has returns whether d holds the named variable.
func (d *Dataset) Has(name string) bool {
	_, ok := d.Data[name]
	return ok
}

// LoadDataset loads all variables from a netcdf file. Integer and
// single-precision variables are converted to float64.
func LoadDataset(rw cdf.ReaderWriterAt) (*Dataset, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("rte.LoadDataset: %v", err)
	}
	o := new(Dataset)
	if c, ok := f.Header.GetAttribute("", "comment").(string); ok {
		o.Comment = c
	}
	for _, v := range f.Header.Variables() {
		d := Variable{Dims: f.Header.Dimensions(v)}
		d.Description, _ = f.Header.GetAttribute(v, "description").(string)
		d.Units, _ = f.Header.GetAttribute(v, "units").(string)
		dims := f.Header.Lengths(v)
		d.Data = sparse.ZerosDense(dims...)
		n := len(d.Data.Elements)
		if n == 0 {
			o.AddVariable(v, d.Dims, d.Description, d.Units, d.Data)
			continue
		}
		r := f.Reader(v, nil, nil)
		buf := r.Zero(n)
		if _, err = r.Read(buf); err != nil {
			return nil, fmt.Errorf("rte.LoadDataset: reading %s: %v", v, err)
		}
		switch t := buf.(type) {
		case []float64:
			copy(d.Data.Elements, t)
		case []float32:
			for i, x := range t {
				d.Data.Elements[i] = float64(x)
			}
		case []int32:
			for i, x := range t {
				d.Data.Elements[i] = float64(x)
			}
		case []int16:
			for i, x := range t {
				d.Data.Elements[i] = float64(x)
			}
		default:
			return nil, fmt.Errorf("rte.LoadDataset: variable %s has unsupported type %T", v, buf)
		}
		o.AddVariable(v, d.Dims, d.Description, d.Units, d.Data)
	}
	return o, nil
}

// Write writes d to netcdf file w as double-precision variables.
func (d *Dataset) Write(w *os.File) error {
	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(d.Data))
	for n := range d.Data {
		names = append(names, n)
	}
	sort.Strings(names)

	dimLen := make(map[string]int)
	var dims []string
	for _, name := range names {
		dd := d.Data[name]
		if len(dd.Dims) != len(dd.Data.Shape) {
			return fmt.Errorf("rte: variable %s has %d dimension names but shape %v",
				name, len(dd.Dims), dd.Data.Shape)
		}
		for i, dim := range dd.Dims {
			l, ok := dimLen[dim]
			if !ok {
				dimLen[dim] = dd.Data.Shape[i]
				dims = append(dims, dim)
			} else if l != dd.Data.Shape[i] {
				return fmt.Errorf("rte: dimension %s has length %d in variable %s but %d elsewhere",
					dim, dd.Data.Shape[i], name, l)
			}
		}
	}
	lengths := make([]int, len(dims))
	for i, dim := range dims {
		lengths[i] = dimLen[dim]
	}

	h := cdf.NewHeader(dims, lengths)
	if d.Comment != "" {
		h.AddAttribute("", "comment", d.Comment)
	}
	for _, name := range names {
		dd := d.Data[name]
		h.AddVariable(name, dd.Dims, []float64{0})
		if dd.Description != "" {
			h.AddAttribute(name, "description", dd.Description)
		}
		if dd.Units != "" {
			h.AddAttribute(name, "units", dd.Units)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) != 0 {
		return fmt.Errorf("rte: invalid netcdf header: %v", errs)
	}

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, name := range names {
		if err = writeNCF(f, name, d.Data[name].Data); err != nil {
			return fmt.Errorf("rte: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	if len(data.Elements) == 0 {
		return nil
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data.Elements)
	return err
}
