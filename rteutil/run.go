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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rte"
	"github.com/spf13/cast"
)

// DriverConfig creates a driver from the configuration information in cfg.
func DriverConfig(cfg *viper.Viper) (*Driver, error) {
	topAt1, err := cast.ToStringE(cfg.Get("TopAt1"))
	if err != nil {
		return nil, fmt.Errorf("rteutil: reading TopAt1: %v", err)
	}
	blockSize, err := cast.ToIntE(cfg.Get("ColumnBlockSize"))
	if err != nil {
		return nil, fmt.Errorf("rteutil: reading ColumnBlockSize: %v", err)
	}
	nangles, err := cast.ToIntE(cfg.Get("NumAngles"))
	if err != nil {
		return nil, fmt.Errorf("rteutil: reading NumAngles: %v", err)
	}
	return &Driver{
		ColumnBlockSize: blockSize,
		NumAngles:       nangles,
		TopAt1:          strings.ToLower(topAt1),
		Byband:          cfg.GetBool("Byband"),
		Jacobian:        cfg.GetBool("Jacobian"),
		DeltaScale:      cfg.GetBool("DeltaScale"),
		AerosolTable:    os.ExpandEnv(cfg.GetString("AerosolTable")),
	}, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("rteutil: OutputFile must be specified")
	}
	f = os.ExpandEnv(f)
	dir := filepath.Dir(f)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("rteutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile returns the log file name, which defaults to the
// output file name with a .log extension.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		return strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// Run runs a calculation. It reads the case in inputFile, solves it with
// d, writes the results to outputFile and logs a summary to stdout and
// logFile. If shortwave is false a longwave calculation is done. If
// plotFile is not empty, the vertical flux profile of column plotColumn
// is drawn in it.
func Run(d *Driver, shortwave bool, inputFile, outputFile, logFile, plotFile string, plotColumn int) error {
	startTime := time.Now()

	lf, err := os.Create(logFile)
	if err != nil {
		return fmt.Errorf("rteutil: problem creating log file: %v", err)
	}
	defer lf.Close()
	logger := logrus.New()
	logger.Out = io.MultiWriter(os.Stdout, lf)
	// The log file is closed on return, so d keeps its own logger.
	run := *d
	if run.Log == nil {
		run.Log = logger
	}
	log := run.Log.WithField("input", inputFile)

	f, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("rteutil: problem opening input file: %v", err)
	}
	in, err := rte.LoadDataset(f)
	f.Close()
	if err != nil {
		return err
	}
	log.WithField("variables", len(in.Data)).Info("read case")

	var o *Output
	if shortwave {
		o, err = run.SW(in)
	} else {
		o, err = run.LW(in)
	}
	if err != nil {
		return err
	}

	w, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("rteutil: problem creating output file: %v", err)
	}
	if err := o.Write(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	s, err := o.Summary()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"output":      outputFile,
		"toa_net_avg": s.TOANetMean,
		"toa_net_min": s.TOANetMin,
		"toa_net_max": s.TOANetMax,
		"checksum":    o.Checksum(),
		"elapsed":     time.Since(startTime),
	}).Info("calculation complete")

	if plotFile != "" {
		pf, err := os.Create(os.ExpandEnv(plotFile))
		if err != nil {
			return fmt.Errorf("rteutil: problem creating plot file: %v", err)
		}
		if err := o.Plot(pf, plotColumn); err != nil {
			pf.Close()
			return err
		}
		return pf.Close()
	}
	return nil
}
