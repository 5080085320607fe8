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


// Package rteutil contains the command-line interface and case driver
// for the radiative transfer solvers.
package rteutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/rte"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to rte.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Input",
			usage: `
              Input is the path to the netcdf file holding the case to
              be solved. It can include environment variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output netcdf file location.
              It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "rte_output.nc",
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "ColumnBlockSize",
			usage: `
              ColumnBlockSize is the number of columns to solve at a time.
              Zero means all columns at once. Results do not depend on it.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "TopAt1",
			usage: `
              TopAt1 specifies whether the first level in the input is the top of
              the domain ("true") or the surface ("false"). If it is "auto" the
              orientation is determined from the layer pressure variable p_lay.`,
			defaultVal: "auto",
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "Byband",
			usage: `
              If Byband is true, fluxes summed within each band are output
              in addition to broadband fluxes.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "AerosolTable",
			usage: `
              AerosolTable is the path to an aerosol optics table in netcdf or
              TOML format. If it is specified, aerosol optical properties are
              calculated from the aermr01 through aermr11, rh and dpg
              variables in the Input file and added to the gas optics.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path to a PNG file where the vertical profile of
              broadband fluxes in column PlotColumn should be drawn. If it is
              blank no plot is made.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "PlotColumn",
			usage: `
              PlotColumn is the index of the column to plot.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{lwCmd.Flags(), swCmd.Flags()},
		},
		{
			name: "NumAngles",
			usage: `
              NumAngles is the number of Gaussian quadrature angles (1 to 4)
              used for longwave calculations.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{lwCmd.Flags()},
		},
		{
			name: "Jacobian",
			usage: `
              If Jacobian is true, the derivative of longwave upward flux
              with respect to surface temperature is calculated and output.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{lwCmd.Flags()},
		},
		{
			name: "DeltaScale",
			usage: `
              If DeltaScale is true, delta-Eddington scaling is applied to
              shortwave optical properties before they are solved.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{swCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("RTE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(lwCmd)
	Root.AddCommand(swCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("rte: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "rte",
	Short: "A radiative transfer solver.",
	Long: `rte solves longwave and shortwave radiative transfer in columns of
plane-parallel layers, given optical properties and sources.
Use the subcommands specified below to access the solver functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RTE_var' where 'var' is the
name of the variable to be set. File paths are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of rte.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("rte v%s\n", rte.Version)
	},
	DisableAutoGenTag: true,
}

var lwCmd = &cobra.Command{
	Use:   "lw",
	Short: "Solve longwave radiative transfer.",
	Long: `lw calculates longwave fluxes without scattering for the case in the
Input file and writes them to OutputFile. Output variables:

	lw_flux_up, lw_flux_dn, lw_flux_net: Broadband fluxes (W/m²)
	lw_bnd_flux_up, lw_bnd_flux_dn, lw_bnd_flux_net: Fluxes in each band, if Byband is true
	lw_flux_up_jac: Derivative of upward flux with respect to surface temperature, if Jacobian is true
	lw_heating_rate: Heating rate (K/s), if the Input file includes level pressure p_lev`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd(false)
	},
	DisableAutoGenTag: true,
}

var swCmd = &cobra.Command{
	Use:   "sw",
	Short: "Solve shortwave radiative transfer.",
	Long: `sw calculates shortwave fluxes with the two-stream approximation for
the case in the Input file and writes them to OutputFile. Output variables:

	sw_flux_up, sw_flux_dn, sw_flux_net: Broadband fluxes (W/m²)
	sw_flux_dn_dir: Broadband direct-beam flux (W/m²)
	sw_bnd_flux_up, sw_bnd_flux_dn, sw_bnd_flux_net, sw_bnd_flux_dn_dir: Fluxes in each band, if Byband is true
	sw_heating_rate: Heating rate (K/s), if the Input file includes level pressure p_lev`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd(true)
	},
	DisableAutoGenTag: true,
}

// runCmd runs a calculation using the configuration in Cfg.
func runCmd(shortwave bool) error {
	d, err := DriverConfig(Cfg)
	if err != nil {
		return err
	}
	input := os.ExpandEnv(Cfg.GetString("Input"))
	if input == "" {
		return fmt.Errorf("rte: Input must be specified")
	}
	outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
	if err != nil {
		return err
	}
	return Run(d, shortwave, input, outputFile,
		checkLogFile(Cfg.GetString("LogFile"), outputFile),
		Cfg.GetString("PlotFile"), Cfg.GetInt("PlotColumn"))
}
