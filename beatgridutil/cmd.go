/*
Copyright © 2025 the BeatGrid authors.
This file is part of BeatGrid.

BeatGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

BeatGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with BeatGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package beatgridutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/foresttools/beatgrid"
	"github.com/foresttools/beatgrid/encoding/kml"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var log *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	log = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})

	// Options are the configuration options available to BeatGrid.
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
			name: "aoi",
			usage: `
              aoi is the path to the area-of-interest boundary file
              (.kml, .kmz, .geojson, .json, or .shp).`,
			shorthand:  "a",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), areaCmd.Flags()},
		},
		{
			name: "overlay",
			usage: `
              overlay is the path to an optional overlay boundary file to be
              included in the labeled grid output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "cell_size",
			usage: `
              cell_size is the grid cell edge length in meters. It must be
              positive and no larger than 2000.`,
			shorthand:  "c",
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir is the directory the output files are written to.
              It must already exist.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "grid_name",
			usage: `
              grid_name is the base name for shapefile and GeoJSON output
              files.`,
			defaultVal: "grid",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "formats",
			usage: `
              formats lists additional output formats to write alongside the
              KML documents: "shp" and/or "geojson".`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "range_name",
			usage: `
              range_name labels the grid with the forest range name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "rf_name",
			usage: `
              rf_name labels the grid with the reserve forest name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "beat_name",
			usage: `
              beat_name labels the grid with the forest beat name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "year_of_work",
			usage: `
              year_of_work labels the grid with the working year.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BEATGRID")

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
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
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
	Root.AddCommand(gridCmd)
	Root.AddCommand(areaCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("beatgrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "beatgrid",
	Short: "A boundary-exact grid generator for field reporting.",
	Long: `BeatGrid converts an area-of-interest boundary polygon into a uniform,
geographically exact grid and exports it for field reporting.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BEATGRID_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of BeatGrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("BeatGrid v%s\n", beatgrid.Version)
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Generate a grid from a boundary file.",
	Long: `grid reads the area-of-interest boundary file, merges its polygons, tiles
the merged region with fixed-size square cells clipped exactly to the
boundary, and writes grid_only.kml and grid_labeled.kml (plus any extra
formats requested) to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		aoiFile, err := checkInputFile(Cfg.GetString("aoi"), "aoi")
		if err != nil {
			return err
		}
		cellSize, err := checkCellSize(Cfg.GetFloat64("cell_size"))
		if err != nil {
			return err
		}
		outDir, err := checkOutputDir(Cfg.GetString("output_dir"))
		if err != nil {
			return err
		}
		formats, err := cast.ToStringSliceE(Cfg.Get("formats"))
		if err != nil {
			return fmt.Errorf("beatgrid: invalid formats: %v", err)
		}

		polys, err := beatgrid.ReadPolygons(aoiFile)
		if err != nil {
			return err
		}
		grid, err := beatgrid.NewGrid(polys, cellSize)
		if err != nil {
			return err
		}
		var overlay []geom.Polygonal
		if f := Cfg.GetString("overlay"); f != "" {
			overlayFile, err := checkInputFile(f, "overlay")
			if err != nil {
				return err
			}
			if overlay, err = beatgrid.ReadPolygons(overlayFile); err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{
			"cells":   len(grid.Cells),
			"epsg":    grid.EPSG,
			"area_ha": fmt.Sprintf("%.2f", grid.TotalAreaHa()),
		}).Info("generated grid")

		cells := make([]geom.Polygonal, len(grid.Cells))
		for i, c := range grid.Cells {
			cells[i] = c.Polygonal
		}
		if err := writeKML(filepath.Join(outDir, "grid_only.kml"), func(f *os.File) error {
			return kml.WriteGrid(f, cells)
		}); err != nil {
			return err
		}
		if err := writeKML(filepath.Join(outDir, "grid_labeled.kml"), func(f *os.File) error {
			return kml.WriteLabeledGrid(f, cells, grid.AOI, gridLabels(), overlay)
		}); err != nil {
			return err
		}
		for _, format := range formats {
			switch format {
			case "shp":
				if err := grid.WriteShp(outDir, Cfg.GetString("grid_name")); err != nil {
					return err
				}
			case "geojson":
				name := filepath.Join(outDir, Cfg.GetString("grid_name")+".geojson")
				f, err := os.Create(name)
				if err != nil {
					return err
				}
				if err := grid.WriteGeoJSON(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			default:
				return fmt.Errorf("beatgrid: unknown output format %q", format)
			}
		}
		log.WithFields(logrus.Fields{"dir": outDir}).Info("wrote grid outputs")
		return nil
	},
	DisableAutoGenTag: true,
}

var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Print the hectare area of a boundary file.",
	Long: `area reads a boundary file and prints the area of its merged polygons in
hectares, measured in the UTM projection local to the region.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		aoiFile, err := checkInputFile(Cfg.GetString("aoi"), "aoi")
		if err != nil {
			return err
		}
		polys, err := beatgrid.ReadPolygons(aoiFile)
		if err != nil {
			return err
		}
		merged := polys[0]
		for _, p := range polys[1:] {
			merged = merged.Union(p)
		}
		ha, err := beatgrid.AreaHa(merged)
		if err != nil {
			return err
		}
		cmd.Printf("%.4f ha\n", ha)
		return nil
	},
	DisableAutoGenTag: true,
}

func writeKML(filename string, write func(*os.File) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func gridLabels() kml.Labels {
	return kml.Labels{
		RangeName:  Cfg.GetString("range_name"),
		RFName:     Cfg.GetString("rf_name"),
		BeatName:   Cfg.GetString("beat_name"),
		YearOfWork: Cfg.GetString("year_of_work"),
	}
}
