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

// Package kml reads area-of-interest boundary polygons from KML and KMZ
// files and writes generated grids back out as styled KML documents.
package kml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// Read extracts the polygons from the Placemarks of a KML document.
// Coordinates are taken as-is; KML mandates WGS84 longitude/latitude so no
// reprojection is performed. Altitude values are discarded.
func Read(r io.Reader) ([]geom.Polygonal, error) {
	d := xml.NewDecoder(r)
	var polys []geom.Polygonal
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kml: reading document: %v", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm placemark
		if err := d.DecodeElement(&pm, &se); err != nil {
			return nil, fmt.Errorf("kml: decoding Placemark: %v", err)
		}
		for _, kp := range append(pm.Polygons, pm.MultiPolygons...) {
			p, err := kp.geom()
			if err != nil {
				return nil, err
			}
			if len(p) > 0 {
				polys = append(polys, p)
			}
		}
	}
	if len(polys) == 0 {
		return nil, fmt.Errorf("kml: no polygon placemarks in document")
	}
	return polys, nil
}

// ReadFile reads the polygons from a .kml file, or from the first .kml
// member of a .kmz archive.
func ReadFile(filename string) ([]geom.Polygonal, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".kmz" {
		zr, err := zip.OpenReader(filename)
		if err != nil {
			return nil, fmt.Errorf("kml: opening %s: %v", filename, err)
		}
		defer zr.Close()
		for _, f := range zr.File {
			if !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("kml: opening %s member %s: %v", filename, f.Name, err)
			}
			defer rc.Close()
			return Read(rc)
		}
		return nil, fmt.Errorf("kml: no .kml member in %s", filename)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

type placemark struct {
	Name          string       `xml:"name"`
	Polygons      []kmlPolygon `xml:"Polygon"`
	MultiPolygons []kmlPolygon `xml:"MultiGeometry>Polygon"`
}

type kmlPolygon struct {
	Outer kmlRing   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlRing `xml:"innerBoundaryIs>LinearRing"`
}

type kmlRing struct {
	Coordinates string `xml:"coordinates"`
}

func (kp kmlPolygon) geom() (geom.Polygon, error) {
	var p geom.Polygon
	outer, err := parseCoordinates(kp.Outer.Coordinates)
	if err != nil {
		return nil, err
	}
	if len(outer) == 0 {
		return nil, nil
	}
	p = append(p, outer)
	for _, ring := range kp.Inner {
		hole, err := parseCoordinates(ring.Coordinates)
		if err != nil {
			return nil, err
		}
		p = append(p, hole)
	}
	return p, nil
}

// parseCoordinates parses a KML coordinate list: whitespace-separated
// "lon,lat[,alt]" tuples.
func parseCoordinates(s string) (geom.Path, error) {
	var path geom.Path
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("kml: malformed coordinate tuple %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: malformed longitude in %q: %v", tuple, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: malformed latitude in %q: %v", tuple, err)
		}
		path = append(path, geom.Point{X: lon, Y: lat})
	}
	return path, nil
}
