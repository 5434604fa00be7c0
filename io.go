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

package beatgrid

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	"github.com/foresttools/beatgrid/encoding/kml"
)

// ReadPolygons reads the polygon geometries from a boundary file,
// dispatching on the file extension: .kml, .kmz, .geojson, .json, or .shp.
// Results are in geographic coordinates (WGS84); shapefiles are reprojected
// using their .prj definition, other formats are assumed to already be
// geographic. Multi-polygons are flattened. Non-polygonal geometries are
// rejected.
func ReadPolygons(filename string) ([]geom.Polygonal, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".kml", ".kmz":
		return kml.ReadFile(filename)
	case ".geojson", ".json":
		return readGeoJSONFile(filename)
	case ".shp":
		return readShp(filename)
	default:
		return nil, fmt.Errorf("beatgrid: unsupported boundary file type %q", filepath.Ext(filename))
	}
}

func readGeoJSONFile(filename string) ([]geom.Polygonal, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry *geojson.Geometry `json:"geometry"`
		} `json:"features"`
		Geometry *geojson.Geometry `json:"geometry"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("beatgrid: reading %s: %v", filename, err)
	}
	var geoms []geom.Geom
	switch doc.Type {
	case "FeatureCollection":
		for _, f := range doc.Features {
			if f.Geometry == nil {
				continue
			}
			g, err := geojson.FromGeoJSON(f.Geometry)
			if err != nil {
				return nil, fmt.Errorf("beatgrid: reading %s: %v", filename, err)
			}
			geoms = append(geoms, g)
		}
	case "Feature":
		if doc.Geometry != nil {
			g, err := geojson.FromGeoJSON(doc.Geometry)
			if err != nil {
				return nil, fmt.Errorf("beatgrid: reading %s: %v", filename, err)
			}
			geoms = append(geoms, g)
		}
	default:
		g, err := geojson.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("beatgrid: reading %s: %v", filename, err)
		}
		geoms = append(geoms, g)
	}
	return flattenPolygons(geoms)
}

func readShp(filename string) ([]geom.Polygonal, error) {
	dec, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	srIn, err := dec.SR()
	if err != nil {
		return nil, fmt.Errorf("beatgrid: reading %s projection: %v", filename, err)
	}
	ll, err := longlatSR()
	if err != nil {
		return nil, err
	}
	trans, err := srIn.NewTransform(ll)
	if err != nil {
		return nil, fmt.Errorf("beatgrid: reading %s projection: %v", filename, err)
	}
	var geoms []geom.Geom
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		gg, err := g.Transform(trans)
		if err != nil {
			return nil, fmt.Errorf("beatgrid: reprojecting %s: %v", filename, err)
		}
		geoms = append(geoms, gg)
	}
	if err := dec.Error(); err != nil {
		return nil, err
	}
	return flattenPolygons(geoms)
}

func flattenPolygons(geoms []geom.Geom) ([]geom.Polygonal, error) {
	var polys []geom.Polygonal
	for _, g := range geoms {
		switch t := g.(type) {
		case geom.Polygon:
			polys = append(polys, t)
		case geom.MultiPolygon:
			for _, p := range t {
				polys = append(polys, p)
			}
		case geom.GeometryCollection:
			sub, err := flattenPolygons(t)
			if err != nil {
				return nil, err
			}
			polys = append(polys, sub...)
		default:
			return nil, fmt.Errorf("beatgrid: boundary shapes need to be polygons; got %T", g)
		}
	}
	return polys, nil
}

// wgs84wkt is the .prj sidecar content for shapefile output.
const wgs84wkt = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// WriteShp writes the grid to a shapefile named name.shp in directory
// outdir, with id, col, row, and area_ha attribute columns. Geometries are
// geographic (WGS84), recorded in an accompanying .prj file.
func (g *Grid) WriteShp(outdir, name string) error {
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(filepath.Join(outdir, name+ext))
	}
	fields := []goshp.Field{
		goshp.NumberField("id", 10),
		goshp.NumberField("col", 10),
		goshp.NumberField("row", 10),
		goshp.FloatField("area_ha", 16, 4),
	}
	e, err := shp.NewEncoderFromFields(filepath.Join(outdir, name+".shp"),
		goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("beatgrid: creating shapefile: %v", err)
	}
	for _, cell := range g.Cells {
		if err := e.EncodeFields(cell.Polygonal, cell.ID, cell.Col, cell.Row, cell.AreaHa); err != nil {
			return fmt.Errorf("beatgrid: writing shapefile: %v", err)
		}
	}
	e.Close()
	if err := os.WriteFile(filepath.Join(outdir, name+".prj"), []byte(wgs84wkt), 0644); err != nil {
		return fmt.Errorf("beatgrid: writing projection file: %v", err)
	}
	return nil
}

type geojsonFeature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   *geojson.Geometry      `json:"geometry"`
}

type geojsonFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geojsonFeature `json:"features"`
}

// WriteGeoJSON writes the grid cells to w as a GeoJSON FeatureCollection
// with id, col, row, and area_ha properties.
func (g *Grid) WriteGeoJSON(w io.Writer) error {
	fc := geojsonFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]geojsonFeature, len(g.Cells)),
	}
	for i, cell := range g.Cells {
		gg, err := geojson.ToGeoJSON(cell.Polygonal)
		if err != nil {
			return fmt.Errorf("beatgrid: encoding cell %d: %v", cell.ID, err)
		}
		fc.Features[i] = geojsonFeature{
			Type: "Feature",
			Properties: map[string]interface{}{
				"id":      cell.ID,
				"col":     cell.Col,
				"row":     cell.Row,
				"area_ha": cell.AreaHa,
			},
			Geometry: gg,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
