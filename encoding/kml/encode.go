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

package kml

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/ctessum/geom"
	gokml "github.com/twpayne/go-kml/v3"
)

// Grid line work is red, overlays golden yellow, matching the established
// field-report styling.
var (
	gridColor    = color.RGBA{R: 0xff, A: 0xff}
	overlayColor = color.RGBA{R: 0xff, G: 0xd7, A: 0xff}
)

// Labels holds the user-entered report metadata attached to a labeled grid
// document.
type Labels struct {
	RangeName  string
	RFName     string
	BeatName   string
	YearOfWork string
}

// Grid builds a "Grid Only" KML document: one Placemark per cell, named by
// the cell's 1-based sequence number, drawn as thin unfilled red outlines.
// The order of cells determines the numbering.
func Grid(cells []geom.Polygonal) *gokml.KMLElement {
	children := []gokml.Element{
		gokml.Name("Grid Only"),
		gokml.Description("Generated Grid"),
		gokml.SharedStyle("gridStyle",
			gokml.LineStyle(gokml.Color(gridColor), gokml.Width(1)),
			gokml.PolyStyle(gokml.Fill(false)),
		),
	}
	children = append(children, cellPlacemarks(cells)...)
	return gokml.KML(gokml.Document(children...))
}

// LabeledGrid builds the full report document: numbered grid cells, the
// merged AOI outline, user labels in the document description, and an
// optional overlay layer drawn in a heavier golden style.
func LabeledGrid(cells []geom.Polygonal, aoi geom.Polygonal, labels Labels, overlay []geom.Polygonal) *gokml.KMLElement {
	children := []gokml.Element{
		gokml.Name("Labeled Grid"),
		gokml.Description(fmt.Sprintf("Range: %s; RF: %s; Beat: %s; Year of Work: %s",
			labels.RangeName, labels.RFName, labels.BeatName, labels.YearOfWork)),
		gokml.SharedStyle("gridStyle",
			gokml.LineStyle(gokml.Color(gridColor), gokml.Width(1)),
			gokml.PolyStyle(gokml.Fill(false)),
		),
		gokml.SharedStyle("aoiStyle",
			gokml.LineStyle(gokml.Color(gridColor), gokml.Width(3)),
			gokml.PolyStyle(gokml.Fill(false)),
		),
	}
	if len(overlay) > 0 {
		children = append(children, gokml.SharedStyle("overlayStyle",
			gokml.LineStyle(gokml.Color(overlayColor), gokml.Width(3)),
			gokml.PolyStyle(gokml.Fill(false)),
		))
	}
	children = append(children, cellPlacemarks(cells)...)
	if aoi != nil {
		children = append(children, gokml.Placemark(
			gokml.Name("AOI"),
			gokml.StyleURL("#aoiStyle"),
			polygonalElement(aoi),
		))
	}
	for _, g := range overlay {
		children = append(children, gokml.Placemark(
			gokml.Name("Overlay"),
			gokml.StyleURL("#overlayStyle"),
			polygonalElement(g),
		))
	}
	return gokml.KML(gokml.Document(children...))
}

// WriteGrid writes the "Grid Only" document for cells to w.
func WriteGrid(w io.Writer, cells []geom.Polygonal) error {
	return Grid(cells).WriteIndent(w, "", "  ")
}

// WriteLabeledGrid writes the labeled report document to w.
func WriteLabeledGrid(w io.Writer, cells []geom.Polygonal, aoi geom.Polygonal, labels Labels, overlay []geom.Polygonal) error {
	return LabeledGrid(cells, aoi, labels, overlay).WriteIndent(w, "", "  ")
}

func cellPlacemarks(cells []geom.Polygonal) []gokml.Element {
	pms := make([]gokml.Element, len(cells))
	for i, c := range cells {
		pms[i] = gokml.Placemark(
			gokml.Name(strconv.Itoa(i+1)),
			gokml.StyleURL("#gridStyle"),
			polygonalElement(c),
		)
	}
	return pms
}

// polygonalElement converts a geometry to a KML Polygon, or a MultiGeometry
// when it has more than one exterior ring.
func polygonalElement(g geom.Polygonal) gokml.Element {
	var polys []gokml.Element
	for _, p := range g.Polygons() {
		for _, grp := range groupRings(p) {
			parts := []gokml.Element{
				gokml.OuterBoundaryIs(gokml.LinearRing(gokml.Coordinates(ringCoordinates(grp.outer)...))),
			}
			for _, hole := range grp.holes {
				parts = append(parts,
					gokml.InnerBoundaryIs(gokml.LinearRing(gokml.Coordinates(ringCoordinates(hole)...))))
			}
			polys = append(polys, gokml.Polygon(parts...))
		}
	}
	if len(polys) == 1 {
		return polys[0]
	}
	return gokml.MultiGeometry(polys...)
}

func ringCoordinates(ring geom.Path) []gokml.Coordinate {
	coords := make([]gokml.Coordinate, len(ring))
	for i, pt := range ring {
		coords[i] = gokml.Coordinate{Lon: pt.X, Lat: pt.Y}
	}
	return coords
}

type ringGroup struct {
	outer geom.Path
	holes []geom.Path
}

// groupRings assigns each hole ring (negative signed area) to the first
// exterior ring whose bounding box contains it. Clipped grid cells rarely
// carry holes; AOI geometries sometimes do.
func groupRings(p geom.Polygon) []ringGroup {
	var groups []ringGroup
	var holes []geom.Path
	for _, ring := range p {
		if signedArea(ring) >= 0 {
			groups = append(groups, ringGroup{outer: ring})
		} else {
			holes = append(holes, ring)
		}
	}
	for _, hole := range holes {
		hb := geom.Polygon{hole}.Bounds()
		for i := range groups {
			ob := geom.Polygon{groups[i].outer}.Bounds()
			if ob.Min.X <= hb.Min.X && ob.Min.Y <= hb.Min.Y &&
				ob.Max.X >= hb.Max.X && ob.Max.Y >= hb.Max.Y {
				groups[i].holes = append(groups[i].holes, hole)
				break
			}
		}
	}
	return groups
}

func signedArea(ring geom.Path) float64 {
	var a float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return a / 2
}
