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
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Beat 12</name>
      <Polygon>
        <outerBoundaryIs>
          <LinearRing>
            <coordinates>
              78.0,11.0,0 78.01,11.0,0 78.01,11.01,0 78.0,11.01,0 78.0,11.0,0
            </coordinates>
          </LinearRing>
        </outerBoundaryIs>
        <innerBoundaryIs>
          <LinearRing>
            <coordinates>78.004,11.004 78.006,11.004 78.006,11.006 78.004,11.006 78.004,11.004</coordinates>
          </LinearRing>
        </innerBoundaryIs>
      </Polygon>
    </Placemark>
    <Placemark>
      <name>Two parts</name>
      <MultiGeometry>
        <Polygon>
          <outerBoundaryIs><LinearRing>
            <coordinates>78.1,11.1 78.11,11.1 78.11,11.11 78.1,11.1</coordinates>
          </LinearRing></outerBoundaryIs>
        </Polygon>
        <Polygon>
          <outerBoundaryIs><LinearRing>
            <coordinates>78.2,11.2 78.21,11.2 78.21,11.21 78.2,11.2</coordinates>
          </LinearRing></outerBoundaryIs>
        </Polygon>
      </MultiGeometry>
    </Placemark>
    <Placemark>
      <name>Not a polygon</name>
      <Point><coordinates>78.5,11.5</coordinates></Point>
    </Placemark>
  </Document>
</kml>`

func TestRead(t *testing.T) {
	polys, err := Read(strings.NewReader(testDoc))
	require.NoError(t, err)
	require.Len(t, polys, 3)

	first := polys[0].(geom.Polygon)
	require.Len(t, first, 2, "outer ring plus one hole")
	assert.Len(t, first[0], 5)
	assert.Equal(t, geom.Point{X: 78, Y: 11}, first[0][0])
	assert.Equal(t, geom.Point{X: 78.004, Y: 11.004}, first[1][0])

	for _, p := range polys[1:] {
		assert.Len(t, p.(geom.Polygon), 1)
	}
}

func TestRead_noPolygons(t *testing.T) {
	doc := `<kml xmlns="http://www.opengis.net/kml/2.2"><Document>
		<Placemark><name>pin</name><Point><coordinates>1,2</coordinates></Point></Placemark>
	</Document></kml>`
	_, err := Read(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestRead_badCoordinates(t *testing.T) {
	doc := `<kml><Document><Placemark><Polygon><outerBoundaryIs><LinearRing>
		<coordinates>78.0 11.0 78.1</coordinates>
	</LinearRing></outerBoundaryIs></Polygon></Placemark></Document></kml>`
	_, err := Read(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed coordinate")
}

func TestReadFile_kmz(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "beat.kmz")
	f, err := os.Create(fname)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("doc.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(testDoc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	polys, err := ReadFile(fname)
	require.NoError(t, err)
	assert.Len(t, polys, 3)
}

func TestReadFile_kmzNoMember(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "empty.kmz")
	f, err := os.Create(fname)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("no kml here"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = ReadFile(fname)
	assert.Error(t, err)
}

func testCells() []geom.Polygonal {
	square := func(x, y float64) geom.Polygon {
		return geom.Polygon([]geom.Path{{
			{X: x, Y: y}, {X: x + 0.01, Y: y},
			{X: x + 0.01, Y: y + 0.01}, {X: x, Y: y + 0.01}, {X: x, Y: y}}})
	}
	return []geom.Polygonal{square(78, 11), square(78.01, 11)}
}

func TestWriteGrid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGrid(&buf, testCells()))
	out := buf.String()

	assert.Contains(t, out, "<name>Grid Only</name>")
	assert.Contains(t, out, "<name>1</name>")
	assert.Contains(t, out, "<name>2</name>")
	assert.NotContains(t, out, "<name>3</name>")
	assert.Contains(t, out, "ff0000ff", "grid lines are red")
	assert.Regexp(t, `<width>1(\.0+)?</width>`, out)
	assert.Regexp(t, `<fill>(0|false)</fill>`, out, "cells are unfilled")
	assert.Contains(t, out, "#gridStyle")
}

func TestWriteLabeledGrid(t *testing.T) {
	cells := testCells()
	aoi := cells[0].Union(cells[1])
	labels := Labels{
		RangeName:  "North Range",
		RFName:     "Central RF",
		BeatName:   "Beat 12",
		YearOfWork: "2026",
	}
	overlay := []geom.Polygonal{cells[0]}

	var buf bytes.Buffer
	require.NoError(t, WriteLabeledGrid(&buf, cells, aoi, labels, overlay))
	out := buf.String()

	assert.Contains(t, out, "<name>Labeled Grid</name>")
	assert.Contains(t, out, "Range: North Range; RF: Central RF; Beat: Beat 12; Year of Work: 2026")
	assert.Contains(t, out, "<name>AOI</name>")
	assert.Contains(t, out, "<name>Overlay</name>")
	assert.Contains(t, out, "ff00d7ff", "overlay is golden")
	assert.Regexp(t, `<width>3(\.0+)?</width>`, out)
}

func TestWriteLabeledGrid_noOverlay(t *testing.T) {
	cells := testCells()
	var buf bytes.Buffer
	require.NoError(t, WriteLabeledGrid(&buf, cells, cells[0], Labels{}, nil))
	out := buf.String()
	assert.NotContains(t, out, "overlayStyle")
	assert.NotContains(t, out, "ff00d7ff")
}

func TestGroupRings(t *testing.T) {
	// Counterclockwise outer ring with a clockwise hole.
	p := geom.Polygon{
		{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}},
		{{X: 4, Y: 4}, {X: 4, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 4}, {X: 4, Y: 4}},
	}
	groups := groupRings(p)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].holes, 1)

	// Two disjoint outer rings, hole belongs to the second.
	p = geom.Polygon{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}},
		{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}, {X: 10, Y: 10}},
		{{X: 14, Y: 14}, {X: 14, Y: 16}, {X: 16, Y: 16}, {X: 16, Y: 14}, {X: 14, Y: 14}},
	}
	groups = groupRings(p)
	require.Len(t, groups, 2)
	assert.Empty(t, groups[0].holes)
	assert.Len(t, groups[1].holes, 1)
}
