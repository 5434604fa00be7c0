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

// Package beatgrid converts area-of-interest boundary polygons into uniform,
// geographically exact square grids for field reporting. Input polygons are
// merged, projected into a locally accurate UTM coordinate system, tiled
// with fixed-size square cells, clipped exactly to the merged boundary, and
// reprojected back to geographic (WGS84) coordinates.
package beatgrid

import (
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// Version is the version of this software.
const Version = "3.0.0"

func init() {
	gob.Register(geom.Polygon{})
	gob.Register(geom.MultiPolygon{})
}

// Cell is one lattice cell clipped to the merged region boundary. Boundary
// cells are proper subsets of a full lattice square; a cell may be
// multi-part if the region intersects its lattice square in disjoint
// pieces, but each lattice position yields at most one Cell.
type Cell struct {
	geom.Polygonal // geographic coordinates (WGS84)

	// ID is the sequential cell number, starting at 1, assigned in
	// column-major (all rows of a column before the next column) lattice
	// order. Downstream labeling depends on this numbering.
	ID int

	// Col and Row are the lattice indices of the cell, counted from the
	// lower-left corner of the gridded extent.
	Col, Row int

	// AreaHa is the cell area in hectares, measured in the projected
	// coordinate system before reprojection.
	AreaHa float64
}

// Grid is the result of gridding a set of area-of-interest polygons.
type Grid struct {
	// Cols and Rows give the lattice dimensions.
	Cols, Rows int

	// CellSize is the lattice cell edge length [m].
	CellSize float64

	// X0 and Y0 are the lower-left corner of the lattice in the projected
	// coordinate system.
	X0, Y0 float64

	// EPSG identifies the projected coordinate system the lattice was
	// constructed in.
	EPSG int

	// SR is the projected spatial reference corresponding to EPSG.
	SR *proj.SR

	// Cells holds the clipped cells in lattice order.
	Cells []*Cell

	// AOI is the merged input region in geographic coordinates. It is the
	// original union of the inputs, never round-tripped through the
	// projection, so it can serve as the canonical boundary elsewhere.
	AOI geom.Polygonal

	index *rtree.Rtree
}

// GetIndex returns the cell(s) containing point p (geographic coordinates).
// Usually there is at most one, but a point on a shared cell edge belongs
// to all of the adjoining cells.
func (g *Grid) GetIndex(p geom.Point) []*Cell {
	var cells []*Cell
	for _, cI := range g.index.SearchIntersect(p.Bounds()) {
		c := cI.(*Cell)
		if p.Within(c.Polygonal) == geom.Outside {
			continue
		}
		cells = append(cells, c)
	}
	return cells
}

// ErrEmptyInput is returned when there are no input polygons or their
// union is an empty geometry.
var ErrEmptyInput = errors.New("beatgrid: no usable input geometry")

// InvalidInputError is returned for malformed numeric parameters such as a
// non-positive cell size or a non-finite coordinate.
type InvalidInputError struct {
	Param string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("beatgrid: invalid %s: %g", e.Param, e.Value)
}

// ProjectionError is returned when the coordinate transformation machinery
// fails. Lon and Lat give the coordinate that seeded the projection
// selection, for diagnostics.
type ProjectionError struct {
	EPSG     int
	Lon, Lat float64
	Err      error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("beatgrid: projection EPSG:%d (seed %g, %g): %v",
		e.EPSG, e.Lon, e.Lat, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }
