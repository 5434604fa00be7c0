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
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// NewGrid merges the given polygons (geographic coordinates, WGS84) into a
// single region, projects it into the UTM zone local to its centroid,
// covers the projected bounding box with a regular square lattice of edge
// length cellSize [m], clips every lattice square to the region, and
// reprojects the surviving cells back to geographic coordinates.
//
// Cells are emitted in column-major, row-minor order: all rows of a column,
// bottom to top, before advancing to the next column eastward. Lattice
// squares that do not overlap the region, or whose clipped geometry has
// zero area (boundary-touching-only positions), produce no cell.
//
// NewGrid is a pure function of its inputs: identical inputs produce
// identical output ordering and geometry.
func NewGrid(polygons []geom.Polygonal, cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, &InvalidInputError{Param: "cell size", Value: cellSize}
	}
	if len(polygons) == 0 {
		return nil, ErrEmptyInput
	}
	merged := polygons[0]
	for _, p := range polygons[1:] {
		merged = merged.Union(p)
	}
	if len(merged.Polygons()) == 0 || merged.Area() == 0 {
		return nil, ErrEmptyInput
	}

	// The planar centroid of the geographic union seeds the projection
	// selection. It is not a geodesic centroid, but it only needs to land
	// in the right UTM zone.
	cen := merged.Centroid()
	epsg, err := UTMEPSG(cen.X, cen.Y)
	if err != nil {
		return nil, err
	}
	sr, err := utmSR(epsg)
	if err != nil {
		return nil, err
	}
	ll, err := longlatSR()
	if err != nil {
		return nil, err
	}
	forward, err := ll.NewTransform(sr)
	if err != nil {
		return nil, &ProjectionError{EPSG: epsg, Lon: cen.X, Lat: cen.Y, Err: err}
	}
	inverse, err := sr.NewTransform(ll)
	if err != nil {
		return nil, &ProjectionError{EPSG: epsg, Lon: cen.X, Lat: cen.Y, Err: err}
	}
	mergedG, err := merged.Transform(forward)
	if err != nil {
		return nil, &ProjectionError{EPSG: epsg, Lon: cen.X, Lat: cen.Y, Err: err}
	}
	mergedProj := mergedG.(geom.Polygonal)

	b := mergedProj.Bounds()
	cols := int(math.Ceil((b.Max.X - b.Min.X) / cellSize))
	rows := int(math.Ceil((b.Max.Y - b.Min.Y) / cellSize))

	// Index the region's ring bounding boxes so lattice positions that
	// cannot touch any part of the region are skipped without a clipping
	// operation. This matters for multi-part regions, where the combined
	// bounding box can be mostly empty space.
	ringIndex := rtree.NewTree(25, 50)
	for _, poly := range mergedProj.Polygons() {
		for _, ring := range poly {
			ringIndex.Insert(geom.Polygon{ring})
		}
	}

	// Clip lattice columns concurrently. Each worker takes every nprocs'th
	// column and writes into that column's slot, so the compacted result
	// matches the serial sweep order exactly.
	nprocs := runtime.GOMAXPROCS(0)
	byColumn := make([][]*Cell, cols)
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < cols; i += nprocs {
				var col []*Cell
				for j := 0; j < rows; j++ {
					square := lattice(b.Min.X+float64(i)*cellSize,
						b.Min.Y+float64(j)*cellSize, cellSize)
					if len(ringIndex.SearchIntersect(square.Bounds())) == 0 {
						continue
					}
					clipped := clipCell(square, mergedProj)
					if clipped == nil {
						continue
					}
					area := clipped.Area()
					gg, err := clipped.Transform(inverse)
					if err != nil {
						errs[pp] = &ProjectionError{EPSG: epsg, Lon: cen.X, Lat: cen.Y, Err: err}
						return
					}
					col = append(col, &Cell{
						Polygonal: gg.(geom.Polygonal),
						Col:       i,
						Row:       j,
						AreaHa:    area / 10000,
					})
				}
				byColumn[i] = col
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	grid := &Grid{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		X0:       b.Min.X,
		Y0:       b.Min.Y,
		EPSG:     epsg,
		SR:       sr,
		AOI:      merged,
		index:    rtree.NewTree(25, 50),
	}
	for _, col := range byColumn {
		for _, c := range col {
			c.ID = len(grid.Cells) + 1
			grid.Cells = append(grid.Cells, c)
			grid.index.Insert(c)
		}
	}
	return grid, nil
}

// lattice returns the closed lattice square with lower-left corner (x0, y0)
// and edge length d.
func lattice(x0, y0, d float64) geom.Polygon {
	return geom.Polygon([]geom.Path{{
		{X: x0, Y: y0}, {X: x0 + d, Y: y0},
		{X: x0 + d, Y: y0 + d}, {X: x0, Y: y0 + d}, {X: x0, Y: y0}}})
}

// clipCell intersects one lattice square with the region, returning nil if
// the intersection is empty or has zero area. Positions that touch the
// region only along a shared edge or point are therefore excluded, as is
// the degenerate extra row or column that a bounding box measuring an
// exact multiple of the cell size would otherwise produce.
//
// The boolean clipper can also come back empty degenerately when a region
// vertex lies exactly on a lattice line. If the square's center is strictly
// inside the region the empty result cannot be a true tangency, so the clip
// is retried with the square grown by a hair to take the vertex off the
// edge.
func clipCell(square geom.Polygon, region geom.Polygonal) geom.Polygonal {
	clipped := square.Intersection(region)
	if clipped != nil && clipped.Area() > 0 {
		return clipped
	}
	b := square.Bounds()
	center := geom.Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
	if center.Within(region) != geom.Inside {
		return nil
	}
	eps := (b.Max.X - b.Min.X) * 1e-9
	grown := geom.Polygon([]geom.Path{{
		{X: b.Min.X - eps, Y: b.Min.Y - eps}, {X: b.Max.X + eps, Y: b.Min.Y - eps},
		{X: b.Max.X + eps, Y: b.Max.Y + eps}, {X: b.Min.X - eps, Y: b.Max.Y + eps},
		{X: b.Min.X - eps, Y: b.Min.Y - eps}}})
	clipped = grown.Intersection(region)
	if clipped == nil || clipped.Area() <= 0 {
		return nil
	}
	return clipped
}
