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
	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// AreaHa returns the area [hectares] of a geographic (WGS84) geometry,
// measured by projecting it into the UTM zone local to its own centroid.
// No fixed degrees-to-meters approximation is involved.
func AreaHa(g geom.Polygonal) (float64, error) {
	cen := g.Centroid()
	epsg, err := UTMEPSG(cen.X, cen.Y)
	if err != nil {
		return 0, err
	}
	sr, err := utmSR(epsg)
	if err != nil {
		return 0, err
	}
	ll, err := longlatSR()
	if err != nil {
		return 0, err
	}
	t, err := ll.NewTransform(sr)
	if err != nil {
		return 0, &ProjectionError{EPSG: epsg, Lon: cen.X, Lat: cen.Y, Err: err}
	}
	gg, err := g.Transform(t)
	if err != nil {
		return 0, &ProjectionError{EPSG: epsg, Lon: cen.X, Lat: cen.Y, Err: err}
	}
	return gg.(geom.Polygonal).Area() / 10000, nil
}

// TotalAreaHa returns the summed area [hectares] of all grid cells. By the
// coverage property of the clipping step it matches the projected area of
// the merged region to within floating tolerance.
func (g *Grid) TotalAreaHa() float64 {
	a := make([]float64, len(g.Cells))
	for i, c := range g.Cells {
		a[i] = c.AreaHa
	}
	return floats.Sum(a)
}
