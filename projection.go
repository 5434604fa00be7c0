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
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

// wgs84 is the geographic coordinate system of all input and output
// geometries (EPSG:4326).
const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// UTMZone returns the UTM longitudinal zone containing longitude lon
// [degrees], clamped to the valid range [1, 60].
func UTMZone(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}
	return zone
}

// UTMEPSG selects the EPSG code of the UTM projection local to the given
// geographic coordinate, typically the centroid of the region to be
// gridded. Latitude 0 is treated as Northern Hemisphere. UTM gives
// near-equidistant, near-equal-area behavior within its 6° zone, which is
// adequate for regions up to tens of kilometers wide; accuracy degrades
// for regions spanning multiple zones.
func UTMEPSG(lon, lat float64) (int, error) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, &InvalidInputError{Param: "longitude", Value: lon}
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return 0, &InvalidInputError{Param: "latitude", Value: lat}
	}
	zone := UTMZone(lon)
	if lat >= 0 {
		return 32600 + zone, nil
	}
	return 32700 + zone, nil
}

// utmSR constructs the spatial reference for a UTM EPSG code
// (EPSG:326xx Northern, EPSG:327xx Southern).
func utmSR(epsg int) (*proj.SR, error) {
	p := fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", epsg%100)
	if epsg >= 32700 {
		p += " +south"
	}
	sr, err := proj.Parse(p)
	if err != nil {
		return nil, &ProjectionError{EPSG: epsg, Err: err}
	}
	return sr, nil
}

func longlatSR() (*proj.SR, error) {
	sr, err := proj.Parse(wgs84)
	if err != nil {
		return nil, &ProjectionError{Err: err}
	}
	return sr, nil
}
