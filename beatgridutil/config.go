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
)

// maxCellSize is the largest cell edge length [m] the command line accepts.
// The core library only requires positivity, but grids coarser than this
// are not useful at forest-beat scale and usually indicate a unit mistake.
const maxCellSize = 2000

// checkCellSize validates the cell_size configuration value.
func checkCellSize(size float64) (float64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("beatgrid: cell_size must be positive; got %g", size)
	}
	if size > maxCellSize {
		return 0, fmt.Errorf("beatgrid: cell_size must be no larger than %d m; got %g", maxCellSize, size)
	}
	return size, nil
}

// checkInputFile makes sure the named input file is specified and exists,
// expanding any environment variables.
func checkInputFile(f, which string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("beatgrid: you need to specify the %s boundary file (for example: --%s=boundary.kml)", which, which)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return "", fmt.Errorf("beatgrid: the %s boundary file doesn't exist: %v", which, err)
	}
	return f, nil
}

// checkOutputDir makes sure the output directory exists, expanding any
// environment variables.
func checkOutputDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	dir = os.ExpandEnv(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("beatgrid: the output directory doesn't exist: %v", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("beatgrid: output_dir %s is not a directory", dir)
	}
	return dir, nil
}
