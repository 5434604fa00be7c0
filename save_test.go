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
	"bytes"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

func TestSaveLoad(t *testing.T) {
	square := toGeographic(t, planarSquare(0, 0, 990))
	g1, err := NewGrid([]geom.Polygonal{square}, 400)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := g1.Save(&buf); err != nil {
		t.Fatal(err)
	}
	g2, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if g2.Cols != g1.Cols || g2.Rows != g1.Rows || g2.EPSG != g1.EPSG ||
		g2.CellSize != g1.CellSize || g2.X0 != g1.X0 || g2.Y0 != g1.Y0 {
		t.Error("grid parameters changed across save/load")
	}
	if !reflect.DeepEqual(g2.Cells, g1.Cells) {
		t.Error("cells changed across save/load")
	}
	if !reflect.DeepEqual(g2.AOI, g1.AOI) {
		t.Error("region geometry changed across save/load")
	}
	if g2.SR == nil {
		t.Error("spatial reference was not rebuilt on load")
	}

	// The cell index is rebuilt on load and answers point queries.
	cen := square.Centroid()
	want := g1.GetIndex(cen)
	got := g2.GetIndex(cen)
	if len(got) != len(want) || len(got) == 0 {
		t.Fatalf("loaded grid matched %d cells; want %d", len(got), len(want))
	}
	if got[0].ID != want[0].ID {
		t.Errorf("loaded grid matched cell %d; want %d", got[0].ID, want[0].ID)
	}
}

func TestLoad_badData(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not a grid"))); err == nil {
		t.Error("expected an error loading garbage")
	}
}
