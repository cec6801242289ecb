package grid

import (
	"encoding/json"
	"testing"
)

func TestCellJSONRoundTrip(t *testing.T) {
	c := Cell{X: 3, Y: 7}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[3,7]" {
		t.Fatalf("expected [3,7], got %s", data)
	}
	var back Cell
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Fatalf("round trip changed cell: %v != %v", back, c)
	}
}

func TestCellUnmarshalRejectsGarbage(t *testing.T) {
	var c Cell
	if err := json.Unmarshal([]byte(`{"x":1}`), &c); err == nil {
		t.Fatal("expected error for object input")
	}
}

func TestChebyshev(t *testing.T) {
	cases := []struct {
		a, b Cell
		want int
	}{
		{Cell{0, 0}, Cell{0, 0}, 0},
		{Cell{0, 0}, Cell{9, 5}, 9},
		{Cell{9, 5}, Cell{0, 0}, 9},
		{Cell{2, 2}, Cell{3, 3}, 1},
		{Cell{5, 1}, Cell{5, 8}, 7},
	}
	for _, c := range cases {
		if got := Chebyshev(c.a, c.b); got != c.want {
			t.Fatalf("Chebyshev(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNewWorldRejectsBadDimensions(t *testing.T) {
	if _, err := NewWorld(0, 10, []Cell{{0, 0}}, nil); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := NewWorld(10, -1, []Cell{{0, 0}}, nil); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestNewWorldRequiresDoor(t *testing.T) {
	if _, err := NewWorld(10, 10, nil, nil); err == nil {
		t.Fatal("expected error for empty door set")
	}
}

func TestNewWorldRejectsOutOfBoundsCells(t *testing.T) {
	if _, err := NewWorld(10, 10, []Cell{{10, 5}}, nil); err == nil {
		t.Fatal("expected error for out-of-bounds door")
	}
	if _, err := NewWorld(10, 10, []Cell{{9, 5}}, []Cell{{-1, 0}}); err == nil {
		t.Fatal("expected error for out-of-bounds obstacle")
	}
}

func TestNewWorldRejectsDoorOnObstacle(t *testing.T) {
	if _, err := NewWorld(10, 10, []Cell{{4, 4}}, []Cell{{4, 4}}); err == nil {
		t.Fatal("expected error for door placed on obstacle")
	}
}

func TestWorldQueries(t *testing.T) {
	w, err := NewWorld(10, 10, []Cell{{9, 5}}, []Cell{{3, 3}})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if !w.InBounds(Cell{0, 0}) || !w.InBounds(Cell{9, 9}) {
		t.Fatal("corners should be in bounds")
	}
	if w.InBounds(Cell{10, 0}) || w.InBounds(Cell{0, -1}) {
		t.Fatal("cells past the edge should be out of bounds")
	}
	if !w.IsObstacle(Cell{3, 3}) || w.IsObstacle(Cell{3, 4}) {
		t.Fatal("obstacle lookup wrong")
	}
	if !w.IsDoor(Cell{9, 5}) || w.IsDoor(Cell{9, 4}) {
		t.Fatal("door lookup wrong")
	}
	if w.Free(Cell{3, 3}) || !w.Free(Cell{5, 5}) || w.Free(Cell{10, 10}) {
		t.Fatal("Free wrong")
	}
	if got := w.FreeCellCount(); got != 99 {
		t.Fatalf("FreeCellCount = %d, want 99", got)
	}
}

func TestNearestDoorPicksMinimumDistance(t *testing.T) {
	w, err := NewWorld(10, 10, []Cell{{0, 0}, {9, 9}}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if got := w.NearestDoor(Cell{1, 1}); got != (Cell{0, 0}) {
		t.Fatalf("NearestDoor(1,1) = %v, want (0,0)", got)
	}
	if got := w.NearestDoor(Cell{8, 8}); got != (Cell{9, 9}) {
		t.Fatalf("NearestDoor(8,8) = %v, want (9,9)", got)
	}
}

func TestNearestDoorTieBreaksLexicographically(t *testing.T) {
	// (0,4) and (8,4) are both 4 away from (4,4).
	w, err := NewWorld(10, 10, []Cell{{8, 4}, {0, 4}}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if got := w.NearestDoor(Cell{4, 4}); got != (Cell{0, 4}) {
		t.Fatalf("tie should break to the lexicographically lowest door, got %v", got)
	}
}

func TestDoorsAndObstaclesSorted(t *testing.T) {
	w, err := NewWorld(10, 10, []Cell{{5, 1}, {0, 9}, {5, 0}}, []Cell{{7, 7}, {2, 2}})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	doors := w.Doors()
	want := []Cell{{0, 9}, {5, 0}, {5, 1}}
	for i := range want {
		if doors[i] != want[i] {
			t.Fatalf("Doors()[%d] = %v, want %v", i, doors[i], want[i])
		}
	}
	obs := w.Obstacles()
	if obs[0] != (Cell{2, 2}) || obs[1] != (Cell{7, 7}) {
		t.Fatalf("Obstacles() not sorted: %v", obs)
	}
}
