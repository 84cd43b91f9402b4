package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestBox_EmptyAndUnion(t *testing.T) {
	empty := EmptyBox()
	if !empty.IsEmpty() {
		t.Fatal("EmptyBox should be empty")
	}

	box := empty.AddPoint(NewVec3(1, 2, 3))
	if box.IsEmpty() {
		t.Fatal("Box with one point should not be empty")
	}
	if box.Min != NewVec3(1, 2, 3) || box.Max != NewVec3(1, 2, 3) {
		t.Errorf("Expected degenerate box at (1,2,3), got %v", box)
	}

	other := NewBox(NewVec3(-1, -1, -1), NewVec3(0, 0, 0))
	union := box.Union(other)
	if union.Min != NewVec3(-1, -1, -1) || union.Max != NewVec3(1, 2, 3) {
		t.Errorf("Unexpected union %v", union)
	}

	if got := empty.Union(other); got != other {
		t.Errorf("Union with empty should return other, got %v", got)
	}
	if got := other.Union(empty); got != other {
		t.Errorf("Union with empty should return self, got %v", got)
	}
}

func TestBox_Corner(t *testing.T) {
	box := NewBox(NewVec3(0, 0, 0), NewVec3(1, 2, 3))
	expected := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 2, 0}, {1, 2, 0},
		{0, 0, 3}, {1, 0, 3}, {0, 2, 3}, {1, 2, 3},
	}
	for i, want := range expected {
		if got := box.Corner(i); got != want {
			t.Errorf("Corner(%d): expected %v, got %v", i, want, got)
		}
	}

	rebuilt := EmptyBox()
	for i := 0; i < 8; i++ {
		rebuilt = rebuilt.AddPoint(box.Corner(i))
	}
	if rebuilt != box {
		t.Errorf("Corners should span the box, got %v", rebuilt)
	}
}

func TestBox_Slab(t *testing.T) {
	box := NewBox(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name          string
		ray           Ray
		expectHit     bool
		expectedEnter float64
		expectedExit  float64
	}{
		{"straight through", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), true, 4, 6},
		{"scaled direction", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -2)), true, 2, 3},
		{"origin inside", NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)), true, -1, 1},
		{"parallel inside slab", NewRay(NewVec3(0.5, 0.5, 5), NewVec3(0, 0, -1)), true, 4, 6},
		{"parallel outside slab", NewRay(NewVec3(2, 0, 5), NewVec3(0, 0, -1)), false, 0, 0},
		{"miss diagonal", NewRay(NewVec3(0, 3, 5), NewVec3(0, 0, -1)), false, 0, 0},
		{"parallel on boundary", NewRay(NewVec3(1, 0, 5), NewVec3(0, 0, -1)), true, 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tEnter, tExit, ok := box.Slab(tt.ray)
			if ok != tt.expectHit {
				t.Fatalf("Expected hit=%t, got %t", tt.expectHit, ok)
			}
			if !ok {
				return
			}
			if math.Abs(tEnter-tt.expectedEnter) > 1e-9 || math.Abs(tExit-tt.expectedExit) > 1e-9 {
				t.Errorf("Expected [%f, %f], got [%f, %f]", tt.expectedEnter, tt.expectedExit, tEnter, tExit)
			}
		})
	}
}

func TestBox_SlabEmpty(t *testing.T) {
	if _, _, ok := EmptyBox().Slab(NewRay(Vec3{}, NewVec3(1, 0, 0))); ok {
		t.Error("Empty box should never be hit")
	}
}

// referenceSlab is an independent slab implementation using per-axis interval arrays
func referenceSlab(box Box, ray Ray) (float64, float64, bool) {
	lo := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}
	o := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	d := [3]float64{ray.Direction.X, ray.Direction.Y, ray.Direction.Z}

	enter := math.Inf(-1)
	exit := math.Inf(1)
	for i := range 3 {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, 0, false
			}
			continue
		}
		a := (lo[i] - o[i]) / d[i]
		b := (hi[i] - o[i]) / d[i]
		enter = math.Max(enter, math.Min(a, b))
		exit = math.Min(exit, math.Max(a, b))
	}
	if enter > exit {
		return 0, 0, false
	}
	return enter, exit, true
}

func closeRel(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestBox_SlabMatchesReference(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	coord := func() float64 { return random.Float64()*8 - 4 }
	dirComponent := func() float64 {
		// Exercise the axis-parallel cases regularly
		if random.Intn(4) == 0 {
			return 0
		}
		return random.Float64()*2 - 1
	}

	for i := 0; i < 2000; i++ {
		box := NewBoxFromPoints(NewVec3(coord(), coord(), coord()), NewVec3(coord(), coord(), coord()))
		ray := NewRay(NewVec3(coord(), coord(), coord()), NewVec3(dirComponent(), dirComponent(), dirComponent()))
		if ray.Direction.IsZero() {
			continue
		}

		gotEnter, gotExit, gotOK := box.Slab(ray)
		wantEnter, wantExit, wantOK := referenceSlab(box, ray)
		if gotOK != wantOK {
			t.Fatalf("case %d: hit mismatch, got %t want %t (box %v ray %v)", i, gotOK, wantOK, box, ray)
		}
		if !gotOK {
			continue
		}
		if !closeRel(gotEnter, wantEnter) || !closeRel(gotExit, wantExit) {
			t.Fatalf("case %d: got [%f, %f] want [%f, %f]", i, gotEnter, gotExit, wantEnter, wantExit)
		}
	}
}

func TestBox_IntersectRay(t *testing.T) {
	box := NewBox(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	if _, ok := box.IntersectRay(NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)), Big); ok {
		t.Error("Box behind the ray should not be hit")
	}
	if _, ok := box.IntersectRay(NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), 3); ok {
		t.Error("Box beyond tMax should not be hit")
	}
	tEnter, ok := box.IntersectRay(NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), 10)
	if !ok || math.Abs(tEnter-4) > 1e-9 {
		t.Errorf("Expected entry at 4, got %f (hit=%t)", tEnter, ok)
	}
}
