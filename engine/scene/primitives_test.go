package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func checkIndices(t *testing.T, vertices []VertexData, indices []uint32) {
	t.Helper()
	if len(indices)%3 != 0 {
		t.Fatalf("%d indices do not form triangles", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			t.Fatalf("index %d out of range for %d vertices", i, len(vertices))
		}
	}
}

func TestCube(t *testing.T) {
	vertices, indices := Cube()
	if len(vertices) != 24 || len(indices) != 36 {
		t.Fatalf("expected 24 vertices and 36 indices, got %d and %d", len(vertices), len(indices))
	}
	checkIndices(t, vertices, indices)
	for _, v := range vertices {
		p, n := mgl32.Vec3(v.Position), mgl32.Vec3(v.Normal)
		// every vertex lies on the face its normal points to
		if !mgl32.FloatEqual(p.Dot(n), 1) {
			t.Errorf("vertex %v is not on the face with normal %v", p, n)
		}
	}
}

func TestSphere(t *testing.T) {
	tests := []struct {
		refinements       int
		vertices, indices int
	}{
		{0, 12, 60},
		{1, 42, 240},
		{2, 162, 960},
	}
	for _, tt := range tests {
		vertices, indices := Sphere(tt.refinements)
		if len(vertices) != tt.vertices || len(indices) != tt.indices {
			t.Errorf("refinements %d: expected %d/%d, got %d/%d", tt.refinements, tt.vertices, tt.indices, len(vertices), len(indices))
			continue
		}
		checkIndices(t, vertices, indices)
		for _, v := range vertices {
			if l := mgl32.Vec3(v.Position).Len(); !mgl32.FloatEqualThreshold(l, 1, 1e-5) {
				t.Fatalf("vertex %v is not on the unit sphere", v.Position)
			}
		}
	}
}
