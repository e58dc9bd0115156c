package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Cube returns a cube of side 2 centered at the origin. Each face has its
// own four vertices so that normals stay flat.
func Cube() ([]VertexData, []uint32) {
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	vertices := make([]VertexData, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.normal.Add(f.u.Mul(corner[0])).Add(f.v.Mul(corner[1]))
			vertices = append(vertices, VertexData{Position: p, Normal: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// Icosahedron returns the regular icosahedron with vertices at distance
// sqrt(1+φ²) from the origin and normals pointing outwards.
func Icosahedron() ([]VertexData, []uint32) {
	phi := float32((1 + math.Sqrt(5)) / 2)
	positions := []mgl32.Vec3{
		{phi, -1, 0}, {phi, 1, 0}, {-phi, -1, 0}, {-phi, 1, 0},
		{1, 0, -phi}, {-1, 0, -phi}, {1, 0, phi}, {-1, 0, phi},
		{0, -phi, -1}, {0, -phi, 1}, {0, phi, -1}, {0, phi, 1},
	}
	vertices := make([]VertexData, len(positions))
	for i, p := range positions {
		vertices[i] = VertexData{Position: p, Normal: p.Normalize()}
	}
	indices := []uint32{
		0, 9, 8, 0, 8, 4, 0, 4, 1, 0, 1, 6, 0, 6, 9,
		8, 9, 2, 8, 2, 5, 8, 5, 4, 4, 5, 10, 4, 10, 1,
		1, 10, 11, 1, 11, 6, 2, 3, 5, 2, 7, 3, 2, 9, 7,
		5, 3, 10, 3, 11, 10, 3, 7, 11, 6, 7, 9, 6, 11, 7,
	}
	return vertices, indices
}

// Sphere returns a unit sphere made by splitting every icosahedron triangle
// into four, refinements times.
func Sphere(refinements int) ([]VertexData, []uint32) {
	vertices, indices := Icosahedron()
	for i := 0; i < refinements; i++ {
		vertices, indices = refine(vertices, indices)
	}
	for i := range vertices {
		n := mgl32.Vec3(vertices[i].Position).Normalize()
		vertices[i].Position = n
		vertices[i].Normal = n
	}
	return vertices, indices
}

func refine(vertices []VertexData, indices []uint32) ([]VertexData, []uint32) {
	type edge struct{ a, b uint32 }
	midpoints := make(map[edge]uint32)
	midpoint := func(a, b uint32) uint32 {
		if m, ok := midpoints[edge{a, b}]; ok {
			return m
		}
		pa, pb := mgl32.Vec3(vertices[a].Position), mgl32.Vec3(vertices[b].Position)
		na, nb := mgl32.Vec3(vertices[a].Normal), mgl32.Vec3(vertices[b].Normal)
		m := uint32(len(vertices))
		vertices = append(vertices, VertexData{
			Position: pa.Add(pb).Mul(0.5),
			Normal:   na.Add(nb).Normalize(),
		})
		midpoints[edge{a, b}] = m
		midpoints[edge{b, a}] = m
		return m
	}

	out := make([]uint32, 0, 4*len(indices))
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		mab := midpoint(a, b)
		mbc := midpoint(b, c)
		mca := midpoint(c, a)
		out = append(out, mca, a, mab, mab, b, mbc, mbc, c, mca, mab, mbc, mca)
	}
	return vertices, out
}
