package testbed

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/scene"
)

func TestSphereGrid(t *testing.T) {
	model, instances := sphereGrid(3, 4, 2)
	if model.Len() != 12 || model.VisibleCount() != 12 || len(instances) != 12 {
		t.Fatalf("expected 12 visible spheres, got %d/%d", model.VisibleCount(), model.Len())
	}

	first, err := model.Get(instances[0].handle)
	if err != nil {
		t.Fatal(err)
	}
	last, err := model.Get(instances[11].handle)
	if err != nil {
		t.Fatal(err)
	}
	if first.Metallic != 0 || last.Metallic != 1 {
		t.Errorf("metallic should span [0, 1], got %v and %v", first.Metallic, last.Metallic)
	}
	if first.Roughness != 0.05 || last.Roughness != 1 {
		t.Errorf("roughness should span [0.05, 1], got %v and %v", first.Roughness, last.Roughness)
	}
	if first.Color == last.Color {
		t.Error("spheres should have different colors")
	}
}

func TestToggleEveryOther(t *testing.T) {
	s := &gameState{}
	s.spheres, s.instances = sphereGrid(2, 3, 1)

	if err := s.toggleEveryOther(true); err != nil {
		t.Fatal(err)
	}
	if s.spheres.VisibleCount() != 3 {
		t.Fatalf("expected 3 visible spheres, got %d", s.spheres.VisibleCount())
	}
	for i, inst := range s.instances {
		visible, err := s.spheres.IsVisible(inst.handle)
		if err != nil {
			t.Fatal(err)
		}
		if visible != (i%2 == 0) {
			t.Errorf("sphere %d visible = %v", i, visible)
		}
	}

	if err := s.toggleEveryOther(false); err != nil {
		t.Fatal(err)
	}
	if s.spheres.VisibleCount() != 6 {
		t.Errorf("expected every sphere visible again, got %d", s.spheres.VisibleCount())
	}
}

func TestBobKeepsInverseInSync(t *testing.T) {
	s := &gameState{elapsed: 0.7}
	s.spheres, s.instances = sphereGrid(1, 2, 1)
	if err := s.bob(); err != nil {
		t.Fatal(err)
	}
	payload, err := s.spheres.Get(s.instances[1].handle)
	if err != nil {
		t.Fatal(err)
	}
	if !payload.ModelMatrix.Mul4(payload.InverseModelMatrix).ApproxEqualThreshold(identity(), 1e-5) {
		t.Error("inverse model matrix is stale")
	}
}

func TestMoveCamera(t *testing.T) {
	camera := scene.NewCameraBuilder().Build()
	input := core.NewInput(nil)
	start := camera.Position

	input.ProcessKey(core.KEY_W, true)
	moveCamera(camera, input, 0.5)
	moved := camera.Position.Sub(start)
	if d := moved.Len(); d < 2.49 || d > 2.51 {
		t.Errorf("expected to move 2.5 units, moved %v", d)
	}
	if moved.Dot(camera.ViewDirection) <= 0 {
		t.Error("camera should move along its view direction")
	}
}

func identity() mgl32.Mat4 {
	return mgl32.Ident4()
}
