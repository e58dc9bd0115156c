package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu/gputest"
)

func TestCameraBufferIsTwoMatrices(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, CameraBufferSize, gpu.BufferUsageUniform, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cam := NewCameraBuilder().Build()
	if err := cam.UpdateBuffer(dev, alloc, buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.SizeInBytes != 128 || len(dev.Created) != 1 {
		t.Errorf("expected the 128 byte buffer to be reused, got %d bytes, %d created", buf.SizeInBytes, len(dev.Created))
	}
}

func TestCameraViewMovesPositionToOrigin(t *testing.T) {
	cam := NewCameraBuilder().
		Position(mgl32.Vec3{1, 2, 3}).
		ViewDirection(mgl32.Vec3{0, 0, 1}).
		DownDirection(mgl32.Vec3{0, 1, 0}).
		Build()

	p := cam.ViewMatrix.Mul4x1(cam.Position.Vec4(1))
	if !p.Vec3().ApproxEqualThreshold(mgl32.Vec3{}, 1e-5) {
		t.Errorf("expected origin, got %v", p)
	}

	ahead := cam.ViewMatrix.Mul4x1(cam.Position.Add(mgl32.Vec3{0, 0, 5}).Vec4(1))
	if math.Abs(float64(ahead.Z()-5)) > 1e-5 {
		t.Errorf("expected depth 5, got %f", ahead.Z())
	}
}

func TestCameraDownIsOrthogonalised(t *testing.T) {
	cam := NewCameraBuilder().
		ViewDirection(mgl32.Vec3{0, 0, 1}).
		DownDirection(mgl32.Vec3{0, 1, 1}).
		Build()
	if d := cam.DownDirection.Dot(cam.ViewDirection); math.Abs(float64(d)) > 1e-5 {
		t.Errorf("expected orthogonal directions, dot %f", d)
	}
}

func TestCameraFovyIsClamped(t *testing.T) {
	cam := NewCameraBuilder().Fovy(10).Build()
	if cam.Fovy > math.Pi {
		t.Errorf("expected fovy below pi, got %f", cam.Fovy)
	}
	cam = NewCameraBuilder().Fovy(-1).Build()
	if cam.Fovy <= 0 {
		t.Errorf("expected positive fovy, got %f", cam.Fovy)
	}
}

func TestCameraMovement(t *testing.T) {
	cam := NewCameraBuilder().
		Position(mgl32.Vec3{0, 0, 0}).
		ViewDirection(mgl32.Vec3{0, 0, 1}).
		DownDirection(mgl32.Vec3{0, 1, 0}).
		Build()

	cam.MoveForward(2)
	cam.MoveBackward(0.5)
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1.5}, 1e-5) {
		t.Errorf("expected (0,0,1.5), got %v", cam.Position)
	}

	cam.StrafeRight(1)
	cam.StrafeLeft(1)
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1.5}, 1e-5) {
		t.Errorf("expected strafes to cancel, got %v", cam.Position)
	}

	cam.TurnRight(math.Pi / 2)
	if math.Abs(float64(cam.ViewDirection.Z())) > 1e-5 {
		t.Errorf("expected a quarter turn, got %v", cam.ViewDirection)
	}
	cam.TurnLeft(math.Pi / 2)
	if !cam.ViewDirection.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5) {
		t.Errorf("expected turns to cancel, got %v", cam.ViewDirection)
	}

	cam.TurnUp(0.3)
	if d := cam.DownDirection.Dot(cam.ViewDirection); math.Abs(float64(d)) > 1e-5 {
		t.Errorf("expected orthogonal directions after pitch, dot %f", d)
	}
}
