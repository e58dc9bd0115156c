package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

// CameraBufferSize is the size of the camera uniform: view then projection.
const CameraBufferSize = 2 * 16 * 4

type CameraBuilder struct {
	position      mgl32.Vec3
	viewDirection mgl32.Vec3
	downDirection mgl32.Vec3
	fovy          float32
	aspect        float32
	near          float32
	far           float32
}

func NewCameraBuilder() *CameraBuilder {
	return &CameraBuilder{
		position:      mgl32.Vec3{0, -3, -3},
		viewDirection: mgl32.Vec3{0, 1, 1}.Normalize(),
		downDirection: mgl32.Vec3{0, 1, -1}.Normalize(),
		fovy:          math.Pi / 3,
		aspect:        800.0 / 600.0,
		near:          0.1,
		far:           100,
	}
}

func (b *CameraBuilder) Position(pos mgl32.Vec3) *CameraBuilder {
	b.position = pos
	return b
}

func (b *CameraBuilder) ViewDirection(direction mgl32.Vec3) *CameraBuilder {
	b.viewDirection = direction.Normalize()
	return b
}

func (b *CameraBuilder) DownDirection(direction mgl32.Vec3) *CameraBuilder {
	b.downDirection = direction.Normalize()
	return b
}

// Fovy sets the vertical field of view in radians, clamped to (0, π).
func (b *CameraBuilder) Fovy(fovy float32) *CameraBuilder {
	b.fovy = core.Clamp(fovy, 0.01, math.Pi-0.01)
	return b
}

func (b *CameraBuilder) Aspect(aspect float32) *CameraBuilder {
	b.aspect = aspect
	return b
}

func (b *CameraBuilder) Near(near float32) *CameraBuilder {
	if near <= 0 {
		core.LogWarn("setting near plane to non-positive value %f", near)
	}
	b.near = near
	return b
}

func (b *CameraBuilder) Far(far float32) *CameraBuilder {
	if far <= 0 {
		core.LogWarn("setting far plane to non-positive value %f", far)
	}
	b.far = far
	return b
}

func (b *CameraBuilder) Build() *Camera {
	if b.far < b.near {
		core.LogWarn("far plane (%f) closer than near plane (%f)", b.far, b.near)
	}
	// down must be orthogonal to the view direction
	down := b.downDirection.Sub(b.viewDirection.Mul(b.downDirection.Dot(b.viewDirection))).Normalize()
	c := &Camera{
		Position:      b.position,
		ViewDirection: b.viewDirection,
		DownDirection: down,
		Fovy:          b.fovy,
		Aspect:        b.aspect,
		Near:          b.near,
		Far:           b.far,
	}
	c.updateProjectionMatrix()
	c.updateViewMatrix()
	return c
}

type Camera struct {
	ViewMatrix       mgl32.Mat4
	ProjectionMatrix mgl32.Mat4
	Position         mgl32.Vec3
	ViewDirection    mgl32.Vec3
	DownDirection    mgl32.Vec3
	Fovy             float32
	Aspect           float32
	Near             float32
	Far              float32
}

func (c *Camera) right() mgl32.Vec3 {
	return c.DownDirection.Cross(c.ViewDirection).Normalize()
}

func (c *Camera) updateViewMatrix() {
	r, d, v := c.right(), c.DownDirection, c.ViewDirection
	c.ViewMatrix = mgl32.Mat4FromRows(
		mgl32.Vec4{r.X(), r.Y(), r.Z(), -r.Dot(c.Position)},
		mgl32.Vec4{d.X(), d.Y(), d.Z(), -d.Dot(c.Position)},
		mgl32.Vec4{v.X(), v.Y(), v.Z(), -v.Dot(c.Position)},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// Vulkan clip space: y points down, depth in [0, 1].
func (c *Camera) updateProjectionMatrix() {
	d := float32(1 / math.Tan(float64(0.5*c.Fovy)))
	depth := c.Far - c.Near
	c.ProjectionMatrix = mgl32.Mat4FromRows(
		mgl32.Vec4{d / c.Aspect, 0, 0, 0},
		mgl32.Vec4{0, d, 0, 0},
		mgl32.Vec4{0, 0, c.Far / depth, -c.Near * c.Far / depth},
		mgl32.Vec4{0, 0, 1, 0},
	)
}

func (c *Camera) SetAspect(aspect float32) {
	c.Aspect = aspect
	c.updateProjectionMatrix()
}

func (c *Camera) MoveForward(distance float32) {
	c.Position = c.Position.Add(c.ViewDirection.Mul(distance))
	c.updateViewMatrix()
}

func (c *Camera) MoveBackward(distance float32) {
	c.MoveForward(-distance)
}

func (c *Camera) StrafeRight(distance float32) {
	c.Position = c.Position.Add(c.right().Mul(-distance))
	c.updateViewMatrix()
}

func (c *Camera) StrafeLeft(distance float32) {
	c.StrafeRight(-distance)
}

func (c *Camera) TurnRight(angle float32) {
	rotation := mgl32.QuatRotate(angle, c.DownDirection)
	c.ViewDirection = rotation.Rotate(c.ViewDirection).Normalize()
	c.updateViewMatrix()
}

func (c *Camera) TurnLeft(angle float32) {
	c.TurnRight(-angle)
}

func (c *Camera) TurnUp(angle float32) {
	rotation := mgl32.QuatRotate(angle, c.right())
	c.ViewDirection = rotation.Rotate(c.ViewDirection).Normalize()
	c.DownDirection = rotation.Rotate(c.DownDirection).Normalize()
	c.updateViewMatrix()
}

func (c *Camera) TurnDown(angle float32) {
	c.TurnUp(-angle)
}

// UpdateBuffer writes the view and projection matrices into buf.
func (c *Camera) UpdateBuffer(device gpu.Device, allocator gpu.Allocator, buf *gpu.Buffer) error {
	return gpu.Fill(buf, device, allocator, []mgl32.Mat4{c.ViewMatrix, c.ProjectionMatrix})
}
