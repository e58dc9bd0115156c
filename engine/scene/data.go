package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

// VertexData is the per-vertex stream bound at binding 0.
type VertexData struct {
	Position [3]float32
	Normal   [3]float32
}

// InstanceData is the per-instance stream bound at binding 1.
type InstanceData struct {
	ModelMatrix        mgl32.Mat4
	InverseModelMatrix mgl32.Mat4
	Color              [3]float32
	Metallic           float32
	Roughness          float32
}

func NewInstanceData(model mgl32.Mat4, color [3]float32, metallic, roughness float32) InstanceData {
	return InstanceData{
		ModelMatrix:        model,
		InverseModelMatrix: model.Inv(),
		Color:              color,
		Metallic:           metallic,
		Roughness:          roughness,
	}
}

// SetModelMatrix keeps the inverse in sync.
func (d *InstanceData) SetModelMatrix(model mgl32.Mat4) {
	d.ModelMatrix = model
	d.InverseModelMatrix = model.Inv()
}

// CommandRecorder is the part of a command buffer a drawable needs.
type CommandRecorder interface {
	BindIndexBuffer(buffer *gpu.Buffer)
	BindVertexBuffer(binding uint32, buffer *gpu.Buffer)
	DrawIndexed(indexCount, instanceCount uint32)
}

// Drawable is what the renderer uploads and draws every frame. Per-frame
// data lives in one buffer per slot.
type Drawable interface {
	UpdateVertexBuffer(device gpu.Device, allocator gpu.Allocator) error
	UpdateIndexBuffer(device gpu.Device, allocator gpu.Allocator) error
	UpdateInstanceBuffer(device gpu.Device, allocator gpu.Allocator, slot int) error
	Draw(rec CommandRecorder, slot int)
	Destroy(device gpu.Device, allocator gpu.Allocator) error
}
