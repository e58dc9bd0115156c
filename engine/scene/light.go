package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

const (
	directionalLightFloats = 16
	pointLightFloats       = 20
)

type DirectionalLight struct {
	Direction mgl32.Vec3
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
}

type PointLight struct {
	Position  mgl32.Vec3
	Constant  float32
	Linear    float32
	Quadratic float32
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
}

// LightManager collects the lights of a scene and serialises them for the
// light storage buffer bound at set 1.
type LightManager struct {
	directional []DirectionalLight
	point       []PointLight
	dirty       bool
}

func NewLightManager() *LightManager {
	return &LightManager{dirty: true}
}

func (lm *LightManager) AddDirectional(l DirectionalLight) {
	lm.directional = append(lm.directional, l)
	lm.dirty = true
}

func (lm *LightManager) AddPoint(l PointLight) {
	lm.point = append(lm.point, l)
	lm.dirty = true
}

// Dirty reports whether lights changed since the last upload.
func (lm *LightManager) Dirty() bool {
	return lm.dirty
}

func appendPadded(data []float32, v [3]float32, pad float32) []float32 {
	return append(data, v[0], v[1], v[2], pad)
}

// Data lays the lights out as
// [numDirectional, numPoint, directional..., point...] with every vec3
// padded to four floats.
func (lm *LightManager) Data() []float32 {
	data := make([]float32, 0, 2+directionalLightFloats*len(lm.directional)+pointLightFloats*len(lm.point))
	data = append(data, float32(len(lm.directional)), float32(len(lm.point)))
	for _, dl := range lm.directional {
		data = appendPadded(data, dl.Direction, 0)
		data = appendPadded(data, dl.Ambient, 0)
		data = appendPadded(data, dl.Diffuse, 0)
		data = appendPadded(data, dl.Specular, 0)
	}
	for _, pl := range lm.point {
		data = appendPadded(data, pl.Position, 0)
		data = append(data, pl.Constant, pl.Linear, pl.Quadratic, 0)
		data = appendPadded(data, pl.Ambient, 0)
		data = appendPadded(data, pl.Diffuse, 0)
		data = appendPadded(data, pl.Specular, 0)
	}
	return data
}

// UpdateBuffer uploads the lights and returns the number of bytes written,
// which is the range the light descriptors must cover.
func (lm *LightManager) UpdateBuffer(device gpu.Device, allocator gpu.Allocator, buf *gpu.Buffer) (uint64, error) {
	data := lm.Data()
	if err := gpu.Fill(buf, device, allocator, data); err != nil {
		return 0, err
	}
	lm.dirty = false
	return uint64(4 * len(data)), nil
}
