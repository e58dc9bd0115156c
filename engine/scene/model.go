package scene

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/oberon/engine/containers"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

// Model couples shared geometry with a table of instances drawn from it.
type Model[V any, I any] struct {
	*containers.DrawableTable[I]

	Name     string
	Vertices []V
	Indices  []uint32

	vertexBuffer    *gpu.Buffer
	indexBuffer     *gpu.Buffer
	instanceBuffers []*gpu.Buffer
}

func NewModel[V any, I any](name string, vertices []V, indices []uint32, slotCount int) *Model[V, I] {
	return &Model[V, I]{
		DrawableTable:   containers.NewDrawableTable[I](),
		Name:            name,
		Vertices:        vertices,
		Indices:         indices,
		instanceBuffers: make([]*gpu.Buffer, slotCount),
	}
}

func sizeOf[T any](n int) uint64 {
	var zero T
	return uint64(n) * uint64(unsafe.Sizeof(zero))
}

func (m *Model[V, I]) upload(buf **gpu.Buffer, name string, bytes uint64, usage gpu.BufferUsage, device gpu.Device, allocator gpu.Allocator, fill func(*gpu.Buffer) error) error {
	if bytes == 0 {
		return nil
	}
	if *buf == nil {
		b, err := gpu.NewNamedBuffer(device, allocator, name, bytes, usage, gpu.MemoryLocationCpuToGpu)
		if err != nil {
			return err
		}
		*buf = b
	}
	return fill(*buf)
}

// UpdateVertexBuffer uploads the vertex data. Geometry is shared by every
// slot, so it must not change while frames are in flight.
func (m *Model[V, I]) UpdateVertexBuffer(device gpu.Device, allocator gpu.Allocator) error {
	return m.upload(&m.vertexBuffer, m.Name+"-vertices", sizeOf[V](len(m.Vertices)), gpu.BufferUsageVertex, device, allocator,
		func(b *gpu.Buffer) error { return gpu.Fill(b, device, allocator, m.Vertices) })
}

func (m *Model[V, I]) UpdateIndexBuffer(device gpu.Device, allocator gpu.Allocator) error {
	return m.upload(&m.indexBuffer, m.Name+"-indices", sizeOf[uint32](len(m.Indices)), gpu.BufferUsageIndex, device, allocator,
		func(b *gpu.Buffer) error { return gpu.Fill(b, device, allocator, m.Indices) })
}

// UpdateInstanceBuffer uploads the visible instances into the buffer of slot.
func (m *Model[V, I]) UpdateInstanceBuffer(device gpu.Device, allocator gpu.Allocator, slot int) error {
	if slot < 0 || slot >= len(m.instanceBuffers) {
		return errors.Newf("%s: slot %d out of range", m.Name, slot)
	}
	visible := m.Visible()
	name := fmt.Sprintf("%s-instances-%d", m.Name, slot)
	return m.upload(&m.instanceBuffers[slot], name, sizeOf[I](len(visible)), gpu.BufferUsageVertex, device, allocator,
		func(b *gpu.Buffer) error { return gpu.Fill(b, device, allocator, visible) })
}

func (m *Model[V, I]) InstanceBuffer(slot int) *gpu.Buffer {
	return m.instanceBuffers[slot]
}

// Draw records one instanced draw of the visible prefix.
func (m *Model[V, I]) Draw(rec CommandRecorder, slot int) {
	instances := m.instanceBuffers[slot]
	if m.vertexBuffer == nil || m.indexBuffer == nil || instances == nil {
		return
	}
	count := m.VisibleCount()
	if count == 0 {
		return
	}
	rec.BindIndexBuffer(m.indexBuffer)
	rec.BindVertexBuffer(0, m.vertexBuffer)
	rec.BindVertexBuffer(1, instances)
	rec.DrawIndexed(uint32(len(m.Indices)), uint32(count))
}

// Destroy releases every buffer owned by the model.
func (m *Model[V, I]) Destroy(device gpu.Device, allocator gpu.Allocator) error {
	var err error
	err = errors.CombineErrors(err, m.vertexBuffer.Destroy(device, allocator))
	err = errors.CombineErrors(err, m.indexBuffer.Destroy(device, allocator))
	for _, b := range m.instanceBuffers {
		err = errors.CombineErrors(err, b.Destroy(device, allocator))
	}
	m.vertexBuffer, m.indexBuffer = nil, nil
	for i := range m.instanceBuffers {
		m.instanceBuffers[i] = nil
	}
	return err
}
