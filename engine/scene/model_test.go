package scene

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu/gputest"
)

type recordedCall struct {
	op            string
	binding       uint32
	buffer        *gpu.Buffer
	indexCount    uint32
	instanceCount uint32
}

type fakeRecorder struct {
	calls []recordedCall
}

func (r *fakeRecorder) BindIndexBuffer(buffer *gpu.Buffer) {
	r.calls = append(r.calls, recordedCall{op: "index", buffer: buffer})
}

func (r *fakeRecorder) BindVertexBuffer(binding uint32, buffer *gpu.Buffer) {
	r.calls = append(r.calls, recordedCall{op: "vertex", binding: binding, buffer: buffer})
}

func (r *fakeRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	r.calls = append(r.calls, recordedCall{op: "draw", indexCount: indexCount, instanceCount: instanceCount})
}

func triangle() ([]VertexData, []uint32) {
	return []VertexData{
		{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
	}, []uint32{0, 1, 2}
}

func instance(x float32) InstanceData {
	return NewInstanceData(mgl32.Translate3D(x, 0, 0), [3]float32{1, 0, 0}, 0.5, 0.5)
}

func uploadAll(t *testing.T, m *Model[VertexData, InstanceData], dev gpu.Device, alloc gpu.Allocator, slot int) {
	t.Helper()
	if err := m.UpdateVertexBuffer(dev, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.UpdateIndexBuffer(dev, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.UpdateInstanceBuffer(dev, alloc, slot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstanceBufferHoldsOnlyVisiblePrefix(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	vertices, indices := triangle()
	m := NewModel[VertexData, InstanceData]("tri", vertices, indices, 2)

	m.InsertVisibly(instance(1))
	hidden := m.Insert(instance(2))
	m.InsertVisibly(instance(3))
	uploadAll(t, m, dev, alloc, 0)

	stride := uint64(unsafe.Sizeof(InstanceData{}))
	buf := m.InstanceBuffer(0)
	if buf.SizeInBytes != 2*stride {
		t.Errorf("expected %d bytes, got %d", 2*stride, buf.SizeInBytes)
	}
	if m.InstanceBuffer(1) != nil {
		t.Errorf("expected slot 1 to stay untouched")
	}

	if err := m.MakeVisible(hidden); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.UpdateInstanceBuffer(dev, alloc, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.SizeInBytes != 3*stride {
		t.Errorf("expected growth to %d bytes, got %d", 3*stride, buf.SizeInBytes)
	}
}

func TestIndexBufferUsesIndexSize(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	vertices, indices := triangle()
	m := NewModel[VertexData, InstanceData]("tri", vertices, indices, 1)
	if err := m.UpdateIndexBuffer(dev, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created := dev.Created[0]
	if created.Size != 12 || created.Usage != gpu.BufferUsageIndex {
		t.Errorf("expected 12 byte index buffer, got %d bytes of %s", created.Size, created.Usage)
	}
}

func TestNoInstanceBufferWhileNothingVisible(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	vertices, indices := triangle()
	m := NewModel[VertexData, InstanceData]("tri", vertices, indices, 1)
	m.Insert(instance(1))
	uploadAll(t, m, dev, alloc, 0)

	if m.InstanceBuffer(0) != nil {
		t.Errorf("expected no instance buffer")
	}
	rec := &fakeRecorder{}
	m.Draw(rec, 0)
	if len(rec.calls) != 0 {
		t.Errorf("expected no commands, got %v", rec.calls)
	}
}

func TestDrawBindsAndDrawsVisibleInstances(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	vertices, indices := triangle()
	m := NewModel[VertexData, InstanceData]("tri", vertices, indices, 1)
	m.InsertVisibly(instance(1))
	m.InsertVisibly(instance(2))
	m.Insert(instance(3))
	uploadAll(t, m, dev, alloc, 0)

	rec := &fakeRecorder{}
	m.Draw(rec, 0)
	if len(rec.calls) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(rec.calls))
	}
	if rec.calls[0].op != "index" {
		t.Errorf("expected index bind first, got %s", rec.calls[0].op)
	}
	if rec.calls[1].binding != 0 || rec.calls[2].binding != 1 {
		t.Errorf("expected bindings 0 and 1, got %d and %d", rec.calls[1].binding, rec.calls[2].binding)
	}
	if rec.calls[2].buffer != m.InstanceBuffer(0) {
		t.Errorf("expected instance buffer at binding 1")
	}
	draw := rec.calls[3]
	if draw.indexCount != 3 || draw.instanceCount != 2 {
		t.Errorf("expected 3 indices and 2 instances, got %d and %d", draw.indexCount, draw.instanceCount)
	}
}

func TestModelDestroyReleasesEverything(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	vertices, indices := triangle()
	m := NewModel[VertexData, InstanceData]("tri", vertices, indices, 2)
	m.InsertVisibly(instance(1))
	uploadAll(t, m, dev, alloc, 0)
	if err := m.UpdateInstanceBuffer(dev, alloc, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Destroy(dev, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dev.Live) != 0 || len(alloc.Live) != 0 {
		t.Errorf("expected nothing live, got %d buffers, %d allocations", len(dev.Live), len(alloc.Live))
	}
	if err := m.Destroy(dev, alloc); err != nil {
		t.Errorf("second destroy: unexpected error: %v", err)
	}
}

func TestUpdateInstanceBufferRejectsUnknownSlot(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	vertices, indices := triangle()
	m := NewModel[VertexData, InstanceData]("tri", vertices, indices, 1)
	if err := m.UpdateInstanceBuffer(dev, alloc, 3); err == nil {
		t.Errorf("expected error for slot 3")
	}
}

func TestInstanceDataInverse(t *testing.T) {
	d := instance(4)
	id := d.ModelMatrix.Mul4(d.InverseModelMatrix)
	if !id.ApproxEqualThreshold(mgl32.Ident4(), 1e-5) {
		t.Errorf("expected identity, got %v", id)
	}
	d.SetModelMatrix(mgl32.Scale3D(2, 2, 2))
	if d.InverseModelMatrix.At(0, 0) != 0.5 {
		t.Errorf("expected 0.5, got %f", d.InverseModelMatrix.At(0, 0))
	}
}
