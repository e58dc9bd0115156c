package gpu_test

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu/gputest"
)

func TestFillWithinCapacityDoesNotReallocate(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, 128, gpu.BufferUsageVertex, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := buf.Allocation()

	if err := gpu.Fill(buf, dev, alloc, make([]byte, 64)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.SizeInBytes != 128 {
		t.Errorf("expected capacity 128, got %d", buf.SizeInBytes)
	}
	if buf.Allocation() != before {
		t.Errorf("expected allocation to be kept")
	}
	if len(dev.Created) != 1 {
		t.Errorf("expected 1 buffer created, got %d", len(dev.Created))
	}
}

func TestFillGrowsToExactSizeAndReleasesOld(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, 128, gpu.BufferUsageVertex, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	identity := buf

	data := make([]uint32, 64)
	for i := range data {
		data[i] = uint32(i * 3)
	}
	if err := gpu.Fill(buf, dev, alloc, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf != identity {
		t.Fatalf("buffer identity changed")
	}
	if buf.SizeInBytes != 256 {
		t.Errorf("expected capacity 256, got %d", buf.SizeInBytes)
	}
	if buf.Usage != gpu.BufferUsageVertex || buf.Location != gpu.MemoryLocationCpuToGpu {
		t.Errorf("usage or location changed: %s %s", buf.Usage, buf.Location)
	}
	if len(dev.Live) != 1 || dev.Destroyed != 1 {
		t.Errorf("expected 1 live and 1 destroyed buffer, got %d live, %d destroyed", len(dev.Live), dev.Destroyed)
	}
	if len(alloc.Live) != 1 || alloc.Freed != 1 {
		t.Errorf("expected 1 live and 1 freed allocation, got %d live, %d freed", len(alloc.Live), alloc.Freed)
	}

	mapped := buf.Allocation().MappedBytes()
	if mapped[4] != 3 || mapped[8] != 6 {
		t.Errorf("payload not copied: % x", mapped[:12])
	}

	// same or smaller payloads keep the grown capacity
	if err := gpu.Fill(buf, dev, alloc, data[:10]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.SizeInBytes != 256 || len(dev.Created) != 2 {
		t.Errorf("expected no reallocation, capacity %d, created %d", buf.SizeInBytes, len(dev.Created))
	}
}

func TestFillStructPayload(t *testing.T) {
	type pair struct {
		A float32
		B float32
	}
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, 8, gpu.BufferUsageStorage, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := gpu.Fill(buf, dev, alloc, []pair{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.SizeInBytes != 16 {
		t.Errorf("expected 16, got %d", buf.SizeInBytes)
	}
}

func TestFillEmptyIsNoop(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, 4, gpu.BufferUsageIndex, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := gpu.Fill(buf, dev, alloc, []uint32{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dev.Created) != 1 {
		t.Errorf("expected no reallocation")
	}
}

func TestFillGpuOnlyFails(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, 4, gpu.BufferUsageVertex, gpu.MemoryLocationGpuOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := gpu.Fill(buf, dev, alloc, []uint32{1}); !errors.Is(err, core.ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}
}

func TestNewBufferFailures(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()

	if _, err := gpu.NewBuffer(dev, alloc, 0, gpu.BufferUsageVertex, gpu.MemoryLocationCpuToGpu); !errors.Is(err, core.ErrAllocation) {
		t.Errorf("zero size: expected ErrAllocation, got %v", err)
	}

	dev.FailCreate = true
	if _, err := gpu.NewBuffer(dev, alloc, 16, gpu.BufferUsageVertex, gpu.MemoryLocationCpuToGpu); !errors.Is(err, core.ErrAllocation) {
		t.Errorf("create: expected ErrAllocation, got %v", err)
	}
	dev.FailCreate = false

	dev.FailBind = true
	if _, err := gpu.NewBuffer(dev, alloc, 16, gpu.BufferUsageVertex, gpu.MemoryLocationCpuToGpu); !errors.Is(err, core.ErrAllocation) {
		t.Errorf("bind: expected ErrAllocation, got %v", err)
	}
	if len(dev.Live) != 0 || len(alloc.Live) != 0 {
		t.Errorf("expected partial objects to be released, got %d buffers, %d allocations", len(dev.Live), len(alloc.Live))
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewBuffer(dev, alloc, 32, gpu.BufferUsageUniform, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := buf.Destroy(dev, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := buf.Destroy(dev, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dev.Destroyed != 1 || alloc.Freed != 1 {
		t.Errorf("expected exactly one release, got %d destroyed, %d freed", dev.Destroyed, alloc.Freed)
	}
}

func TestNamedBufferKeepsName(t *testing.T) {
	dev, alloc := gputest.NewDevice(), gputest.NewAllocator()
	buf, err := gpu.NewNamedBuffer(dev, alloc, "camera", 128, gpu.BufferUsageUniform, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Allocation().Name() != "camera" {
		t.Errorf("expected camera, got %s", buf.Allocation().Name())
	}
	anon, err := gpu.NewBuffer(dev, alloc, 16, gpu.BufferUsageUniform, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anon.Name == "" {
		t.Errorf("expected generated name")
	}
}
