// Package gputest provides in-memory gpu.Device and gpu.Allocator
// implementations for tests.
package gputest

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

type Buffer struct {
	ID    int
	Size  uint64
	Usage gpu.BufferUsage
}

type Device struct {
	nextID     int
	Live       map[int]*Buffer
	Created    []*Buffer
	Destroyed  int
	FailCreate bool
	FailBind   bool
}

func NewDevice() *Device {
	return &Device{Live: map[int]*Buffer{}}
}

func (d *Device) CreateBuffer(sizeInBytes uint64, usage gpu.BufferUsage) (gpu.RawBuffer, error) {
	if d.FailCreate {
		return nil, errors.New("out of device memory")
	}
	d.nextID++
	b := &Buffer{ID: d.nextID, Size: sizeInBytes, Usage: usage}
	d.Live[b.ID] = b
	d.Created = append(d.Created, b)
	return b, nil
}

func (d *Device) DestroyBuffer(buffer gpu.RawBuffer) {
	b := buffer.(*Buffer)
	if _, ok := d.Live[b.ID]; !ok {
		panic(errors.Newf("buffer %d destroyed twice", b.ID))
	}
	delete(d.Live, b.ID)
	d.Destroyed++
}

func (d *Device) BufferMemoryRequirements(buffer gpu.RawBuffer) gpu.MemoryRequirements {
	return gpu.MemoryRequirements{Size: buffer.(*Buffer).Size, Alignment: 16, MemoryTypeBits: 1}
}

func (d *Device) BindBufferMemory(buffer gpu.RawBuffer, allocation *gpu.Allocation) error {
	if d.FailBind {
		return errors.New("bind failed")
	}
	return nil
}

type Allocator struct {
	Live  map[*gpu.Allocation]bool
	Freed int
}

func NewAllocator() *Allocator {
	return &Allocator{Live: map[*gpu.Allocation]bool{}}
}

func (a *Allocator) Allocate(desc gpu.AllocationDesc) (*gpu.Allocation, error) {
	var mapped []byte
	if desc.Location.HostVisible() {
		mapped = make([]byte, desc.Requirements.Size)
	}
	alloc := gpu.NewAllocation(desc.Name, nil, 0, desc.Requirements.Size, desc.Location, mapped)
	a.Live[alloc] = true
	return alloc, nil
}

func (a *Allocator) Free(allocation *gpu.Allocation) error {
	if !a.Live[allocation] {
		return errors.Newf("unknown allocation %s", allocation.Name())
	}
	delete(a.Live, allocation)
	a.Freed++
	return nil
}
