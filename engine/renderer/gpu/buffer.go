package gpu

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/spaghettifunk/oberon/engine/core"
)

// Buffer owns exactly one device buffer and the allocation bound to it.
type Buffer struct {
	raw        RawBuffer
	allocation *Allocation

	Name        string
	SizeInBytes uint64
	Usage       BufferUsage
	Location    MemoryLocation
}

func NewBuffer(device Device, allocator Allocator, sizeInBytes uint64, usage BufferUsage, location MemoryLocation) (*Buffer, error) {
	return NewNamedBuffer(device, allocator, "", sizeInBytes, usage, location)
}

// NewNamedBuffer creates a buffer whose allocation carries name in logs. An
// empty name is replaced by a random one.
func NewNamedBuffer(device Device, allocator Allocator, name string, sizeInBytes uint64, usage BufferUsage, location MemoryLocation) (*Buffer, error) {
	if name == "" {
		name = "buffer-" + uuid.NewString()
	}
	if sizeInBytes == 0 {
		return nil, errors.Mark(errors.Newf("%s: cannot create a zero sized buffer", name), core.ErrAllocation)
	}

	raw, err := device.CreateBuffer(sizeInBytes, usage)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s: create buffer", name), core.ErrAllocation)
	}

	requirements := device.BufferMemoryRequirements(raw)
	allocation, err := allocator.Allocate(AllocationDesc{
		Name:         name,
		Requirements: requirements,
		Location:     location,
		Linear:       true,
	})
	if err != nil {
		device.DestroyBuffer(raw)
		return nil, errors.Mark(errors.Wrapf(err, "%s: allocate %d bytes", name, requirements.Size), core.ErrAllocation)
	}

	if err := device.BindBufferMemory(raw, allocation); err != nil {
		device.DestroyBuffer(raw)
		if ferr := allocator.Free(allocation); ferr != nil {
			core.LogError("%s: failed to free allocation after bind failure: %v", name, ferr)
		}
		return nil, errors.Mark(errors.Wrapf(err, "%s: bind memory", name), core.ErrAllocation)
	}

	return &Buffer{
		raw:         raw,
		allocation:  allocation,
		Name:        name,
		SizeInBytes: sizeInBytes,
		Usage:       usage,
		Location:    location,
	}, nil
}

func (b *Buffer) Raw() RawBuffer {
	return b.raw
}

func (b *Buffer) Allocation() *Allocation {
	return b.allocation
}

// Fill copies data into the buffer, growing it to exactly the payload size
// when the payload does not fit. Capacity never shrinks.
func Fill[T any](b *Buffer, device Device, allocator Allocator, data []T) error {
	var zero T
	bytesNeeded := uint64(len(data)) * uint64(unsafe.Sizeof(zero))
	if bytesNeeded == 0 {
		return nil
	}
	if !b.Location.HostVisible() {
		return errors.Mark(errors.Newf("%s: memory location %s is not host visible", b.Name, b.Location), core.ErrAllocation)
	}

	if bytesNeeded > b.SizeInBytes {
		next, err := NewNamedBuffer(device, allocator, b.Name, bytesNeeded, b.Usage, b.Location)
		if err != nil {
			return err
		}
		core.LogDebug("%s: growing %s buffer from %d to %d bytes", b.Name, b.Usage, b.SizeInBytes, bytesNeeded)
		if err := b.replace(next, device, allocator); err != nil {
			return err
		}
	}

	mapped := b.allocation.MappedBytes()
	if uint64(len(mapped)) < bytesNeeded {
		return errors.Mark(errors.Newf("%s: mapped range of %d bytes is smaller than %d", b.Name, len(mapped), bytesNeeded), core.ErrAllocation)
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), bytesNeeded)
	copy(mapped, src)
	return nil
}

// replace releases the buffer and allocation currently owned by b and adopts
// the ones owned by next. next must not be used afterwards.
func (b *Buffer) replace(next *Buffer, device Device, allocator Allocator) error {
	oldRaw, oldAllocation := b.raw, b.allocation

	b.raw = next.raw
	b.allocation = next.allocation
	b.SizeInBytes = next.SizeInBytes

	next.raw = nil
	next.allocation = nil

	device.DestroyBuffer(oldRaw)
	if err := allocator.Free(oldAllocation); err != nil {
		return errors.Mark(errors.Wrapf(err, "%s: free superseded allocation", b.Name), core.ErrAllocation)
	}
	return nil
}

// Destroy releases the buffer object and then its allocation. Calling it on an
// already destroyed buffer does nothing.
func (b *Buffer) Destroy(device Device, allocator Allocator) error {
	if b == nil || b.allocation == nil {
		return nil
	}
	device.DestroyBuffer(b.raw)
	err := allocator.Free(b.allocation)
	b.raw = nil
	b.allocation = nil
	if err != nil {
		return errors.Wrapf(err, "%s: free allocation", b.Name)
	}
	return nil
}
