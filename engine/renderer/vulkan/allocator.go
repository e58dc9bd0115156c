package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

// MemoryAllocator implements gpu.Allocator with one dedicated device memory
// object per allocation. Host visible memory stays mapped until it is freed.
type MemoryAllocator struct {
	context *VulkanContext
	live    map[*gpu.Allocation]vk.DeviceMemory
}

var _ gpu.Allocator = (*MemoryAllocator)(nil)

func NewMemoryAllocator(context *VulkanContext) *MemoryAllocator {
	return &MemoryAllocator{
		context: context,
		live:    make(map[*gpu.Allocation]vk.DeviceMemory),
	}
}

func memoryPropertyFlags(location gpu.MemoryLocation) (vk.MemoryPropertyFlags, error) {
	switch location {
	case gpu.MemoryLocationCpuToGpu:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit), nil
	case gpu.MemoryLocationGpuOnly:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), nil
	}
	return 0, errors.Newf("unsupported memory location %s", location)
}

func (a *MemoryAllocator) Allocate(desc gpu.AllocationDesc) (*gpu.Allocation, error) {
	flags, err := memoryPropertyFlags(desc.Location)
	if err != nil {
		return nil, err
	}
	index := a.context.FindMemoryIndex(desc.Requirements.MemoryTypeBits, uint32(flags))
	if index < 0 {
		return nil, errors.Newf("no memory type for %s allocation %s", desc.Location, desc.Name)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(desc.Requirements.Size),
		MemoryTypeIndex: uint32(index),
	}

	device := a.context.Device.LogicalDevice
	var allocation *gpu.Allocation
	err = a.context.LockPool.SafeCall(MemoryManagement, func() error {
		var memory vk.DeviceMemory
		if err := resultError("vkAllocateMemory", vk.AllocateMemory(device, &allocateInfo, a.context.Allocator, &memory)); err != nil {
			return err
		}

		var mapped []byte
		if desc.Location.HostVisible() {
			var data unsafe.Pointer
			if err := resultError("vkMapMemory", vk.MapMemory(device, memory, 0, vk.DeviceSize(desc.Requirements.Size), 0, &data)); err != nil {
				vk.FreeMemory(device, memory, a.context.Allocator)
				return err
			}
			mapped = unsafe.Slice((*byte)(data), desc.Requirements.Size)
		}

		allocation = gpu.NewAllocation(desc.Name, memory, 0, desc.Requirements.Size, desc.Location, mapped)
		a.live[allocation] = memory
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocating %d bytes for %s", desc.Requirements.Size, desc.Name)
	}
	return allocation, nil
}

func (a *MemoryAllocator) Free(allocation *gpu.Allocation) error {
	return a.context.LockPool.SafeCall(MemoryManagement, func() error {
		memory, ok := a.live[allocation]
		if !ok {
			return errors.Newf("allocation %s is not owned by this allocator", allocation.Name())
		}
		device := a.context.Device.LogicalDevice
		if allocation.Location().HostVisible() {
			vk.UnmapMemory(device, memory)
		}
		vk.FreeMemory(device, memory, a.context.Allocator)
		delete(a.live, allocation)
		return nil
	})
}

// LiveAllocations returns the number of allocations not yet freed.
func (a *MemoryAllocator) LiveAllocations() int {
	return len(a.live)
}

// Destroy releases whatever is still allocated and reports it as a leak.
func (a *MemoryAllocator) Destroy() error {
	if len(a.live) == 0 {
		return nil
	}
	leaked := len(a.live)
	for allocation := range a.live {
		core.LogWarn("leaked allocation %s (%d bytes, %s)", allocation.Name(), allocation.Size(), allocation.Location())
		if err := a.Free(allocation); err != nil {
			core.LogError("failed to free leaked allocation %s: %s", allocation.Name(), err)
		}
	}
	return errors.Mark(errors.Newf("%d allocations were still live at shutdown", leaked), core.ErrAllocation)
}
