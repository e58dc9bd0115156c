package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

// VulkanDevice implements gpu.Device on the logical device.
var _ gpu.Device = (*VulkanDevice)(nil)

func (d *VulkanDevice) CreateBuffer(sizeInBytes uint64, usage gpu.BufferUsage) (gpu.RawBuffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(sizeInBytes),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := d.lockPool.SafeCall(BufferManagement, func() error {
		return resultError("vkCreateBuffer", vk.CreateBuffer(d.LogicalDevice, &createInfo, d.hostAllocator, &buffer))
	}); err != nil {
		return nil, err
	}
	return buffer, nil
}

func (d *VulkanDevice) DestroyBuffer(buffer gpu.RawBuffer) {
	handle, ok := buffer.(vk.Buffer)
	if !ok || handle == nil {
		return
	}
	_ = d.lockPool.SafeCall(BufferManagement, func() error {
		vk.DestroyBuffer(d.LogicalDevice, handle, d.hostAllocator)
		return nil
	})
}

func (d *VulkanDevice) BufferMemoryRequirements(buffer gpu.RawBuffer) gpu.MemoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, buffer.(vk.Buffer), &requirements)
	requirements.Deref()
	return gpu.MemoryRequirements{
		Size:           uint64(requirements.Size),
		Alignment:      uint64(requirements.Alignment),
		MemoryTypeBits: requirements.MemoryTypeBits,
	}
}

func (d *VulkanDevice) BindBufferMemory(buffer gpu.RawBuffer, allocation *gpu.Allocation) error {
	memory, ok := allocation.Memory().(vk.DeviceMemory)
	if !ok {
		return errors.Newf("allocation %s is not backed by device memory", allocation.Name())
	}
	return d.lockPool.SafeCall(BufferManagement, func() error {
		return resultError("vkBindBufferMemory", vk.BindBufferMemory(d.LogicalDevice, buffer.(vk.Buffer), memory, vk.DeviceSize(allocation.Offset())))
	})
}

// rawBuffer unwraps the vk.Buffer held by a gpu.Buffer.
func rawBuffer(buffer *gpu.Buffer) vk.Buffer {
	if buffer == nil {
		return nil
	}
	handle, _ := buffer.Raw().(vk.Buffer)
	return handle
}
