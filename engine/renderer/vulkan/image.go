package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

type VulkanImage struct {
	Handle     vk.Image
	Allocation *gpu.Allocation
	View       vk.ImageView
	Width      uint32
	Height     uint32
}

// ImageCreate creates a 2D image backed by device local memory and, if
// asked, a view over aspectFlags.
func ImageCreate(context *VulkanContext, name string, width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, createView bool, aspectFlags vk.ImageAspectFlags) (*VulkanImage, error) {
	image := &VulkanImage{
		Width:  width,
		Height: height,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	device := context.Device.LogicalDevice
	if err := context.LockPool.SafeCall(ImageManagement, func() error {
		var handle vk.Image
		if err := resultError("vkCreateImage", vk.CreateImage(device, &imageCreateInfo, context.Allocator, &handle)); err != nil {
			return err
		}
		image.Handle = handle
		return nil
	}); err != nil {
		return nil, errors.Mark(err, core.ErrAllocation)
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	allocation, err := context.MemoryAllocator.Allocate(gpu.AllocationDesc{
		Name: name,
		Requirements: gpu.MemoryRequirements{
			Size:           uint64(memoryRequirements.Size),
			Alignment:      uint64(memoryRequirements.Alignment),
			MemoryTypeBits: memoryRequirements.MemoryTypeBits,
		},
		Location: gpu.MemoryLocationGpuOnly,
		Linear:   tiling == vk.ImageTilingLinear,
	})
	if err != nil {
		image.Destroy(context)
		return nil, errors.Mark(err, core.ErrAllocation)
	}
	image.Allocation = allocation

	if err := resultError("vkBindImageMemory", vk.BindImageMemory(device, image.Handle, allocation.Memory().(vk.DeviceMemory), vk.DeviceSize(allocation.Offset()))); err != nil {
		image.Destroy(context)
		return nil, errors.Mark(err, core.ErrAllocation)
	}

	if createView {
		view, err := ImageViewCreate(context, format, image.Handle, aspectFlags)
		if err != nil {
			image.Destroy(context)
			return nil, err
		}
		image.View = view
	}
	return image, nil
}

func ImageViewCreate(context *VulkanContext, format vk.Format, image vk.Image, aspectFlags vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := resultError("vkCreateImageView", vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vi.View != nil {
		vk.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.Handle != nil {
		_ = context.LockPool.SafeCall(ImageManagement, func() error {
			vk.DestroyImage(device, vi.Handle, context.Allocator)
			return nil
		})
		vi.Handle = nil
	}
	if vi.Allocation != nil {
		if err := context.MemoryAllocator.Free(vi.Allocation); err != nil {
			core.LogError("failed to free image memory: %s", err)
		}
		vi.Allocation = nil
	}
}
