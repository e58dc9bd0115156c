package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/core"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	suboptimalReported bool
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	// FIFO is always available.
	return vk.PresentModeFifo
}

func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	return vk.Extent2D{
		Width:  core.Clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: core.Clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// SwapchainCreate builds the swapchain, one view per image and the depth
// attachment shared by every framebuffer.
func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := context.Device.SwapchainSupport
	if support == nil || len(support.Formats) == 0 {
		return nil, errors.New("swapchain support was not queried")
	}
	capabilities := support.Capabilities

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		Extent:      chooseExtent(capabilities, width, height),
	}

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      choosePresentMode(support.PresentModes),
		Clipped:          vk.True,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	}

	device := context.Device.LogicalDevice
	var swapchainHandle vk.Swapchain
	if err := resultError("vkCreateSwapchainKHR", vk.CreateSwapchain(device, &swapchainCreateInfo, context.Allocator, &swapchainHandle)); err != nil {
		return nil, err
	}
	swapchain.Handle = swapchainHandle

	if err := resultError("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(device, swapchain.Handle, &swapchain.ImageCount, nil)); err != nil {
		swapchain.Destroy(context)
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if err := resultError("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(device, swapchain.Handle, &swapchain.ImageCount, swapchain.Images)); err != nil {
		swapchain.Destroy(context)
		return nil, err
	}

	swapchain.Views = make([]vk.ImageView, 0, swapchain.ImageCount)
	for _, image := range swapchain.Images {
		view, err := ImageViewCreate(context, swapchain.ImageFormat.Format, image, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			swapchain.Destroy(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	depthAttachment, err := ImageCreate(
		context,
		"depth-attachment",
		swapchain.Extent.Width,
		swapchain.Extent.Height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		swapchain.Destroy(context)
		return nil, errors.Wrap(err, "creating depth attachment")
	}
	swapchain.DepthAttachment = depthAttachment

	core.LogInfo("Swapchain created with %d images (%dx%d).", swapchain.ImageCount, swapchain.Extent.Width, swapchain.Extent.Height)
	return swapchain, nil
}

// Destroy releases the views, the depth attachment and the swapchain. The
// images themselves belong to the swapchain.
func (vs *VulkanSwapchain) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vs.DepthAttachment != nil {
		vs.DepthAttachment.Destroy(context)
		vs.DepthAttachment = nil
	}
	for _, view := range vs.Views {
		vk.DestroyImageView(device, view, context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != nil {
		vk.DestroySwapchain(device, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}

// AcquireNextImageIndex asks for the next presentable image; the semaphore is
// signaled once the image can be rendered to.
func (vs *VulkanSwapchain) AcquireNextImageIndex(context *VulkanContext, timeoutNs uint64, imageAvailableSemaphore vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailableSemaphore, vk.Fence(nil), &imageIndex)
	switch result {
	case vk.Success:
	case vk.Suboptimal:
		vs.reportSuboptimal()
	case vk.ErrorOutOfDate:
		return 0, errors.Mark(resultError("vkAcquireNextImageKHR", result), core.ErrSurfaceOutOfDate)
	default:
		return 0, resultError("vkAcquireNextImageKHR", result)
	}
	return imageIndex, nil
}

func (vs *VulkanSwapchain) Present(context *VulkanContext, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	var result vk.Result
	_ = context.LockPool.SafeQueueCall(uint32(context.Device.PresentQueueIndex), func() error {
		result = vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
		return nil
	})
	switch result {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		vs.reportSuboptimal()
		return nil
	case vk.ErrorOutOfDate:
		return errors.Mark(resultError("vkQueuePresentKHR", result), core.ErrSurfaceOutOfDate)
	}
	return resultError("vkQueuePresentKHR", result)
}

func (vs *VulkanSwapchain) reportSuboptimal() {
	if !vs.suboptimalReported {
		core.LogWarn("swapchain is suboptimal for the surface, continuing")
		vs.suboptimalReported = true
	}
}
