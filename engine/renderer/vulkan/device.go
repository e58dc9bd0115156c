package vulkan

import (
	"runtime"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   *VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32
	TransferQueueIndex int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	TransferQueue vk.Queue

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format

	// shared with the owning context, used by the gpu.Device methods
	hostAllocator *vk.AllocationCallbacks
	lockPool      *VulkanLockPool
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	Compute              bool
	Transfer             bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

// Queue family indices, -1 when the family was not found.
type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
	ComputeFamilyIndex  int32
	TransferFamilyIndex int32
}

// DeviceCreate selects a physical device and creates the logical device with
// its graphics, present and transfer queues.
func DeviceCreate(context *VulkanContext, preferDiscreteGPU bool) error {
	context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
		TransferQueueIndex: -1,
		hostAllocator:      context.Allocator,
		lockPool:           context.LockPool,
	}
	if err := SelectPhysicalDevice(context, preferDiscreteGPU); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{uint32(context.Device.GraphicsQueueIndex)}
	if context.Device.PresentQueueIndex != context.Device.GraphicsQueueIndex {
		indices = append(indices, uint32(context.Device.PresentQueueIndex))
	}
	if context.Device.TransferQueueIndex != context.Device.GraphicsQueueIndex &&
		context.Device.TransferQueueIndex != context.Device.PresentQueueIndex {
		indices = append(indices, uint32(context.Device.TransferQueueIndex))
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		context.LockPool.SetQueueFamily(indices[i])
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	portabilityRequired, err := deviceHasExtension(context.Device.PhysicalDevice, "VK_KHR_portability_subset")
	if err != nil {
		return err
	}
	if portabilityRequired {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logicalDevice vk.Device
	if err := resultError("vkCreateDevice", vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice)); err != nil {
		return err
	}
	context.Device.LogicalDevice = logicalDevice
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue, transferQueue vk.Queue
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.GraphicsQueueIndex), 0, &graphicsQueue)
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.PresentQueueIndex), 0, &presentQueue)
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.TransferQueueIndex), 0, &transferQueue)
	context.Device.GraphicsQueue = graphicsQueue
	context.Device.PresentQueue = presentQueue
	context.Device.TransferQueue = transferQueue
	core.LogInfo("Queues obtained.")

	if !DeviceDetectDepthFormat(context.Device) {
		return errors.Mark(errors.New("no supported depth format"), core.ErrNoSuitableDevice)
	}
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	if context.Device == nil {
		return
	}
	context.Device.GraphicsQueue = nil
	context.Device.PresentQueue = nil
	context.Device.TransferQueue = nil

	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.SwapchainSupport = nil
	context.Device.GraphicsQueueIndex = -1
	context.Device.PresentQueueIndex = -1
	context.Device.TransferQueueIndex = -1
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *VulkanDevice) WaitIdle() error {
	if d == nil || d.LogicalDevice == nil {
		return nil
	}
	return resultError("vkDeviceWaitIdle", vk.DeviceWaitIdle(d.LogicalDevice))
}

func deviceHasExtension(physicalDevice vk.PhysicalDevice, name string) (bool, error) {
	var count uint32
	if err := resultError("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, nil)); err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	available := make([]vk.ExtensionProperties, count)
	if err := resultError("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, available)); err != nil {
		return false, err
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].ExtensionName[:]) == name {
			return true, nil
		}
	}
	return false, nil
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*VulkanSwapchainSupportInfo, error) {
	supportInfo := &VulkanSwapchainSupportInfo{}

	if err := resultError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &supportInfo.Capabilities)); err != nil {
		return nil, err
	}
	supportInfo.Capabilities.Deref()
	supportInfo.Capabilities.CurrentExtent.Deref()
	supportInfo.Capabilities.MinImageExtent.Deref()
	supportInfo.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil)); err != nil {
		return nil, err
	}
	if formatCount != 0 {
		supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats)); err != nil {
			return nil, err
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if err := resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil)); err != nil {
		return nil, err
	}
	if presentModeCount != 0 {
		supportInfo.PresentModes = make([]vk.PresentMode, presentModeCount)
		if err := resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, supportInfo.PresentModes)); err != nil {
			return nil, err
		}
	}
	return supportInfo, nil
}

func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if properties.LinearTilingFeatures&flags == flags || properties.OptimalTilingFeatures&flags == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	device.DepthFormat = vk.FormatUndefined
	return false
}

type physicalDeviceCandidate struct {
	handle           vk.PhysicalDevice
	properties       vk.PhysicalDeviceProperties
	features         vk.PhysicalDeviceFeatures
	memory           vk.PhysicalDeviceMemoryProperties
	queues           VulkanPhysicalDeviceQueueFamilyInfo
	swapchainSupport *VulkanSwapchainSupportInfo
}

// SelectPhysicalDevice picks the first discrete GPU meeting the requirements,
// falling back to any suitable device unless a discrete one is demanded.
// Apple platforms never demand one.
func SelectPhysicalDevice(context *VulkanContext, preferDiscreteGPU bool) error {
	var physicalDeviceCount uint32
	if err := resultError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil)); err != nil {
		return err
	}
	if physicalDeviceCount == 0 {
		return errors.Mark(errors.New("no devices which support Vulkan were found"), core.ErrNoSuitableDevice)
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if err := resultError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices)); err != nil {
		return err
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		Transfer:             true,
		DiscreteGPU:          preferDiscreteGPU && runtime.GOOS != "darwin",
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	var selected *physicalDeviceCandidate
	for i := range physicalDevices {
		candidate := &physicalDeviceCandidate{handle: physicalDevices[i]}
		vk.GetPhysicalDeviceProperties(candidate.handle, &candidate.properties)
		candidate.properties.Deref()
		vk.GetPhysicalDeviceFeatures(candidate.handle, &candidate.features)
		candidate.features.Deref()
		vk.GetPhysicalDeviceMemoryProperties(candidate.handle, &candidate.memory)
		candidate.memory.Deref()

		if !PhysicalDeviceMeetsRequirements(candidate, context.Surface, &requirements) {
			continue
		}
		if candidate.properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			selected = candidate
			break
		}
		if selected == nil && !requirements.DiscreteGPU {
			selected = candidate
		}
	}

	if selected == nil {
		return errors.Mark(errors.New("no physical devices were found which meet the requirements"), core.ErrNoSuitableDevice)
	}

	logPhysicalDevice(selected)

	context.Device.PhysicalDevice = selected.handle
	context.Device.GraphicsQueueIndex = selected.queues.GraphicsFamilyIndex
	context.Device.PresentQueueIndex = selected.queues.PresentFamilyIndex
	context.Device.TransferQueueIndex = selected.queues.TransferFamilyIndex
	context.Device.SwapchainSupport = selected.swapchainSupport
	context.Device.Properties = selected.properties
	context.Device.Features = selected.features
	context.Device.Memory = selected.memory

	core.LogInfo("Physical device selected.")
	return nil
}

func logPhysicalDevice(selected *physicalDeviceCandidate) {
	properties := selected.properties
	core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}

	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version(properties.DriverVersion).Major(),
		vk.Version(properties.DriverVersion).Minor(),
		vk.Version(properties.DriverVersion).Patch(),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(properties.ApiVersion).Major(),
		vk.Version(properties.ApiVersion).Minor(),
		vk.Version(properties.ApiVersion).Patch(),
	)

	memory := selected.memory
	for j := uint32(0); j < memory.MemoryHeapCount; j++ {
		memory.MemoryHeaps[j].Deref()
		memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
		if memory.MemoryHeaps[j].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
}

func PhysicalDeviceMeetsRequirements(candidate *physicalDeviceCandidate, surface vk.Surface, requirements *VulkanPhysicalDeviceRequirements) bool {
	name := vk.ToString(candidate.properties.DeviceName[:])
	queues := VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: -1,
		PresentFamilyIndex:  -1,
		ComputeFamilyIndex:  -1,
		TransferFamilyIndex: -1,
	}

	if requirements.DiscreteGPU && candidate.properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogInfo("Device '%s' is not a discrete GPU, and one is required. Skipping.", name)
		return false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(candidate.handle, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(candidate.handle, &queueFamilyCount, queueFamilies)

	minTransferScore := 255
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags := queueFamilies[i].QueueFlags
		currentTransferScore := 0

		if flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			if queues.GraphicsFamilyIndex < 0 {
				queues.GraphicsFamilyIndex = int32(i)
			}
			currentTransferScore++
		}
		if flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			if queues.ComputeFamilyIndex < 0 {
				queues.ComputeFamilyIndex = int32(i)
			}
			currentTransferScore++
		}
		// Take the index if it is the current lowest. This increases the
		// liklihood that it is a dedicated transfer queue.
		if flags&vk.QueueFlags(vk.QueueTransferBit) != 0 && currentTransferScore <= minTransferScore {
			minTransferScore = currentTransferScore
			queues.TransferFamilyIndex = int32(i)
		}

		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(candidate.handle, uint32(i), surface, &supportsPresent); res != vk.Success {
			core.LogWarn("vkGetPhysicalDeviceSurfaceSupportKHR failed on '%s': %s", name, VulkanResultString(res))
			return false
		}
		// prefer a family that does graphics and present
		if supportsPresent == vk.True && (queues.PresentFamilyIndex < 0 || queues.GraphicsFamilyIndex == int32(i)) {
			queues.PresentFamilyIndex = int32(i)
		}
	}

	core.Logger().Debug("queue families",
		"device", name,
		"graphics", queues.GraphicsFamilyIndex,
		"present", queues.PresentFamilyIndex,
		"compute", queues.ComputeFamilyIndex,
		"transfer", queues.TransferFamilyIndex)

	if (requirements.Graphics && queues.GraphicsFamilyIndex < 0) ||
		(requirements.Present && queues.PresentFamilyIndex < 0) ||
		(requirements.Compute && queues.ComputeFamilyIndex < 0) ||
		(requirements.Transfer && queues.TransferFamilyIndex < 0) {
		core.LogInfo("Device '%s' does not meet queue requirements, skipping.", name)
		return false
	}

	support, err := DeviceQuerySwapchainSupport(candidate.handle, surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogInfo("Required swapchain support not present, skipping device.")
		return false
	}

	for _, extension := range requirements.DeviceExtensionNames {
		found, err := deviceHasExtension(candidate.handle, extension)
		if err != nil || !found {
			core.LogInfo("Required extension not found: '%s', skipping device.", extension)
			return false
		}
	}

	candidate.queues = queues
	candidate.swapchainSupport = support
	return true
}
