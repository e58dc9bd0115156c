package vulkan

import (
	"math"
	"runtime"
	"slices"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/renderer/frame"
	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
	"github.com/spaghettifunk/oberon/engine/scene"
)

const (
	vertexShaderName   = "shader.vert"
	fragmentShaderName = "shader.frag"
	initialLightBytes  = 8
)

// SurfaceProvider is the window the renderer presents to.
type SurfaceProvider interface {
	GetInstanceProcAddress() unsafe.Pointer
	RequiredExtensions() []string
	CreateSurface(instance interface{}) (uintptr, error)
}

// ShaderSource returns SPIR-V words by shader name.
type ShaderSource interface {
	LoadShader(name string) ([]uint32, error)
}

type Options struct {
	ApplicationName   string
	Width             uint32
	Height            uint32
	Validation        bool
	PreferDiscreteGPU bool
	ClearColor        [4]float32
}

// Renderer owns every GPU object. Objects are created by Initialize and
// released by Shutdown, in reverse order, and nowhere else.
type Renderer struct {
	surfaces SurfaceProvider
	shaders  ShaderSource
	options  Options

	context      *VulkanContext
	framebuffers []*VulkanFramebuffer

	cameraLayout vk.DescriptorSetLayout
	lightLayout  vk.DescriptorSetLayout
	pipeline     *VulkanPipeline

	commandPool    vk.CommandPool
	commandBuffers []*VulkanCommandBuffer // one per swapchain image

	// one per frame slot
	imageAvailableSemaphores []vk.Semaphore
	queueCompleteSemaphores  []vk.Semaphore
	inFlightFences           []*VulkanFence
	cameraBuffers            []*gpu.Buffer

	lightBuffer    *gpu.Buffer
	descriptorPool *VulkanDescriptorPool

	synchronizer *frame.Synchronizer
	drawables    []scene.Drawable

	shutdown bool
}

// The renderer is the frame backend driven by its synchronizer.
var _ frame.Backend = (*Renderer)(nil)

func New(surfaces SurfaceProvider, shaders ShaderSource, options Options) *Renderer {
	return &Renderer{
		surfaces: surfaces,
		shaders:  shaders,
		options:  options,
		context:  NewVulkanContext(),
	}
}

// Initialize creates every GPU object the frame loop needs. On error the
// objects created so far stay owned by the renderer and are released by
// Shutdown.
func (vr *Renderer) Initialize() error {
	if vr.shutdown {
		return errors.Mark(errors.New("initialize after shutdown"), core.ErrShutdown)
	}
	procAddr := vr.surfaces.GetInstanceProcAddress()
	if procAddr == nil {
		return errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "initializing vulkan loader")
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"instance", vr.createInstance},
		{"surface", vr.createSurface},
		{"device", func() error { return DeviceCreate(vr.context, vr.options.PreferDiscreteGPU) }},
		{"allocator", vr.createAllocator},
		{"swapchain", vr.createSwapchain},
		{"renderpass", vr.createRenderpass},
		{"framebuffers", vr.createFramebuffers},
		{"pipeline", vr.createPipeline},
		{"command buffers", vr.createCommandBuffers},
		{"sync objects", vr.createSyncObjects},
		{"buffers", vr.createBuffers},
		{"descriptors", vr.createDescriptors},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrapf(err, "creating %s", step.name)
		}
		core.LogDebug("Vulkan %s created.", step.name)
	}

	slots := len(vr.inFlightFences)
	synchronizer, err := frame.New(vr, slots, int(vr.context.Swapchain.ImageCount))
	if err != nil {
		return err
	}
	vr.synchronizer = synchronizer

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *Renderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.options.ApplicationName),
		PEngineName:        VulkanSafeString("Oberon Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"} // Generic surface extension
	requiredExtensions = appendUnique(requiredExtensions, vr.surfaces.RequiredExtensions()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = appendUnique(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if vr.options.Validation {
		if validationLayerAvailable("VK_LAYER_KHRONOS_validation") {
			layers = []string{"VK_LAYER_KHRONOS_validation"}
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		} else {
			core.LogWarn("Validation requested but VK_LAYER_KHRONOS_validation is not installed, continuing without it.")
			vr.options.Validation = false
		}
	}
	for _, extension := range requiredExtensions {
		core.LogDebug("Required extension: %s", extension)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if err := resultError("vkCreateInstance", vk.CreateInstance(&createInfo, vr.context.Allocator, &instance)); err != nil {
		return err
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return err
	}

	if vr.options.Validation {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := resultError("vkCreateDebugReportCallbackEXT", vk.CreateDebugReportCallback(instance, &debugCreateInfo, vr.context.Allocator, &dbg)); err != nil {
			return err
		}
		vr.context.debugMessenger = dbg
	}
	return nil
}

func appendUnique(list []string, names ...string) []string {
	for _, name := range names {
		if !slices.Contains(list, name) {
			list = append(list, name)
		}
	}
	return list
}

func validationLayerAvailable(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (vr *Renderer) createSurface() error {
	surface, err := vr.surfaces.CreateSurface(vr.context.Instance)
	if err != nil {
		return err
	}
	if surface == 0 {
		return errors.New("platform returned a null surface")
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	return nil
}

func (vr *Renderer) createAllocator() error {
	vr.context.MemoryAllocator = NewMemoryAllocator(vr.context)
	return nil
}

func (vr *Renderer) createSwapchain() error {
	swapchain, err := SwapchainCreate(vr.context, vr.options.Width, vr.options.Height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = swapchain
	vr.context.FramebufferWidth = swapchain.Extent.Width
	vr.context.FramebufferHeight = swapchain.Extent.Height
	return nil
}

func (vr *Renderer) createRenderpass() error {
	rp, err := RenderpassCreate(
		vr.context,
		float32(vr.context.FramebufferWidth), float32(vr.context.FramebufferHeight),
		vr.options.ClearColor,
		1.0,
		0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp
	return nil
}

func (vr *Renderer) createFramebuffers() error {
	swapchain := vr.context.Swapchain
	for i := range swapchain.Views {
		attachments := []vk.ImageView{
			swapchain.Views[i],
			swapchain.DepthAttachment.View,
		}
		fb, err := FramebufferCreate(vr.context, vr.context.MainRenderpass, vr.context.FramebufferWidth, vr.context.FramebufferHeight, attachments)
		if err != nil {
			return err
		}
		vr.framebuffers = append(vr.framebuffers, fb)
	}
	return nil
}

func (vr *Renderer) viewportAndScissor() (vk.Viewport, vk.Rect2D) {
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(vr.context.FramebufferWidth),
		Height:   float32(vr.context.FramebufferHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{
			Width:  vr.context.FramebufferWidth,
			Height: vr.context.FramebufferHeight,
		},
	}
	return viewport, scissor
}

func (vr *Renderer) createPipeline() error {
	var err error
	if vr.cameraLayout, err = DescriptorSetLayoutCreate(vr.context, vk.DescriptorTypeUniformBuffer, vk.ShaderStageFlags(vk.ShaderStageVertexBit)); err != nil {
		return err
	}
	if vr.lightLayout, err = DescriptorSetLayoutCreate(vr.context, vk.DescriptorTypeStorageBuffer, vk.ShaderStageFlags(vk.ShaderStageFragmentBit)); err != nil {
		return err
	}

	var stages []*VulkanShaderStage
	// modules are only needed while the pipeline is built
	defer func() {
		for _, stage := range stages {
			stage.Destroy(vr.context)
		}
	}()
	for _, shader := range []struct {
		name  string
		stage vk.ShaderStageFlagBits
	}{
		{vertexShaderName, vk.ShaderStageVertexBit},
		{fragmentShaderName, vk.ShaderStageFragmentBit},
	} {
		code, err := vr.shaders.LoadShader(shader.name)
		if err != nil {
			return err
		}
		stage, err := NewShaderStage(vr.context, shader.name, code, shader.stage)
		if err != nil {
			return err
		}
		stages = append(stages, stage)
	}

	stageInfos := make([]vk.PipelineShaderStageCreateInfo, len(stages))
	for i, stage := range stages {
		stageInfos[i] = stage.ShaderStageCreateInfo
	}

	bindings, attributes := VertexInputLayout()
	viewport, scissor := vr.viewportAndScissor()
	pipeline, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass:           vr.context.MainRenderpass,
		Bindings:             bindings,
		Attributes:           attributes,
		DescriptorSetLayouts: []vk.DescriptorSetLayout{vr.cameraLayout, vr.lightLayout},
		Stages:               stageInfos,
		Viewport:             viewport,
		Scissor:              scissor,
		CullMode:             vk.CullModeNone,
		DepthTest:            true,
		DepthWrite:           true,
	})
	if err != nil {
		return err
	}
	vr.pipeline = pipeline
	return nil
}

func (vr *Renderer) createCommandBuffers() error {
	pool, err := CommandPoolCreate(vr.context)
	if err != nil {
		return err
	}
	vr.commandPool = pool

	for i := uint32(0); i < vr.context.Swapchain.ImageCount; i++ {
		cb, err := NewVulkanCommandBuffer(vr.context, vr.commandPool, true)
		if err != nil {
			return err
		}
		vr.commandBuffers = append(vr.commandBuffers, cb)
	}
	return nil
}

// createSyncObjects creates one fence and two semaphores per frame slot.
// There are as many slots as swapchain images.
func (vr *Renderer) createSyncObjects() error {
	slots := int(vr.context.Swapchain.ImageCount)
	for i := 0; i < slots; i++ {
		imageAvailable, err := NewSemaphore(vr.context)
		if err != nil {
			return err
		}
		vr.imageAvailableSemaphores = append(vr.imageAvailableSemaphores, imageAvailable)

		queueComplete, err := NewSemaphore(vr.context)
		if err != nil {
			return err
		}
		vr.queueCompleteSemaphores = append(vr.queueCompleteSemaphores, queueComplete)

		// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
		// This will prevent the application from waiting indefinitely for the first frame to render since it
		// cannot be rendered until a frame is "rendered" before it.
		fence, err := NewFence(vr.context, true)
		if err != nil {
			return err
		}
		vr.inFlightFences = append(vr.inFlightFences, fence)
	}
	return nil
}

func (vr *Renderer) createBuffers() error {
	device, allocator := vr.context.Device, vr.context.MemoryAllocator
	for i := range vr.inFlightFences {
		buf, err := gpu.NewNamedBuffer(device, allocator, "camera", scene.CameraBufferSize, gpu.BufferUsageUniform, gpu.MemoryLocationCpuToGpu)
		if err != nil {
			return errors.Wrapf(err, "camera buffer for slot %d", i)
		}
		vr.cameraBuffers = append(vr.cameraBuffers, buf)
	}

	lights, err := gpu.NewNamedBuffer(device, allocator, "lights", initialLightBytes, gpu.BufferUsageStorage, gpu.MemoryLocationCpuToGpu)
	if err != nil {
		return err
	}
	vr.lightBuffer = lights
	// no lights until the scene adds some
	return gpu.Fill(vr.lightBuffer, device, allocator, []float32{0, 0})
}

func (vr *Renderer) createDescriptors() error {
	pool, err := DescriptorPoolCreate(vr.context, uint32(len(vr.cameraBuffers)), vr.cameraLayout, vr.lightLayout)
	if err != nil {
		return err
	}
	vr.descriptorPool = pool

	for slot, set := range pool.CameraSets {
		WriteBuffer(vr.context, set, vk.DescriptorTypeUniformBuffer, vr.cameraBuffers[slot], scene.CameraBufferSize)
	}
	vr.writeLightSets(initialLightBytes)
	return nil
}

func (vr *Renderer) writeLightSets(rangeInBytes uint64) {
	for _, set := range vr.descriptorPool.LightSets {
		WriteBuffer(vr.context, set, vk.DescriptorTypeStorageBuffer, vr.lightBuffer, rangeInBytes)
	}
}

// Device returns the logical device as the buffer layer sees it.
func (vr *Renderer) Device() gpu.Device {
	return vr.context.Device
}

func (vr *Renderer) Allocator() gpu.Allocator {
	return vr.context.MemoryAllocator
}

// Extent is the size of the presented images.
func (vr *Renderer) Extent() (uint32, uint32) {
	return vr.context.FramebufferWidth, vr.context.FramebufferHeight
}

// SlotCount is the number of frames that may be in flight at once.
func (vr *Renderer) SlotCount() int {
	return len(vr.inFlightFences)
}

// AddDrawable uploads the geometry of d and draws it every frame from now
// on. The renderer takes ownership and destroys it at shutdown.
func (vr *Renderer) AddDrawable(d scene.Drawable) error {
	if vr.shutdown {
		return errors.Mark(errors.New("add drawable after shutdown"), core.ErrShutdown)
	}
	// shared geometry buffers may still be read by frames in flight
	if err := vr.context.Device.WaitIdle(); err != nil {
		return err
	}
	if err := d.UpdateVertexBuffer(vr.context.Device, vr.context.MemoryAllocator); err != nil {
		return err
	}
	if err := d.UpdateIndexBuffer(vr.context.Device, vr.context.MemoryAllocator); err != nil {
		return err
	}
	vr.drawables = append(vr.drawables, d)
	return nil
}

func (vr *Renderer) updateLights(lights *scene.LightManager) error {
	if err := vr.context.Device.WaitIdle(); err != nil {
		return err
	}
	n, err := lights.UpdateBuffer(vr.context.Device, vr.context.MemoryAllocator, vr.lightBuffer)
	if err != nil {
		return err
	}
	// the buffer may have been replaced by a larger one
	vr.writeLightSets(n)
	return nil
}

// RunFrame renders and presents one frame of the drawables as seen by
// camera. Per-slot data is written only once the slot's previous frame has
// finished on the GPU.
func (vr *Renderer) RunFrame(camera *scene.Camera, lights *scene.LightManager) error {
	if vr.shutdown {
		return errors.Mark(errors.New("run frame after shutdown"), core.ErrShutdown)
	}
	if vr.synchronizer == nil {
		return errors.New("renderer is not initialized")
	}
	if lights != nil && lights.Dirty() {
		if err := vr.updateLights(lights); err != nil {
			return errors.Wrap(err, "updating lights")
		}
	}

	device, allocator := vr.context.Device, vr.context.MemoryAllocator
	return vr.synchronizer.RunFrame(func(slot int, image uint32) error {
		if err := camera.UpdateBuffer(device, allocator, vr.cameraBuffers[slot]); err != nil {
			return err
		}
		for _, d := range vr.drawables {
			if err := d.UpdateInstanceBuffer(device, allocator, slot); err != nil {
				return err
			}
		}
		return nil
	})
}

// FrameNumber is the number of frames presented so far.
func (vr *Renderer) FrameNumber() uint64 {
	if vr.synchronizer == nil {
		return 0
	}
	return vr.synchronizer.FrameNumber()
}

func (vr *Renderer) AcquireNextImage(slot int) (uint32, error) {
	return vr.context.Swapchain.AcquireNextImageIndex(vr.context, math.MaxUint64, vr.imageAvailableSemaphores[slot])
}

func (vr *Renderer) WaitFence(slot int) error {
	return vr.inFlightFences[slot].Wait(vr.context, math.MaxUint64)
}

func (vr *Renderer) ResetFence(slot int) error {
	return vr.inFlightFences[slot].Reset(vr.context)
}

func (vr *Renderer) Record(image uint32, slot int) error {
	commandBuffer := vr.commandBuffers[image]
	if err := commandBuffer.Reset(); err != nil {
		return err
	}
	if err := commandBuffer.Begin(false, false, false); err != nil {
		return err
	}

	viewport, scissor := vr.viewportAndScissor()
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.context.MainRenderpass.Begin(commandBuffer, vr.framebuffers[image].Handle)
	vr.pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	vr.pipeline.BindDescriptorSets(commandBuffer, []vk.DescriptorSet{
		vr.descriptorPool.CameraSets[slot],
		vr.descriptorPool.LightSets[slot],
	})
	for _, d := range vr.drawables {
		d.Draw(commandBuffer, slot)
	}
	vr.context.MainRenderpass.End(commandBuffer)

	return commandBuffer.End()
}

func (vr *Renderer) Submit(image uint32, slot int) error {
	commandBuffer := vr.commandBuffers[image]
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vr.imageAvailableSemaphores[slot]},
		// color writes wait until the image is available
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.queueCompleteSemaphores[slot]},
	}

	device := vr.context.Device
	if err := vr.context.LockPool.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
		return resultError("vkQueueSubmit", vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vr.inFlightFences[slot].Handle))
	}); err != nil {
		return err
	}
	commandBuffer.UpdateSubmitted()
	return nil
}

func (vr *Renderer) Present(image uint32, slot int) error {
	return vr.context.Swapchain.Present(vr.context, vr.queueCompleteSemaphores[slot], image)
}

// Shutdown waits for the device to go idle and releases everything in the
// reverse order of creation. Calling it again does nothing.
func (vr *Renderer) Shutdown() error {
	if vr.shutdown {
		return nil
	}
	vr.shutdown = true
	ctx := vr.context

	var errs error
	if ctx.Device != nil && ctx.Device.LogicalDevice != nil {
		errs = errors.CombineErrors(errs, ctx.Device.WaitIdle())

		core.LogDebug("Destroying drawables...")
		for _, d := range vr.drawables {
			errs = errors.CombineErrors(errs, d.Destroy(ctx.Device, ctx.MemoryAllocator))
		}
		vr.drawables = nil

		if vr.descriptorPool != nil {
			vr.descriptorPool.Destroy(ctx)
			vr.descriptorPool = nil
		}

		core.LogDebug("Destroying buffers...")
		for _, buf := range vr.cameraBuffers {
			errs = errors.CombineErrors(errs, buf.Destroy(ctx.Device, ctx.MemoryAllocator))
		}
		vr.cameraBuffers = nil
		if vr.lightBuffer != nil {
			errs = errors.CombineErrors(errs, vr.lightBuffer.Destroy(ctx.Device, ctx.MemoryAllocator))
			vr.lightBuffer = nil
		}

		core.LogDebug("Destroying sync objects...")
		for i := range vr.inFlightFences {
			vr.inFlightFences[i].Destroy(ctx)
		}
		for i := range vr.imageAvailableSemaphores {
			DestroySemaphore(ctx, vr.imageAvailableSemaphores[i])
		}
		for i := range vr.queueCompleteSemaphores {
			DestroySemaphore(ctx, vr.queueCompleteSemaphores[i])
		}
		vr.inFlightFences = nil
		vr.imageAvailableSemaphores = nil
		vr.queueCompleteSemaphores = nil

		core.LogDebug("Destroying command buffers...")
		for _, cb := range vr.commandBuffers {
			cb.Free(ctx, vr.commandPool)
		}
		vr.commandBuffers = nil
		CommandPoolDestroy(ctx, vr.commandPool)
		vr.commandPool = nil

		core.LogDebug("Destroying pipeline...")
		if vr.pipeline != nil {
			vr.pipeline.Destroy(ctx)
			vr.pipeline = nil
		}
		DescriptorSetLayoutDestroy(ctx, vr.lightLayout)
		DescriptorSetLayoutDestroy(ctx, vr.cameraLayout)
		vr.lightLayout = nil
		vr.cameraLayout = nil

		for _, fb := range vr.framebuffers {
			fb.Destroy(ctx)
		}
		vr.framebuffers = nil

		if ctx.MainRenderpass != nil {
			ctx.MainRenderpass.Destroy(ctx)
			ctx.MainRenderpass = nil
		}

		core.LogDebug("Destroying swapchain...")
		if ctx.Swapchain != nil {
			ctx.Swapchain.Destroy(ctx)
			ctx.Swapchain = nil
		}

		if ctx.MemoryAllocator != nil {
			errs = errors.CombineErrors(errs, ctx.MemoryAllocator.Destroy())
		}

		core.LogDebug("Destroying Vulkan device...")
		DeviceDestroy(ctx)
	}

	if ctx.Instance != nil {
		core.LogDebug("Destroying Vulkan surface...")
		if ctx.Surface != vk.NullSurface {
			vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
			ctx.Surface = vk.NullSurface
		}

		if ctx.debugMessenger != vk.NullDebugReportCallback {
			core.LogDebug("Destroying Vulkan debugger...")
			vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
			ctx.debugMessenger = vk.NullDebugReportCallback
		}

		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}

	vr.synchronizer = nil
	return errs
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
