package vulkan

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/platform"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

var lockPool = NewVulkanLockPool()

type VulkanRenderer struct {
	platform                *platform.Platform
	FrameNumber             uint64
	context                 *VulkanContext
	gpu                     *VulkanGPU
	swapchain               *graphSwapchain
	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32
	frameActive             bool

	debug bool
}

func New(p *platform.Platform, debug bool) *VulkanRenderer {
	context := &VulkanContext{}
	return &VulkanRenderer{
		platform:  p,
		context:   context,
		gpu:       &VulkanGPU{context: context},
		swapchain: &graphSwapchain{context: context},
		debug:     debug,
	}
}

func (vr *VulkanRenderer) Device() rendergraph.Device {
	return vr.gpu
}

func (vr *VulkanRenderer) Swapchain() rendergraph.Swapchain {
	return vr.swapchain
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	procAddr := vr.platform.GetVulkanProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	if err := vr.createInstance(appName); err != nil {
		return err
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.CreateSurface(vr.context.Instance)
	if err != nil {
		return fmt.Errorf("failed to create platform surface: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height

	if err := createDescriptorPool(vr.context); err != nil {
		return err
	}

	if err := vr.createCommandBuffers(); err != nil {
		return err
	}

	if err := vr.createSyncObjects(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("RenderGraph"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := vr.platform.GetRequiredExtensionNames()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if vr.debug {
		if hasInstanceLayer("VK_LAYER_KHRONOS_validation") {
			layers = append(layers, "VK_LAYER_KHRONOS_validation")
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("VK_LAYER_KHRONOS_validation requested but not installed, continuing without it.")
			vr.debug = false
		}
	}
	for _, ext := range requiredExtensions {
		core.LogDebug("Required extension: %s", ext)
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
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := resultError("vkCreateDebugReportCallbackEXT", vk.CreateDebugReportCallback(instance, &debugCreateInfo, nil, &dbg)); err != nil {
			return err
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success || count == 0 {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		raw := layers[i].LayerName[:]
		if string(raw[:FindFirstZeroInByteArray(raw)]) == name {
			return true
		}
	}
	return false
}

func (vr *VulkanRenderer) createSyncObjects() error {
	frames := int(vr.context.Swapchain.MaxFramesInFlight)
	vr.context.ImageAvailableSemaphores = make([]vk.Semaphore, frames)
	vr.context.QueueCompleteSemaphores = make([]vk.Semaphore, frames)
	vr.context.InFlightFences = make([]*VulkanFence, frames)

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := 0; i < frames; i++ {
		if err := resultError("vkCreateSemaphore", vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.context.ImageAvailableSemaphores[i])); err != nil {
			return err
		}
		if err := resultError("vkCreateSemaphore", vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.context.QueueCompleteSemaphores[i])); err != nil {
			return err
		}
		// Signaled so the first wait on each frame returns immediately.
		f, err := NewFence(vr.context, true)
		if err != nil {
			return err
		}
		vr.context.InFlightFences[i] = f
	}

	vr.context.ImagesInFlight = make([]*VulkanFence, vr.context.Swapchain.ImageCount)
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device == nil || vr.context.Device.LogicalDevice == nil {
		return nil
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	for i := range vr.context.InFlightFences {
		if vr.context.ImageAvailableSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, vr.context.ImageAvailableSemaphores[i], vr.context.Allocator)
		}
		if vr.context.QueueCompleteSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, vr.context.QueueCompleteSemaphores[i], vr.context.Allocator)
		}
		if vr.context.InFlightFences[i] != nil {
			vr.context.InFlightFences[i].FenceDestroy(vr.context)
		}
	}
	vr.context.ImageAvailableSemaphores = nil
	vr.context.QueueCompleteSemaphores = nil
	vr.context.InFlightFences = nil
	vr.context.ImagesInFlight = nil

	for _, cb := range vr.context.GraphicsCommandBuffers {
		cb.Free(vr.context, vr.context.Device.GraphicsCommandPool)
	}
	vr.context.GraphicsCommandBuffers = nil

	destroyDescriptorPool(vr.context)

	if vr.context.Swapchain != nil {
		vr.context.Swapchain.SwapchainDestroy(vr.context)
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		vr.context.debugMessenger = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
	return nil
}

// Resized records the new framebuffer size. The swapchain is recreated by the
// next BeginFrame or an explicit RecreateSwapchain.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.cachedFramebufferWidth = width
	vr.cachedFramebufferHeight = height
	vr.context.FramebufferSizeGeneration++

	core.LogInfo("Vulkan renderer backend->resized: w/h/gen: %d/%d/%d", width, height, vr.context.FramebufferSizeGeneration)
}

// NeedsRecreate reports a pending resize.
func (vr *VulkanRenderer) NeedsRecreate() bool {
	return vr.context.FramebufferSizeGeneration != vr.context.FramebufferSizeLastGeneration
}

func (vr *VulkanRenderer) ImageCount() int {
	return int(vr.context.Swapchain.ImageCount)
}

func (vr *VulkanRenderer) Extent() metadata.Extent {
	return vr.swapchain.CurrentExtent()
}

func (vr *VulkanRenderer) DeviceWaitIdle() error {
	return resultError("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice))
}

// BeginFrame waits until the acquired image's previous submission retired and
// begins its command buffer. It returns core.ErrSwapchainBooting when the
// swapchain must be recreated first.
func (vr *VulkanRenderer) BeginFrame() (int, rendergraph.CommandStream, error) {
	if vr.context.RecreatingSwapchain || vr.NeedsRecreate() {
		return 0, nil, core.ErrSwapchainBooting
	}

	// Wait for the execution of the current frame to complete. The fence being free will allow this one to move on.
	if !vr.context.InFlightFences[vr.context.CurrentFrame].FenceWait(vr.context, math.MaxUint64) {
		return 0, nil, fmt.Errorf("in-flight fence wait failure")
	}

	imageIndex, err := vr.context.Swapchain.SwapchainAcquireNextImageIndex(vr.context, math.MaxUint64, vr.context.ImageAvailableSemaphores[vr.context.CurrentFrame], vk.NullFence)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			vr.context.FramebufferSizeGeneration++
		}
		return 0, nil, err
	}
	vr.context.ImageIndex = imageIndex

	// Make sure the previous frame is not using this image.
	if f := vr.context.ImagesInFlight[imageIndex]; f != nil {
		f.FenceWait(vr.context, math.MaxUint64)
	}

	commandBuffer := vr.context.GraphicsCommandBuffers[imageIndex]
	if err := commandBuffer.Reset(); err != nil {
		return 0, nil, err
	}
	if err := commandBuffer.Begin(false, false, false); err != nil {
		return 0, nil, err
	}
	vr.frameActive = true
	return int(imageIndex), &commandStream{buffer: commandBuffer}, nil
}

func (vr *VulkanRenderer) EndFrame() error {
	if !vr.frameActive {
		return fmt.Errorf("EndFrame without BeginFrame")
	}
	vr.frameActive = false

	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	if err := commandBuffer.End(); err != nil {
		return err
	}

	// Mark the image fence as in-use by this frame.
	fence := vr.context.InFlightFences[vr.context.CurrentFrame]
	vr.context.ImagesInFlight[vr.context.ImageIndex] = fence
	if err := fence.FenceReset(vr.context); err != nil {
		return err
	}

	// Each semaphore waits on the corresponding pipeline stage to complete.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.context.ImageAvailableSemaphores[vr.context.CurrentFrame]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.context.QueueCompleteSemaphores[vr.context.CurrentFrame]},
	}

	if err := lockPool.SafeCall(QueueManagement, func() error {
		return resultError("vkQueueSubmit", vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle))
	}); err != nil {
		core.LogError(err.Error())
		return err
	}
	commandBuffer.UpdateSubmitted()

	// Give the image back to the swapchain.
	err := vr.context.Swapchain.SwapchainPresent(
		vr.context,
		vr.context.Device.PresentQueue,
		vr.context.QueueCompleteSemaphores[vr.context.CurrentFrame],
		vr.context.ImageIndex)
	vr.FrameNumber++
	if errors.Is(err, core.ErrSwapchainBooting) {
		// Recreated at the start of the next frame.
		vr.context.FramebufferSizeGeneration++
		return nil
	}
	return err
}

// RecreateSwapchain rebuilds the swapchain at the cached size. It returns
// core.ErrWindowMinimized when there is nothing to present to.
func (vr *VulkanRenderer) RecreateSwapchain() error {
	// If already being recreated, do not try again.
	if vr.context.RecreatingSwapchain {
		return core.ErrSwapchainBooting
	}

	width, height := vr.cachedFramebufferWidth, vr.cachedFramebufferHeight
	if width == 0 && height == 0 {
		width, height = vr.context.FramebufferWidth, vr.context.FramebufferHeight
	}

	vr.context.RecreatingSwapchain = true
	defer func() { vr.context.RecreatingSwapchain = false }()

	// Wait for any operations to complete.
	if err := vr.DeviceWaitIdle(); err != nil {
		return err
	}

	previousCount := vr.context.Swapchain.ImageCount
	sc, err := vr.context.Swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		// The old swapchain is gone; a later attempt starts from scratch.
		return err
	}
	vr.context.Swapchain = sc

	// Sync the framebuffer size with the cached sizes.
	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height
	vr.cachedFramebufferWidth = 0
	vr.cachedFramebufferHeight = 0
	vr.context.FramebufferSizeLastGeneration = vr.context.FramebufferSizeGeneration

	vr.context.ImagesInFlight = make([]*VulkanFence, sc.ImageCount)
	if sc.ImageCount != previousCount {
		if err := vr.createCommandBuffers(); err != nil {
			return err
		}
	}
	return nil
}

func (vr *VulkanRenderer) createCommandBuffers() error {
	for _, cb := range vr.context.GraphicsCommandBuffers {
		cb.Free(vr.context, vr.context.Device.GraphicsCommandPool)
	}
	vr.context.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, vr.context.Swapchain.ImageCount)
	for i := range vr.context.GraphicsCommandBuffers {
		cb, err := NewVulkanCommandBuffer(vr.context, vr.context.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		vr.context.GraphicsCommandBuffers[i] = cb
	}

	core.LogDebug("Vulkan command buffers created.")
	return nil
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
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
