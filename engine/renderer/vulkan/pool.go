package vulkan

import "sync"

type LockGroup string

const (
	ResourceManagement      LockGroup = "resource_management"
	CommandBufferManagement LockGroup = "command_buffer_management"
	RenderpassManagement    LockGroup = "renderpass_management"
	BufferManagement        LockGroup = "buffer_management"
	ImageManagement         LockGroup = "image_management"
	PipelineManagement      LockGroup = "pipeline_management"
	DescriptorManagement    LockGroup = "descriptor_management"
	QueueManagement         LockGroup = "queue_management"
)

// VulkanLockPool serialises access to externally synchronised Vulkan objects,
// one mutex per group.
type VulkanLockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) lockFor(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	l, exists := vs.locks[group]
	if !exists {
		l = &sync.Mutex{}
		vs.locks[group] = l
	}
	return l
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.lockFor(group)
	l.Lock()
	defer l.Unlock()

	return fn()
}
