package gpu

// BufferUsage mirrors the Vulkan buffer usage bits so backends can pass it
// through unchanged.
type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 0x00000001
	BufferUsageTransferDst BufferUsage = 0x00000002
	BufferUsageUniform     BufferUsage = 0x00000010
	BufferUsageStorage     BufferUsage = 0x00000020
	BufferUsageIndex       BufferUsage = 0x00000040
	BufferUsageVertex      BufferUsage = 0x00000080
	BufferUsageIndirect    BufferUsage = 0x00000100
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageUniform:
		return "uniform"
	case BufferUsageStorage:
		return "storage"
	case BufferUsageIndex:
		return "index"
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageTransferSrc:
		return "transfer-src"
	case BufferUsageTransferDst:
		return "transfer-dst"
	case BufferUsageIndirect:
		return "indirect"
	}
	return "mixed"
}

// MemoryLocation is the placement class of an allocation.
type MemoryLocation int

const (
	MemoryLocationUnknown MemoryLocation = iota
	// device local, not host visible
	MemoryLocationGpuOnly
	// host visible and coherent, persistently mapped
	MemoryLocationCpuToGpu
)

func (l MemoryLocation) String() string {
	switch l {
	case MemoryLocationGpuOnly:
		return "gpu-only"
	case MemoryLocationCpuToGpu:
		return "cpu-to-gpu"
	}
	return "unknown"
}

// HostVisible reports whether memory at this location can be written by the CPU.
func (l MemoryLocation) HostVisible() bool {
	return l == MemoryLocationCpuToGpu
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// RawBuffer is the backend specific buffer object (vk.Buffer for Vulkan).
type RawBuffer interface{}

// RawMemory is the backend specific memory object (vk.DeviceMemory for Vulkan).
type RawMemory interface{}

// Device is the subset of the logical device the buffer layer needs.
type Device interface {
	CreateBuffer(sizeInBytes uint64, usage BufferUsage) (RawBuffer, error)
	DestroyBuffer(buffer RawBuffer)
	BufferMemoryRequirements(buffer RawBuffer) MemoryRequirements
	BindBufferMemory(buffer RawBuffer, allocation *Allocation) error
}

type AllocationDesc struct {
	Name         string
	Requirements MemoryRequirements
	Location     MemoryLocation
	Linear       bool
}

// Allocator hands out device memory.
type Allocator interface {
	Allocate(desc AllocationDesc) (*Allocation, error)
	Free(allocation *Allocation) error
}
