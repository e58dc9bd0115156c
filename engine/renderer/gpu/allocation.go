package gpu

// Allocation is a block of device memory handed out by an Allocator.
type Allocation struct {
	name     string
	memory   RawMemory
	offset   uint64
	size     uint64
	location MemoryLocation
	mapped   []byte
}

// NewAllocation is used by Allocator implementations. mapped must be nil for
// memory that is not host visible.
func NewAllocation(name string, memory RawMemory, offset, size uint64, location MemoryLocation, mapped []byte) *Allocation {
	return &Allocation{
		name:     name,
		memory:   memory,
		offset:   offset,
		size:     size,
		location: location,
		mapped:   mapped,
	}
}

func (a *Allocation) Name() string             { return a.name }
func (a *Allocation) Memory() RawMemory        { return a.memory }
func (a *Allocation) Offset() uint64           { return a.offset }
func (a *Allocation) Size() uint64             { return a.size }
func (a *Allocation) Location() MemoryLocation { return a.location }

// MappedBytes returns the persistently mapped range, or nil.
func (a *Allocation) MappedBytes() []byte {
	return a.mapped
}
