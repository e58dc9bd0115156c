package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/oberon/engine/renderer/gpu"
)

// DescriptorSetLayoutCreate builds a layout with a single buffer binding at 0.
func DescriptorSetLayoutCreate(context *VulkanContext, descriptorType vk.DescriptorType, stages vk.ShaderStageFlags) (vk.DescriptorSetLayout, error) {
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  descriptorType,
				DescriptorCount: 1,
				StageFlags:      stages,
			},
		},
	}

	var layout vk.DescriptorSetLayout
	err := context.LockPool.SafeCall(DescriptorManagement, func() error {
		return resultError("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &createInfo, context.Allocator, &layout))
	})
	return layout, err
}

func DescriptorSetLayoutDestroy(context *VulkanContext, layout vk.DescriptorSetLayout) {
	if layout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, layout, context.Allocator)
	}
}

// VulkanDescriptorPool owns the pool and one camera and one light set per
// frame slot.
type VulkanDescriptorPool struct {
	Handle     vk.DescriptorPool
	CameraSets []vk.DescriptorSet
	LightSets  []vk.DescriptorSet
}

// DescriptorPoolCreate sizes the pool for slotCount uniform and slotCount
// storage descriptors and allocates the sets from the two layouts.
func DescriptorPoolCreate(context *VulkanContext, slotCount uint32, cameraLayout, lightLayout vk.DescriptorSetLayout) (*VulkanDescriptorPool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       2 * slotCount,
		PoolSizeCount: 2,
		PPoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: slotCount},
			{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: slotCount},
		},
	}

	pool := &VulkanDescriptorPool{}
	if err := context.LockPool.SafeCall(DescriptorManagement, func() error {
		var handle vk.DescriptorPool
		if err := resultError("vkCreateDescriptorPool", vk.CreateDescriptorPool(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle)); err != nil {
			return err
		}
		pool.Handle = handle
		return nil
	}); err != nil {
		return nil, err
	}

	var err error
	if pool.CameraSets, err = pool.allocate(context, cameraLayout, slotCount); err != nil {
		pool.Destroy(context)
		return nil, err
	}
	if pool.LightSets, err = pool.allocate(context, lightLayout, slotCount); err != nil {
		pool.Destroy(context)
		return nil, err
	}
	return pool, nil
}

func (p *VulkanDescriptorPool) allocate(context *VulkanContext, layout vk.DescriptorSetLayout, count uint32) ([]vk.DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.Handle,
		DescriptorSetCount: count,
		PSetLayouts:        layouts,
	}

	sets := make([]vk.DescriptorSet, count)
	err := context.LockPool.SafeCall(DescriptorManagement, func() error {
		return resultError("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0]))
	})
	return sets, err
}

// WriteBuffer points binding 0 of set at the first rangeInBytes of buffer.
func WriteBuffer(context *VulkanContext, set vk.DescriptorSet, descriptorType vk.DescriptorType, buffer *gpu.Buffer, rangeInBytes uint64) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo: []vk.DescriptorBufferInfo{
			{
				Buffer: rawBuffer(buffer),
				Offset: 0,
				Range:  vk.DeviceSize(rangeInBytes),
			},
		},
	}
	_ = context.LockPool.SafeCall(DescriptorManagement, func() error {
		vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
		return nil
	})
}

// Destroy frees the pool and, with it, every set allocated from it.
func (p *VulkanDescriptorPool) Destroy(context *VulkanContext) {
	if p.Handle != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, p.Handle, context.Allocator)
		p.Handle = nil
	}
	p.CameraSets = nil
	p.LightSets = nil
}
