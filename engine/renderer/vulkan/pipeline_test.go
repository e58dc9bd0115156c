package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestVertexInputLayout(t *testing.T) {
	bindings, attributes := VertexInputLayout()

	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(bindings))
	}
	if bindings[0].Stride != 24 || bindings[0].InputRate != vk.VertexInputRateVertex {
		t.Errorf("unexpected vertex binding %+v", bindings[0])
	}
	if bindings[1].Stride != 148 || bindings[1].InputRate != vk.VertexInputRateInstance {
		t.Errorf("unexpected instance binding %+v", bindings[1])
	}

	if len(attributes) != 13 {
		t.Fatalf("expected 13 attributes, got %d", len(attributes))
	}
	want := []struct {
		binding, offset uint32
	}{
		{0, 0}, {0, 12},
		{1, 0}, {1, 16}, {1, 32}, {1, 48},
		{1, 64}, {1, 80}, {1, 96}, {1, 112},
		{1, 128}, {1, 140}, {1, 144},
	}
	for i, a := range attributes {
		if a.Location != uint32(i) {
			t.Errorf("attribute %d has location %d", i, a.Location)
		}
		if a.Binding != want[i].binding || a.Offset != want[i].offset {
			t.Errorf("attribute %d: expected binding %d offset %d, got %d %d", i, want[i].binding, want[i].offset, a.Binding, a.Offset)
		}
	}
}

func TestChooseSwapchainSettings(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	if got := chooseSurfaceFormat(formats); got.Format != vk.FormatB8g8r8a8Unorm {
		t.Errorf("expected BGRA8, got %v", got.Format)
	}
	if got := chooseSurfaceFormat(formats[:1]); got.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("expected the first format as fallback, got %v", got.Format)
	}

	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}); got != vk.PresentModeMailbox {
		t.Errorf("expected mailbox, got %v", got)
	}
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}); got != vk.PresentModeFifo {
		t.Errorf("expected FIFO fallback, got %v", got)
	}

	fixed := vk.SurfaceCapabilities{CurrentExtent: vk.Extent2D{Width: 640, Height: 480}}
	if got := chooseExtent(fixed, 800, 600); got.Width != 640 || got.Height != 480 {
		t.Errorf("expected the surface extent, got %+v", got)
	}
	free := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1000, Height: 1000},
	}
	if got := chooseExtent(free, 4000, 50); got.Width != 1000 || got.Height != 100 {
		t.Errorf("expected a clamped extent, got %+v", got)
	}
}
