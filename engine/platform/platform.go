package platform

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/oberon/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform is the window the renderer draws into. The window has a fixed
// size.
type Platform struct {
	Window *glfw.Window
	input  *core.Input
}

// New creates a platform that reports key transitions to input.
func New(input *core.Input) *Platform {
	return &Platform{
		Window: nil,
		input:  input,
	}
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "initializing glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "creating window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	core.Logger().Info("window created", "name", applicationName, "width", width, "height", height)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events and returns false once the
// window was asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// RequestClose makes the next PumpMessages return false.
func (p *Platform) RequestClose() {
	p.Window.SetShouldClose(true)
}

func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) RequiredExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// CreateSurface creates the window surface for a vk.Instance.
func (p *Platform) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, errors.Wrap(err, "creating window surface")
	}
	return surface, nil
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// GetAbsoluteTime is the time in seconds since glfw was initialized.
func GetAbsoluteTime() float64 {
	return glfw.GetTime()
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	p.input.ProcessKey(translateKey(key), action == glfw.Press)
}

var keyMap = map[glfw.Key]core.KeyCode{
	glfw.KeyEnter:    core.KEY_ENTER,
	glfw.KeyEscape:   core.KEY_ESCAPE,
	glfw.KeySpace:    core.KEY_SPACE,
	glfw.KeyPageUp:   core.KEY_PRIOR,
	glfw.KeyPageDown: core.KEY_NEXT,
	glfw.KeyLeft:     core.KEY_LEFT,
	glfw.KeyUp:       core.KEY_UP,
	glfw.KeyRight:    core.KEY_RIGHT,
	glfw.KeyDown:     core.KEY_DOWN,
	glfw.KeyA:        core.KEY_A,
	glfw.KeyD:        core.KEY_D,
	glfw.KeyE:        core.KEY_E,
	glfw.KeyH:        core.KEY_H,
	glfw.KeyQ:        core.KEY_Q,
	glfw.KeyS:        core.KEY_S,
	glfw.KeyW:        core.KEY_W,
}

func translateKey(key glfw.Key) core.KeyCode {
	if code, ok := keyMap[key]; ok {
		return code
	}
	return core.KEY_UNKNOWN
}
