package testbed

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/spaghettifunk/oberon/engine"
	"github.com/spaghettifunk/oberon/engine/containers"
	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/scene"
)

type Mesh = scene.Model[scene.VertexData, scene.InstanceData]

const (
	gridRows    = 5
	gridColumns = 5
	gridSpacing = 3

	moveSpeed = 5.0 // units per second
	turnSpeed = 1.5 // radians per second
	bobHeight = 0.3
)

type sphereInstance struct {
	handle containers.Handle
	base   mgl32.Vec3
	phase  float64
}

type gameState struct {
	spheres   *Mesh
	instances []sphereInstance
	floor     *Mesh

	elapsed float64
	hidden  bool
}

func NewTestGame() *engine.Game {
	state := &gameState{}
	return &engine.Game{
		State:        state,
		FnBoot:       state.Boot,
		FnInitialize: state.Initialize,
		FnUpdate:     state.Update,
	}
}

func (s *gameState) Boot(config *core.Config) error {
	core.LogInfo("booting testbed...")
	if config.Application.Name == core.DefaultConfig().Application.Name {
		config.Application.Name = "Oberon Testbed"
	}
	return nil
}

func (s *gameState) Initialize(world *engine.World) error {
	core.LogDebug("TestGame Initialize fn....")

	world.Camera = scene.NewCameraBuilder().
		Position(mgl32.Vec3{0, -8, -8}).
		ViewDirection(mgl32.Vec3{0, 8, 14}).
		DownDirection(mgl32.Vec3{0, 1, 0}).
		Aspect(float32(world.Width) / float32(world.Height)).
		Build()

	s.spheres, s.instances = sphereGrid(gridRows, gridColumns, world.SlotCount)
	s.floor = floor(world.SlotCount)
	for _, m := range []*Mesh{s.spheres, s.floor} {
		if err := world.AddDrawable(m); err != nil {
			return errors.Wrapf(err, "adding %s", m.Name)
		}
	}

	addLights(world.Lights)
	core.LogInfo("Testbed ready: arrows/WASD move, Q/E strafe, PageUp/PageDown look, H toggles every other sphere.")
	return nil
}

// sphereGrid lays spheres out on the y = 0 plane. Metallic grows along the
// columns and roughness along the rows.
func sphereGrid(rows, columns, slotCount int) (*Mesh, []sphereInstance) {
	vertices, indices := scene.Sphere(3)
	model := scene.NewModel[scene.VertexData, scene.InstanceData]("spheres", vertices, indices, slotCount)

	instances := make([]sphereInstance, 0, rows*columns)
	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			i := row*columns + col
			base := mgl32.Vec3{
				float32((col - columns/2) * gridSpacing),
				0,
				float32(6 + row*gridSpacing),
			}
			c := colorful.Hsv(360*float64(i)/float64(rows*columns), 0.6, 0.9)
			payload := scene.NewInstanceData(
				mgl32.Translate3D(base.X(), base.Y(), base.Z()),
				[3]float32{float32(c.R), float32(c.G), float32(c.B)},
				fraction(col, columns),
				core.Clamp(fraction(row, rows), 0.05, 1),
			)
			instances = append(instances, sphereInstance{
				handle: model.InsertVisibly(payload),
				base:   base,
				phase:  float64(i) * 0.4,
			})
		}
	}
	return model, instances
}

func fraction(i, n int) float32 {
	if n <= 1 {
		return 0
	}
	return float32(i) / float32(n-1)
}

func floor(slotCount int) *Mesh {
	vertices, indices := scene.Cube()
	model := scene.NewModel[scene.VertexData, scene.InstanceData]("floor", vertices, indices, slotCount)
	grey, _ := colorful.Hex("#5a5f66")
	model.InsertVisibly(scene.NewInstanceData(
		mgl32.Translate3D(0, 1.5, 12).Mul4(mgl32.Scale3D(10, 0.1, 10)),
		[3]float32{float32(grey.R), float32(grey.G), float32(grey.B)},
		0, 0.8,
	))
	return model
}

func addLights(lights *scene.LightManager) {
	lights.AddDirectional(scene.DirectionalLight{
		Direction: mgl32.Vec3{-1, 1, 1}.Normalize(),
		Ambient:   [3]float32{0.05, 0.05, 0.05},
		Diffuse:   [3]float32{0.6, 0.6, 0.6},
		Specular:  [3]float32{0.8, 0.8, 0.8},
	})
	for i, hex := range []string{"#ff8c42", "#4ecdc4"} {
		c, _ := colorful.Hex(hex)
		rgb := [3]float32{float32(c.R), float32(c.G), float32(c.B)}
		lights.AddPoint(scene.PointLight{
			Position:  mgl32.Vec3{float32(8*i - 4), -3, 10},
			Constant:  1,
			Linear:    0.09,
			Quadratic: 0.032,
			Diffuse:   rgb,
			Specular:  rgb,
		})
	}
}

func (s *gameState) Update(world *engine.World, deltaTime float64) error {
	s.elapsed += deltaTime
	moveCamera(world.Camera, world.Input, float32(deltaTime))

	if world.Input.IsKeyDown(core.KEY_H) && !world.Input.WasKeyDown(core.KEY_H) {
		s.hidden = !s.hidden
		if err := s.toggleEveryOther(s.hidden); err != nil {
			return err
		}
	}
	return s.bob()
}

func moveCamera(camera *scene.Camera, input *core.Input, dt float32) {
	down := func(keys ...core.KeyCode) bool {
		for _, k := range keys {
			if input.IsKeyDown(k) {
				return true
			}
		}
		return false
	}
	if down(core.KEY_RIGHT, core.KEY_D) {
		camera.TurnRight(turnSpeed * dt)
	}
	if down(core.KEY_LEFT, core.KEY_A) {
		camera.TurnLeft(turnSpeed * dt)
	}
	if down(core.KEY_Q) {
		camera.StrafeRight(moveSpeed * dt)
	}
	if down(core.KEY_E) {
		camera.StrafeLeft(moveSpeed * dt)
	}
	if down(core.KEY_UP, core.KEY_W) {
		camera.MoveForward(moveSpeed * dt)
	}
	if down(core.KEY_DOWN, core.KEY_S) {
		camera.MoveBackward(moveSpeed * dt)
	}
	if down(core.KEY_PRIOR) {
		camera.TurnUp(turnSpeed * dt)
	}
	if down(core.KEY_NEXT) {
		camera.TurnDown(turnSpeed * dt)
	}
}

func (s *gameState) toggleEveryOther(hide bool) error {
	for i := 1; i < len(s.instances); i += 2 {
		h := s.instances[i].handle
		var err error
		if hide {
			err = s.spheres.MakeInvisible(h)
		} else {
			err = s.spheres.MakeVisible(h)
		}
		if err != nil {
			return err
		}
	}
	core.LogDebug("%d of %d spheres visible.", s.spheres.VisibleCount(), s.spheres.Len())
	return nil
}

// bob moves every sphere up and down around its base position.
func (s *gameState) bob() error {
	for _, inst := range s.instances {
		payload, err := s.spheres.GetMut(inst.handle)
		if err != nil {
			return err
		}
		y := inst.base.Y() + float32(bobHeight*math.Sin(2*s.elapsed+inst.phase))
		payload.SetModelMatrix(mgl32.Translate3D(inst.base.X(), y, inst.base.Z()))
	}
	return nil
}
