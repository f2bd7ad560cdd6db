package character

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/event"
	"github.com/Versifine/gravshift/internal/physics"
	"github.com/Versifine/gravshift/internal/weapon"
	"github.com/Versifine/gravshift/internal/world"
)

func approxVec(t *testing.T, got, want mgl64.Vec3, tol float64, field string) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%s = %v, want %v (tol=%.8f)", field, got, want, tol)
		}
	}
}

func newTestCharacter(t *testing.T, w *world.World, spawn mgl64.Vec3, bus *event.Bus) *Character {
	t.Helper()
	cfg := config.Default()
	if w == nil {
		w = world.New(world.NewFlatTerrain(20, 1, 0))
	}
	return New("player", cfg.Character, physics.NewSimulator(cfg.Movement, w), spawn, bus)
}

func TestLook(t *testing.T) {
	tests := []struct {
		name      string
		dx, dy    float64
		wantYaw   float64
		wantPitch float64
	}{
		{name: "yaw right", dx: 30, wantYaw: 30},
		{name: "yaw wraps", dx: 200, wantYaw: -160},
		{name: "look up within limit", dy: -10, wantPitch: 10},
		{name: "look up past limit eases back", dy: -90, wantPitch: 85.5},
		{name: "look down past limit eases back", dy: 95, wantPitch: -86},
		{name: "many turns wrap", dx: 1e9, wantYaw: -80},
		{name: "infinite yaw ignored", dx: math.Inf(1), dy: -10},
		{name: "nan pitch ignored", dx: 30, dy: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, nil)
			c.Look(tt.dx, tt.dy)
			yaw, pitch := c.YawPitch()
			if math.Abs(yaw-tt.wantYaw) > 1e-9 {
				t.Fatalf("yaw = %v, want %v", yaw, tt.wantYaw)
			}
			if math.Abs(pitch-tt.wantPitch) > 1e-9 {
				t.Fatalf("pitch = %v, want %v", pitch, tt.wantPitch)
			}
		})
	}
}

func TestMove(t *testing.T) {
	s := math.Sqrt2 / 2

	tests := []struct {
		name   string
		dx, dy float64
		x, y   float64
		want   mgl64.Vec3
	}{
		{name: "forward", y: 1, want: physics.Forward},
		{name: "strafe right", x: 1, want: physics.Right},
		{name: "forward after turning right", dx: 90, y: 1, want: physics.Right},
		{name: "forward while looking up", dy: -45, y: 1, want: mgl64.Vec3{s, 0, s}},
		{name: "diagonal", x: 1, y: 1, want: mgl64.Vec3{1, -1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, nil)
			c.Look(tt.dx, tt.dy)
			c.Move(tt.x, tt.y)
			approxVec(t, c.input, tt.want, 1e-9, "input")
		})
	}
}

func TestTick_ConsumesInput(t *testing.T) {
	c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, nil)
	c.Move(3, 3)

	c.Tick(1.0 / 30)

	if c.input != (mgl64.Vec3{}) {
		t.Fatalf("input = %v after tick, want zero", c.input)
	}
	if got := clampUnit(mgl64.Vec3{3, 4, 0}); math.Abs(got.Len()-1) > 1e-12 {
		t.Fatalf("clampUnit length = %v, want 1", got.Len())
	}
}

func TestTick_PublishesLanding(t *testing.T) {
	bus := event.NewBus()
	var modes []event.ModeChangedEvent
	var landed []event.LandedEvent
	bus.Subscribe(event.EventModeChanged, func(raw any) {
		modes = append(modes, raw.(event.ModeChangedEvent))
	})
	bus.Subscribe(event.EventLanded, func(raw any) {
		landed = append(landed, raw.(event.LandedEvent))
	})
	c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, bus)

	for i := 0; i < 60; i++ {
		c.Tick(1.0 / 30)
	}

	if len(landed) != 1 {
		t.Fatalf("landed events = %d, want 1", len(landed))
	}
	approxVec(t, landed[0].Normal, physics.Up, 1e-6, "landing normal")
	if len(modes) == 0 || modes[0].From != "falling" || modes[0].To != "walking" {
		t.Fatalf("mode events = %+v, want falling -> walking first", modes)
	}
	if _, ok := c.State().Mode.(physics.Walking); !ok {
		t.Fatalf("mode = %s, want walking", c.State().Mode)
	}
}

func TestJump_PublishesModeChange(t *testing.T) {
	bus := event.NewBus()
	var modes []event.ModeChangedEvent
	bus.Subscribe(event.EventModeChanged, func(raw any) {
		modes = append(modes, raw.(event.ModeChangedEvent))
	})
	c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, bus)

	if c.Jump() {
		t.Fatal("jump while falling should be refused")
	}
	if len(modes) != 0 {
		t.Fatalf("mode events = %+v, want none for a refused jump", modes)
	}

	c.SetMode(physics.Walking{})
	if !c.Jump() {
		t.Fatal("jump while walking refused")
	}
	if len(modes) != 1 || modes[0].From != "walking" || modes[0].To != "jumping" {
		t.Fatalf("mode events = %+v, want walking -> jumping", modes)
	}
}

func TestSlide(t *testing.T) {
	bus := event.NewBus()
	var shifts []event.GravityShiftedEvent
	bus.Subscribe(event.EventGravityShifted, func(raw any) {
		shifts = append(shifts, raw.(event.GravityShiftedEvent))
	})
	c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, bus)

	c.Slide(true)
	c.Slide(true)

	st := c.State()
	approxVec(t, st.Gravity, mgl64.Vec3{-9.8, 0, 0}, 1e-12, "gravity while sliding")
	if !st.SkiRequested || !c.Sliding() {
		t.Fatal("slide did not request skiing")
	}
	if !st.Blend.Active() {
		t.Fatal("slide did not start an orientation blend")
	}

	c.Slide(false)

	st = c.State()
	approxVec(t, st.Gravity, mgl64.Vec3{0, 0, -9.8}, 1e-12, "gravity after slide")
	if st.SkiRequested || c.Sliding() {
		t.Fatal("skiing still requested after slide ended")
	}
	if len(shifts) != 2 {
		t.Fatalf("gravity events = %d, want 2", len(shifts))
	}
	approxVec(t, shifts[1].Previous, mgl64.Vec3{-9.8, 0, 0}, 1e-12, "previous gravity")
}

func TestGravityShift(t *testing.T) {
	bus := event.NewBus()
	var got []event.GravityShiftedEvent
	bus.Subscribe(event.EventGravityShifted, func(raw any) {
		got = append(got, raw.(event.GravityShiftedEvent))
	})
	c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, bus)

	c.GravityShift(mgl64.Vec3{0, -9.8, 0})

	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	approxVec(t, got[0].Previous, mgl64.Vec3{0, 0, -9.8}, 0, "previous")
	approxVec(t, got[0].Gravity, mgl64.Vec3{0, -9.8, 0}, 0, "gravity")
	if _, ok := c.State().Mode.(physics.Falling); !ok {
		t.Fatalf("mode = %s, want falling", c.State().Mode)
	}
}

func TestTeleport(t *testing.T) {
	c := newTestCharacter(t, nil, mgl64.Vec3{5, 5, 2}, nil)
	c.SetVelocity(mgl64.Vec3{3, 0, 0})
	c.SetMode(physics.Walking{})

	c.Teleport(mgl64.Vec3{10, 10, 4})

	st := c.State()
	approxVec(t, st.Position, mgl64.Vec3{10, 10, 4}, 0, "position")
	approxVec(t, st.Velocity, mgl64.Vec3{}, 0, "velocity")
	if _, ok := st.Mode.(physics.Falling); !ok {
		t.Fatalf("mode = %s, want falling", st.Mode)
	}
}

func TestFire(t *testing.T) {
	w := world.New(world.NewFlatTerrain(20, 1, 0), world.Box{Min: mgl64.Vec3{10, 0, 0}, Max: mgl64.Vec3{11, 10, 3}})
	bus := event.NewBus()
	c := newTestCharacter(t, w, mgl64.Vec3{5, 5, 1}, bus)

	if shots := c.Fire(); shots != nil {
		t.Fatalf("shots without weapon = %+v, want nil", shots)
	}

	c.AttachWeapon(weapon.New(config.Default().Weapon, w, bus))
	if !c.HasRifle() {
		t.Fatal("HasRifle = false after AttachWeapon")
	}
	shots := c.Fire()

	if len(shots) != 1 || !shots[0].Hit {
		t.Fatalf("shots = %+v, want one hit", shots)
	}
	approxVec(t, shots[0].Origin, mgl64.Vec3{5, 5, 1.64}, 1e-9, "origin")
	approxVec(t, shots[0].Impact, mgl64.Vec3{10, 5, 1.64}, 1e-6, "impact")
	approxVec(t, shots[0].Normal, physics.Backward, 1e-9, "normal")
}
