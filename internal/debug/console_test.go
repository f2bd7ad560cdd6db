package debug

import (
	"bufio"
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/game"
)

func newTestConsole(t *testing.T) (*Console, *game.Session, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Terrain.Amplitude = 0
	cfg.Simulation.Spawn = mgl64.Vec3{8, 8, 3}
	s, err := game.New(cfg)
	if err != nil {
		t.Fatalf("game.New() error = %v", err)
	}
	out := &bytes.Buffer{}
	c := NewConsole(s, 0, 0)
	c.out = out
	return c, s, out
}

func typeKeys(c *Console, keys string) {
	reader := bufio.NewReader(strings.NewReader(""))
	for i := 0; i < len(keys); i++ {
		c.handleKey(reader, keys[i])
	}
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    mgl64.Vec3
		wantErr bool
	}{
		{name: "three numbers", args: []string{"1", "-2.5", "9.8"}, want: mgl64.Vec3{1, -2.5, 9.8}},
		{name: "too few", args: []string{"1", "2"}, wantErr: true},
		{name: "too many", args: []string{"1", "2", "3", "4"}, wantErr: true},
		{name: "not a number", args: []string{"1", "up", "3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVec3(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVec3() error = %v, wantErr %t", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("parseVec3() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoveInputAxes(t *testing.T) {
	tests := []struct {
		name  string
		input moveInput
		wantX float64
		wantY float64
	}{
		{name: "idle", input: moveInput{}},
		{name: "forward", input: moveInput{Forward: true}, wantY: 1},
		{name: "back left", input: moveInput{Backward: true, Left: true}, wantX: -1, wantY: -1},
		{name: "right", input: moveInput{Right: true}, wantX: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.input.axes()
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("axes() = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestExecuteCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		wantOut string
		check   func(t *testing.T, s *game.Session)
	}{
		{
			name:    "gravity",
			cmd:     "gravity 0 -9.8 0",
			wantOut: "gravity set to (0.00, -9.80, 0.00)",
			check: func(t *testing.T, s *game.Session) {
				if g := s.Player().State().Gravity; g != (mgl64.Vec3{0, -9.8, 0}) {
					t.Fatalf("gravity = %v, want (0, -9.8, 0)", g)
				}
			},
		},
		{
			name:    "gravity usage",
			cmd:     "gravity 0 1",
			wantOut: "usage: :gravity",
		},
		{
			name:    "teleport",
			cmd:     "tp 4 5 6",
			wantOut: "teleported to (4.00, 5.00, 6.00)",
			check: func(t *testing.T, s *game.Session) {
				if p := s.Player().Position(); p != (mgl64.Vec3{4, 5, 6}) {
					t.Fatalf("position = %v, want (4, 5, 6)", p)
				}
			},
		},
		{
			name:    "ski on",
			cmd:     "ski on",
			wantOut: "ski on",
			check: func(t *testing.T, s *game.Session) {
				if !s.Player().State().SkiRequested {
					t.Fatal("ski request not recorded")
				}
			},
		},
		{
			name:    "ski usage",
			cmd:     "ski maybe",
			wantOut: "usage: :ski on|off",
		},
		{
			name:    "snapshot json",
			cmd:     "snap",
			wantOut: `"player":{`,
		},
		{
			name:    "state",
			cmd:     "state",
			wantOut: "mode=falling",
		},
		{
			name:    "unknown",
			cmd:     "fly",
			wantOut: "unknown command: fly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s, out := newTestConsole(t)
			c.executeCommand(tt.cmd)
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Fatalf("output = %q, want it to contain %q", out.String(), tt.wantOut)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestCommandMode_TypedCommand(t *testing.T) {
	c, s, out := newTestConsole(t)

	typeKeys(c, ":tp 1 2 3x")
	typeKeys(c, "\x7f\r")

	if c.isCommandMode() {
		t.Fatal("still in command mode after Enter")
	}
	if p := s.Player().Position(); p != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("position = %v, want (1, 2, 3)", p)
	}
	if !strings.Contains(out.String(), "teleported") {
		t.Fatalf("output = %q, want teleport confirmation", out.String())
	}
}

func TestHandleKey_Actions(t *testing.T) {
	c, s, _ := newTestConsole(t)
	player := s.Player()

	typeKeys(c, "k")
	if !player.Sliding() {
		t.Fatal("K did not start sliding")
	}
	typeKeys(c, "K")
	if player.Sliding() {
		t.Fatal("second K did not stop sliding")
	}

	typeKeys(c, "j")
	if !player.State().Jetpack.Active {
		t.Fatal("J did not enable the jetpack")
	}

	c.handleKey(bufio.NewReader(strings.NewReader("[C")), 27)
	if yaw, _ := player.YawPitch(); math.Abs(yaw-defaultLookStep) > 1e-9 {
		t.Fatalf("yaw = %v, want %v", yaw, defaultLookStep)
	}
}

func TestStep_AppliesMovementPulse(t *testing.T) {
	c, s, _ := newTestConsole(t)
	c.movePulse = time.Hour

	typeKeys(c, "w")
	for i := 0; i < 60; i++ {
		c.step(1.0 / 30)
	}

	snap := s.Snapshot()
	if snap.Tick != 60 {
		t.Fatalf("tick = %d, want 60", snap.Tick)
	}
	if snap.Player.Position.X() <= 8.5 {
		t.Fatalf("position.x = %.3f, want forward progress", snap.Player.Position.X())
	}

	typeKeys(c, "x")
	if x, y := c.getInput().axes(); x != 0 || y != 0 {
		t.Fatalf("axes after clear = (%v, %v), want zero", x, y)
	}
}
