package debug

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"

	"github.com/Versifine/gravshift/internal/character"
	"github.com/Versifine/gravshift/internal/game"
	"github.com/Versifine/gravshift/internal/weapon"
)

const (
	defaultTickInterval = 16 * time.Millisecond
	defaultMovePulse    = 180 * time.Millisecond
	defaultLookStep     = 5.0
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is the part of game.Session the console drives.
type Session interface {
	Step(dt float64) game.Snapshot
	Snapshot() game.Snapshot
	Player() *character.Character
}

type moveInput struct {
	Forward, Backward, Left, Right bool
}

func (m moveInput) axes() (x, y float64) {
	if m.Forward {
		y++
	}
	if m.Backward {
		y--
	}
	if m.Right {
		x++
	}
	if m.Left {
		x--
	}
	return x, y
}

type Console struct {
	session      Session
	out          io.Writer
	tickInterval time.Duration
	movePulse    time.Duration
	lookStep     float64

	mu            sync.Mutex
	currentInput  moveInput
	forwardUntil  time.Time
	backwardUntil time.Time
	leftUntil     time.Time
	rightUntil    time.Time
	jetpacking    bool
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
}

func NewConsole(session Session, tickInterval time.Duration, lookStep float64) *Console {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	if lookStep <= 0 {
		lookStep = defaultLookStep
	}
	return &Console{
		session:      session,
		out:          os.Stdout,
		tickInterval: tickInterval,
		movePulse:    defaultMovePulse,
		lookStep:     lookStep,
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return errors.New("console is nil")
	}
	if c.session == nil {
		return errors.New("console session is nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()

	fmt.Fprint(c.out, "[debug] console started (W/A/S/D pulse, arrows look, Space jump, K slide, J jetpack, F fire, :help)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl+C is not delivered as a signal in raw mode
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.step(c.tickInterval.Seconds())
			c.renderStatusLine()
		}
	}
}

// step feeds the held movement keys to the player and advances the session.
func (c *Console) step(dt float64) game.Snapshot {
	x, y := c.getInput().axes()
	if x != 0 || y != 0 {
		c.session.Player().Move(x, y)
	}
	return c.session.Step(dt)
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	player := c.session.Player()
	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'w', 'W':
		c.pulseForward()
	case 's', 'S':
		c.pulseBackward()
	case 'a', 'A':
		c.pulseLeft()
	case 'd', 'D':
		c.pulseRight()
	case ' ':
		if !player.Jump() {
			slog.Debug("Jump ignored while airborne")
		}
	case 'k', 'K':
		player.Slide(!player.Sliding())
	case 'j', 'J':
		c.toggleJetpack()
	case 'f', 'F':
		c.printShots(player.Fire())
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			player.Look(-c.lookStep, 0)
		case 'C': // right
			player.Look(c.lookStep, 0)
		case 'A': // up
			player.Look(0, -c.lookStep)
		case 'B': // down
			player.Look(0, c.lookStep)
		}
	}
	c.renderStatusLine()
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}
	player := c.session.Player()

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		st := player.State()
		fmt.Fprintf(c.out, "[debug] pos=%s vel=%s gravity=%s mode=%s blend=%.2f jetpack=%.1f\r\n",
			formatVec(st.Position), formatVec(st.Velocity), formatVec(st.Gravity),
			st.Mode, st.RotationBlendProgress(), st.Jetpack.Energy)
	case "snap":
		data, err := json.Marshal(c.session.Snapshot())
		if err != nil {
			fmt.Fprintf(c.out, "[debug] snapshot encode failed: %v\r\n", err)
			return
		}
		fmt.Fprintf(c.out, "[debug] %s\r\n", data)
	case "gravity":
		g, err := parseVec3(parts[1:])
		if err != nil {
			fmt.Fprintf(c.out, "[debug] usage: :gravity <x> <y> <z> (%v)\r\n", err)
			return
		}
		player.GravityShift(g)
		fmt.Fprintf(c.out, "[debug] gravity set to %s\r\n", formatVec(g))
	case "tp":
		pos, err := parseVec3(parts[1:])
		if err != nil {
			fmt.Fprintf(c.out, "[debug] usage: :tp <x> <y> <z> (%v)\r\n", err)
			return
		}
		player.Teleport(pos)
		fmt.Fprintf(c.out, "[debug] teleported to %s\r\n", formatVec(pos))
	case "ski":
		if len(parts) != 2 || (parts[1] != "on" && parts[1] != "off") {
			fmt.Fprint(c.out, "[debug] usage: :ski on|off\r\n")
			return
		}
		player.SetIsSkiing(parts[1] == "on")
		fmt.Fprintf(c.out, "[debug] ski %s\r\n", parts[1])
	default:
		fmt.Fprintf(c.out, "[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, "[debug] keys:\r\n")
	fmt.Fprint(c.out, "  W/S/A/D: pulse movement (~180ms)\r\n")
	fmt.Fprint(c.out, "  Arrow Left/Right: yaw, Arrow Up/Down: pitch\r\n")
	fmt.Fprint(c.out, "  Space: jump\r\n")
	fmt.Fprint(c.out, "  K: toggle slide\r\n")
	fmt.Fprint(c.out, "  J: toggle jetpack\r\n")
	fmt.Fprint(c.out, "  F: fire\r\n")
	fmt.Fprint(c.out, "  X: clear movement\r\n")
	fmt.Fprint(c.out, "  : enter command mode\r\n")
	fmt.Fprint(c.out, "[debug] commands:\r\n")
	fmt.Fprint(c.out, "  :gravity <x> <y> <z>\r\n")
	fmt.Fprint(c.out, "  :tp <x> <y> <z>\r\n")
	fmt.Fprint(c.out, "  :ski on|off\r\n")
	fmt.Fprint(c.out, "  :state\r\n")
	fmt.Fprint(c.out, "  :snap\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
}

func (c *Console) printShots(shots []weapon.Shot) {
	if len(shots) == 0 {
		fmt.Fprint(c.out, "\r\n[debug] no weapon\r\n")
		return
	}
	for _, s := range shots {
		if !s.Hit {
			fmt.Fprint(c.out, "\r\n[debug] shot missed\r\n")
			continue
		}
		fmt.Fprintf(c.out, "\r\n[debug] shot hit %s at %s\r\n", targetLabel(s.Target), formatVec(s.Impact))
	}
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	input := c.currentInput
	jet := c.jetpacking
	width := c.statusWidth
	c.mu.Unlock()

	snap := c.session.Snapshot()
	p := snap.Player

	line := fmt.Sprintf(
		"[FWD:%s BCK:%s L:%s R:%s JET:%s | %s | YAW:%.1f PIT:%.1f | X:%.2f Y:%.2f Z:%.2f | G:%s]",
		boolLabel(input.Forward),
		boolLabel(input.Backward),
		boolLabel(input.Left),
		boolLabel(input.Right),
		boolLabel(jet),
		p.Mode,
		p.Yaw,
		p.Pitch,
		p.Position.X(),
		p.Position.Y(),
		p.Position.Z(),
		formatVec(p.Gravity),
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) toggleJetpack() {
	c.mu.Lock()
	c.jetpacking = !c.jetpacking
	active := c.jetpacking
	c.mu.Unlock()
	c.session.Player().SetJetpacking(active)
	slog.Debug("debug jetpack toggled", "enabled", active)
}

func (c *Console) getInput() moveInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyMovementPulseLocked(time.Now())
	return c.currentInput
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func (c *Console) pulseForward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Forward = true
	c.forwardUntil = time.Now().Add(c.movePulse)
	c.currentInput.Backward = false
	c.backwardUntil = time.Time{}
}

func (c *Console) pulseBackward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Backward = true
	c.backwardUntil = time.Now().Add(c.movePulse)
	c.currentInput.Forward = false
	c.forwardUntil = time.Time{}
}

func (c *Console) pulseLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Left = true
	c.leftUntil = time.Now().Add(c.movePulse)
	c.currentInput.Right = false
	c.rightUntil = time.Time{}
}

func (c *Console) pulseRight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Right = true
	c.rightUntil = time.Now().Add(c.movePulse)
	c.currentInput.Left = false
	c.leftUntil = time.Time{}
}

func (c *Console) applyMovementPulseLocked(now time.Time) {
	if !c.forwardUntil.IsZero() && !now.Before(c.forwardUntil) {
		c.currentInput.Forward = false
		c.forwardUntil = time.Time{}
	}
	if !c.backwardUntil.IsZero() && !now.Before(c.backwardUntil) {
		c.currentInput.Backward = false
		c.backwardUntil = time.Time{}
	}
	if !c.leftUntil.IsZero() && !now.Before(c.leftUntil) {
		c.currentInput.Left = false
		c.leftUntil = time.Time{}
	}
	if !c.rightUntil.IsZero() && !now.Before(c.rightUntil) {
		c.currentInput.Right = false
		c.rightUntil = time.Time{}
	}
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.currentInput = moveInput{}
	c.forwardUntil = time.Time{}
	c.backwardUntil = time.Time{}
	c.leftUntil = time.Time{}
	c.rightUntil = time.Time{}
	c.mu.Unlock()
}

func parseVec3(args []string) (mgl64.Vec3, error) {
	if len(args) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want 3 components, got %d", len(args))
	}
	var v mgl64.Vec3
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = f
	}
	return v, nil
}

func formatVec(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}

func targetLabel(target any) string {
	if n, ok := target.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "terrain"
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
