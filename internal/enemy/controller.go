package enemy

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/weapon"
)

type Attitude int

const (
	Friendly Attitude = iota
	Neutral
	Hostile
)

func (a Attitude) String() string {
	switch a {
	case Friendly:
		return "friendly"
	case Neutral:
		return "neutral"
	default:
		return "hostile"
	}
}

// SightConfig describes what a controller can perceive. PeripheralDegrees
// is measured from the facing direction to the edge of the view cone.
type SightConfig struct {
	Radius            float64
	LoseRadius        float64
	PeripheralDegrees float64
}

func DefaultSight() SightConfig {
	return SightConfig{Radius: 1500, LoseRadius: 2000, PeripheralDegrees: 90}
}

// Teamed is implemented by pawns that belong to an AI team.
type Teamed interface {
	TeamID() (uint8, bool)
}

type BehaviorRunner interface {
	Run(ctx context.Context, e *Enemy) error
}

type BehaviorFunc func(ctx context.Context, e *Enemy) error

func (f BehaviorFunc) Run(ctx context.Context, e *Enemy) error { return f(ctx, e) }

// eyeHeight lifts sight traces off the capsule center.
const eyeHeight = 0.6

// Controller drives one enemy: it owns the team, perception and the
// behavior goroutine.
type Controller struct {
	Team     uint8
	Sight    SightConfig
	Behavior BehaviorRunner

	tracer weapon.Tracer

	mu       sync.Mutex
	pawn     *Enemy
	tracking bool
	done     chan struct{}
	err      error
}

func NewController(team uint8, tracer weapon.Tracer, behavior BehaviorRunner) *Controller {
	return &Controller{
		Team:     team,
		Sight:    DefaultSight(),
		Behavior: behavior,
		tracer:   tracer,
	}
}

// Possess takes control of e and starts the behavior, if any, on its own
// goroutine. The behavior stops when ctx is cancelled.
func (c *Controller) Possess(ctx context.Context, e *Enemy) {
	c.mu.Lock()
	c.pawn = e
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()
	e.setController(c)

	if c.Behavior == nil {
		slog.Debug("Enemy has no behavior", "enemy", e.Name())
		close(done)
		return
	}
	go func() {
		defer close(done)
		err := c.Behavior.Run(ctx, e)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Enemy behavior stopped", "enemy", e.Name(), "error", err)
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
	}()
}

// Wait blocks until the behavior started by Possess returns.
func (c *Controller) Wait() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Pawn() *Enemy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pawn
}

// AttitudeTowards is Friendly only towards pawns of the same AI team.
func (c *Controller) AttitudeTowards(other any) Attitude {
	if t, ok := other.(Teamed); ok {
		if team, ok := t.TeamID(); ok && team == c.Team {
			return Friendly
		}
	}
	return Hostile
}

// CanSee checks range, the view cone and line of sight from the pawn's eye
// to target. Once a target is seen it stays visible out to LoseRadius.
func (c *Controller) CanSee(target mgl64.Vec3) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pawn == nil || c.pawn.Destroyed() {
		c.tracking = false
		return false
	}

	eye := c.pawn.Position().Add(mgl64.Vec3{0, 0, eyeHeight})
	to := target.Sub(eye)
	dist := to.Len()
	radius := c.Sight.Radius
	if c.tracking {
		radius = c.Sight.LoseRadius
	}
	visible := dist <= radius && c.inCone(to, dist) && c.clearLine(eye, to, dist)
	c.tracking = visible
	return visible
}

func (c *Controller) inCone(to mgl64.Vec3, dist float64) bool {
	if dist < 1e-9 {
		return true
	}
	cos := c.pawn.Facing().Dot(to.Mul(1 / dist))
	return cos >= math.Cos(mgl64.DegToRad(c.Sight.PeripheralDegrees))-1e-12
}

func (c *Controller) clearLine(eye, to mgl64.Vec3, dist float64) bool {
	if c.tracer == nil || dist < 1e-9 {
		return true
	}
	hit, ok := c.tracer.LineTrace(eye, to, dist)
	return !ok || hit.Time >= 1-1e-6 || hit.Target == any(c.pawn)
}

// Watch returns a behavior that polls target every period and turns the
// enemy towards it while it is visible.
func Watch(period time.Duration, target func() mgl64.Vec3) BehaviorFunc {
	return func(ctx context.Context, e *Enemy) error {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		spotted := false
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if e.Destroyed() {
				return nil
			}
			c := e.Controller()
			if c == nil {
				continue
			}
			p := target()
			seen := c.CanSee(p)
			if seen {
				e.FaceTowards(p)
			}
			if seen != spotted {
				slog.Info("Enemy perception changed", "enemy", e.Name(), "sees_target", seen)
				spotted = seen
			}
		}
	}
}
