package enemy

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/event"
	"github.com/Versifine/gravshift/internal/physics"
	"github.com/Versifine/gravshift/internal/weapon"
)

const DefaultHP = 100.0

// Enemy is a static target pawn. It is safe for concurrent use.
type Enemy struct {
	mu         sync.Mutex
	name       string
	position   mgl64.Vec3
	facing     mgl64.Vec3
	shape      physics.Shape
	hp         float64
	destroyed  bool
	controller *Controller
	onDestroy  []func(*Enemy)
	bus        *event.Bus
}

// New creates an enemy with baseHP health, or DefaultHP when baseHP is
// not positive.
func New(name string, position mgl64.Vec3, baseHP float64, bus *event.Bus) *Enemy {
	if baseHP <= 0 {
		baseHP = DefaultHP
	}
	return &Enemy{
		name:     name,
		position: position,
		facing:   physics.Forward,
		shape:    physics.Shape{Radius: physics.DefaultCapsuleRadius, HalfHeight: physics.DefaultCapsuleHalfHeight},
		hp:       baseHP,
		bus:      bus,
	}
}

func (e *Enemy) Name() string { return e.name }

func (e *Enemy) Bounds() (mgl64.Vec3, physics.Shape) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position, e.shape
}

func (e *Enemy) Position() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *Enemy) Facing() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.facing
}

// FaceTowards turns the enemy about the vertical axis to look at p.
func (e *Enemy) FaceTowards(p mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := p.Sub(e.position)
	d[2] = 0
	if l := d.Len(); l > 1e-9 {
		e.facing = d.Mul(1 / l)
	}
}

func (e *Enemy) HP() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hp
}

func (e *Enemy) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// TeamID reports the team of the possessing controller.
func (e *Enemy) TeamID() (uint8, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.controller == nil {
		return 0, false
	}
	return e.controller.Team, true
}

func (e *Enemy) Controller() *Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controller
}

func (e *Enemy) setController(c *Controller) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controller = c
}

// OnDestroyed registers fn to run once when the enemy is destroyed.
func (e *Enemy) OnDestroyed(fn func(*Enemy)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDestroy = append(e.onDestroy, fn)
}

func (e *Enemy) OnHit(location mgl64.Vec3, stats weapon.Stats) {
	slog.Debug("Enemy hit", "enemy", e.name, "location", location, "damage", stats.BaseDamage)
	e.ReceiveDamage(stats.BaseDamage)
}

// ReceiveDamage lowers HP and destroys the enemy the first time HP drops
// to zero or below. Damage after destruction is ignored.
func (e *Enemy) ReceiveDamage(amount float64) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.hp -= amount
	hp := e.hp
	destroyed := hp <= 0
	var callbacks []func(*Enemy)
	if destroyed {
		e.destroyed = true
		callbacks = e.onDestroy
		e.onDestroy = nil
	}
	pos := e.position
	e.mu.Unlock()

	e.bus.Publish(event.EventEnemyDamaged, event.EnemyDamagedEvent{Name: e.name, Amount: amount, NewHP: hp})
	if !destroyed {
		return
	}
	slog.Info("Enemy destroyed", "enemy", e.name, "position", pos)
	e.bus.Publish(event.EventEnemyDestroyed, event.EnemyDestroyedEvent{Name: e.name, Position: pos})
	for _, fn := range callbacks {
		fn(e)
	}
}
