package event

import "github.com/go-gl/mathgl/mgl64"

const (
	EventModeChanged    = "movement.mode"
	EventGravityShifted = "movement.gravity"
	EventLanded         = "movement.landed"
	EventSteppedUp      = "movement.step_up"
	EventPenetration    = "movement.penetration"
	EventWeaponFired    = "weapon.fired"
	EventEnemyDamaged   = "enemy.damaged"
	EventEnemyDestroyed = "enemy.destroyed"
)

type ModeChangedEvent struct {
	From     string
	To       string
	Position mgl64.Vec3
}

type GravityShiftedEvent struct {
	Previous mgl64.Vec3
	Gravity  mgl64.Vec3
}

type LandedEvent struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

type SteppedUpEvent struct {
	Position mgl64.Vec3
}

type PenetrationEvent struct {
	Count    int
	Position mgl64.Vec3
}

type WeaponFiredEvent struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	Hit       bool
	Impact    mgl64.Vec3
	Target    string
}

type EnemyDamagedEvent struct {
	Name   string
	Amount float64
	NewHP  float64
}

type EnemyDestroyedEvent struct {
	Name     string
	Position mgl64.Vec3
}
