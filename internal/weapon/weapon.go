package weapon

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/event"
	"github.com/Versifine/gravshift/internal/physics"
)

// Stats travel with every hit to the receiver.
type Stats struct {
	BaseDamage float64
}

type HitReceiver interface {
	OnHit(location mgl64.Vec3, stats Stats)
}

// ForceReceiver takes the shot impulse at the impact point.
type ForceReceiver interface {
	AddImpulseAt(impulse, location mgl64.Vec3)
}

type DecalSpawner interface {
	SpawnDecal(location, normal mgl64.Vec3, target any)
}

type SoundPlayer interface {
	PlayFire(location mgl64.Vec3)
}

type Tracer interface {
	LineTrace(origin, direction mgl64.Vec3, length float64) (physics.Hit, bool)
}

// SpreadFunc returns one direction per pellet, relative to a view looking
// along +X.
type SpreadFunc func() []mgl64.Vec3

func ForwardSpread() []mgl64.Vec3 {
	return []mgl64.Vec3{physics.Forward}
}

// RandomConeSpread scatters pellets uniformly over a cone around +X.
func RandomConeSpread(halfAngleDeg float64, pellets int, rng *rand.Rand) SpreadFunc {
	cosMax := math.Cos(mgl64.DegToRad(halfAngleDeg))
	return func() []mgl64.Vec3 {
		dirs := make([]mgl64.Vec3, pellets)
		for i := range dirs {
			cosT := 1 - rng.Float64()*(1-cosMax)
			sinT := math.Sqrt(1 - cosT*cosT)
			phi := rng.Float64() * 2 * math.Pi
			dirs[i] = mgl64.Vec3{cosT, sinT * math.Cos(phi), sinT * math.Sin(phi)}
		}
		return dirs
	}
}

type Shot struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	Hit       bool
	Impact    mgl64.Vec3
	Normal    mgl64.Vec3
	Target    any
}

type Weapon struct {
	Stats        Stats
	Range        float64
	FireForce    float64
	MuzzleOffset mgl64.Vec3
	Spread       SpreadFunc
	Decals       DecalSpawner
	Sound        SoundPlayer

	tracer Tracer
	bus    *event.Bus
}

func New(cfg config.WeaponConfig, tracer Tracer, bus *event.Bus) *Weapon {
	w := &Weapon{
		Stats:        Stats{BaseDamage: cfg.BaseDamage},
		Range:        cfg.Range,
		FireForce:    cfg.FireForce,
		MuzzleOffset: cfg.MuzzleOffset,
		Spread:       ForwardSpread,
		tracer:       tracer,
		bus:          bus,
	}
	if cfg.SpreadDegrees > 0 {
		w.Spread = RandomConeSpread(cfg.SpreadDegrees, 1, rand.New(rand.NewSource(rand.Int63())))
	}
	return w
}

// Fire traces every pellet from origin along view and applies the results.
// The fire sound plays once, at the muzzle.
func (w *Weapon) Fire(origin mgl64.Vec3, view mgl64.Quat) []Shot {
	spread := w.Spread
	if spread == nil {
		spread = ForwardSpread
	}
	var shots []Shot
	for _, local := range spread() {
		shots = append(shots, w.fireOne(origin, view, local))
	}
	if w.Sound != nil {
		w.Sound.PlayFire(origin.Add(view.Rotate(w.MuzzleOffset)))
	}
	return shots
}

func (w *Weapon) fireOne(origin mgl64.Vec3, view mgl64.Quat, local mgl64.Vec3) Shot {
	dir := view.Rotate(local)
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	shot := Shot{Origin: origin, Direction: dir}

	hit, ok := w.tracer.LineTrace(origin, dir, w.Range)
	if ok {
		shot.Hit = true
		shot.Impact = hit.ImpactPoint
		shot.Normal = hit.Normal
		shot.Target = hit.Target

		if r, ok := hit.Target.(HitReceiver); ok {
			r.OnHit(hit.ImpactPoint, w.Stats)
		}
		if w.Decals != nil {
			w.Decals.SpawnDecal(hit.ImpactPoint, hit.Normal, hit.Target)
		}
		if r, ok := hit.Target.(ForceReceiver); ok {
			r.AddImpulseAt(hit.Normal.Mul(-w.FireForce), hit.ImpactPoint)
		}
	}

	slog.Debug("Weapon fired", "origin", origin, "dir", dir, "hit", shot.Hit, "impact", shot.Impact)
	w.bus.Publish(event.EventWeaponFired, event.WeaponFiredEvent{
		Origin:    origin,
		Direction: dir,
		Hit:       shot.Hit,
		Impact:    shot.Impact,
		Target:    targetName(shot.Target),
	})
	return shot
}

func targetName(target any) string {
	if n, ok := target.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
