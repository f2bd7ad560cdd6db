package weapon

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/event"
	"github.com/Versifine/gravshift/internal/physics"
)

type fakeTracer struct {
	hit    physics.Hit
	ok     bool
	traces []mgl64.Vec3
	length float64
}

func (f *fakeTracer) LineTrace(_, direction mgl64.Vec3, length float64) (physics.Hit, bool) {
	f.traces = append(f.traces, direction)
	f.length = length
	return f.hit, f.ok
}

type target struct {
	hits     []Stats
	impulse  mgl64.Vec3
	location mgl64.Vec3
}

func (t *target) Name() string { return "crate" }

func (t *target) OnHit(_ mgl64.Vec3, stats Stats) { t.hits = append(t.hits, stats) }

func (t *target) AddImpulseAt(impulse, location mgl64.Vec3) {
	t.impulse, t.location = impulse, location
}

type recorder struct {
	decals int
	sounds int
}

func (r *recorder) SpawnDecal(_, _ mgl64.Vec3, _ any) { r.decals++ }

func (r *recorder) PlayFire(_ mgl64.Vec3) { r.sounds++ }

func approxVec(t *testing.T, got, want mgl64.Vec3, tol float64, field string) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%s = %v, want %v (tol=%.8f)", field, got, want, tol)
		}
	}
}

func TestFire(t *testing.T) {
	yaw90 := mgl64.QuatRotate(math.Pi/2, physics.Up)

	tests := []struct {
		name       string
		hit        bool
		view       mgl64.Quat
		wantDir    mgl64.Vec3
		wantHits   int
		wantDecals int
	}{
		{name: "hit straight ahead", hit: true, view: mgl64.QuatIdent(), wantDir: physics.Forward, wantHits: 1, wantDecals: 1},
		{name: "hit after turning left", hit: true, view: yaw90, wantDir: mgl64.Vec3{0, 1, 0}, wantHits: 1, wantDecals: 1},
		{name: "miss", hit: false, view: mgl64.QuatIdent(), wantDir: physics.Forward, wantHits: 0, wantDecals: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crate := &target{}
			tracer := &fakeTracer{
				ok: tt.hit,
				hit: physics.Hit{
					Blocking:    true,
					ImpactPoint: mgl64.Vec3{5, 0, 1},
					Normal:      mgl64.Vec3{-1, 0, 0},
					Target:      crate,
				},
			}
			bus := event.NewBus()
			var fired []event.WeaponFiredEvent
			bus.Subscribe(event.EventWeaponFired, func(raw any) {
				fired = append(fired, raw.(event.WeaponFiredEvent))
			})
			rec := &recorder{}
			w := New(config.Default().Weapon, tracer, bus)
			w.Decals, w.Sound = rec, rec

			shots := w.Fire(mgl64.Vec3{0, 0, 1}, tt.view)

			if len(shots) != 1 {
				t.Fatalf("shots = %d, want 1", len(shots))
			}
			approxVec(t, shots[0].Direction, tt.wantDir, 1e-12, "direction")
			approxVec(t, tracer.traces[0], tt.wantDir, 1e-12, "traced direction")
			if tracer.length != 10000 {
				t.Fatalf("trace length = %v, want 10000", tracer.length)
			}
			if shots[0].Hit != tt.hit {
				t.Fatalf("shot hit = %t, want %t", shots[0].Hit, tt.hit)
			}
			if len(crate.hits) != tt.wantHits {
				t.Fatalf("OnHit calls = %d, want %d", len(crate.hits), tt.wantHits)
			}
			if rec.decals != tt.wantDecals {
				t.Fatalf("decals = %d, want %d", rec.decals, tt.wantDecals)
			}
			if rec.sounds != 1 {
				t.Fatalf("sounds = %d, want 1", rec.sounds)
			}
			if len(fired) != 1 || fired[0].Hit != tt.hit {
				t.Fatalf("fired events = %+v, want one with hit=%t", fired, tt.hit)
			}
			if tt.hit {
				if crate.hits[0].BaseDamage != 10 {
					t.Fatalf("damage = %v, want 10", crate.hits[0].BaseDamage)
				}
				approxVec(t, crate.impulse, mgl64.Vec3{100000, 0, 0}, 0, "impulse")
				approxVec(t, crate.location, mgl64.Vec3{5, 0, 1}, 0, "impulse location")
				if fired[0].Target != "crate" {
					t.Fatalf("event target = %q, want crate", fired[0].Target)
				}
			}
		})
	}
}

func TestFire_WithoutOptionalCollaborators(t *testing.T) {
	tracer := &fakeTracer{ok: true, hit: physics.Hit{Blocking: true, Normal: physics.Up}}
	w := New(config.Default().Weapon, tracer, nil)

	shots := w.Fire(mgl64.Vec3{}, mgl64.QuatIdent())

	if len(shots) != 1 || !shots[0].Hit || shots[0].Target != nil {
		t.Fatalf("shots = %+v, want one hit without target", shots)
	}
}

func TestFire_OnePelletPerSpreadVector(t *testing.T) {
	tracer := &fakeTracer{}
	w := New(config.Default().Weapon, tracer, nil)
	w.Spread = func() []mgl64.Vec3 {
		return []mgl64.Vec3{physics.Forward, {1, 1, 0}, {1, 0, 1}}
	}

	shots := w.Fire(mgl64.Vec3{}, mgl64.QuatIdent())

	if len(shots) != 3 || len(tracer.traces) != 3 {
		t.Fatalf("shots = %d traces = %d, want 3", len(shots), len(tracer.traces))
	}
	s := math.Sqrt2 / 2
	approxVec(t, shots[1].Direction, mgl64.Vec3{s, s, 0}, 1e-12, "second pellet")
}

func TestRandomConeSpread(t *testing.T) {
	tests := []struct {
		name      string
		halfAngle float64
		pellets   int
	}{
		{name: "narrow", halfAngle: 2, pellets: 50},
		{name: "wide", halfAngle: 30, pellets: 50},
		{name: "single", halfAngle: 10, pellets: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spread := RandomConeSpread(tt.halfAngle, tt.pellets, rand.New(rand.NewSource(42)))
			dirs := spread()
			if len(dirs) != tt.pellets {
				t.Fatalf("pellets = %d, want %d", len(dirs), tt.pellets)
			}
			minCos := math.Cos(mgl64.DegToRad(tt.halfAngle))
			for _, d := range dirs {
				if math.Abs(d.Len()-1) > 1e-9 {
					t.Fatalf("direction %v is not unit length", d)
				}
				if d.Dot(physics.Forward) < minCos-1e-12 {
					t.Fatalf("direction %v outside %.1f degree cone", d, tt.halfAngle)
				}
			}
		})
	}
}
