package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/character"
	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/enemy"
	"github.com/Versifine/gravshift/internal/event"
	"github.com/Versifine/gravshift/internal/logger"
	"github.com/Versifine/gravshift/internal/physics"
	"github.com/Versifine/gravshift/internal/weapon"
	"github.com/Versifine/gravshift/internal/world"
)

const maxDecals = 32

// Session owns one running scene: the world, the player and the enemies.
type Session struct {
	cfg         *config.Config
	bus         *event.Bus
	world       *world.World
	player      *character.Character
	enemies     []*enemy.Enemy
	controllers []*enemy.Controller
	log         *slog.Logger

	stepMu  sync.Mutex
	tick    uint64
	elapsed float64

	mu       sync.RWMutex
	snapshot Snapshot
	decals   []Decal

	startOnce sync.Once
}

func New(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	s := &Session{
		cfg:   cfg,
		bus:   event.NewBus(),
		world: world.FromConfig(cfg),
		log:   logger.For("game"),
	}
	sim := physics.NewSimulator(cfg.Movement, s.world)
	s.player = character.New("player", cfg.Character, sim, cfg.Simulation.Spawn, s.bus)

	rifle := weapon.New(cfg.Weapon, s.world, s.bus)
	rifle.Decals = s
	rifle.Sound = s
	s.player.AttachWeapon(rifle)

	for _, spawn := range cfg.Enemies {
		e := enemy.New(spawn.Name, spawn.Position, spawn.Health, s.bus)
		e.OnDestroyed(func(e *enemy.Enemy) { s.world.RemoveActor(e) })
		s.world.AddActor(e)
		s.enemies = append(s.enemies, e)

		c := enemy.NewController(spawn.Team, s.world, enemy.Watch(cfg.Simulation.TickInterval, s.player.Eye))
		s.controllers = append(s.controllers, c)
	}

	s.subscribe()
	s.snapshot = s.capture()
	return s, nil
}

func (s *Session) Bus() *event.Bus { return s.bus }

func (s *Session) World() *world.World { return s.world }

func (s *Session) Player() *character.Character { return s.player }

func (s *Session) Enemies() []*enemy.Enemy { return s.enemies }

func (s *Session) Controllers() []*enemy.Controller { return s.controllers }

func (s *Session) Config() *config.Config { return s.cfg }

// Start hands every enemy to its controller. Behaviors run until ctx is
// cancelled. Calling Start again has no effect.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		for i, c := range s.controllers {
			c.Possess(ctx, s.enemies[i])
		}
		s.log.Info("Session started", "enemies", len(s.enemies), "spawn", s.cfg.Simulation.Spawn)
	})
}

// Wait blocks until every enemy behavior has stopped.
func (s *Session) Wait() {
	for _, c := range s.controllers {
		_ = c.Wait()
	}
}

// Step advances the scene by dt seconds and returns the new snapshot.
func (s *Session) Step(dt float64) Snapshot {
	s.stepMu.Lock()
	s.player.Tick(dt)
	s.tick++
	s.elapsed += dt
	snap := s.capture()
	s.stepMu.Unlock()

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap
}

// Run steps the scene at the configured tick interval until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.Start(ctx)
	interval := s.cfg.Simulation.TickInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Wait()
			s.log.Info("Session stopped", "ticks", s.Snapshot().Tick)
			return nil
		case <-ticker.C:
			s.Step(interval.Seconds())
		}
	}
}

// Snapshot returns the state recorded by the latest Step.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Session) SpawnDecal(location, normal mgl64.Vec3, target any) {
	d := Decal{Location: location, Normal: normal}
	if n, ok := target.(interface{ Name() string }); ok {
		d.Target = n.Name()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decals = append(s.decals, d)
	if len(s.decals) > maxDecals {
		s.decals = s.decals[len(s.decals)-maxDecals:]
	}
}

func (s *Session) PlayFire(location mgl64.Vec3) {
	s.log.Debug("Fire sound", "location", location)
}

func (s *Session) capture() Snapshot {
	snap := Snapshot{
		Tick:    s.tick,
		Time:    s.elapsed,
		Player:  playerSnapshot(s.player),
		Enemies: make([]EnemySnapshot, 0, len(s.enemies)),
	}
	for _, e := range s.enemies {
		snap.Enemies = append(snap.Enemies, enemySnapshot(e))
	}
	s.mu.RLock()
	snap.Decals = append([]Decal(nil), s.decals...)
	s.mu.RUnlock()
	return snap
}

func (s *Session) subscribe() {
	s.bus.Subscribe(event.EventModeChanged, s.modeChangedHandler)
	s.bus.Subscribe(event.EventGravityShifted, s.gravityShiftedHandler)
	s.bus.Subscribe(event.EventLanded, s.landedHandler)
	s.bus.Subscribe(event.EventSteppedUp, s.steppedUpHandler)
	s.bus.Subscribe(event.EventPenetration, s.penetrationHandler)
	s.bus.Subscribe(event.EventWeaponFired, s.weaponFiredHandler)
	s.bus.Subscribe(event.EventEnemyDamaged, s.enemyDamagedHandler)
}

func (s *Session) modeChangedHandler(raw any) {
	evt, ok := raw.(event.ModeChangedEvent)
	if !ok {
		s.log.Error("Invalid event type for modeChangedHandler")
		return
	}
	s.log.Info("Movement mode changed", "from", evt.From, "to", evt.To, "position", evt.Position)
}

func (s *Session) gravityShiftedHandler(raw any) {
	evt, ok := raw.(event.GravityShiftedEvent)
	if !ok {
		s.log.Error("Invalid event type for gravityShiftedHandler")
		return
	}
	s.log.Debug("Gravity event", "previous", evt.Previous, "gravity", evt.Gravity)
}

func (s *Session) landedHandler(raw any) {
	evt, ok := raw.(event.LandedEvent)
	if !ok {
		s.log.Error("Invalid event type for landedHandler")
		return
	}
	s.log.Debug("Player landed", "position", evt.Position, "normal", evt.Normal)
}

func (s *Session) steppedUpHandler(raw any) {
	evt, ok := raw.(event.SteppedUpEvent)
	if !ok {
		s.log.Error("Invalid event type for steppedUpHandler")
		return
	}
	s.log.Debug("Player stepped up", "position", evt.Position)
}

func (s *Session) penetrationHandler(raw any) {
	evt, ok := raw.(event.PenetrationEvent)
	if !ok {
		s.log.Error("Invalid event type for penetrationHandler")
		return
	}
	s.log.Warn("Recovered from penetration", "count", evt.Count, "position", evt.Position)
}

func (s *Session) weaponFiredHandler(raw any) {
	evt, ok := raw.(event.WeaponFiredEvent)
	if !ok {
		s.log.Error("Invalid event type for weaponFiredHandler")
		return
	}
	if !evt.Hit {
		s.log.Info("Shot missed", "origin", evt.Origin, "direction", evt.Direction)
		return
	}
	s.log.Info("Shot hit", "impact", evt.Impact, "target", evt.Target)
}

func (s *Session) enemyDamagedHandler(raw any) {
	evt, ok := raw.(event.EnemyDamagedEvent)
	if !ok {
		s.log.Error("Invalid event type for enemyDamagedHandler")
		return
	}
	s.log.Info("Enemy damaged", "enemy", evt.Name, "amount", evt.Amount, "hp", evt.NewHP)
}
