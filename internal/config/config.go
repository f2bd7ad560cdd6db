package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Versifine/gravshift/internal/physics"
)

const (
	ModeHeadless = "headless"
	ModeConsole  = "console"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Mode       string           `yaml:"mode"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
	Movement   physics.Config   `yaml:"movement"`
	Character  CharacterConfig  `yaml:"character"`
	Weapon     WeaponConfig     `yaml:"weapon"`
	Enemies    []EnemySpawn     `yaml:"enemies"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Boxes      []BoxSpawn       `yaml:"boxes"`
	Inspector  InspectorConfig  `yaml:"inspector"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Spawn        mgl64.Vec3    `yaml:"spawn"`
}

type CharacterConfig struct {
	SlideGravity float64 `yaml:"slide_gravity"`
	PitchLimit   float64 `yaml:"pitch_limit"` // degrees
	EyeHeight    float64 `yaml:"eye_height"`
	LookSpeed    float64 `yaml:"look_speed"` // degrees per console look key
}

type WeaponConfig struct {
	BaseDamage   float64    `yaml:"base_damage"`
	Range        float64    `yaml:"range"`
	FireForce    float64    `yaml:"fire_force"`
	MuzzleOffset mgl64.Vec3 `yaml:"muzzle_offset"`

	// SpreadDegrees of zero fires straight along the view.
	SpreadDegrees float64 `yaml:"spread_degrees"`
}

type EnemySpawn struct {
	Name     string     `yaml:"name"`
	Team     uint8      `yaml:"team"`
	Position mgl64.Vec3 `yaml:"position"`
	Health   float64    `yaml:"health"`
}

type TerrainConfig struct {
	Seed      int64   `yaml:"seed"`
	Size      int     `yaml:"size"`
	CellSize  float64 `yaml:"cell_size"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
}

// BoxSpawn is an axis-aligned obstacle given by two opposite corners.
type BoxSpawn struct {
	Min mgl64.Vec3 `yaml:"min"`
	Max mgl64.Vec3 `yaml:"max"`
}

type InspectorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	MaxConns int           `yaml:"max_conns"`
	Period   time.Duration `yaml:"period"`
}

func (c InspectorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Default() *Config {
	return &Config{
		Mode: ModeHeadless,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Simulation: SimulationConfig{
			TickInterval: 16 * time.Millisecond,
			Spawn:        mgl64.Vec3{0, 0, 10},
		},
		Movement: physics.DefaultConfig(),
		Character: CharacterConfig{
			SlideGravity: 9.8,
			PitchLimit:   85,
			EyeHeight:    0.64,
			LookSpeed:    5,
		},
		Weapon: WeaponConfig{
			BaseDamage: 10,
			Range:      10000,
			FireForce:  100000,
		},
		Terrain: TerrainConfig{
			Seed:      1,
			Size:      64,
			CellSize:  1,
			Amplitude: 2,
			Frequency: 0.05,
			Alpha:     1.5,
			Beta:      2,
			Octaves:   4,
		},
		Inspector: InspectorConfig{
			Host:     "127.0.0.1",
			Port:     8089,
			MaxConns: 16,
			Period:   100 * time.Millisecond,
		},
	}
}

// Load reads path and unmarshals it over Default, so absent keys keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mode != ModeHeadless && c.Mode != ModeConsole {
		return fmt.Errorf("%w: mode %q", ErrInvalid, c.Mode)
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("%w: simulation.tick_interval must be positive", ErrInvalid)
	}
	if err := c.Movement.Validate(); err != nil {
		return fmt.Errorf("movement: %w", err)
	}
	if c.Character.PitchLimit <= 0 || c.Character.PitchLimit >= 90 {
		return fmt.Errorf("%w: character.pitch_limit %.1f outside (0, 90)", ErrInvalid, c.Character.PitchLimit)
	}
	if c.Weapon.Range <= 0 {
		return fmt.Errorf("%w: weapon.range must be positive", ErrInvalid)
	}
	if c.Weapon.SpreadDegrees < 0 || c.Weapon.SpreadDegrees >= 90 {
		return fmt.Errorf("%w: weapon.spread_degrees %.1f outside [0, 90)", ErrInvalid, c.Weapon.SpreadDegrees)
	}
	for i, e := range c.Enemies {
		if e.Health < 0 {
			return fmt.Errorf("%w: enemies[%d].health is negative", ErrInvalid, i)
		}
	}
	if c.Terrain.Size < 2 || c.Terrain.CellSize <= 0 {
		return fmt.Errorf("%w: terrain needs size >= 2 and a positive cell_size", ErrInvalid)
	}
	if c.Terrain.Octaves <= 0 {
		return fmt.Errorf("%w: terrain.octaves must be positive", ErrInvalid)
	}
	for i, b := range c.Boxes {
		if b.Min.X() >= b.Max.X() || b.Min.Y() >= b.Max.Y() || b.Min.Z() >= b.Max.Z() {
			return fmt.Errorf("%w: boxes[%d] min must be below max on every axis", ErrInvalid, i)
		}
	}
	if c.Inspector.Enabled {
		if c.Inspector.Port <= 0 || c.Inspector.Port > 65535 {
			return fmt.Errorf("%w: inspector.port %d", ErrInvalid, c.Inspector.Port)
		}
		if c.Inspector.Period <= 0 {
			return fmt.Errorf("%w: inspector.period must be positive", ErrInvalid)
		}
	}
	return nil
}
