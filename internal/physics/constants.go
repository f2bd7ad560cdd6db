package physics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultGravityZ          = -9.8
	DefaultRotationRate      = 1.0
	DefaultWalkableFloorZ    = 0.5
	DefaultFlatSkiThreshold  = 0.98
	DefaultSkiAcceleration   = 6.0
	DefaultMaxWalkSpeed      = 6.0
	DefaultMaxAcceleration   = 20.48
	DefaultGroundFriction    = 8.0
	DefaultBrakingDecel      = 20.48
	DefaultAirControl        = 0.05
	DefaultJumpZVelocity     = 4.2
	DefaultMaxStepHeight     = 0.45
	DefaultFloorProbeDist    = 0.5
	DefaultMaxTimeStep       = 0.05
	DefaultMinTimeStep       = 1e-4
	DefaultMaxIterations     = 8
	DefaultMass              = 100.0
	DefaultCapsuleRadius     = 0.55
	DefaultCapsuleHalfHeight = 0.96
	DefaultSkiProbeCount     = 5
	DefaultSkiProbeSpread    = 0.3

	smallNumber         = 1e-8
	axisTolerance       = 1e-12
	rampTolerance       = 1e-4
	hitBackoff          = 1e-3
	penetrationPullback = 1e-3
	floorSnapTolerance  = 0.01
	stepDownSlack       = 0.02
)

var (
	Forward  = mgl64.Vec3{1, 0, 0}
	Backward = mgl64.Vec3{-1, 0, 0}
	Right    = mgl64.Vec3{0, -1, 0}
	Up       = mgl64.Vec3{0, 0, 1}
	Down     = mgl64.Vec3{0, 0, -1}
)

// Config holds the movement tuning of a single character.
type Config struct {
	Gravity      mgl64.Vec3 `yaml:"gravity"`
	RotationRate float64    `yaml:"rotation_rate"`

	// WalkableFloorZ is the minimum dot product between a surface normal and
	// the inverted gravity direction for the surface to count as floor.
	WalkableFloorZ float64 `yaml:"walkable_floor_z"`

	FlatSkiThreshold float64 `yaml:"flat_ski_threshold"`
	SkiAcceleration  float64 `yaml:"ski_acceleration"`
	// MaxSkiSpeed of zero leaves ski speed unbounded.
	MaxSkiSpeed    float64 `yaml:"max_ski_speed"`
	SkiProbeCount  int     `yaml:"ski_probe_count"`
	SkiProbeSpread float64 `yaml:"ski_probe_spread"`

	MaxWalkSpeed        float64 `yaml:"max_walk_speed"`
	MaxAcceleration     float64 `yaml:"max_acceleration"`
	GroundFriction      float64 `yaml:"ground_friction"`
	BrakingDeceleration float64 `yaml:"braking_deceleration"`
	AirControl          float64 `yaml:"air_control"`
	JumpZVelocity       float64 `yaml:"jump_z_velocity"`
	MaxStepHeight       float64 `yaml:"max_step_height"`
	FloorProbeDistance  float64 `yaml:"floor_probe_distance"`

	MaintainHorizontalGroundVelocity bool `yaml:"maintain_horizontal_ground_velocity"`

	MaxSimulationTimeStep   float64 `yaml:"max_simulation_time_step"`
	MinTimeStep             float64 `yaml:"min_time_step"`
	MaxSimulationIterations int     `yaml:"max_simulation_iterations"`

	Mass    float64       `yaml:"mass"`
	Capsule Shape         `yaml:"capsule"`
	Jetpack JetpackConfig `yaml:"jetpack"`
}

type JetpackConfig struct {
	Thrust       float64 `yaml:"thrust"`
	MaxEnergy    float64 `yaml:"max_energy"`
	DrainRate    float64 `yaml:"drain_rate"`
	RechargeRate float64 `yaml:"recharge_rate"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:                          mgl64.Vec3{0, 0, DefaultGravityZ},
		RotationRate:                     DefaultRotationRate,
		WalkableFloorZ:                   DefaultWalkableFloorZ,
		FlatSkiThreshold:                 DefaultFlatSkiThreshold,
		SkiAcceleration:                  DefaultSkiAcceleration,
		SkiProbeCount:                    DefaultSkiProbeCount,
		SkiProbeSpread:                   DefaultSkiProbeSpread,
		MaxWalkSpeed:                     DefaultMaxWalkSpeed,
		MaxAcceleration:                  DefaultMaxAcceleration,
		GroundFriction:                   DefaultGroundFriction,
		BrakingDeceleration:              DefaultBrakingDecel,
		AirControl:                       DefaultAirControl,
		JumpZVelocity:                    DefaultJumpZVelocity,
		MaxStepHeight:                    DefaultMaxStepHeight,
		FloorProbeDistance:               DefaultFloorProbeDist,
		MaintainHorizontalGroundVelocity: true,
		MaxSimulationTimeStep:            DefaultMaxTimeStep,
		MinTimeStep:                      DefaultMinTimeStep,
		MaxSimulationIterations:          DefaultMaxIterations,
		Mass:                             DefaultMass,
		Capsule: Shape{
			Radius:     DefaultCapsuleRadius,
			HalfHeight: DefaultCapsuleHalfHeight,
		},
		Jetpack: JetpackConfig{
			Thrust:       14,
			MaxEnergy:    100,
			DrainRate:    25,
			RechargeRate: 10,
		},
	}
}

var ErrInvalidConfig = errors.New("invalid movement config")

func (c Config) Validate() error {
	switch {
	case c.WalkableFloorZ <= -1 || c.WalkableFloorZ >= 1:
		return fmt.Errorf("%w: walkable_floor_z %.3f out of (-1, 1)", ErrInvalidConfig, c.WalkableFloorZ)
	case c.FlatSkiThreshold <= 0 || c.FlatSkiThreshold > 1:
		return fmt.Errorf("%w: flat_ski_threshold %.3f out of (0, 1]", ErrInvalidConfig, c.FlatSkiThreshold)
	case c.MaxSimulationTimeStep <= 0:
		return fmt.Errorf("%w: max_simulation_time_step must be positive", ErrInvalidConfig)
	case c.MinTimeStep <= 0 || c.MinTimeStep > c.MaxSimulationTimeStep:
		return fmt.Errorf("%w: min_time_step must be in (0, max_simulation_time_step]", ErrInvalidConfig)
	case c.MaxSimulationIterations < 1:
		return fmt.Errorf("%w: max_simulation_iterations must be at least 1", ErrInvalidConfig)
	case c.Capsule.Radius <= 0 || c.Capsule.HalfHeight < c.Capsule.Radius:
		return fmt.Errorf("%w: capsule needs radius > 0 and half_height >= radius", ErrInvalidConfig)
	case c.MaxSkiSpeed < 0:
		return fmt.Errorf("%w: max_ski_speed must not be negative", ErrInvalidConfig)
	case c.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive", ErrInvalidConfig)
	}
	return nil
}
