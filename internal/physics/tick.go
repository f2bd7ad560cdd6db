package physics

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Input is the movement intent for one tick. Acceleration is a world-space
// direction with length in [0, 1].
type Input struct {
	Acceleration mgl64.Vec3
}

type StepReport struct {
	PreviousMode Mode
	Mode         Mode
	Transitions  []Transition
	BlendActive  bool
	Landed       bool
	LandingHit   Hit
	SteppedUp    bool
	Penetrations int
	Iterations   int
	DeferredTime float64
}

type Simulator struct {
	Config  Config
	Queries CollisionQueryService
}

func NewSimulator(cfg Config, queries CollisionQueryService) *Simulator {
	return &Simulator{Config: cfg, Queries: queries}
}

// Step advances st by dt seconds.
func (s *Simulator) Step(st *State, in Input, dt float64) StepReport {
	report := StepReport{PreviousMode: st.Mode}
	if st.Mode == nil {
		st.Mode = Falling{}
	}

	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	// Deferred time is movement the previous tick could not simulate. The
	// blend and jetpack already ran over it.
	moveDt := dt + st.DeferredTime
	st.DeferredTime = 0
	if moveDt <= 0 {
		report.Mode = st.Mode
		return report
	}

	if dt > 0 {
		if q, ok := st.Blend.Advance(dt); ok {
			s.moveAndCollide(st, mgl64.Vec3{}, q)
			report.BlendActive = true
		}
		if st.PendingForce.LenSqr() > 0 && s.Config.Mass > 0 {
			st.Velocity = st.Velocity.Add(st.PendingForce.Mul(dt / s.Config.Mass))
		}
		st.PendingForce = mgl64.Vec3{}
	}

	up := upAxis(st)
	thrust := s.updateJetpack(st, up, dt)
	if _, walking := st.Mode.(Walking); walking && thrust.Len() > st.Gravity.Len() {
		s.setMode(st, Falling{}, &report)
	}

	switch st.Mode.(type) {
	case Walking:
		s.walk(st, in, moveDt, thrust, &report)
	default:
		s.fall(st, in, moveDt, thrust, &report)
	}

	report.Mode = st.Mode
	report.DeferredTime = st.DeferredTime
	return report
}

// SetMode forces a movement mode from gameplay code.
func (s *Simulator) SetMode(st *State, m Mode) {
	s.setMode(st, m, nil)
}

// Jump launches a walking body along its up axis.
func (s *Simulator) Jump(st *State) bool {
	if _, ok := st.Mode.(Walking); !ok {
		return false
	}
	st.Velocity = st.Velocity.Add(upAxis(st).Mul(s.Config.JumpZVelocity))
	s.setMode(st, Jumping{}, nil)
	return true
}

func (s *Simulator) setMode(st *State, m Mode, report *StepReport) {
	from := st.Mode
	if !st.SetMode(m) {
		return
	}
	slog.Debug("movement mode changed", "from", modeName(from), "to", m.String())
	if report != nil {
		report.Transitions = append(report.Transitions, Transition{From: from, To: m})
	}
}

func (s *Simulator) timeSlice(remaining float64) float64 {
	return math.Min(remaining, s.Config.MaxSimulationTimeStep)
}

func (s *Simulator) canIterate(remaining float64, report *StepReport) bool {
	return remaining >= s.Config.MinTimeStep && report.Iterations < s.Config.MaxSimulationIterations
}

// deferRemaining carries time the iteration budget could not cover into
// the next tick.
func (s *Simulator) deferRemaining(st *State, remaining float64) {
	if remaining < s.Config.MinTimeStep {
		return
	}
	limit := s.Config.MaxSimulationTimeStep * float64(s.Config.MaxSimulationIterations)
	st.DeferredTime = math.Min(remaining, limit)
}

func modeName(m Mode) string {
	if m == nil {
		return "none"
	}
	return m.String()
}
