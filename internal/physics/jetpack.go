package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type JetpackState struct {
	Active bool
	Energy float64
}

// updateJetpack drains or recharges energy for dt and returns the thrust
// acceleration to apply this tick.
func (s *Simulator) updateJetpack(st *State, up mgl64.Vec3, dt float64) mgl64.Vec3 {
	cfg := s.Config.Jetpack
	if cfg.MaxEnergy <= 0 {
		return mgl64.Vec3{}
	}
	if !st.Jetpack.Active {
		st.Jetpack.Energy = math.Min(cfg.MaxEnergy, st.Jetpack.Energy+cfg.RechargeRate*dt)
		return mgl64.Vec3{}
	}
	if st.Jetpack.Energy <= 0 {
		return mgl64.Vec3{}
	}
	st.Jetpack.Energy = math.Max(0, st.Jetpack.Energy-cfg.DrainRate*dt)
	return up.Mul(cfg.Thrust)
}
