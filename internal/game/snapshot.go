package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/character"
	"github.com/Versifine/gravshift/internal/enemy"
)

// Snapshot is a read-only view of the session after one step.
type Snapshot struct {
	Tick    uint64          `json:"tick"`
	Time    float64         `json:"time"`
	Player  PlayerSnapshot  `json:"player"`
	Enemies []EnemySnapshot `json:"enemies"`
	Decals  []Decal         `json:"decals"`
}

type PlayerSnapshot struct {
	Position      mgl64.Vec3 `json:"position"`
	Velocity      mgl64.Vec3 `json:"velocity"`
	Gravity       mgl64.Vec3 `json:"gravity"`
	Up            mgl64.Vec3 `json:"up"`
	Orientation   [4]float64 `json:"orientation"` // w, x, y, z
	Mode          string     `json:"mode"`
	Skiing        bool       `json:"skiing"`
	Sliding       bool       `json:"sliding"`
	BlendProgress float64    `json:"blend_progress"`
	Jetpacking    bool       `json:"jetpacking"`
	JetpackEnergy float64    `json:"jetpack_energy"`
	Yaw           float64    `json:"yaw"`
	Pitch         float64    `json:"pitch"`
}

type EnemySnapshot struct {
	Name      string     `json:"name"`
	Team      uint8      `json:"team"`
	Position  mgl64.Vec3 `json:"position"`
	Facing    mgl64.Vec3 `json:"facing"`
	HP        float64    `json:"hp"`
	Destroyed bool       `json:"destroyed"`
}

// Decal marks a bullet impact.
type Decal struct {
	Location mgl64.Vec3 `json:"location"`
	Normal   mgl64.Vec3 `json:"normal"`
	Target   string     `json:"target,omitempty"`
}

func playerSnapshot(c *character.Character) PlayerSnapshot {
	st := c.State()
	yaw, pitch := c.YawPitch()
	q := st.Orientation
	ps := PlayerSnapshot{
		Position:      st.Position,
		Velocity:      st.Velocity,
		Gravity:       st.Gravity,
		Up:            st.Up(),
		Orientation:   [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		Skiing:        st.IsSkiing(),
		Sliding:       c.Sliding(),
		BlendProgress: st.RotationBlendProgress(),
		Jetpacking:    st.Jetpack.Active,
		JetpackEnergy: st.Jetpack.Energy,
		Yaw:           yaw,
		Pitch:         pitch,
	}
	if st.Mode != nil {
		ps.Mode = st.Mode.String()
	}
	return ps
}

func enemySnapshot(e *enemy.Enemy) EnemySnapshot {
	team, _ := e.TeamID()
	return EnemySnapshot{
		Name:      e.Name(),
		Team:      team,
		Position:  e.Position(),
		Facing:    e.Facing(),
		HP:        e.HP(),
		Destroyed: e.Destroyed(),
	}
}
