package world

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
)

// Terrain is a square heightfield with its first corner at the origin.
// Each cell is split into two triangles along its (0,0)-(1,1) diagonal.
type Terrain struct {
	size    int
	cell    float64
	heights []float32 // (size+1)*(size+1), row-major by y
	minH    float32
	maxH    float32
}

// NewTerrain samples Perlin noise at every grid vertex.
func NewTerrain(cfg config.TerrainConfig) *Terrain {
	noise := perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed)
	return newTerrainFunc(cfg.Size, cfg.CellSize, func(x, y float64) float32 {
		return float32(noise.Noise2D(x*cfg.Frequency, y*cfg.Frequency) * cfg.Amplitude)
	})
}

// NewFlatTerrain builds a level heightfield at height z.
func NewFlatTerrain(size int, cell, z float64) *Terrain {
	return newTerrainFunc(size, cell, func(_, _ float64) float32 { return float32(z) })
}

func newTerrainFunc(size int, cell float64, height func(x, y float64) float32) *Terrain {
	t := &Terrain{
		size:    size,
		cell:    cell,
		heights: make([]float32, (size+1)*(size+1)),
		minH:    math32.MaxFloat32,
		maxH:    -math32.MaxFloat32,
	}
	for j := 0; j <= size; j++ {
		for i := 0; i <= size; i++ {
			h := height(float64(i)*cell, float64(j)*cell)
			t.heights[j*(size+1)+i] = h
			t.minH = math32.Min(t.minH, h)
			t.maxH = math32.Max(t.maxH, h)
		}
	}
	return t
}

func (t *Terrain) vertex(i, j int) mgl64.Vec3 {
	return mgl64.Vec3{float64(i) * t.cell, float64(j) * t.cell, float64(t.heights[j*(t.size+1)+i])}
}

// Extent returns the world-space bounding box of the heightfield.
func (t *Terrain) Extent() (lo, hi mgl64.Vec3) {
	span := float64(t.size) * t.cell
	return mgl64.Vec3{0, 0, float64(t.minH)}, mgl64.Vec3{span, span, float64(t.maxH)}
}

// cellAt returns the cell containing (x, y) and the local coordinates
// inside it.
func (t *Terrain) cellAt(x, y float64) (i, j int, fx, fy float64, ok bool) {
	gx, gy := x/t.cell, y/t.cell
	if gx < 0 || gy < 0 || gx > float64(t.size) || gy > float64(t.size) {
		return 0, 0, 0, 0, false
	}
	i = min(int(math.Floor(gx)), t.size-1)
	j = min(int(math.Floor(gy)), t.size-1)
	return i, j, gx - float64(i), gy - float64(j), true
}

// triangle returns the corners of the lower (k=0) or upper (k=1) triangle
// of cell (i, j), wound so the face normal points up.
func (t *Terrain) triangle(i, j, k int) (a, b, c mgl64.Vec3) {
	v00, v11 := t.vertex(i, j), t.vertex(i+1, j+1)
	if k == 0 {
		return v00, t.vertex(i+1, j), v11
	}
	return v00, v11, t.vertex(i, j+1)
}

// HeightAt returns the surface height above (x, y).
func (t *Terrain) HeightAt(x, y float64) (float64, bool) {
	i, j, fx, fy, ok := t.cellAt(x, y)
	if !ok {
		return 0, false
	}
	h00 := float64(t.heights[j*(t.size+1)+i])
	h10 := float64(t.heights[j*(t.size+1)+i+1])
	h01 := float64(t.heights[(j+1)*(t.size+1)+i])
	h11 := float64(t.heights[(j+1)*(t.size+1)+i+1])
	if fx >= fy {
		return h00 + fx*(h10-h00) + fy*(h11-h10), true
	}
	return h00 + fy*(h01-h00) + fx*(h11-h01), true
}

// NormalAt returns the face normal of the triangle above (x, y).
func (t *Terrain) NormalAt(x, y float64) (mgl64.Vec3, bool) {
	i, j, fx, fy, ok := t.cellAt(x, y)
	if !ok {
		return mgl64.Vec3{}, false
	}
	k := 0
	if fx < fy {
		k = 1
	}
	a, b, c := t.triangle(i, j, k)
	return faceNormal(a, b, c), true
}

// closest finds the nearest surface point to p among the cells within
// reach of p horizontally.
func (t *Terrain) closest(p mgl64.Vec3, reach float64) (contact, bool) {
	lo := int(math.Floor((p.X() - reach) / t.cell))
	hi := int(math.Floor((p.X() + reach) / t.cell))
	loY := int(math.Floor((p.Y() - reach) / t.cell))
	hiY := int(math.Floor((p.Y() + reach) / t.cell))
	lo, hi = max(lo, 0), min(hi, t.size-1)
	loY, hiY = max(loY, 0), min(hiY, t.size-1)

	best := contact{dist: math.Inf(1)}
	for j := loY; j <= hiY; j++ {
		for i := lo; i <= hi; i++ {
			for k := 0; k < 2; k++ {
				a, b, c := t.triangle(i, j, k)
				q := closestOnTriangle(p, a, b, c)
				if d := p.Sub(q).Len(); d < best.dist {
					best = contact{point: q, normal: faceNormal(a, b, c), dist: d}
				}
			}
		}
	}

	below := false
	if h, ok := t.HeightAt(p.X(), p.Y()); ok && p.Z() < h {
		below = true
		if best.dist > reach {
			n, _ := t.NormalAt(p.X(), p.Y())
			return contact{point: mgl64.Vec3{p.X(), p.Y(), h}, normal: n, dist: -(h - p.Z()) * n.Z()}, true
		}
	}
	if math.IsInf(best.dist, 1) || best.dist > reach {
		return contact{}, false
	}
	if below {
		best.dist = -best.dist
		return best, true
	}
	if best.dist > geometryEpsilon {
		best.normal = p.Sub(best.point).Mul(1 / best.dist)
	}
	return best, true
}

// trace marches the segment origin+dir*[0, length] through the heightfield
// and refines the first crossing by bisection.
func (t *Terrain) trace(origin, dir mgl64.Vec3, length float64) (float64, mgl64.Vec3, bool) {
	lo, hi := t.Extent()
	// Pad below so a ray ending exactly on the lowest point still crosses.
	lo[2] -= t.cell
	tMin, tMax, ok := raySlab(origin, dir, lo, hi)
	if !ok || tMin > length {
		return 0, mgl64.Vec3{}, false
	}
	tMax = math.Min(tMax, length)

	above := func(s float64) bool {
		p := origin.Add(dir.Mul(s))
		h, ok := t.HeightAt(p.X(), p.Y())
		return !ok || p.Z() >= h
	}
	if !above(tMin) {
		return 0, mgl64.Vec3{}, false
	}

	step := t.cell / 4
	prev := tMin
	for s := tMin + step; ; s += step {
		s = math.Min(s, tMax)
		if !above(s) {
			a, b := prev, s
			for range bisectIterations {
				mid := (a + b) / 2
				if above(mid) {
					a = mid
				} else {
					b = mid
				}
			}
			p := origin.Add(dir.Mul(a))
			n, _ := t.NormalAt(p.X(), p.Y())
			return a, n, true
		}
		if s >= tMax {
			return 0, mgl64.Vec3{}, false
		}
		prev = s
	}
}
