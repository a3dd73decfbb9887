package material

import (
	"fmt"
	"math/rand"

	"photonr/contact"
	"photonr/ray"
	"photonr/vmath/vec3"
)

// Kind selects a scattering law.
type Kind int

const (
	Lambertian Kind = iota
	Metal
)

func (k Kind) String() string {
	switch k {
	case Lambertian:
		return "lambertian"
	case Metal:
		return "metal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Material is a surface scattering law.  Materials are immutable once built
// and are shared between every scene element that refers to them.
type Material struct {
	Kind Kind

	// Albedo is the per-channel fraction of light the surface passes on.
	Albedo vec3.Color

	// Fuzz perturbs Metal reflections.  0 is a perfect mirror.  Always in
	// [0, 1].
	Fuzz float64
}

func NewLambertian(albedo vec3.Color) Material {
	return Material{
		Kind:   Lambertian,
		Albedo: albedo,
	}
}

// NewMetal builds a reflective material, clamping fuzz into [0, 1].
func NewMetal(albedo vec3.Color, fuzz float64) Material {
	if fuzz < 0.0 {
		fuzz = 0.0
	}
	if fuzz > 1.0 {
		fuzz = 1.0
	}
	return Material{
		Kind:   Metal,
		Albedo: albedo,
		Fuzz:   fuzz,
	}
}

// Scatter continues a path that arrived along in and met the surface at c.
//
// It returns the attenuation to apply to light arriving along the outgoing ray.
// ok is false when the surface absorbs the path.
func (m *Material) Scatter(rng *rand.Rand, in ray.Ray, c contact.Contact) (attenuation vec3.Color, out ray.Ray, ok bool) {
	switch m.Kind {
	case Lambertian:
		return m.scatterLambertian(rng, in, c)
	case Metal:
		return m.scatterMetal(rng, in, c)
	}
	panic(fmt.Sprintf("material: unknown kind %v", m.Kind))
}

func (m *Material) scatterLambertian(rng *rand.Rand, in ray.Ray, c contact.Contact) (vec3.Color, ray.Ray, bool) {
	dir := vec3.AddVV(c.N, vec3.UniformUnitDistribution(rng))

	// The random vector can land almost exactly opposite the normal.
	if dir.NearZero() {
		dir = c.N
	}

	return m.Albedo, ray.Ray{
		Point: in.Eval(c.T),
		Slope: dir,
	}, true
}

func (m *Material) scatterMetal(rng *rand.Rand, in ray.Ray, c contact.Contact) (vec3.Color, ray.Ray, bool) {
	dir := vec3.Reflect(in.Slope, c.N)
	dir = vec3.AddVV(dir, vec3.MulVS(vec3.UniformUnitDistribution(rng), m.Fuzz))

	// Fuzz can push the reflection below the surface.  Those paths are
	// absorbed.
	if vec3.IProd(dir, c.N) <= 0.0 {
		return vec3.Color{}, ray.Ray{}, false
	}

	return m.Albedo, ray.Ray{
		Point: in.Eval(c.T),
		Slope: dir,
	}, true
}
