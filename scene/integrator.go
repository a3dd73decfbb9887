package scene

import (
	"math/rand"

	"photonr/ray"
	"photonr/vmath/vec3"
)

var (
	skyHorizon = vec3.Color{1.0, 1.0, 1.0}
	skyZenith  = vec3.Color{0.5, 0.7, 1.0}
)

// SkyColor is the radiance arriving from the background along r.  It is the
// only light source in a scene.
func SkyColor(r ray.Ray) vec3.Color {
	t := 0.5 * (vec3.Normalize(r.Slope)[1] + 1.0)
	return vec3.Lerp(skyHorizon, skyZenith, t)
}

// RayColor estimates the radiance arriving at r's origin along r, following at
// most depth path segments.
//
// Each bounce multiplies in the hit material's attenuation.  A path ends black
// when it is absorbed or runs out of depth, and ends with the sky color when it
// escapes the scene.
func (s *Scene) RayColor(rng *rand.Rand, r ray.Ray, depth int) vec3.Color {
	throughput := vec3.Color{1.0, 1.0, 1.0}
	curRay := r

	for i := 0; i < depth; i++ {
		c, m, ok := s.Hit(curRay)
		if !ok {
			return vec3.MulVV(throughput, SkyColor(curRay))
		}

		attenuation, scattered, ok := m.Scatter(rng, curRay, c)
		if !ok {
			return vec3.Color{}
		}

		throughput = vec3.MulVV(throughput, attenuation)
		curRay = scattered
	}

	return vec3.Color{}
}
