package ray

import (
	"photonr/vmath/vec3"
)

// Span is a closed interval of ray parameters.
type Span struct {
	Lo, Hi float64
}

// Contains reports whether t lies inside the span.
func (s Span) Contains(t float64) bool {
	return s.Lo <= t && t <= s.Hi
}

// Ray is an origin and a direction.  The direction is not required to be unit
// length; parameters along a ray are only comparable with other parameters
// along the same ray.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

// RaySegment is the query type for intersection tests: a ray restricted to the
// parameters in TheSegment.
type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}
