package contact

import (
	"math"

	"photonr/ray"
	"photonr/vmath/vec3"
)

// Contact records where a ray met a surface.
type Contact struct {
	// T is the time of impact, measured in the parameterization of R.
	T float64
	R ray.Ray
	P vec3.T

	// N is the outward unit surface normal at P.
	N vec3.T
}

func ContactNaN() Contact {
	return Contact{
		T: math.NaN(),
	}
}

// Hit reports whether the contact describes an actual intersection.
func (c Contact) Hit() bool {
	return !math.IsNaN(c.T)
}
