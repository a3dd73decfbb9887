package geometry

import (
	"math"

	"photonr/contact"
	"photonr/ray"
	"photonr/vmath/vec3"
)

type Geometry interface {
	// RayInto returns the nearest intersection whose parameter lies inside
	// query.TheSegment, or a NaN contact.
	RayInto(query ray.RaySegment) contact.Contact
}

// Sphere is a solid ball.
type Sphere struct {
	Center vec3.T
	Radius float64
}

func (s *Sphere) RayInto(query ray.RaySegment) contact.Contact {
	// Work in the sphere's local frame, where it sits at the origin.
	oc := vec3.SubVV(query.TheRay.Point, s.Center)
	d := query.TheRay.Slope

	a := d.NormSquared()
	halfB := vec3.IProd(d, oc)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0.0 {
		return contact.ContactNaN()
	}
	sqrtD := math.Sqrt(discriminant)

	t := (-halfB - sqrtD) / a
	if !query.TheSegment.Contains(t) {
		t = (-halfB + sqrtD) / a
		if !query.TheSegment.Contains(t) {
			return contact.ContactNaN()
		}
	}

	p := query.TheRay.Eval(t)
	return contact.Contact{
		T: t,
		R: query.TheRay,
		P: p,
		N: vec3.DivVS(vec3.SubVV(p, s.Center), s.Radius),
	}
}
