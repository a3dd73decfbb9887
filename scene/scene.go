package scene

import (
	"fmt"

	"photonr/contact"
	"photonr/geometry"
	"photonr/material"
	"photonr/ray"
)

const (
	// MaxTOI stands in for "no hit": nothing further along a ray than this is
	// considered.
	MaxTOI = 1000.0

	// MinTOI discards hits at the ray's own origin, which would otherwise
	// cause scattered rays to re-hit the surface they left.
	MinTOI = 1e-6
)

type SceneElement struct {
	TheGeometry   geometry.Geometry
	MaterialIndex int
}

// Scene is a flat, insertion-ordered collection of elements plus the arena of
// materials they refer to.  It is built once and is read-only while rendering,
// so any number of goroutines may query it concurrently.
type Scene struct {
	Materials []material.Material
	Elements  []*SceneElement
}

// AddMaterial is a convenience function to register a material and get its
// index.
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

func (s *Scene) AddElement(e *SceneElement) int {
	s.Elements = append(s.Elements, e)
	return len(s.Elements) - 1
}

// AddSphere registers a sphere that uses the material at index materialIndex.
func (s *Scene) AddSphere(sphere *geometry.Sphere, materialIndex int) int {
	return s.AddElement(&SceneElement{
		TheGeometry:   sphere,
		MaterialIndex: materialIndex,
	})
}

// Validate checks that every element refers to a registered material.
func (s *Scene) Validate() error {
	for i, e := range s.Elements {
		if e.TheGeometry == nil {
			return fmt.Errorf("element %d has no geometry", i)
		}
		if e.MaterialIndex < 0 || e.MaterialIndex >= len(s.Materials) {
			return fmt.Errorf("element %d refers to material %d, but only %d materials are registered", i, e.MaterialIndex, len(s.Materials))
		}
	}
	return nil
}

// SceneRayIntersect scans every element and returns the nearest contact inside
// worldQuery's segment, along with the index of the element that produced it.
// The index is -1 if nothing was hit.
func (s *Scene) SceneRayIntersect(worldQuery ray.RaySegment) (contact.Contact, int) {
	minContact := contact.ContactNaN()
	minElementIndex := -1

	for i, elt := range s.Elements {
		c := elt.TheGeometry.RayInto(worldQuery)
		if !c.Hit() {
			continue
		}

		// Later elements have to be strictly nearer to win, so ties go to
		// the first element in scan order.
		if minElementIndex != -1 && c.T >= minContact.T {
			continue
		}

		worldQuery.TheSegment.Hi = c.T
		minContact = c
		minElementIndex = i
	}

	return minContact, minElementIndex
}

// Hit finds the nearest surface along r and the material it is made of.
func (s *Scene) Hit(r ray.Ray) (contact.Contact, *material.Material, bool) {
	query := ray.RaySegment{
		TheRay:     r,
		TheSegment: ray.Span{Lo: MinTOI, Hi: MaxTOI},
	}

	c, hitIndex := s.SceneRayIntersect(query)
	if hitIndex == -1 {
		return c, nil, false
	}

	return c, &s.Materials[s.Elements[hitIndex].MaterialIndex], true
}
