package geometry

import (
	"math"
	"testing"

	"photonr/contact"
	"photonr/ray"
	"photonr/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func query(point, slope vec3.T) ray.RaySegment {
	return ray.RaySegment{
		TheRay:     ray.Ray{Point: point, Slope: slope},
		TheSegment: ray.Span{Lo: 1e-6, Hi: 1000},
	}
}

func TestSphereHeadOn(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5}
	q := query(vec3.T{0, 0, 0}, vec3.T{0, 0, -1})

	got := s.RayInto(q)
	want := contact.Contact{
		T: 0.5,
		R: q.TheRay,
		P: vec3.T{0, 0, -0.5},
		N: vec3.T{0, 0, 1},
	}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad contact; diff (-got +want)\n%s", diff)
	}
}

func TestSphereUnnormalizedSlope(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5}

	// Doubling the slope halves the time of impact; the hit point is
	// unchanged.
	got := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{0, 0, -2}))
	if math.Abs(got.T-0.25) > 1e-12 {
		t.Errorf("Got T=%v, want 0.25", got.T)
	}
	if diff := cmp.Diff(got.P, vec3.T{0, 0, -0.5}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad hit point; diff (-got +want)\n%s", diff)
	}
}

func TestSphereMiss(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5}

	testCases := []struct {
		name         string
		point, slope vec3.T
	}{
		{"pointing away", vec3.T{0, 0, 0}, vec3.T{0, 0, 1}},
		{"passing beside", vec3.T{0, 1, 0}, vec3.T{0, 0, -1}},
		{"grazing outside", vec3.T{0.5000001, 0, 0}, vec3.T{0, 0, -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.RayInto(query(tc.point, tc.slope)); got.Hit() {
				t.Errorf("Unexpected hit %+v", got)
			}
		})
	}
}

func TestSphereFromInside(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 2}

	got := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{1, 0, 0}))
	if !got.Hit() {
		t.Fatalf("Ray starting inside the sphere should hit the far wall")
	}
	if math.Abs(got.T-2) > 1e-12 {
		t.Errorf("Got T=%v, want 2", got.T)
	}
	if diff := cmp.Diff(got.N, vec3.T{1, 0, 0}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Normal should point outward; diff (-got +want)\n%s", diff)
	}
}

func TestSphereRespectsSegment(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, -10}, Radius: 1}
	q := query(vec3.T{0, 0, 0}, vec3.T{0, 0, -1})

	q.TheSegment.Hi = 5
	if got := s.RayInto(q); got.Hit() {
		t.Errorf("Hit at T=%v is beyond the segment limit", got.T)
	}

	// A segment starting between the two roots yields the exit point.
	q.TheSegment = ray.Span{Lo: 10, Hi: 1000}
	got := s.RayInto(q)
	if math.Abs(got.T-11) > 1e-12 {
		t.Errorf("Got T=%v, want 11", got.T)
	}
}
