package vec3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestReflect(t *testing.T) {
	got := Reflect(T{1, -1, 0}, T{0, 1, 0})
	if diff := cmp.Diff(got, T{1, 1, 0}); diff != "" {
		t.Errorf("Bad reflection; diff (-got +want)\n%s", diff)
	}
}

func TestNearZero(t *testing.T) {
	testCases := []struct {
		v    T
		want bool
	}{
		{T{0, 0, 0}, true},
		{T{1e-9, -1e-9, 0}, true},
		{T{1e-9, 0, 1e-3}, false},
		{T{-1, 0, 0}, false},
	}

	for _, tc := range testCases {
		if got := tc.v.NearZero(); got != tc.want {
			t.Errorf("%v.NearZero() = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestLerp(t *testing.T) {
	white := T{1, 1, 1}
	blue := T{0.5, 0.7, 1.0}

	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff(Lerp(white, blue, 0), white, approx); diff != "" {
		t.Errorf("Lerp at 0; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(Lerp(white, blue, 1), blue, approx); diff != "" {
		t.Errorf("Lerp at 1; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(Lerp(white, blue, 0.5), T{0.75, 0.85, 1.0}, approx); diff != "" {
		t.Errorf("Lerp at 0.5; diff (-got +want)\n%s", diff)
	}
}

func TestIsFinite(t *testing.T) {
	if !(T{1, 2, 3}).IsFinite() {
		t.Errorf("Finite vector reported as non-finite")
	}
	if (T{1, math.NaN(), 3}).IsFinite() {
		t.Errorf("NaN component not detected")
	}
	if (T{math.Inf(-1), 0, 0}).IsFinite() {
		t.Errorf("Inf component not detected")
	}
}

func TestUniformUnitDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))

	const trials = 200000
	mean := T{}
	for i := 0; i < trials; i++ {
		v := UniformUnitDistribution(rng)
		if math.Abs(v.Norm()-1.0) > 1e-12 {
			t.Fatalf("Sample %d has norm %v, want 1", i, v.Norm())
		}
		mean = AddVV(mean, v)
	}
	mean = DivVS(mean, trials)

	// The standard deviation of each component's mean is sqrt(1/3 / trials),
	// about 0.0013.  Allow several of those.
	for i, c := range mean {
		if math.Abs(c) > 0.01 {
			t.Errorf("Mean component %d is %v, want approximately 0", i, c)
		}
	}
}
