package vec3

import (
	"math"
	"math/rand"
)

type T [3]float64

// Color is a linear RGB triple.  Components live in [0, inf) and are only
// clamped when the image is quantized.
type Color = T

// nearZeroEpsilon is the per-component magnitude below which a vector counts as
// degenerate.
const nearZeroEpsilon = 1e-8

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// NearZero reports whether every component of v is smaller in magnitude than a
// small fixed epsilon.
func (v T) NearZero() bool {
	return math.Abs(v[0]) < nearZeroEpsilon && math.Abs(v[1]) < nearZeroEpsilon && math.Abs(v[2]) < nearZeroEpsilon
}

func (v T) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Normalize scales v to unit length.  v must not be the zero vector.
func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the component-wise product.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Lerp blends linearly from a (t = 0) to b (t = 1).
func Lerp(a, b T, t float64) T {
	return AddVV(MulVS(a, 1.0-t), MulVS(b, t))
}

// UniformUnitDistribution draws a direction uniformly from the unit sphere.
//
// Candidates are drawn from the [-1, 1) cube and rejected until one falls
// strictly inside the unit ball, then projected onto the sphere.  Sampling
// polar coordinates directly would bunch samples up at the poles.
func UniformUnitDistribution(rng *rand.Rand) T {
	result := T{}
	for {
		result[0] = 2 * (rng.Float64() - 0.5)
		result[1] = 2 * (rng.Float64() - 0.5)
		result[2] = 2 * (rng.Float64() - 0.5)
		normSquared := result.NormSquared()
		if normSquared < 1.0 && normSquared != 0.0 {
			break
		}
	}
	return Normalize(result)
}
