package mathx

import (
	"math"
	"math/rand/v2"
)

// Range returns a uniform value in [min, max).
func Range(rng *rand.Rand, min, max float32) float32 {
	return min + rng.Float32()*(max-min)
}

func OnUnitSphere(rng *rand.Rand) Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return Vec3{float32(r * math.Cos(phi)), float32(r * math.Sin(phi)), float32(z)}
}

func InsideUnitSphere(rng *rand.Rand) Vec3 {
	return OnUnitSphere(rng).Mul(float32(math.Cbrt(rng.Float64())))
}

// RandomRotation returns a uniformly distributed rotation (Shoemake).
func RandomRotation(rng *rand.Rand) Quat {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	return Quat{
		X: float32(a * math.Sin(2*math.Pi*u2)),
		Y: float32(a * math.Cos(2*math.Pi*u2)),
		Z: float32(b * math.Sin(2*math.Pi*u3)),
		W: float32(b * math.Cos(2*math.Pi*u3)),
	}
}
