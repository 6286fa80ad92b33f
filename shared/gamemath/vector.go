// Package gamemath holds the vector and rotation helpers shared by client and
// server. It depends only on mgl64 so the dedicated server stays headless.
package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// MoveTowards moves current toward target by at most maxDelta and never past it.
func MoveTowards(current, target mgl64.Vec3, maxDelta float64) mgl64.Vec3 {
	delta := target.Sub(current)
	dist := delta.Len()
	if dist <= maxDelta || dist < epsilon {
		return target
	}
	return current.Add(delta.Mul(maxDelta / dist))
}

// LerpVec3 interpolates linearly; t is not clamped.
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// SlerpVec3 interpolates the direction of a and b spherically and their
// magnitudes linearly, treating both as vectors from the origin. t is clamped
// to [0, 1] and the endpoints are returned exactly.
func SlerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	la, lb := a.Len(), b.Len()
	if la < epsilon || lb < epsilon {
		return LerpVec3(a, b, t)
	}
	na, nb := a.Mul(1/la), b.Mul(1/lb)
	dot := mgl64.Clamp(na.Dot(nb), -1, 1)
	theta := math.Acos(dot)
	if theta < 1e-6 {
		return LerpVec3(a, b, t)
	}

	rel := nb.Sub(na.Mul(dot))
	if rel.Len() < epsilon {
		// Antiparallel: any axis orthogonal to a will do.
		rel = na.Cross(mgl64.Vec3{1, 0, 0})
		if rel.Len() < epsilon {
			rel = na.Cross(mgl64.Vec3{0, 1, 0})
		}
	}
	rel = rel.Normalize()

	s, c := math.Sincos(theta * t)
	dir := na.Mul(c).Add(rel.Mul(s))
	return dir.Mul(la + (lb-la)*t)
}

// SmoothingFactor returns the fraction of the remaining distance covered in dt
// seconds by exponential smoothing at the given rate.
func SmoothingFactor(rate, dt float64) float64 {
	return 1 - math.Exp(-rate*dt)
}

// InverseLerp returns where v lies between a and b, clamped to [0,1]. A
// degenerate interval yields 1.
func InverseLerp(a, b, v float64) float64 {
	if b-a == 0 {
		return 1
	}
	return mgl64.Clamp((v-a)/(b-a), 0, 1)
}
