package combat

import "math"

const epsilon = 1e-3

// Intercept returns the point where a projectile fired from (tx, ty) at
// speed meets a target at (px, py) moving with (vx, vy). The smallest
// positive time-to-intercept is used. When the target is stationary or no
// positive solution exists, the target's current position is returned and
// ok is false.
func Intercept(tx, ty, px, py, vx, vy, speed float64) (x, y float64, ok bool) {
	if vx == 0 && vy == 0 {
		return px, py, false
	}

	dx, dy := px-tx, py-ty
	a := vx*vx + vy*vy - speed*speed
	b := 2 * (dx*vx + dy*vy)
	c := dx*dx + dy*dy

	var t float64
	if math.Abs(a) < epsilon {
		// Target and projectile speeds match: the equation is linear.
		if math.Abs(b) < epsilon {
			return px, py, false
		}
		t = -c / b
	} else {
		disc := b*b - 4*a*c
		if disc < 0 {
			return px, py, false
		}
		sq := math.Sqrt(disc)
		t1 := (-b - sq) / (2 * a)
		t2 := (-b + sq) / (2 * a)
		t = smallestPositive(t1, t2)
	}

	if !(t > 0) || math.IsInf(t, 0) {
		return px, py, false
	}
	return px + vx*t, py + vy*t, true
}

func smallestPositive(a, b float64) float64 {
	switch {
	case a > 0 && b > 0:
		return min(a, b)
	case a > 0:
		return a
	case b > 0:
		return b
	}
	return -1
}
