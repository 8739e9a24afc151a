package pose

import "math"

// Angle returns the angle in degrees at vertex b formed by points a and c,
// via the dot-product/arccosine formula. ok is false when any of the three
// landmarks is missing or invalid, or when either segment has zero length;
// callers must treat that as "cannot evaluate this frame", not as zero.
func Angle(f *Frame, a, b, c Point) (float64, bool) {
	la, okA := f.Landmark(a)
	lb, okB := f.Landmark(b)
	lc, okC := f.Landmark(c)
	if !okA || !okB || !okC {
		return 0, false
	}

	v1x, v1y := la.X-lb.X, la.Y-lb.Y
	v2x, v2y := lc.X-lb.X, lc.Y-lb.Y

	m1 := math.Hypot(v1x, v1y)
	m2 := math.Hypot(v2x, v2y)
	if m1 == 0 || m2 == 0 {
		return 0, false
	}

	cos := (v1x*v2x + v1y*v2y) / (m1 * m2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

// Distance returns the Euclidean distance between two landmarks in
// normalized coordinate space.
func Distance(f *Frame, a, b Point) (float64, bool) {
	la, okA := f.Landmark(a)
	lb, okB := f.Landmark(b)
	if !okA || !okB {
		return 0, false
	}
	return math.Hypot(la.X-lb.X, la.Y-lb.Y), true
}

// HorizontalOffset returns the absolute x-axis difference between two
// landmarks. Used for posture checks where alignment matters more than
// absolute distance.
func HorizontalOffset(f *Frame, a, b Point) (float64, bool) {
	la, okA := f.Landmark(a)
	lb, okB := f.Landmark(b)
	if !okA || !okB {
		return 0, false
	}
	return math.Abs(la.X - lb.X), true
}

// VerticalOffset returns the absolute y-axis difference between two landmarks.
func VerticalOffset(f *Frame, a, b Point) (float64, bool) {
	la, okA := f.Landmark(a)
	lb, okB := f.Landmark(b)
	if !okA || !okB {
		return 0, false
	}
	return math.Abs(la.Y - lb.Y), true
}
