package geo

// LineIntersectsTriangle intersects the infinite line through a and b with
// the plane of triangle (t0, t1, t2). It returns the intersection point and
// true when that point lies within the triangle, edges included.
//
// The 3x3 system [b-a | t1-t0 | t2-t0] is inverted in closed form; only the
// two rows producing the triangle parameters are evaluated. A singular matrix
// yields infinite or NaN parameters, which fail the range checks below.
func LineIntersectsTriangle(a, b, t0, t1, t2 Point) (Point, bool) {
	m00 := b.Lon - a.Lon
	m01 := t1.Lon - t0.Lon
	m02 := t2.Lon - t0.Lon

	m10 := b.Lat - a.Lat
	m11 := t1.Lat - t0.Lat
	m12 := t2.Lat - t0.Lat

	m20 := b.Elv - a.Elv
	m21 := t1.Elv - t0.Elv
	m22 := t2.Elv - t0.Elv

	det := m00*(m11*m22-m12*m21) +
		m01*(m12*m20-m10*m22) +
		m02*(m10*m21-m11*m20)
	d := 1 / det

	i10 := d * (m12*m20 - m10*m22)
	i11 := d * (m00*m22 - m02*m20)
	i12 := d * (m02*m10 - m00*m12)
	i20 := d * (m10*m21 - m11*m20)
	i21 := d * (m01*m20 - m00*m21)
	i22 := d * (m00*m11 - m01*m10)

	dot0 := b.Lon - t0.Lon
	dot1 := b.Lat - t0.Lat
	dot2 := b.Elv - t0.Elv

	r1 := i10*dot0 + i11*dot1 + i12*dot2
	r2 := i20*dot0 + i21*dot1 + i22*dot2

	if r1 >= 0 && r1 <= 1 && r2 >= 0 && r2 <= 1 && r1+r2 <= 1 {
		return Point{
			Lat: t0.Lat + r1*(t1.Lat-t0.Lat) + r2*(t2.Lat-t0.Lat),
			Lon: t0.Lon + r1*(t1.Lon-t0.Lon) + r2*(t2.Lon-t0.Lon),
			Elv: t0.Elv + r1*(t1.Elv-t0.Elv) + r2*(t2.Elv-t0.Elv),
		}, true
	}
	return Point{}, false
}

// NewElevation extrapolates the elevation at target along a ray that passes
// through source with direction dir. The latitude ratio is used when the
// direction has no longitude component.
func NewElevation(source, target, dir Point) float64 {
	if Equals(dir.Lon, 0) {
		return source.Elv + (target.Lat-source.Lat)/dir.Lat*dir.Elv
	}
	return source.Elv + (target.Lon-source.Lon)/dir.Lon*dir.Elv
}
