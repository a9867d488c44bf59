package math

// Mat4 is an affine 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale returns a non-uniform scale matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * other; other is applied first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] = m[row]*other[col*4] +
				m[4+row]*other[col*4+1] +
				m[8+row]*other[col*4+2] +
				m[12+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint applies m to a point (w=1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// TransformDirection applies m to a direction (w=0).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Inverse returns the inverse of an affine matrix and whether it exists.
func (m Mat4) Inverse() (Mat4, bool) {
	// Invert the linear 3x3 part via its adjugate, then the translation.
	a, b, c := m[0], m[4], m[8]
	d, e, f := m[1], m[5], m[9]
	g, h, i := m[2], m[6], m[10]

	co00 := e*i - f*h
	co01 := f*g - d*i
	co02 := d*h - e*g
	det := a*co00 + b*co01 + c*co02
	if det == 0 {
		return Identity(), false
	}
	inv := 1 / det

	var r Mat4
	r[0] = co00 * inv
	r[1] = co01 * inv
	r[2] = co02 * inv
	r[4] = (c*h - b*i) * inv
	r[5] = (a*i - c*g) * inv
	r[6] = (b*g - a*h) * inv
	r[8] = (b*f - c*e) * inv
	r[9] = (c*d - a*f) * inv
	r[10] = (a*e - b*d) * inv
	r[15] = 1

	tr := r.TransformDirection(Vec3{m[12], m[13], m[14]})
	r[12], r[13], r[14] = -tr.X, -tr.Y, -tr.Z
	return r, true
}
