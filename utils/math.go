package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sanitize maps NaN and negative zero to zero.
func Sanitize(f float32) float32 {
	if f != f || f == 0 {
		return 0
	}
	return f
}

func SanitizeVec3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{Sanitize(v[0]), Sanitize(v[1]), Sanitize(v[2])}
}

func SanitizeVec2(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{Sanitize(v[0]), Sanitize(v[1])}
}

func SanitizeQuat(q mgl32.Quat) mgl32.Quat {
	return mgl32.Quat{W: Sanitize(q.W), V: SanitizeVec3(q.V)}
}

// MatrixToQuat converts a rotation block stored row by row for row vectors
// (the transpose of the usual column-vector matrix) into a quaternion.
func MatrixToQuat(m [3][3]float64) mgl32.Quat {
	var q [3]float64
	var w float64

	tr := m[0][0] + m[1][1] + m[2][2]
	if tr > 0 {
		s := math.Sqrt(tr + 1)
		w = s * 0.5
		s = 0.5 / s
		q[0] = (m[1][2] - m[2][1]) * s
		q[1] = (m[2][0] - m[0][2]) * s
		q[2] = (m[0][1] - m[1][0]) * s
	} else {
		next := [3]int{1, 2, 0}
		i := 0
		if m[1][1] > m[0][0] {
			i = 1
		}
		if m[2][2] > m[i][i] {
			i = 2
		}
		j := next[i]
		k := next[j]

		s := math.Sqrt(m[i][i] - (m[j][j] + m[k][k]) + 1)
		q[i] = s * 0.5
		if s != 0 {
			s = 0.5 / s
		}
		w = (m[j][k] - m[k][j]) * s
		q[j] = (m[i][j] + m[j][i]) * s
		q[k] = (m[i][k] + m[k][i]) * s
	}

	return SanitizeQuat(mgl32.Quat{W: float32(w), V: mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])}})
}

// QuatToRotationRows is the inverse of MatrixToQuat.
func QuatToRotationRows(q mgl32.Quat) (rows [3][3]float32) {
	m := quatToHMatrix(q)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rows[r][c] = Sanitize(float32(m[c][r]))
		}
	}
	return rows
}

// EulerOrder describes an euler angle convention: the axis triple, odd
// parity, repeated first axis and rotating (instead of static) frame.
type EulerOrder struct {
	I, J, K int
	Parity  bool
	Repeat  bool
	Frame   bool
}

// EulerXYZs is x, then y, then z about static axes.
var EulerXYZs = EulerOrder{I: 0, J: 1, K: 2}

const eulerSingularity = 1.6e-4

func quatToHMatrix(q mgl32.Quat) (m [3][3]float64) {
	x, y, z, w := float64(q.V[0]), float64(q.V[1]), float64(q.V[2]), float64(q.W)
	nq := x*x + y*y + z*z + w*w
	s := 0.0
	if nq > 0 {
		s = 2 / nq
	}
	xs, ys, zs := x*s, y*s, z*s
	wx, wy, wz := w*xs, w*ys, w*zs
	xx, xy, xz := x*xs, x*ys, x*zs
	yy, yz, zz := y*ys, y*zs, z*zs

	m[0][0] = 1 - (yy + zz)
	m[0][1] = xy - wz
	m[0][2] = xz + wy
	m[1][0] = xy + wz
	m[1][1] = 1 - (xx + zz)
	m[1][2] = yz - wx
	m[2][0] = xz - wy
	m[2][1] = yz + wx
	m[2][2] = 1 - (xx + yy)
	return m
}

// QuatToEulerOrder extracts euler angles in radians.
func QuatToEulerOrder(q mgl32.Quat, o EulerOrder) mgl32.Vec3 {
	m := quatToHMatrix(q)
	i, j, k := o.I, o.J, o.K
	var x, y, z float64

	if o.Repeat {
		sy := math.Sqrt(m[i][j]*m[i][j] + m[i][k]*m[i][k])
		y = math.Atan2(sy, m[i][i])
		if sy > eulerSingularity {
			x = math.Atan2(m[i][j], m[i][k])
			z = math.Atan2(m[j][i], -m[k][i])
		} else {
			x = math.Atan2(-m[j][k], m[j][j])
		}
	} else {
		cy := math.Sqrt(m[i][i]*m[i][i] + m[j][i]*m[j][i])
		y = math.Atan2(-m[k][i], cy)
		if cy > eulerSingularity {
			x = math.Atan2(m[k][j], m[k][k])
			z = math.Atan2(m[j][i], m[i][i])
		} else {
			x = math.Atan2(-m[j][k], m[j][j])
		}
	}
	if o.Parity {
		x, y, z = -x, -y, -z
	}
	if o.Frame {
		x, z = z, x
	}
	return SanitizeVec3(mgl32.Vec3{float32(x), float32(y), float32(z)})
}

// QuatToEuler returns static xyz angles in degrees.
func QuatToEuler(q mgl32.Quat) mgl32.Vec3 {
	e := QuatToEulerOrder(q, EulerXYZs)
	return SanitizeVec3(mgl32.Vec3{mgl32.RadToDeg(e[0]), mgl32.RadToDeg(e[1]), mgl32.RadToDeg(e[2])})
}

// EulerToQuat takes static xyz angles in degrees.
func EulerToQuat(deg mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(mgl32.DegToRad(deg[0]), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(mgl32.DegToRad(deg[1]), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(deg[2]), mgl32.Vec3{0, 0, 1})
	return SanitizeQuat(qz.Mul(qy).Mul(qx).Normalize())
}

// NearVec3 reports whether every component of a and b differs by at most tol.
func NearVec3(a, b mgl32.Vec3, tol float32) bool {
	for i := range a {
		if d := a[i] - b[i]; d > tol || d < -tol {
			return false
		}
	}
	return true
}

// SameRotation compares quaternions componentwise, treating q and -q as equal.
func SameRotation(a, b mgl32.Quat, tol float32) bool {
	near := func(b mgl32.Quat) bool {
		d := a.W - b.W
		return d <= tol && d >= -tol && NearVec3(a.V, b.V, tol)
	}
	return near(b) || near(b.Scale(-1))
}
