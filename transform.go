package kitbash

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LocMatrix returns the pure translation matrix for v.
func LocMatrix(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(v.X(), v.Y(), v.Z())
}

// RotMatrix returns the pure rotation matrix for q.
func RotMatrix(q mgl32.Quat) mgl32.Mat4 {
	return q.Normalize().Mat4()
}

// ScaMatrix returns the pure scale matrix for v.
func ScaMatrix(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Scale3D(v.X(), v.Y(), v.Z())
}

// ComposeMat4 reassembles a world matrix as T * R * S.
func ComposeMat4(loc mgl32.Vec3, rot mgl32.Quat, sca mgl32.Vec3) mgl32.Mat4 {
	return LocMatrix(loc).Mul4(RotMatrix(rot)).Mul4(ScaMatrix(sca))
}

// DecomposeMat4 splits m into translation, rotation and per-axis scale.
// Shear is not modeled; for a shear-free m, ComposeMat4 reproduces m within
// floating point tolerance.
func DecomposeMat4(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	loc := m.Col(3).Vec3()

	colX := m.Col(0).Vec3()
	colY := m.Col(1).Vec3()
	colZ := m.Col(2).Vec3()

	sca := mgl32.Vec3{colX.Len(), colY.Len(), colZ.Len()}

	// A negative determinant means one axis is mirrored; fold the sign into X
	// so the remaining basis is a proper rotation.
	if m.Det() < 0 {
		sca[0] = -sca[0]
	}

	rotM := mgl32.Ident4()
	rotM.SetCol(0, colX.Mul(1/sca.X()).Vec4(0))
	rotM.SetCol(1, colY.Mul(1/sca.Y()).Vec4(0))
	rotM.SetCol(2, colZ.Mul(1/sca.Z()).Vec4(0))

	return loc, mgl32.Mat4ToQuat(rotM).Normalize(), sca
}

// EulerXYZToQuat converts XYZ-order Euler angles (radians) to a quaternion.
// X is applied first, then Y, then Z: R = Rz * Ry * Rx.
func EulerXYZToQuat(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e.X(), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(e.Y(), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(e.Z(), mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

// QuatToEulerXYZ extracts XYZ-order Euler angles (radians) from q, the
// inverse of EulerXYZToQuat. Near the Y gimbal pole the X and Z angles are
// coupled and the round trip can drift; that matches the host behavior this
// mirrors and is accepted.
func QuatToEulerXYZ(q mgl32.Quat) mgl32.Vec3 {
	m := q.Normalize().Mat4()

	sy := mgl32.Clamp(-m.At(2, 0), -1, 1)
	y := math32.Asin(sy)

	var x, z float32
	if math32.Abs(sy) < 0.9999995 {
		x = math32.Atan2(m.At(2, 1), m.At(2, 2))
		z = math32.Atan2(m.At(1, 0), m.At(0, 0))
	} else {
		// Gimbal pole: put the remaining rotation on X.
		x = math32.Atan2(-m.At(1, 2), m.At(1, 1))
		z = 0
	}
	return mgl32.Vec3{x, y, z}
}

// OverrideAxes picks element i from ref where the matching axis flag is set,
// else from own. Used identically for locations, Euler rotations and scales.
func OverrideAxes(own, ref mgl32.Vec3, x, y, z bool) mgl32.Vec3 {
	out := own
	if x {
		out[0] = ref[0]
	}
	if y {
		out[1] = ref[1]
	}
	if z {
		out[2] = ref[2]
	}
	return out
}

// AverageLocations returns the centroid of locs, or the zero vector for an
// empty slice.
func AverageLocations(locs []mgl32.Vec3) mgl32.Vec3 {
	if len(locs) == 0 {
		return mgl32.Vec3{}
	}
	var sum mgl32.Vec3
	for _, l := range locs {
		sum = sum.Add(l)
	}
	return sum.Mul(1 / float32(len(locs)))
}

// RotationBetween returns the rotation carrying from onto to. Degenerate
// inputs yield the identity.
func RotationBetween(from, to mgl32.Vec3) mgl32.Quat {
	const eps = 1e-8
	if from.Len() < eps || to.Len() < eps {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(from, to).Normalize()
}

// TransformPoint applies m to a position (w = 1).
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies the inverse-transpose of m to a direction
// (w = 0) and normalizes, so non-uniform scale does not skew normals.
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	out := m.Inv().Transpose().Mul4x1(d.Vec4(0)).Vec3()
	if out.Len() < 1e-8 {
		return d
	}
	return out.Normalize()
}
