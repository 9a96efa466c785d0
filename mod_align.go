package kitbash

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type AlignMode string

const (
	AlignOrigin AlignMode = "ORIGIN"
	AlignCursor AlignMode = "CURSOR"
	AlignActive AlignMode = "ACTIVE"
	AlignFloor  AlignMode = "FLOOR"
)

// Align computes a new world transform for every selected object by taking
// each of translation, rotation and scale either from the object itself or
// from the reference, with independent per-axis selection.
type Align struct {
	Mode      AlignMode
	InBetween bool

	Location bool
	Rotation bool
	Scale    bool

	LocX, LocY, LocZ bool
	RotX, RotY, RotZ bool
	ScaX, ScaY, ScaZ bool

	// OnlyLocation/OnlyRotation are the host's modifier-key shortcuts; they
	// are mutually exclusive and narrow the alignment to one component.
	OnlyLocation bool
	OnlyRotation bool

	// Joint variant (active armature with an active joint).
	ParentToJoint bool
	AlignZToY     bool
	Roll          bool
	RollAmount    float32 // degrees
}

// NewAlign returns an Align with the host defaults: align location and
// rotation on all axes to the active object.
func NewAlign() *Align {
	return &Align{
		Mode:     AlignActive,
		Location: true,
		Rotation: true,
		LocX:     true, LocY: true, LocZ: true,
		RotX: true, RotY: true, RotZ: true,
		ScaX: true, ScaY: true, ScaZ: true,
		ParentToJoint: true,
		AlignZToY:     true,
		RollAmount:    90,
	}
}

func (op *Align) IdName() string { return "align" }

func (op *Align) Poll(cmd *Commands) bool {
	return len(cmd.Scene().Selected()) > 0
}

func (op *Align) Execute(cmd *Commands) Status {
	// Mutually exclusive modifiers are validated before any side effect.
	if op.OnlyLocation && op.OnlyRotation {
		cmd.Report("Invalid Modifier Keys", "Hold down ALT, CTRL or neither, not both!")
		return StatusCancelled
	}
	if op.OnlyLocation {
		op.Location, op.Rotation, op.Scale = true, false, false
	}
	if op.OnlyRotation {
		op.Location, op.Rotation, op.Scale = false, true, false
	}

	scene := cmd.Scene()
	active := scene.Active()
	sel := scene.Selected()

	isInBetween := len(sel) == 3 && active != 0 && containsId(sel, active)

	switch {
	case isInBetween && op.InBetween:
		op.alignInBetween(cmd, active, withoutId(sel, active))

	case op.Mode == AlignOrigin:
		op.alignToOrigin(cmd, sel)

	case op.Mode == AlignCursor:
		cursor := cmd.Cursor()
		if cursor == nil {
			return StatusCancelled
		}
		op.alignToCursor(cmd, cursor, sel)

	case op.Mode == AlignActive:
		if !containsId(sel, active) {
			// Precondition failure: nothing to align against.
			return StatusFinished
		}
		targets := withoutId(sel, active)

		if joint := scene.ActiveJoint(); joint != "" {
			op.alignToActiveJoint(cmd, active, joint, targets)
		} else {
			op.alignToActiveObject(cmd, active, targets)
		}

	case op.Mode == AlignFloor:
		op.dropToFloor(cmd, sel)
	}

	return StatusFinished
}

func (op *Align) alignToOrigin(cmd *Commands, sel []ObjectId) {
	scene := cmd.Scene()

	for _, id := range sel {
		oloc, orot, osca := DecomposeMat4(scene.WorldMatrix(id))

		loc := LocMatrix(oloc)
		if op.Location {
			loc = LocMatrix(OverrideAxes(oloc, mgl32.Vec3{}, op.LocX, op.LocY, op.LocZ))
		}

		// Rotation passes through in origin mode; scale is never aligned.
		scene.SetWorldMatrix(id, loc.Mul4(RotMatrix(orot)).Mul4(ScaMatrix(osca)))
	}
}

func (op *Align) alignToCursor(cmd *Commands, cursor *Cursor, sel []ObjectId) {
	scene := cmd.Scene()
	refEuler := QuatToEulerXYZ(cursor.Rotation)

	for _, id := range sel {
		oloc, orot, osca := DecomposeMat4(scene.WorldMatrix(id))

		loc := LocMatrix(oloc)
		if op.Location {
			loc = LocMatrix(OverrideAxes(oloc, cursor.Location, op.LocX, op.LocY, op.LocZ))
		}

		rot := RotMatrix(orot)
		if op.Rotation {
			euler := OverrideAxes(QuatToEulerXYZ(orot), refEuler, op.RotX, op.RotY, op.RotZ)
			rot = RotMatrix(EulerXYZToQuat(euler))
		}

		// Scale is never aligned to the cursor.
		scene.SetWorldMatrix(id, loc.Mul4(rot).Mul4(ScaMatrix(osca)))
	}
}

func (op *Align) alignToActiveObject(cmd *Commands, active ObjectId, targets []ObjectId) {
	scene := cmd.Scene()
	aloc, arot, asca := DecomposeMat4(scene.WorldMatrix(active))
	aEuler := QuatToEulerXYZ(arot)

	for _, id := range targets {
		oloc, orot, osca := DecomposeMat4(scene.WorldMatrix(id))

		loc := LocMatrix(oloc)
		if op.Location {
			loc = LocMatrix(OverrideAxes(oloc, aloc, op.LocX, op.LocY, op.LocZ))
		}

		rot := RotMatrix(orot)
		if op.Rotation {
			euler := OverrideAxes(QuatToEulerXYZ(orot), aEuler, op.RotX, op.RotY, op.RotZ)
			rot = RotMatrix(EulerXYZToQuat(euler))
		}

		sca := ScaMatrix(osca)
		if op.Scale {
			sca = ScaMatrix(OverrideAxes(osca, asca, op.ScaX, op.ScaY, op.ScaZ))
		}

		scene.SetWorldMatrix(id, loc.Mul4(rot).Mul4(sca))
	}
}

// alignToActiveJoint snaps targets onto a skeletal joint of the active
// armature and optionally parents them to it. AlignZToY swaps the joint's Y
// axis (along the bone) onto the object's Z; roll turns around the remaining
// axis.
func (op *Align) alignToActiveJoint(cmd *Commands, active ObjectId, joint string, targets []ObjectId) {
	scene := cmd.Scene()
	arm := scene.Object(active)
	if arm == nil {
		return
	}
	j := arm.JointByName(joint)
	if j == nil {
		return
	}

	armWorld := scene.WorldMatrix(active)

	var roll float32
	if op.Roll {
		roll = mgl32.DegToRad(op.RollAmount)
	}

	for _, id := range targets {
		if op.ParentToJoint {
			if err := scene.SetParentJoint(id, active, joint); err != nil {
				cmd.Logger().Warnf("align: %v", err)
				continue
			}
		}

		var world mgl32.Mat4
		if op.AlignZToY {
			world = armWorld.Mul4(j.Matrix).
				Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(-90))).
				Mul4(mgl32.HomogRotate3DZ(roll))
		} else {
			world = armWorld.Mul4(j.Matrix).
				Mul4(mgl32.HomogRotate3DY(roll))
		}
		scene.SetWorldMatrix(id, world)
	}
}

func (op *Align) dropToFloor(cmd *Commands, sel []ObjectId) {
	scene := cmd.Scene()
	meshes := cmd.Meshes()

	for _, id := range sel {
		obj := scene.Object(id)
		mx := scene.WorldMatrix(id)

		switch obj.Type {
		case ObjectMesh:
			if meshes == nil {
				continue
			}
			mesh := meshes.Get(obj.Mesh)
			if mesh == nil || len(mesh.Vertices) == 0 {
				continue
			}

			minZ := math32.Inf(1)
			for _, v := range mesh.Vertices {
				if wz := TransformPoint(mx, v).Z(); wz < minZ {
					minZ = wz
				}
			}

			loc := mx.Col(3).Vec3()
			loc[2] -= minZ
			mx.SetCol(3, loc.Vec4(1))
			scene.SetWorldMatrix(id, mx)

		case ObjectEmpty:
			// Empties have no geometry: shift by the local Z offset only.
			// Children are not inspected; that approximation is intentional.
			loc := mx.Col(3).Vec3()
			loc[2] -= scene.LocalMatrix(id).Col(3).Z()
			mx.SetCol(3, loc.Vec4(1))
			scene.SetWorldMatrix(id, mx)
		}
	}
}

// alignInBetween centers the active object between the two other selected
// objects and turns its local Z axis along the vector connecting them.
func (op *Align) alignInBetween(cmd *Commands, active ObjectId, others []ObjectId) {
	scene := cmd.Scene()
	if len(others) != 2 {
		return
	}

	_, rot, sca := DecomposeMat4(scene.WorldMatrix(active))

	locations := []mgl32.Vec3{
		scene.WorldMatrix(others[0]).Col(3).Vec3(),
		scene.WorldMatrix(others[1]).Col(3).Vec3(),
	}

	activeUp := rot.Rotate(mgl32.Vec3{0, 0, 1})
	selDir := locations[1].Sub(locations[0])

	world := LocMatrix(AverageLocations(locations)).
		Mul4(RotMatrix(RotationBetween(activeUp, selDir).Mul(rot))).
		Mul4(ScaMatrix(sca))
	scene.SetWorldMatrix(active, world)
}

func containsId(ids []ObjectId, id ObjectId) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func withoutId(ids []ObjectId, id ObjectId) []ObjectId {
	var out []ObjectId
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
