package kitbash

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Cursor is the scene-wide reference point and orientation, independent of
// any object.
type Cursor struct {
	Location mgl32.Vec3
	Rotation mgl32.Quat

	// Shown mirrors the host overlay flag; cursor operators force it on so
	// the user sees what they just placed.
	Shown bool
}

func (c *Cursor) Matrix() mgl32.Mat4 {
	return LocMatrix(c.Location).Mul4(RotMatrix(c.Rotation))
}

func (c *Cursor) Set(location mgl32.Vec3, rotation mgl32.Quat) {
	c.Location = location
	c.Rotation = rotation.Normalize()
}

type PivotPoint string

const (
	PivotMedian     PivotPoint = "MEDIAN"
	PivotIndividual PivotPoint = "INDIVIDUAL"
	PivotCursor     PivotPoint = "CURSOR"
)

type Orientation string

const (
	OrientGlobal Orientation = "GLOBAL"
	OrientNormal Orientation = "NORMAL"
	OrientCursor Orientation = "CURSOR"
)

// SavedPreset is a pivot/orientation pair stashed before cursor-to-selected
// switches both to the cursor.
type SavedPreset struct {
	Pivot       PivotPoint
	Orientation Orientation
}

// TransformPresets is the session state for the transform pivot and
// orientation. It replaces the host-global "last preset" slot: the saved
// pair lives here, scoped to one set/restore cycle of cursor operators.
type TransformPresets struct {
	Pivot       PivotPoint
	Orientation Orientation

	saved *SavedPreset
}

// Save stashes the current pair unless both are already on the cursor.
func (p *TransformPresets) Save() {
	if p.Pivot != PivotCursor && p.Orientation != OrientCursor {
		p.saved = &SavedPreset{Pivot: p.Pivot, Orientation: p.Orientation}
	}
}

// Restore applies and clears the saved pair; it reports whether one existed.
func (p *TransformPresets) Restore() bool {
	if p.saved == nil {
		return false
	}
	p.Pivot = p.saved.Pivot
	p.Orientation = p.saved.Orientation
	p.saved = nil
	return true
}

// Saved returns the stashed pair, or nil.
func (p *TransformPresets) Saved() *SavedPreset { return p.saved }

// CursorModule installs the 3D cursor and the transform-preset session
// state.
type CursorModule struct{}

func (CursorModule) Install(app *App, cmd *Commands) {
	app.addResources(
		&Cursor{Rotation: mgl32.QuatIdent(), Shown: true},
		&TransformPresets{Pivot: PivotMedian, Orientation: OrientGlobal},
	)
}

// SetTransformPreset applies a pivot/orientation pair.
type SetTransformPreset struct {
	Pivot       PivotPoint
	Orientation Orientation
}

func (op *SetTransformPreset) IdName() string { return "set_transform_preset" }

func (op *SetTransformPreset) Poll(cmd *Commands) bool {
	return GetResource[TransformPresets](cmd) != nil
}

func (op *SetTransformPreset) Execute(cmd *Commands) Status {
	presets := GetResource[TransformPresets](cmd)
	presets.Pivot = op.Pivot
	presets.Orientation = op.Orientation
	return StatusFinished
}

// CursorToOrigin resets the cursor location and/or rotation to the world
// origin. OnlyLocation and OnlyRotation are mutually exclusive modifier
// keys.
type CursorToOrigin struct {
	OnlyLocation bool
	OnlyRotation bool
}

func (op *CursorToOrigin) IdName() string { return "cursor_to_origin" }

func (op *CursorToOrigin) Poll(cmd *Commands) bool {
	return cmd.Cursor() != nil
}

func (op *CursorToOrigin) Execute(cmd *Commands) Status {
	if op.OnlyLocation && op.OnlyRotation {
		cmd.Report("Invalid Modifier Keys", "Hold down ALT, CTRL or neither, not both!")
		return StatusCancelled
	}

	cursor := cmd.Cursor()
	cursor.Shown = true

	location := mgl32.Vec3{}
	rotation := mgl32.QuatIdent()
	if op.OnlyRotation {
		location = cursor.Location
	}
	if op.OnlyLocation {
		rotation = cursor.Rotation
	}
	cursor.Set(location, rotation)

	// Jump the pivot and orientation back to where they were before the
	// cursor took them over.
	if cmd.Prefs().CursorSetsTransformPreset {
		if presets := GetResource[TransformPresets](cmd); presets != nil {
			presets.Restore()
		}
	}

	return StatusFinished
}

// CursorToSelected aligns the cursor with the active object, or with the
// active vertex/edge/face in mesh edit mode.
type CursorToSelected struct {
	OnlyLocation bool
	OnlyRotation bool
}

func (op *CursorToSelected) IdName() string { return "cursor_to_selected" }

func (op *CursorToSelected) Poll(cmd *Commands) bool {
	if cmd.Cursor() == nil {
		return false
	}
	scene := cmd.Scene()
	if es := scene.EditSelection(); es != nil {
		return len(es.Verts) > 0 || len(es.Edges) > 0 || len(es.Faces) > 0
	}
	return scene.Active() != 0 || len(scene.Selected()) > 0
}

func (op *CursorToSelected) Execute(cmd *Commands) Status {
	if op.OnlyLocation && op.OnlyRotation {
		cmd.Report("Invalid Modifier Keys", "Hold down ALT, CTRL or neither, not both!")
		return StatusCancelled
	}

	scene := cmd.Scene()
	cursor := cmd.Cursor()
	cursor.Shown = true

	var location mgl32.Vec3
	var rotation mgl32.Quat

	if es := scene.EditSelection(); es != nil {
		var ok bool
		location, rotation, ok = op.fromEditSelection(cmd, es)
		if !ok {
			return StatusCancelled
		}
	} else {
		active := scene.Active()
		if active == 0 {
			sel := scene.Selected()
			if len(sel) == 0 {
				return StatusCancelled
			}
			scene.SetActive(sel[0])
			active = sel[0]
		}
		location, rotation, _ = DecomposeMat4(scene.WorldMatrix(active))
	}

	// Restricted modifiers keep the cursor's current other component.
	if op.OnlyRotation {
		location = cursor.Location
	}
	if op.OnlyLocation {
		rotation = cursor.Rotation
	}
	cursor.Set(location, rotation)

	if cmd.Prefs().CursorSetsTransformPreset {
		if presets := GetResource[TransformPresets](cmd); presets != nil {
			presets.Save()
			presets.Pivot = PivotCursor
			presets.Orientation = OrientCursor
		}
	}

	return StatusFinished
}

// fromEditSelection derives the cursor placement from the mesh-edit
// selection: the centroid of the selected elements and a rotation carrying
// +Z onto the active element's normal (vertex/face) or direction (edge).
func (op *CursorToSelected) fromEditSelection(cmd *Commands, es *EditMeshSelection) (mgl32.Vec3, mgl32.Quat, bool) {
	scene := cmd.Scene()
	meshes := cmd.Meshes()
	obj := scene.Object(es.Object)
	if obj == nil || meshes == nil {
		return mgl32.Vec3{}, mgl32.QuatIdent(), false
	}
	mesh := meshes.Get(obj.Mesh)
	if mesh == nil {
		return mgl32.Vec3{}, mgl32.QuatIdent(), false
	}
	mx := scene.WorldMatrix(es.Object)

	switch es.Mode {
	case SelectVerts:
		if len(es.Verts) == 0 {
			return mgl32.Vec3{}, mgl32.QuatIdent(), false
		}
		locs := make([]mgl32.Vec3, 0, len(es.Verts))
		for _, vi := range es.Verts {
			locs = append(locs, mesh.Vertices[vi])
		}
		loc := TransformPoint(mx, AverageLocations(locs))

		// Select history: the last entry is the active element.
		active := es.Verts[len(es.Verts)-1]
		normal := TransformDirection(mx, mesh.VertexNormal(active))
		return loc, RotationBetween(mgl32.Vec3{0, 0, 1}, normal), true

	case SelectEdges:
		if len(es.Edges) == 0 {
			return mgl32.Vec3{}, mgl32.QuatIdent(), false
		}
		centers := make([]mgl32.Vec3, 0, len(es.Edges))
		for _, e := range es.Edges {
			centers = append(centers, AverageLocations([]mgl32.Vec3{
				mesh.Vertices[e[0]],
				mesh.Vertices[e[1]],
			}))
		}
		loc := TransformPoint(mx, AverageLocations(centers))

		active := es.Edges[len(es.Edges)-1]
		dir := mesh.Vertices[active[1]].Sub(mesh.Vertices[active[0]])
		dir = TransformDirection(mx, dir)
		return loc, RotationBetween(mgl32.Vec3{0, 0, 1}, dir), true

	case SelectFaces:
		if len(es.Faces) == 0 {
			return mgl32.Vec3{}, mgl32.QuatIdent(), false
		}
		// Face indices are positions in the mesh face list here.
		faceIdx := func(face []int) int {
			for fi, f := range mesh.Faces {
				if sameFace(f, face) {
					return fi
				}
			}
			return -1
		}

		centers := make([]mgl32.Vec3, 0, len(es.Faces))
		for _, f := range es.Faces {
			if fi := faceIdx(f); fi >= 0 {
				centers = append(centers, mesh.FaceCenter(fi))
			}
		}
		if len(centers) == 0 {
			return mgl32.Vec3{}, mgl32.QuatIdent(), false
		}
		loc := TransformPoint(mx, AverageLocations(centers))

		fi := faceIdx(es.Faces[len(es.Faces)-1])
		normal := TransformDirection(mx, mesh.FaceNormal(fi))
		return loc, RotationBetween(mgl32.Vec3{0, 0, 1}, normal), true
	}

	return mgl32.Vec3{}, mgl32.QuatIdent(), false
}

func sameFace(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
