package kitbash

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadMeshObject(app *App, name string) *Object {
	obj := app.Scene().AddObject(name, ObjectMesh)
	obj.Mesh = app.Commands().Meshes().Create(&MeshData{
		Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		Faces:    [][]int{{0, 1, 2, 3}},
	})
	return obj
}

func TestCursorToOrigin(t *testing.T) {
	app := newTestApp()
	cursor := app.Commands().Cursor()
	cursor.Set(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(1.0, mgl32.Vec3{0, 1, 0}))

	require.Equal(t, StatusFinished, app.RunOperator(&CursorToOrigin{}))

	vecNear(t, mgl32.Vec3{}, cursor.Location, "location reset")
	matNear(t, mgl32.Ident4(), cursor.Rotation.Mat4(), "rotation reset")
}

func TestCursorToOriginRestrictedModifiers(t *testing.T) {
	app := newTestApp()
	cursor := app.Commands().Cursor()
	rot := mgl32.QuatRotate(1.0, mgl32.Vec3{0, 1, 0})

	cursor.Set(mgl32.Vec3{1, 2, 3}, rot)
	require.Equal(t, StatusFinished, app.RunOperator(&CursorToOrigin{OnlyLocation: true}))
	vecNear(t, mgl32.Vec3{}, cursor.Location, "location reset")
	matNear(t, rot.Mat4(), cursor.Rotation.Mat4(), "rotation kept")

	cursor.Set(mgl32.Vec3{1, 2, 3}, rot)
	require.Equal(t, StatusFinished, app.RunOperator(&CursorToOrigin{OnlyRotation: true}))
	vecNear(t, mgl32.Vec3{1, 2, 3}, cursor.Location, "location kept")
	matNear(t, mgl32.Ident4(), cursor.Rotation.Mat4(), "rotation reset")
}

func TestCursorToOriginInvalidModifierCombo(t *testing.T) {
	app := newTestApp()
	cursor := app.Commands().Cursor()
	cursor.Set(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(1.0, mgl32.Vec3{0, 1, 0}))
	before := *cursor

	status := app.RunOperator(&CursorToOrigin{OnlyLocation: true, OnlyRotation: true})
	require.Equal(t, StatusCancelled, status)
	assert.Equal(t, before, *cursor, "cancelled operator must not move the cursor")

	reports := app.DrainReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "Invalid Modifier Keys", reports[0].Title)
}

func TestCursorToSelectedObjectMode(t *testing.T) {
	app := newTestApp()
	scene := app.Scene()
	cursor := app.Commands().Cursor()

	obj := scene.AddObject("box", ObjectMesh)
	rot := mgl32.QuatRotate(0.6, mgl32.Vec3{1, 0, 0})
	scene.SetWorldMatrix(obj.Id, ComposeMat4(mgl32.Vec3{2, 4, 6}, rot, mgl32.Vec3{1, 1, 1}))
	scene.Select(obj.Id)
	scene.SetActive(obj.Id)

	require.Equal(t, StatusFinished, app.RunOperator(&CursorToSelected{}))

	vecNear(t, mgl32.Vec3{2, 4, 6}, cursor.Location, "cursor on the active object")
	matNear(t, rot.Mat4(), cursor.Rotation.Mat4(), "cursor takes the active rotation")

	// Taking the cursor also takes over the transform preset pair, stashing
	// the previous one.
	presets := GetResource[TransformPresets](app.Commands())
	assert.Equal(t, PivotCursor, presets.Pivot)
	assert.Equal(t, OrientCursor, presets.Orientation)
	require.NotNil(t, presets.Saved())
	assert.Equal(t, PivotMedian, presets.Saved().Pivot)
	assert.Equal(t, OrientGlobal, presets.Saved().Orientation)

	// Resetting the cursor jumps the pair back.
	require.Equal(t, StatusFinished, app.RunOperator(&CursorToOrigin{}))
	assert.Equal(t, PivotMedian, presets.Pivot)
	assert.Equal(t, OrientGlobal, presets.Orientation)
	assert.Nil(t, presets.Saved())
}

func TestCursorToSelectedFallsBackToFirstSelected(t *testing.T) {
	app := newTestApp()
	scene := app.Scene()

	obj := scene.AddObject("box", ObjectMesh)
	scene.SetWorldMatrix(obj.Id, mgl32.Translate3D(7, 0, 0))
	scene.Select(obj.Id)

	require.Equal(t, StatusFinished, app.RunOperator(&CursorToSelected{}))
	vecNear(t, mgl32.Vec3{7, 0, 0}, app.Commands().Cursor().Location, "first selected promoted to active")
	assert.Equal(t, obj.Id, scene.Active())
}

func TestCursorToSelectedEditVerts(t *testing.T) {
	app := newTestApp()
	scene := app.Scene()

	obj := quadMeshObject(app, "quad")
	scene.SetWorldMatrix(obj.Id, mgl32.Translate3D(0, 0, 5))
	scene.EnterEditMode(&EditMeshSelection{
		Object: obj.Id,
		Mode:   SelectVerts,
		Verts:  []int{0, 1, 2, 3},
	})

	require.Equal(t, StatusFinished, app.RunOperator(&CursorToSelected{}))

	cursor := app.Commands().Cursor()
	vecNear(t, mgl32.Vec3{0.5, 0.5, 5}, cursor.Location, "vertex centroid in world space")
	vecNear(t, mgl32.Vec3{0, 0, 1}, cursor.Rotation.Rotate(mgl32.Vec3{0, 0, 1}), "cursor Z along the active vertex normal")
}

func TestCursorToSelectedEditEdges(t *testing.T) {
	app := newTestApp()
	scene := app.Scene()

	obj := quadMeshObject(app, "quad")
	scene.EnterEditMode(&EditMeshSelection{
		Object: obj.Id,
		Mode:   SelectEdges,
		Edges:  [][2]int{{0, 1}, {1, 2}},
	})

	require.Equal(t, StatusFinished, app.RunOperator(&CursorToSelected{}))

	cursor := app.Commands().Cursor()
	vecNear(t, mgl32.Vec3{0.75, 0.25, 0}, cursor.Location, "centroid of the edge midpoints")
	// Select history: the second edge is active, running along +Y.
	vecNear(t, mgl32.Vec3{0, 1, 0}, cursor.Rotation.Rotate(mgl32.Vec3{0, 0, 1}), "cursor Z along the active edge")
}

func TestCursorToSelectedEditFaces(t *testing.T) {
	app := newTestApp()
	scene := app.Scene()

	obj := quadMeshObject(app, "quad")
	scene.EnterEditMode(&EditMeshSelection{
		Object: obj.Id,
		Mode:   SelectFaces,
		Faces:  [][]int{{0, 1, 2, 3}},
	})

	require.Equal(t, StatusFinished, app.RunOperator(&CursorToSelected{}))

	cursor := app.Commands().Cursor()
	vecNear(t, mgl32.Vec3{0.5, 0.5, 0}, cursor.Location, "face center")
	vecNear(t, mgl32.Vec3{0, 0, 1}, cursor.Rotation.Rotate(mgl32.Vec3{0, 0, 1}), "cursor Z along the face normal")
}

func TestCursorToSelectedPoll(t *testing.T) {
	app := newTestApp()
	assert.Equal(t, StatusCancelled, app.RunOperator(&CursorToSelected{}), "nothing selected")

	scene := app.Scene()
	scene.EnterEditMode(&EditMeshSelection{Object: 1, Mode: SelectVerts})
	assert.Equal(t, StatusCancelled, app.RunOperator(&CursorToSelected{}), "empty edit selection")
}

func TestSetTransformPreset(t *testing.T) {
	app := newTestApp()
	presets := GetResource[TransformPresets](app.Commands())

	op := &SetTransformPreset{Pivot: PivotIndividual, Orientation: OrientNormal}
	require.Equal(t, StatusFinished, app.RunOperator(op))
	assert.Equal(t, PivotIndividual, presets.Pivot)
	assert.Equal(t, OrientNormal, presets.Orientation)
}

func TestTransformPresetsSaveSkipsCursorPair(t *testing.T) {
	presets := &TransformPresets{Pivot: PivotCursor, Orientation: OrientGlobal}
	presets.Save()
	assert.Nil(t, presets.Saved(), "a pair already holding the cursor is never stashed")
	assert.False(t, presets.Restore())
}
