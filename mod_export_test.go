package kitbash

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureExporter struct {
	calls   int
	path    string
	objects []ObjectId
	err     error
}

func (e *captureExporter) Export(cmd *Commands, path string, objects []ObjectId) error {
	e.calls++
	e.path = path
	e.objects = objects
	return e.err
}

func newExportApp(exporter Exporter) *App {
	return NewApp().UseModules(MeshServerModule{}, CursorModule{}, ExportModule{Exporter: exporter})
}

func TestPrepareExportAdjustsSelection(t *testing.T) {
	app := newExportApp(nil)
	scene := app.Scene()
	meshes := app.Commands().Meshes()

	obj := addMeshObject(app, "box", []mgl32.Vec3{{0, 0, 1}})
	origMesh := obj.Mesh
	obj.Modifiers = []Modifier{
		&MirrorModifier{Name: "Mirror", UseAxis: [3]bool{true, false, true}, ShowViewport: true},
		&BevelModifier{Name: "Bevel", Width: 0.02, ShowViewport: true},
	}
	scene.SetWorldMatrix(obj.Id, ComposeMat4(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), mgl32.Vec3{2, 2, 2}))
	scene.Select(obj.Id)

	op := &PrepareExport{Triangulate: true, SkipExport: true}
	require.Equal(t, StatusFinished, app.RunOperator(op))

	loc, _, sca := DecomposeMat4(scene.WorldMatrix(obj.Id))
	vecNear(t, mgl32.Vec3{1, 2, 3}, loc, "location is unchanged")
	vecNear(t, mgl32.Vec3{0.02, 0.02, 0.02}, sca, "scale divided by 100")

	mirror := obj.Modifiers[0].(*MirrorModifier)
	assert.Equal(t, [3]bool{true, true, false}, mirror.UseAxis, "mirror Y and Z swapped")

	bevel := obj.Modifiers[1].(*BevelModifier)
	assert.InDelta(t, 2.0, bevel.Width, epsilon, "bevel width scaled up")

	require.Len(t, obj.Modifiers, 3, "triangulate appended")
	assert.Equal(t, ModifierTriangulate, obj.Modifiers[2].ModType())

	// The object now points at a compensated duplicate; the original block is
	// untouched for instanced users.
	require.NotEqual(t, origMesh, obj.Mesh)
	vecNear(t, mgl32.Vec3{0, 0, 1}, meshes.Get(origMesh).Vertices[0], "original geometry preserved")
	vecNear(t, mgl32.Vec3{0, 100, 0}, meshes.Get(obj.Mesh).Vertices[0], "duplicate baked with the inverse axis correction")
}

func TestPrepareRestoreRoundTrip(t *testing.T) {
	app := newExportApp(nil)
	scene := app.Scene()
	meshes := app.Commands().Meshes()

	root := addMeshObject(app, "root", []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	root.Modifiers = []Modifier{
		&MirrorModifier{Name: "Mirror", UseAxis: [3]bool{false, true, false}, ShowViewport: true},
		&BevelModifier{Name: "Bevel", Width: 0.1, ShowViewport: true},
	}
	child := scene.AddObject("child", ObjectEmpty)
	require.NoError(t, scene.SetParent(child.Id, root.Id, false))

	scene.SetWorldMatrix(root.Id, ComposeMat4(
		mgl32.Vec3{4, -1, 2},
		mgl32.QuatRotate(0.4, mgl32.Vec3{1, 1, 0}.Normalize()),
		mgl32.Vec3{1.5, 1.5, 1.5},
	))
	scene.SetLocalMatrix(child.Id, mgl32.Translate3D(0, 0, 1))
	scene.Select(root.Id, child.Id)

	rootMesh := root.Mesh
	rootBefore := scene.WorldMatrix(root.Id)
	childBefore := scene.WorldMatrix(child.Id)
	meshCount := meshes.Len()

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{Triangulate: true, SkipExport: true}))
	require.Equal(t, StatusFinished, app.RunOperator(&RestoreExport{Detriangulate: true}))

	// Roots get their saved matrix written back against an identity parent
	// frame, so the restore is bitwise.
	assert.Equal(t, rootBefore, scene.WorldMatrix(root.Id), "root restore is exact")
	matNear(t, childBefore, scene.WorldMatrix(child.Id), "child restore")

	assert.Equal(t, [3]bool{false, true, false}, root.Modifiers[0].(*MirrorModifier).UseAxis)
	assert.InDelta(t, 0.1, root.Modifiers[1].(*BevelModifier).Width, epsilon)
	assert.Len(t, root.Modifiers, 2, "triangulate removed again")

	assert.InDelta(t, 1.0, child.EmptyDisplaySize, epsilon)
	assert.Equal(t, rootMesh, root.Mesh, "original geometry handle restored")
	assert.Equal(t, meshCount, meshes.Len(), "compensated duplicates released")

	states := GetResource[ExportStates](app.Commands())
	assert.Empty(t, states.PreparedObjects(), "no annotations survive a restore")
}

func TestPrepareExportPollGating(t *testing.T) {
	app := newExportApp(nil)
	scene := app.Scene()

	obj := scene.AddObject("box", ObjectMesh)
	scene.Select(obj.Id)

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{SkipExport: true}))

	// A second prepare is blocked while anything visible is still annotated.
	assert.Equal(t, StatusCancelled, app.RunOperator(&PrepareExport{SkipExport: true}))

	require.Equal(t, StatusFinished, app.RunOperator(&RestoreExport{}))
	assert.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{SkipExport: true}))
}

func TestRestoreExportPollRequiresPrepared(t *testing.T) {
	app := newExportApp(nil)
	assert.Equal(t, StatusCancelled, app.RunOperator(&RestoreExport{}))
}

func TestPrepareExportForceSelectsVisible(t *testing.T) {
	app := newExportApp(nil)
	scene := app.Scene()

	shown := scene.AddObject("shown", ObjectMesh)
	hidden := scene.AddObject("hidden", ObjectMesh)
	hidden.Visible = false

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{SkipExport: true}))

	states := GetResource[ExportStates](app.Commands())
	assert.True(t, states.Prepared(shown.Id))
	assert.False(t, states.Prepared(hidden.Id), "hidden objects are never pulled in")
	assert.True(t, scene.IsSelected(shown.Id), "prepare selects the visible set")
}

func TestPrepareExportDescendsThroughUnselectedParent(t *testing.T) {
	app := newExportApp(nil)
	scene := app.Scene()

	parent := scene.AddObject("parent", ObjectEmpty)
	middle := scene.AddObject("middle", ObjectEmpty)
	leaf := scene.AddObject("leaf", ObjectMesh)
	require.NoError(t, scene.SetParent(middle.Id, parent.Id, false))
	require.NoError(t, scene.SetParent(leaf.Id, middle.Id, false))

	scene.Select(leaf.Id)
	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{SkipExport: true}))

	states := GetResource[ExportStates](app.Commands())
	assert.True(t, states.Prepared(leaf.Id), "in-scope leaf reached through out-of-scope ancestors")
	assert.False(t, states.Prepared(parent.Id))
	assert.False(t, states.Prepared(middle.Id))
}

func TestPrepareExportMissingExporter(t *testing.T) {
	app := newExportApp(nil)
	scene := app.Scene()
	scene.Select(scene.AddObject("box", ObjectMesh).Id)

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{Path: "/tmp/out.fbx"}))

	reports := app.DrainReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "Missing Exporter", reports[0].Title)
}

func TestPrepareExportInvokesExporter(t *testing.T) {
	exporter := &captureExporter{}
	app := newExportApp(exporter)
	scene := app.Scene()

	obj := scene.AddObject("box", ObjectMesh)
	scene.Select(obj.Id)

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{Path: "/tmp/out.fbx"}))
	assert.Equal(t, 1, exporter.calls)
	assert.Equal(t, "/tmp/out.fbx", exporter.path)
	assert.Equal(t, []ObjectId{obj.Id}, exporter.objects)
	assert.Empty(t, app.DrainReports())
}

func TestPrepareExportUsesPrefsDefaults(t *testing.T) {
	exporter := &captureExporter{}
	app := newExportApp(exporter)
	app.AddResources(&Prefs{ExportPath: "/srv/assets/out.fbx", ExportTriangulate: true})

	scene := app.Scene()
	obj := addMeshObject(app, "box", []mgl32.Vec3{{0, 0, 0}})
	scene.Select(obj.Id)

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{}))

	assert.Equal(t, "/srv/assets/out.fbx", exporter.path, "path falls back to prefs")
	require.NotEmpty(t, obj.Modifiers, "prefs default forces triangulation")
	assert.Equal(t, ModifierTriangulate, obj.Modifiers[len(obj.Modifiers)-1].ModType())
}

func TestPrepareExportReportsExporterError(t *testing.T) {
	exporter := &captureExporter{err: errors.New("disk full")}
	app := newExportApp(exporter)
	scene := app.Scene()
	scene.Select(scene.AddObject("box", ObjectMesh).Id)

	require.Equal(t, StatusFinished, app.RunOperator(&PrepareExport{}))

	reports := app.DrainReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "Export Failed", reports[0].Title)
	assert.Equal(t, "disk full", reports[0].Message)
}
