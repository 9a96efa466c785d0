package kitbash

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Exporter is the host's mesh export pipeline; the normalizer only invokes
// it on the prepared selection.
type Exporter interface {
	Export(cmd *Commands, path string, objects []ObjectId) error
}

// exportRecord is the per-object export annotation: the pre-export world
// matrix saved verbatim, the original geometry block, and the prepared flag.
// Records only exist between one prepare and its matching restore.
type exportRecord struct {
	preMatrix mgl32.Mat4
	preMesh   AssetId
	prepared  bool
}

// ExportStates is the side table of export annotations, owned by the export
// module so export-specific state never leaks into the object type.
type ExportStates struct {
	records  map[ObjectId]*exportRecord
	exporter Exporter
}

func NewExportStates(exporter Exporter) *ExportStates {
	return &ExportStates{
		records:  make(map[ObjectId]*exportRecord),
		exporter: exporter,
	}
}

// Prepared reports whether id currently carries a prepared annotation.
func (s *ExportStates) Prepared(id ObjectId) bool {
	rec := s.records[id]
	return rec != nil && rec.prepared
}

// PreparedObjects returns all annotated object handles.
func (s *ExportStates) PreparedObjects() []ObjectId {
	var out []ObjectId
	for id, rec := range s.records {
		if rec.prepared {
			out = append(out, id)
		}
	}
	return out
}

// ExportModule installs the export side table. Exporter may be nil; prepare
// then reports the missing backend instead of crashing the host.
type ExportModule struct {
	Exporter Exporter
}

func (m ExportModule) Install(app *App, cmd *Commands) {
	app.addResources(NewExportStates(m.Exporter))
}

// PrepareExport recursively rotates every selected object 90 degrees about
// world X and scales it to 1/100, compensating mesh geometry, modifier
// parameters and empty display sizes so the visible shape is unchanged, then
// hands the selection to the exporter. RestoreExport reverses it exactly.
type PrepareExport struct {
	Triangulate bool
	SkipExport  bool
	Path        string
}

func (op *PrepareExport) IdName() string { return "prepare_export" }

// Poll fails while any visible object is still prepared from an earlier run.
func (op *PrepareExport) Poll(cmd *Commands) bool {
	states := GetResource[ExportStates](cmd)
	if states == nil {
		return false
	}
	for _, obj := range cmd.Scene().VisibleObjects() {
		if states.Prepared(obj.Id) {
			return false
		}
	}
	return true
}

func (op *PrepareExport) Execute(cmd *Commands) Status {
	log := cmd.Logger()
	log.Infof("preparing export")

	scene := cmd.Scene()
	states := GetResource[ExportStates](cmd)
	prefs := cmd.Prefs()

	// Preferences supply the defaults the caller left unset.
	op.Triangulate = op.Triangulate || prefs.ExportTriangulate
	if op.Path == "" {
		op.Path = prefs.ExportPath
	}

	// Force use-selection: exporting with nothing selected would also pull
	// in hidden child objects, so select everything visible instead.
	if len(scene.Selected()) == 0 {
		for _, obj := range scene.VisibleObjects() {
			scene.Select(obj.Id)
		}
	}

	sel := scene.Selected()
	scope := make(map[ObjectId]bool, len(sel))
	for _, id := range sel {
		scope[id] = true
	}

	// Snapshot all world matrices before any mutation: rewriting a parent's
	// transform moves its children.
	matrices := make(map[ObjectId]mgl32.Mat4, len(sel))
	for _, id := range sel {
		matrices[id] = scene.WorldMatrix(id)
	}

	for _, root := range scene.Roots() {
		op.prepare(cmd, states, root, scope, matrices, 0, false)
	}

	if !op.SkipExport {
		if states.exporter == nil {
			cmd.Report("Missing Exporter", "no export backend is registered; objects were prepared but not exported")
		} else if err := states.exporter.Export(cmd, op.Path, sel); err != nil {
			cmd.Report("Export Failed", err.Error())
		}
	}

	return StatusFinished
}

// prepare walks the hierarchy parent before children, descending through
// out-of-scope objects to reach in-scope descendants. depth is diagnostic
// only.
func (op *PrepareExport) prepare(cmd *Commands, states *ExportStates, id ObjectId, scope map[ObjectId]bool, matrices map[ObjectId]mgl32.Mat4, depth int, child bool) {
	scene := cmd.Scene()
	log := cmd.Logger()
	obj := scene.Object(id)

	childDepth := depth

	if scope[id] {
		indent := strings.Repeat("  ", depth)
		kind := "root"
		if child {
			kind = "child"
		}
		log.Infof("%sadjusting %s object: %s", indent, kind, obj.Name)

		mx := matrices[id]
		states.records[id] = &exportRecord{preMatrix: mx, prepared: true}

		loc, rot, sca := DecomposeMat4(mx)
		rotation := mgl32.HomogRotate3DX(mgl32.DegToRad(90))
		scale := ScaMatrix(sca.Mul(1.0 / 100))
		scene.SetWorldMatrix(id, LocMatrix(loc).Mul4(RotMatrix(rot)).Mul4(rotation).Mul4(scale))

		for _, mod := range obj.Modifiers {
			switch m := mod.(type) {
			case *MirrorModifier:
				if m.ShowViewport {
					log.Infof("%sadjusting %s's MIRROR modifier %s", indent, obj.Name, m.Name)
					m.SwapYZ()
				}
			case *BevelModifier:
				if m.ShowViewport {
					log.Infof("%sadjusting %s's BEVEL modifier %s", indent, obj.Name, m.Name)
					m.Width *= 100
				}
			}
		}

		if op.Triangulate && obj.Type == ObjectMesh {
			log.Infof("%sadding %s's TRIANGULATE modifier", indent, obj.Name)
			obj.Modifiers = append(obj.Modifiers, &TriangulateModifier{
				Name:              "Triangulate",
				KeepCustomNormals: true,
			})
		}

		switch obj.Type {
		case ObjectEmpty:
			log.Infof("%sadjusting %s's empty display size to compensate", indent, obj.Name)
			obj.EmptyDisplaySize *= 100

		case ObjectMesh:
			if meshes := cmd.Meshes(); meshes != nil && obj.Mesh != "" {
				log.Infof("%sadjusting %s's mesh to compensate", indent, obj.Name)

				// Keep the original block around for restoration and for
				// instanced objects sharing it; mutate a duplicate instead.
				states.records[id].preMesh = obj.Mesh
				obj.Mesh = meshes.Duplicate(obj.Mesh)

				bake := mgl32.HomogRotate3DX(mgl32.DegToRad(-90)).Mul4(mgl32.Scale3D(100, 100, 100))
				meshes.Get(obj.Mesh).Transform(bake)
			}
		}

		childDepth = depth + 1
	}

	for _, cid := range scene.Children(id) {
		op.prepare(cmd, states, cid, scope, matrices, childDepth, true)
	}
}

// RestoreExport writes back the pre-export transforms, modifier parameters
// and geometry references recorded by PrepareExport.
type RestoreExport struct {
	Detriangulate bool
}

func (op *RestoreExport) IdName() string { return "restore_export" }

// Poll requires at least one prepared object.
func (op *RestoreExport) Poll(cmd *Commands) bool {
	states := GetResource[ExportStates](cmd)
	return states != nil && len(states.PreparedObjects()) > 0
}

func (op *RestoreExport) Execute(cmd *Commands) Status {
	log := cmd.Logger()
	log.Infof("restoring pre-export transformations")

	scene := cmd.Scene()
	states := GetResource[ExportStates](cmd)

	// Duplicated meshes released during the walk are freed together at the
	// end.
	var garbage []AssetId

	for _, root := range scene.Roots() {
		op.restore(cmd, states, root, &garbage, 0, false)
	}

	if meshes := cmd.Meshes(); meshes != nil {
		meshes.BatchRemove(garbage)
	}

	return StatusFinished
}

// restore is the exact inverse walk of prepare. Objects without a prepared
// annotation are skipped, so an interrupted prepare can always be cleaned up
// by a single restore pass.
func (op *RestoreExport) restore(cmd *Commands, states *ExportStates, id ObjectId, garbage *[]AssetId, depth int, child bool) {
	scene := cmd.Scene()
	log := cmd.Logger()
	obj := scene.Object(id)

	childDepth := depth

	if rec := states.records[id]; rec != nil && rec.prepared {
		indent := strings.Repeat("  ", depth)
		kind := "root"
		if child {
			kind = "child"
		}
		log.Infof("%srestoring %s object: %s", indent, kind, obj.Name)

		// The saved matrix is written back verbatim; matrix and flag clear
		// together.
		scene.SetWorldMatrix(id, rec.preMatrix)
		delete(states.records, id)

		for _, mod := range obj.Modifiers {
			switch m := mod.(type) {
			case *MirrorModifier:
				if m.ShowViewport {
					log.Infof("%srestoring %s's MIRROR modifier %s", indent, obj.Name, m.Name)
					m.SwapYZ()
				}
			case *BevelModifier:
				if m.ShowViewport {
					log.Infof("%srestoring %s's BEVEL modifier %s", indent, obj.Name, m.Name)
					m.Width /= 100
				}
			}
		}

		if op.Detriangulate && len(obj.Modifiers) > 0 {
			last := obj.Modifiers[len(obj.Modifiers)-1]
			if last.ModType() == ModifierTriangulate {
				log.Infof("%sremoving %s's TRIANGULATE modifier", indent, obj.Name)
				obj.Modifiers = obj.Modifiers[:len(obj.Modifiers)-1]
			}
		}

		switch obj.Type {
		case ObjectEmpty:
			log.Infof("%srestoring %s's empty display size", indent, obj.Name)
			obj.EmptyDisplaySize /= 100

		case ObjectMesh:
			if rec.preMesh != "" {
				log.Infof("%srestoring %s's pre-export mesh", indent, obj.Name)
				*garbage = append(*garbage, obj.Mesh)
				obj.Mesh = rec.preMesh
			}
		}

		childDepth = depth + 1
	}

	for _, cid := range scene.Children(id) {
		op.restore(cmd, states, cid, garbage, childDepth, true)
	}
}
