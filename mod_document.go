package kitbash

import (
	"encoding/json"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// ObjectData is the serialized form of one scene object. Transforms are
// stored decomposed; shear is not modeled in the document either.
type ObjectData struct {
	ID       ObjectId   `json:"id"`
	Name     string     `json:"name"`
	Type     ObjectType `json:"type"`
	Position mgl32.Vec3 `json:"position"`
	Rotation mgl32.Quat `json:"rotation"`
	Scale    mgl32.Vec3 `json:"scale"`

	HasParent   bool     `json:"has_parent"`
	ParentID    ObjectId `json:"parent_id,omitempty"`
	ParentJoint string   `json:"parent_joint,omitempty"`

	EmptyDisplaySize float32 `json:"empty_display_size,omitempty"`
	Visible          bool    `json:"visible"`

	Vertices []mgl32.Vec3 `json:"vertices,omitempty"`
	Edges    [][2]int     `json:"edges,omitempty"`
	Faces    [][]int      `json:"faces,omitempty"`

	Joints    []JointData    `json:"joints,omitempty"`
	Modifiers []ModifierData `json:"modifiers,omitempty"`
}

type JointData struct {
	Name   string     `json:"name"`
	Matrix mgl32.Mat4 `json:"matrix"`
}

// ModifierData is the serialized union of the modifier subtypes.
type ModifierData struct {
	Type ModifierType `json:"type"`
	Name string       `json:"name"`

	UseAxis           *[3]bool `json:"use_axis,omitempty"`
	UseBisectAxis     *[3]bool `json:"use_bisect_axis,omitempty"`
	UseBisectFlipAxis *[3]bool `json:"use_bisect_flip_axis,omitempty"`

	Width float32 `json:"width,omitempty"`

	KeepCustomNormals bool `json:"keep_custom_normals,omitempty"`

	ShowViewport bool `json:"show_viewport"`
}

type DocumentData struct {
	Objects []ObjectData `json:"objects"`
}

// SaveDocument serializes the whole scene graph to filename.
func SaveDocument(cmd *Commands, filename string) error {
	scene := cmd.Scene()
	meshes := cmd.Meshes()

	var objects []ObjectData
	for _, obj := range scene.Objects() {
		pos, rot, sca := DecomposeMat4(scene.LocalMatrix(obj.Id))

		data := ObjectData{
			ID:               obj.Id,
			Name:             obj.Name,
			Type:             obj.Type,
			Position:         pos,
			Rotation:         rot,
			Scale:            sca,
			HasParent:        obj.Parent() != 0,
			ParentID:         obj.Parent(),
			ParentJoint:      obj.ParentJoint,
			EmptyDisplaySize: obj.EmptyDisplaySize,
			Visible:          obj.Visible,
		}

		if obj.Type == ObjectMesh && meshes != nil {
			if mesh := meshes.Get(obj.Mesh); mesh != nil {
				data.Vertices = mesh.Vertices
				data.Edges = mesh.Edges
				data.Faces = mesh.Faces
			}
		}

		for _, j := range obj.Joints {
			data.Joints = append(data.Joints, JointData{Name: j.Name, Matrix: j.Matrix})
		}

		for _, mod := range obj.Modifiers {
			data.Modifiers = append(data.Modifiers, marshalModifier(mod))
		}

		objects = append(objects, data)
	}

	doc := DocumentData{Objects: objects}
	bytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, bytes, 0644)
}

// LoadDocument rebuilds the saved scene graph into the current scene and
// returns the new handles. Parent links are remapped in a second pass, since
// a child may be serialized before its parent.
func LoadDocument(cmd *Commands, filename string) ([]ObjectId, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var doc DocumentData
	if err := json.Unmarshal(bytes, &doc); err != nil {
		return nil, err
	}

	scene := cmd.Scene()
	meshes := cmd.Meshes()

	idMap := make(map[ObjectId]ObjectId)
	var newObjects []ObjectId

	// First pass: create objects and geometry blocks.
	for _, data := range doc.Objects {
		obj := scene.AddObject(data.Name, data.Type)
		obj.Visible = data.Visible
		if data.EmptyDisplaySize != 0 {
			obj.EmptyDisplaySize = data.EmptyDisplaySize
		}
		scene.SetLocalMatrix(obj.Id, ComposeMat4(data.Position, data.Rotation, data.Scale))

		if data.Type == ObjectMesh && meshes != nil && len(data.Vertices) > 0 {
			obj.Mesh = meshes.Create(&MeshData{
				Vertices: data.Vertices,
				Edges:    data.Edges,
				Faces:    data.Faces,
			})
		}

		for _, j := range data.Joints {
			obj.Joints = append(obj.Joints, Joint{Name: j.Name, Matrix: j.Matrix})
		}

		for _, m := range data.Modifiers {
			if mod := unmarshalModifier(m); mod != nil {
				obj.Modifiers = append(obj.Modifiers, mod)
			}
		}

		idMap[data.ID] = obj.Id
		newObjects = append(newObjects, obj.Id)
	}

	// Second pass: restore the hierarchy.
	for _, data := range doc.Objects {
		if !data.HasParent {
			continue
		}
		newChild, okC := idMap[data.ID]
		newParent, okP := idMap[data.ParentID]
		if !okC || !okP {
			continue
		}
		if data.ParentJoint != "" {
			if err := scene.SetParentJoint(newChild, newParent, data.ParentJoint); err == nil {
				continue
			}
		}
		if err := scene.SetParent(newChild, newParent, false); err != nil {
			cmd.Logger().Warnf("document: %v", err)
		}
	}

	return newObjects, nil
}

func marshalModifier(mod Modifier) ModifierData {
	data := ModifierData{Type: mod.ModType(), Name: mod.ModName()}
	switch m := mod.(type) {
	case *MirrorModifier:
		use, bisect, flip := m.UseAxis, m.UseBisectAxis, m.UseBisectFlipAxis
		data.UseAxis = &use
		data.UseBisectAxis = &bisect
		data.UseBisectFlipAxis = &flip
		data.ShowViewport = m.ShowViewport
	case *BevelModifier:
		data.Width = m.Width
		data.ShowViewport = m.ShowViewport
	case *TriangulateModifier:
		data.KeepCustomNormals = m.KeepCustomNormals
		data.ShowViewport = true
	}
	return data
}

func unmarshalModifier(data ModifierData) Modifier {
	switch data.Type {
	case ModifierMirror:
		m := &MirrorModifier{Name: data.Name, ShowViewport: data.ShowViewport}
		if data.UseAxis != nil {
			m.UseAxis = *data.UseAxis
		}
		if data.UseBisectAxis != nil {
			m.UseBisectAxis = *data.UseBisectAxis
		}
		if data.UseBisectFlipAxis != nil {
			m.UseBisectFlipAxis = *data.UseBisectFlipAxis
		}
		return m
	case ModifierBevel:
		return &BevelModifier{Name: data.Name, Width: data.Width, ShowViewport: data.ShowViewport}
	case ModifierTriangulate:
		return &TriangulateModifier{Name: data.Name, KeepCustomNormals: data.KeepCustomNormals}
	}
	return nil
}
