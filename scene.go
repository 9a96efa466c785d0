package kitbash

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ObjectId is an opaque scene object handle. 0 is never assigned.
type ObjectId uint64

type ObjectType int

const (
	ObjectMesh ObjectType = iota
	ObjectEmpty
	ObjectArmature
	ObjectOther
)

func (t ObjectType) String() string {
	switch t {
	case ObjectMesh:
		return "MESH"
	case ObjectEmpty:
		return "EMPTY"
	case ObjectArmature:
		return "ARMATURE"
	default:
		return "OTHER"
	}
}

// Joint is a named transform node inside an armature object, expressed in
// armature space.
type Joint struct {
	Name   string
	Matrix mgl32.Mat4
}

// Object is a scene graph node. Child handles are derived from parent
// references via Scene.Children, never stored on the object.
type Object struct {
	Id   ObjectId
	Name string
	Type ObjectType

	parent ObjectId   // 0 = no parent
	local  mgl32.Mat4 // transform relative to the parent (or world for roots)

	// ParentJoint names a joint on an armature parent; the object then
	// inherits parentWorld * jointMatrix instead of parentWorld.
	ParentJoint string

	Mesh             AssetId // geometry block handle, mesh objects only
	Modifiers        []Modifier
	EmptyDisplaySize float32
	Joints           []Joint

	Visible bool
}

func (o *Object) Parent() ObjectId { return o.parent }

// JointByName returns the named joint or nil.
func (o *Object) JointByName(name string) *Joint {
	for i := range o.Joints {
		if o.Joints[i].Name == name {
			return &o.Joints[i]
		}
	}
	return nil
}

// SelectMode is the mesh-edit element mode.
type SelectMode int

const (
	SelectVerts SelectMode = iota
	SelectEdges
	SelectFaces
)

// EditMeshSelection is the host's mesh-edit selection: element indices into
// the edited object's geometry block, with the last entry as the active
// element (select history).
type EditMeshSelection struct {
	Object ObjectId
	Mode   SelectMode
	Verts  []int
	Edges  [][2]int
	Faces  [][]int
}

// Scene owns all objects, the selection model and the edit-mode state. It is
// the host's scene graph; operators mutate it through Commands.
type Scene struct {
	nextId  ObjectId
	objects map[ObjectId]*Object
	order   []ObjectId

	selected      []ObjectId
	active        ObjectId
	activeJoint   string
	editSelection *EditMeshSelection
}

func NewScene() *Scene {
	return &Scene{
		nextId:  1,
		objects: make(map[ObjectId]*Object),
	}
}

// AddObject creates a visible root object with an identity transform.
func (s *Scene) AddObject(name string, typ ObjectType) *Object {
	obj := &Object{
		Id:               s.nextId,
		Name:             name,
		Type:             typ,
		local:            mgl32.Ident4(),
		EmptyDisplaySize: 1,
		Visible:          true,
	}
	s.nextId++
	s.objects[obj.Id] = obj
	s.order = append(s.order, obj.Id)
	return obj
}

// Object returns the object for id, or nil.
func (s *Scene) Object(id ObjectId) *Object {
	return s.objects[id]
}

// Objects returns all objects in creation order.
func (s *Scene) Objects() []*Object {
	out := make([]*Object, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id])
	}
	return out
}

// VisibleObjects returns all visible objects in creation order.
func (s *Scene) VisibleObjects() []*Object {
	var out []*Object
	for _, id := range s.order {
		if obj := s.objects[id]; obj.Visible {
			out = append(out, obj)
		}
	}
	return out
}

// Children derives the child handles of id in creation order.
func (s *Scene) Children(id ObjectId) []ObjectId {
	var out []ObjectId
	for _, cid := range s.order {
		if s.objects[cid].parent == id {
			out = append(out, cid)
		}
	}
	return out
}

// Roots returns all parentless objects in creation order.
func (s *Scene) Roots() []ObjectId {
	var out []ObjectId
	for _, id := range s.order {
		if s.objects[id].parent == 0 {
			out = append(out, id)
		}
	}
	return out
}

// SetParent reparents child under parent (0 clears the parent). Cycles are
// rejected. With keepWorld the child's world transform is preserved by
// rewriting its local matrix.
func (s *Scene) SetParent(child, parent ObjectId, keepWorld bool) error {
	obj := s.objects[child]
	if obj == nil {
		return fmt.Errorf("no such object %d", child)
	}
	if parent != 0 {
		if s.objects[parent] == nil {
			return fmt.Errorf("no such parent %d", parent)
		}
		for anc := parent; anc != 0; anc = s.objects[anc].parent {
			if anc == child {
				return fmt.Errorf("parenting %d under %d would create a cycle", child, parent)
			}
		}
	}

	if keepWorld {
		world := s.WorldMatrix(child)
		obj.parent = parent
		obj.ParentJoint = ""
		s.SetWorldMatrix(child, world)
	} else {
		obj.parent = parent
		obj.ParentJoint = ""
	}
	return nil
}

// SetParentJoint parents child to a named joint of an armature object. The
// child's local matrix is left untouched; callers set the world transform
// explicitly afterwards.
func (s *Scene) SetParentJoint(child, armature ObjectId, joint string) error {
	arm := s.objects[armature]
	if arm == nil || arm.Type != ObjectArmature {
		return fmt.Errorf("object %d is not an armature", armature)
	}
	if arm.JointByName(joint) == nil {
		return fmt.Errorf("armature %q has no joint %q", arm.Name, joint)
	}
	if err := s.SetParent(child, armature, false); err != nil {
		return err
	}
	s.objects[child].ParentJoint = joint
	return nil
}

// parentWorldMatrix is the frame the object's local matrix is relative to.
func (s *Scene) parentWorldMatrix(obj *Object) mgl32.Mat4 {
	if obj.parent == 0 {
		return mgl32.Ident4()
	}
	parent := s.objects[obj.parent]
	if parent == nil {
		return mgl32.Ident4()
	}
	m := s.WorldMatrix(obj.parent)
	if obj.ParentJoint != "" {
		if j := parent.JointByName(obj.ParentJoint); j != nil {
			m = m.Mul4(j.Matrix)
		}
	}
	return m
}

// WorldMatrix composes the full parent chain into the object's world
// transform.
func (s *Scene) WorldMatrix(id ObjectId) mgl32.Mat4 {
	obj := s.objects[id]
	if obj == nil {
		return mgl32.Ident4()
	}
	return s.parentWorldMatrix(obj).Mul4(obj.local)
}

// SetWorldMatrix rewrites the object's local matrix so its world transform
// becomes world, without touching the parent chain.
func (s *Scene) SetWorldMatrix(id ObjectId, world mgl32.Mat4) {
	obj := s.objects[id]
	if obj == nil {
		return
	}
	obj.local = s.parentWorldMatrix(obj).Inv().Mul4(world)
}

// LocalMatrix returns the object's parent-relative transform.
func (s *Scene) LocalMatrix(id ObjectId) mgl32.Mat4 {
	if obj := s.objects[id]; obj != nil {
		return obj.local
	}
	return mgl32.Ident4()
}

func (s *Scene) SetLocalMatrix(id ObjectId, local mgl32.Mat4) {
	if obj := s.objects[id]; obj != nil {
		obj.local = local
	}
}

// Select adds ids to the ordered selection, skipping duplicates and unknown
// handles.
func (s *Scene) Select(ids ...ObjectId) {
	for _, id := range ids {
		if s.objects[id] == nil || s.IsSelected(id) {
			continue
		}
		s.selected = append(s.selected, id)
	}
}

func (s *Scene) Deselect(id ObjectId) {
	for i, sid := range s.selected {
		if sid == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
}

func (s *Scene) ClearSelection() {
	s.selected = nil
	s.active = 0
	s.activeJoint = ""
}

func (s *Scene) IsSelected(id ObjectId) bool {
	for _, sid := range s.selected {
		if sid == id {
			return true
		}
	}
	return false
}

// Selected returns a copy of the ordered selection.
func (s *Scene) Selected() []ObjectId {
	out := make([]ObjectId, len(s.selected))
	copy(out, s.selected)
	return out
}

func (s *Scene) SetActive(id ObjectId) {
	s.active = id
	s.activeJoint = ""
}

func (s *Scene) Active() ObjectId { return s.active }

// SetActiveJoint marks a joint on the active armature as the alignment
// target. Ignored when the active object is not an armature with that joint.
func (s *Scene) SetActiveJoint(name string) {
	obj := s.objects[s.active]
	if name == "" || (obj != nil && obj.Type == ObjectArmature && obj.JointByName(name) != nil) {
		s.activeJoint = name
	}
}

func (s *Scene) ActiveJoint() string { return s.activeJoint }

// EnterEditMode installs a mesh-edit selection; LeaveEditMode clears it.
func (s *Scene) EnterEditMode(sel *EditMeshSelection) {
	s.editSelection = sel
}

func (s *Scene) LeaveEditMode() {
	s.editSelection = nil
}

func (s *Scene) EditSelection() *EditMeshSelection {
	return s.editSelection
}
