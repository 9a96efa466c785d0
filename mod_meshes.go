package kitbash

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// AssetId identifies a geometry block owned by the MeshServer.
type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// MeshData is an owned geometry block: vertex positions in object-local
// space, plus edge and face index lists for the edit-mode element math.
type MeshData struct {
	Vertices []mgl32.Vec3
	Edges    [][2]int
	Faces    [][]int
}

// Copy returns an independent duplicate of the block.
func (m *MeshData) Copy() *MeshData {
	dup := &MeshData{
		Vertices: make([]mgl32.Vec3, len(m.Vertices)),
		Edges:    make([][2]int, len(m.Edges)),
		Faces:    make([][]int, len(m.Faces)),
	}
	copy(dup.Vertices, m.Vertices)
	copy(dup.Edges, m.Edges)
	for i, f := range m.Faces {
		dup.Faces[i] = append([]int(nil), f...)
	}
	return dup
}

// Transform bakes mx into the vertex positions in place. Edge and face
// topology is untouched.
func (m *MeshData) Transform(mx mgl32.Mat4) {
	for i, v := range m.Vertices {
		m.Vertices[i] = TransformPoint(mx, v)
	}
}

// FaceNormal returns the (local space) normal of face fi, or +Z for
// degenerate faces.
func (m *MeshData) FaceNormal(fi int) mgl32.Vec3 {
	if fi < 0 || fi >= len(m.Faces) || len(m.Faces[fi]) < 3 {
		return mgl32.Vec3{0, 0, 1}
	}
	f := m.Faces[fi]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-8 {
		return mgl32.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// FaceCenter returns the median center of face fi.
func (m *MeshData) FaceCenter(fi int) mgl32.Vec3 {
	if fi < 0 || fi >= len(m.Faces) || len(m.Faces[fi]) == 0 {
		return mgl32.Vec3{}
	}
	locs := make([]mgl32.Vec3, 0, len(m.Faces[fi]))
	for _, vi := range m.Faces[fi] {
		locs = append(locs, m.Vertices[vi])
	}
	return AverageLocations(locs)
}

// VertexNormal averages the normals of all faces using vertex vi, falling
// back to +Z for loose vertices.
func (m *MeshData) VertexNormal(vi int) mgl32.Vec3 {
	var sum mgl32.Vec3
	found := false
	for fi, f := range m.Faces {
		for _, idx := range f {
			if idx == vi {
				sum = sum.Add(m.FaceNormal(fi))
				found = true
				break
			}
		}
	}
	if !found || sum.Len() < 1e-8 {
		return mgl32.Vec3{0, 0, 1}
	}
	return sum.Normalize()
}

// MeshServer owns all geometry blocks in the document, keyed by AssetId.
// Objects reference blocks by handle; several objects may share one block
// (instancing).
type MeshServer struct {
	meshes map[AssetId]*MeshData
}

func NewMeshServer() *MeshServer {
	return &MeshServer{meshes: make(map[AssetId]*MeshData)}
}

// Create registers data and returns its handle.
func (s *MeshServer) Create(data *MeshData) AssetId {
	id := makeAssetId()
	s.meshes[id] = data
	return id
}

// Get returns the block for id, or nil.
func (s *MeshServer) Get(id AssetId) *MeshData {
	return s.meshes[id]
}

// Duplicate registers an independent copy of id's block and returns the new
// handle; the empty AssetId is returned when id is unknown.
func (s *MeshServer) Duplicate(id AssetId) AssetId {
	data := s.meshes[id]
	if data == nil {
		return ""
	}
	return s.Create(data.Copy())
}

// Remove frees a single block.
func (s *MeshServer) Remove(id AssetId) {
	delete(s.meshes, id)
}

// BatchRemove frees all listed blocks at once; restore walks collect their
// duplicated meshes and release them together at the end.
func (s *MeshServer) BatchRemove(ids []AssetId) {
	for _, id := range ids {
		delete(s.meshes, id)
	}
}

// Len reports the number of live blocks.
func (s *MeshServer) Len() int {
	return len(s.meshes)
}

type MeshServerModule struct{}

func (MeshServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewMeshServer())
}
