package kitbash

type ModifierType string

const (
	ModifierMirror      ModifierType = "MIRROR"
	ModifierBevel       ModifierType = "BEVEL"
	ModifierTriangulate ModifierType = "TRIANGULATE"
)

// Modifier is one entry of an object's ordered modifier stack. Stack order is
// significant and preserved across all operator mutations.
type Modifier interface {
	ModType() ModifierType
	ModName() string
}

// MirrorModifier mirrors geometry across the enabled axes, optionally
// bisecting (and flipping) along them.
type MirrorModifier struct {
	Name              string
	UseAxis           [3]bool
	UseBisectAxis     [3]bool
	UseBisectFlipAxis [3]bool
	ShowViewport      bool
}

func (m *MirrorModifier) ModType() ModifierType { return ModifierMirror }
func (m *MirrorModifier) ModName() string       { return m.Name }

// SwapYZ exchanges the Y and Z entries of all three axis-flag triples,
// compensating the export axis correction. The swap is its own inverse.
func (m *MirrorModifier) SwapYZ() {
	m.UseAxis[1], m.UseAxis[2] = m.UseAxis[2], m.UseAxis[1]
	m.UseBisectAxis[1], m.UseBisectAxis[2] = m.UseBisectAxis[2], m.UseBisectAxis[1]
	m.UseBisectFlipAxis[1], m.UseBisectFlipAxis[2] = m.UseBisectFlipAxis[2], m.UseBisectFlipAxis[1]
}

// BevelModifier rounds edges with an absolute width in scene units.
type BevelModifier struct {
	Name         string
	Width        float32
	ShowViewport bool
}

func (m *BevelModifier) ModType() ModifierType { return ModifierBevel }
func (m *BevelModifier) ModName() string       { return m.Name }

// TriangulateModifier splits faces into triangles for export.
type TriangulateModifier struct {
	Name              string
	KeepCustomNormals bool
	ShowExpanded      bool
}

func (m *TriangulateModifier) ModType() ModifierType { return ModifierTriangulate }
func (m *TriangulateModifier) ModName() string       { return m.Name }
