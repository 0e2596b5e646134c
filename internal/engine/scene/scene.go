// Package scene holds the renderable contents of the viewer: the ground,
// the fixed light set and every model that finished loading.
package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/lighting"
	"github.com/Faultbox/modelviewer/internal/engine/model"
)

var (
	// ErrDuplicateIndex is returned when a load index was already inserted.
	ErrDuplicateIndex = errors.New("load index already inserted")
	// ErrLightsAlreadySet is returned by a second AddLights call.
	ErrLightsAlreadySet = errors.New("lights already set")
	// ErrNilModel is returned for a nil model.
	ErrNilModel = errors.New("nil model")
)

// DefaultBackground is the clear colour behind the scene.
var DefaultBackground = lighting.RGB(0x1a1a1a)

// Scene is an append-only collection of renderable nodes. All methods are
// safe for concurrent use; readers see whole insertions only.
type Scene struct {
	mu         sync.RWMutex
	background mgl32.Vec3
	ground     *model.Mesh
	lights     lighting.Set
	hasLights  bool
	models     []*model.Model // sorted by LoadIndex
	indices    map[int]struct{}
	version    uint64
}

// View is a read-only snapshot of the scene taken between mutations.
// Models are shared with the scene and must not be modified.
type View struct {
	Background mgl32.Vec3
	Ground     *model.Mesh
	Lights     lighting.Set
	Models     []*model.Model
	Version    uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		background: DefaultBackground,
		indices:    make(map[int]struct{}),
	}
}

// SetBackground changes the clear colour.
func (s *Scene) SetBackground(c mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
	s.version++
}

// AddGround adds the floor plane. Calling it again has no effect.
func (s *Scene) AddGround() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ground != nil {
		return
	}
	g := model.Ground()
	s.ground = &g
	s.version++
}

// AddLights installs the fixed light set. Lights cannot be replaced.
func (s *Scene) AddLights(set lighting.Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasLights {
		return ErrLightsAlreadySet
	}
	s.lights = set
	s.hasLights = true
	s.version++
	return nil
}

// InsertModel appends m. Each LoadIndex can be inserted once; a repeated
// index returns ErrDuplicateIndex and leaves the scene unchanged.
func (s *Scene) InsertModel(m *model.Model) error {
	if m == nil {
		return ErrNilModel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[m.LoadIndex]; ok {
		return fmt.Errorf("insert %s: index %d: %w", m.SourcePath, m.LoadIndex, ErrDuplicateIndex)
	}

	i := sort.Search(len(s.models), func(i int) bool {
		return s.models[i].LoadIndex > m.LoadIndex
	})
	s.models = append(s.models, nil)
	copy(s.models[i+1:], s.models[i:])
	s.models[i] = m
	s.indices[m.LoadIndex] = struct{}{}
	s.version++
	return nil
}

// Has reports whether a model with the load index was inserted.
func (s *Scene) Has(loadIndex int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[loadIndex]
	return ok
}

// Len returns the number of inserted models.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

// Models returns the inserted models ordered by load index.
func (s *Scene) Models() []*model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Model(nil), s.models...)
}

// Snapshot captures the current contents for one frame.
func (s *Scene) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Background: s.background,
		Ground:     s.ground,
		Lights:     s.lights,
		Models:     append([]*model.Model(nil), s.models...),
		Version:    s.version,
	}
}

// Version increases on every mutation.
func (s *Scene) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Bounds returns the world-space box around the ground and all models.
func (v View) Bounds() model.Bounds {
	b := model.EmptyBounds()
	if v.Ground != nil {
		b = b.Union(model.MeshBounds(*v.Ground))
	}
	for _, m := range v.Models {
		b = b.Union(m.Bounds())
	}
	return b
}

// Walk calls fn for every mesh in draw order (ground first, then models by
// load index) with its world matrix.
func (v View) Walk(fn func(mesh *model.Mesh, world mgl32.Mat4, owner *model.Model)) {
	if v.Ground != nil {
		fn(v.Ground, mgl32.Ident4(), nil)
	}
	for _, m := range v.Models {
		world := m.Matrix()
		for i := range m.Meshes {
			fn(&m.Meshes[i], world, m)
		}
	}
}
