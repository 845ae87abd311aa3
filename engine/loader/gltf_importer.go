package loader

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
)

// Errors returned while rebuilding the node hierarchy
var (
	ErrNodeIndexOutOfRange  = errors.New("node index out of range")
	ErrSceneIndexOutOfRange = errors.New("scene index out of range")
	ErrNodeCycle            = errors.New("node hierarchy is not a tree")
	ErrUnknownShape         = errors.New("unknown primitive shape")
)

// gltfImporterImpl is the implementation of gltfImporter.
type gltfImporterImpl struct {
	scene *int
}

// gltfImporter turns a parsed glTF document into a game object hierarchy.
type gltfImporter interface {
	// Import parses the file at path and builds its node hierarchy.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - *Hierarchy: the imported hierarchy
	//   - error: error if parsing or building fails
	Import(path string) (*Hierarchy, error)

	// ImportReader parses glTF or GLB data from r and builds its node hierarchy.
	//
	// Parameters:
	//   - r: the reader providing the data
	//   - isGLB: true if r provides GLB binary data
	//
	// Returns:
	//   - *Hierarchy: the imported hierarchy
	//   - error: error if parsing or building fails
	ImportReader(r io.Reader, isGLB bool) (*Hierarchy, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates an importer. A nil scene selects the document's default scene.
func newGLTFImporter(scene *int) gltfImporter {
	return &gltfImporterImpl{scene: scene}
}

func (imp *gltfImporterImpl) Import(path string) (*Hierarchy, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	h, err := imp.build(parser.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	if h.Name == "" {
		h.Name = path
	}
	return h, nil
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool) (*Hierarchy, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.build(parser.Document())
}

// build creates one game object per node reachable from the selected scene's roots.
func (imp *gltfImporterImpl) build(doc *gltfDocument) (*Hierarchy, error) {
	if doc == nil {
		return nil, errors.New("no document after parsing")
	}

	roots, name, err := imp.sceneRoots(doc)
	if err != nil {
		return nil, err
	}

	h := &Hierarchy{Name: name}
	objects := make(map[int]game_object.GameObject, len(doc.Nodes))
	for _, idx := range roots {
		obj, err := buildNode(doc, idx, objects)
		if err != nil {
			return nil, err
		}
		h.Roots = append(h.Roots, obj)
	}
	h.NodeCount = len(objects)
	return h, nil
}

// sceneRoots returns the root node indices and the name of the scene to import.
// Without scenes every node that is nobody's child is a root.
func (imp *gltfImporterImpl) sceneRoots(doc *gltfDocument) ([]int, string, error) {
	sceneIdx := -1
	switch {
	case imp.scene != nil:
		sceneIdx = *imp.scene
	case doc.Scene != nil:
		sceneIdx = *doc.Scene
	case len(doc.Scenes) > 0:
		sceneIdx = 0
	}

	if sceneIdx >= 0 {
		if sceneIdx >= len(doc.Scenes) {
			return nil, "", fmt.Errorf("%w: scene %d of %d", ErrSceneIndexOutOfRange, sceneIdx, len(doc.Scenes))
		}
		scene := doc.Scenes[sceneIdx]
		return scene.Nodes, scene.Name, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 && len(doc.Nodes) > 0 {
		return nil, "", fmt.Errorf("%w: every node has a parent", ErrNodeCycle)
	}
	return roots, "", nil
}

// buildNode creates the game object for node idx and its subtree.
// Each node may be visited once; a second visit means a cycle or a shared child.
func buildNode(doc *gltfDocument, idx int, objects map[int]game_object.GameObject) (game_object.GameObject, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d of %d", ErrNodeIndexOutOfRange, idx, len(doc.Nodes))
	}
	if _, seen := objects[idx]; seen {
		return nil, fmt.Errorf("%w: node %d is reached twice", ErrNodeCycle, idx)
	}

	n := doc.Nodes[idx]
	pos, rot, scale := nodeTransform(&n)
	opts := []game_object.GameObjectBuilderOption{
		game_object.WithID(uint64(idx)),
		game_object.WithName(n.Name),
		game_object.WithPosition(pos[0], pos[1], pos[2]),
		game_object.WithRotation(rot[0], rot[1], rot[2]),
		game_object.WithScale(scale[0], scale[1], scale[2]),
	}
	if x := n.Extras; x != nil {
		if x.Shape != "" {
			mesh, ok := model.Primitive(x.Shape)
			if !ok {
				return nil, fmt.Errorf("%w: node %d %q has shape %q", ErrUnknownShape, idx, n.Name, x.Shape)
			}
			opts = append(opts, game_object.WithMesh(mesh))
		}
		if x.Color != nil {
			opts = append(opts, game_object.WithColor(*x.Color))
		}
	}
	obj := game_object.NewGameObject(opts...)
	objects[idx] = obj

	for _, c := range n.Children {
		child, err := buildNode(doc, c, objects)
		if err != nil {
			return nil, err
		}
		if err := obj.AddChild(child); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// nodeTransform returns the node's local translation, Euler rotation and scale.
// A matrix takes precedence over TRS properties.
func nodeTransform(n *gltfNode) (pos, rot, scale [3]float32) {
	if n.Matrix != nil {
		return decomposeMatrix(n.Matrix[:])
	}

	scale = [3]float32{1, 1, 1}
	if n.Translation != nil {
		pos = *n.Translation
	}
	if n.Rotation != nil {
		rot[0], rot[1], rot[2] = common.QuatToEuler(*n.Rotation)
	}
	if n.Scale != nil {
		scale = *n.Scale
	}
	return
}

// decomposeMatrix splits an affine column-major matrix into translation, Euler rotation and scale.
// Shear is discarded. A mirrored basis is expressed as a negative X scale.
func decomposeMatrix(m []float32) (pos, rot, scale [3]float32) {
	pos = [3]float32{m[12], m[13], m[14]}

	for c := range 3 {
		col := [3]float32{m[c*4], m[c*4+1], m[c*4+2]}
		scale[c] = common.Length3(col)
	}
	if common.Det3(m) < 0 {
		scale[0] = -scale[0]
	}

	var r [16]float32
	for c := range 3 {
		s := scale[c]
		if s == 0 || math.IsNaN(float64(s)) {
			continue
		}
		r[c*4] = m[c*4] / s
		r[c*4+1] = m[c*4+1] / s
		r[c*4+2] = m[c*4+2] / s
	}
	r[15] = 1
	rot[0], rot[1], rot[2] = common.RotationToEuler(r[:])
	return
}
