package game_object

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
)

// ErrInvalidParent is returned by AddChild when the attachment would create a cycle
// or the child was not created by this package.
var ErrInvalidParent = errors.New("game_object: invalid parent")

type gameObject struct {
	id      uint64
	name    string
	enabled atomic.Bool

	position [3]float32
	rotation [3]float32 // Euler angles in radians, Y * X * Z order
	scale    [3]float32

	mesh  model.Mesh
	color [4]float32

	parent   *gameObject
	children []GameObject
}

// GameObject is a named node of the scene hierarchy with a local transform.
//
// The local transform is translation, Euler rotation (Y * X * Z order, matching
// common.BuildModelMatrix) and scale, all relative to the parent. A GameObject satisfies
// gaze.TrackedNode. It is not safe for concurrent mutation; objects built on a loader
// goroutine must be handed to the render loop before they are modified.
type GameObject interface {
	// ID returns the object's numeric identifier.
	//
	// Returns:
	//   - uint64: the identifier
	ID() uint64

	// Name returns the object's name. Names are not required to be unique.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Enabled reports whether the object takes part in ticking and rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Position returns the translation relative to the parent.
	//
	// Returns:
	//   - x, y, z: local translation
	Position() (x, y, z float32)

	// Rotation returns the Euler rotation relative to the parent.
	//
	// Returns:
	//   - rx, ry, rz: rotation angles in radians
	Rotation() (rx, ry, rz float32)

	// Scale returns the scale relative to the parent.
	//
	// Returns:
	//   - sx, sy, sz: scale factors
	Scale() (sx, sy, sz float32)

	// Mesh returns the mesh drawn at this object's world transform, or nil if the object is
	// not drawn.
	//
	// Returns:
	//   - model.Mesh: the mesh or nil
	Mesh() model.Mesh

	// Color returns the linear RGBA base colour the mesh is drawn with.
	//
	// Returns:
	//   - [4]float32: the colour, white by default
	Color() [4]float32

	// Parent returns the parent object, or nil for a root.
	//
	// Returns:
	//   - GameObject: the parent or nil
	Parent() GameObject

	// Children returns a copy of the object's direct children in insertion order.
	//
	// Returns:
	//   - []GameObject: the children
	Children() []GameObject

	// LocalMatrix returns the transform from this object's space into its parent's space.
	//
	// Returns:
	//   - [16]float32: column-major local matrix
	LocalMatrix() [16]float32

	// WorldMatrix returns the transform from this object's space into world space.
	//
	// Returns:
	//   - [16]float32: column-major world matrix
	WorldMatrix() [16]float32

	// ParentMatrix returns the parent's world matrix, or the identity for a root.
	//
	// Returns:
	//   - [16]float32: column-major parent world matrix
	ParentMatrix() [16]float32

	// Find returns the first object named name in this subtree, searching depth-first
	// with the object itself first.
	//
	// Parameters:
	//   - name: the name to look for
	//
	// Returns:
	//   - GameObject: the match, or nil if none exists
	Find(name string) GameObject

	// Walk visits this object and its descendants depth-first in pre-order.
	// Returning false from fn skips the children of the visited object.
	//
	// Parameters:
	//   - fn: the visitor
	Walk(fn func(GameObject) bool)

	// AddChild attaches child below this object, detaching it from its previous parent.
	//
	// Parameters:
	//   - child: the object to attach
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidParent if child is this object or one of its ancestors
	AddChild(child GameObject) error

	// RemoveChild detaches child from this object. It is a no-op if child is not a direct child.
	//
	// Parameters:
	//   - child: the object to detach
	RemoveChild(child GameObject)

	SetID(id uint64)
	SetName(name string)
	SetEnabled(enabled bool)

	// SetPosition sets the translation relative to the parent.
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation relative to the parent.
	SetRotation(rx, ry, rz float32)

	// SetScale sets the scale relative to the parent.
	SetScale(sx, sy, sz float32)

	// SetMesh sets the mesh to draw. Pass nil to stop drawing the object.
	SetMesh(m model.Mesh)

	SetColor(c [4]float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject with unit scale, configured with the given options.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: [3]float32{1, 1, 1},
		color: [4]float32{1, 1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Position() (x, y, z float32) {
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) Mesh() model.Mesh {
	return g.mesh
}

func (g *gameObject) Color() [4]float32 {
	return g.color
}

func (g *gameObject) Parent() GameObject {
	if g.parent == nil {
		return nil
	}
	return g.parent
}

func (g *gameObject) Children() []GameObject {
	out := make([]GameObject, len(g.children))
	copy(out, g.children)
	return out
}

func (g *gameObject) LocalMatrix() [16]float32 {
	var m [16]float32
	common.BuildModelMatrix(m[:],
		g.position[0], g.position[1], g.position[2],
		g.rotation[0], g.rotation[1], g.rotation[2],
		g.scale[0], g.scale[1], g.scale[2],
	)
	return m
}

func (g *gameObject) WorldMatrix() [16]float32 {
	local := g.LocalMatrix()
	if g.parent == nil {
		return local
	}
	parent := g.parent.WorldMatrix()
	var world [16]float32
	common.Mul4(world[:], parent[:], local[:])
	return world
}

func (g *gameObject) ParentMatrix() [16]float32 {
	if g.parent == nil {
		return common.IdentityMatrix()
	}
	return g.parent.WorldMatrix()
}

func (g *gameObject) Find(name string) GameObject {
	var found GameObject
	g.Walk(func(obj GameObject) bool {
		if found != nil {
			return false
		}
		if obj.Name() == name {
			found = obj
			return false
		}
		return true
	})
	return found
}

func (g *gameObject) Walk(fn func(GameObject) bool) {
	if !fn(g) {
		return
	}
	for _, child := range g.children {
		child.Walk(fn)
	}
}

func (g *gameObject) AddChild(child GameObject) error {
	c, ok := child.(*gameObject)
	if !ok || c == nil {
		return fmt.Errorf("%w: unsupported child %T", ErrInvalidParent, child)
	}
	for p := g; p != nil; p = p.parent {
		if p == c {
			return fmt.Errorf("%w: attaching %q below %q would create a cycle", ErrInvalidParent, c.name, g.name)
		}
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = g
	g.children = append(g.children, c)
	return nil
}

func (g *gameObject) RemoveChild(child GameObject) {
	for i, existing := range g.children {
		if existing == child {
			g.children = append(g.children[:i], g.children[i+1:]...)
			if c, ok := child.(*gameObject); ok {
				c.parent = nil
			}
			return
		}
	}
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetName(name string) {
	g.name = name
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.position = [3]float32{x, y, z}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.rotation = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.scale = [3]float32{sx, sy, sz}
}

func (g *gameObject) SetMesh(m model.Mesh) {
	g.mesh = m
}

func (g *gameObject) SetColor(c [4]float32) {
	g.color = c
}
