package game_object

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/gaze"
	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
)

var _ gaze.TrackedNode = NewGameObject()

func nearV3(a, b [3]float32, tol float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > float64(tol) {
			return false
		}
	}
	return true
}

func buildFace(t *testing.T) (head, leftEye, rightEye GameObject) {
	t.Helper()
	head = NewGameObject(WithName("Head"), WithPosition(0, 1, 0), WithRotation(0, float32(math.Pi/2), 0))
	leftEye = NewGameObject(WithName("LeftEye"), WithPosition(-0.3, 0.2, 0.5))
	rightEye = NewGameObject(WithName("RightEye"), WithPosition(0.3, 0.2, 0.5))
	for _, eye := range []GameObject{leftEye, rightEye} {
		if err := head.AddChild(eye); err != nil {
			t.Fatalf("AddChild: %v", err)
		}
	}
	return
}

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()

	if !obj.Enabled() {
		t.Error("Enabled\nhave false\nwant true")
	}
	if sx, sy, sz := obj.Scale(); sx != 1 || sy != 1 || sz != 1 {
		t.Errorf("Scale\nhave (%v, %v, %v)\nwant (1, 1, 1)", sx, sy, sz)
	}
	if obj.Parent() != nil {
		t.Error("Parent of a new object is not nil")
	}
	if m := obj.WorldMatrix(); m != common.IdentityMatrix() {
		t.Errorf("WorldMatrix\nhave %v\nwant identity", m)
	}
}

func TestMeshAndColor(t *testing.T) {
	obj := NewGameObject()
	if obj.Mesh() != nil {
		t.Errorf("Mesh\nhave %v\nwant nil", obj.Mesh())
	}
	if obj.Color() != [4]float32{1, 1, 1, 1} {
		t.Errorf("Color\nhave %v\nwant white", obj.Color())
	}

	box := model.NewBox("box")
	obj = NewGameObject(WithMesh(box), WithColor([4]float32{1, 0, 0, 1}))
	if obj.Mesh() != box || obj.Color() != [4]float32{1, 0, 0, 1} {
		t.Errorf("built object\nhave mesh %v colour %v\nwant box, red", obj.Mesh(), obj.Color())
	}

	obj.SetMesh(nil)
	obj.SetColor([4]float32{0, 0, 1, 0.5})
	if obj.Mesh() != nil || obj.Color() != [4]float32{0, 0, 1, 0.5} {
		t.Errorf("after setters\nhave mesh %v colour %v\nwant nil, blue", obj.Mesh(), obj.Color())
	}
}

func TestWorldMatrixComposesParent(t *testing.T) {
	head, leftEye, _ := buildFace(t)

	world := leftEye.WorldMatrix()
	// Head yaws +90 degrees: local +Z maps to world +X, local +X to world -Z.
	want := [3]float32{0.5, 1.2, 0.3}
	have := [3]float32{world[12], world[13], world[14]}
	if !nearV3(have, want, 1e-5) {
		t.Errorf("LeftEye world position\nhave %v\nwant %v", have, want)
	}
	if leftEye.ParentMatrix() != head.WorldMatrix() {
		t.Error("ParentMatrix does not match the parent's WorldMatrix")
	}
	if head.ParentMatrix() != common.IdentityMatrix() {
		t.Error("root ParentMatrix is not the identity")
	}
}

func TestFindAndWalk(t *testing.T) {
	head, _, rightEye := buildFace(t)
	root := NewGameObject(WithName("Root"))
	if err := root.AddChild(head); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	if have := root.Find("RightEye"); have != rightEye {
		t.Errorf("Find(RightEye)\nhave %v\nwant %v", have, rightEye)
	}
	if have := root.Find("Nose"); have != nil {
		t.Errorf("Find(Nose)\nhave %v\nwant nil", have)
	}

	var names []string
	root.Walk(func(obj GameObject) bool {
		names = append(names, obj.Name())
		return obj.Name() != "Head"
	})
	if len(names) != 2 || names[0] != "Root" || names[1] != "Head" {
		t.Errorf("Walk with pruning\nhave %v\nwant [Root Head]", names)
	}
}

func TestAddChildRejectsCycles(t *testing.T) {
	head, leftEye, _ := buildFace(t)

	if err := leftEye.AddChild(head); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("AddChild(ancestor)\nhave %v\nwant %v", err, ErrInvalidParent)
	}
	if err := head.AddChild(head); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("AddChild(self)\nhave %v\nwant %v", err, ErrInvalidParent)
	}
}

func TestAddChildReparents(t *testing.T) {
	head, leftEye, _ := buildFace(t)
	other := NewGameObject(WithName("Other"))

	if err := other.AddChild(leftEye); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if leftEye.Parent() != other {
		t.Errorf("Parent\nhave %v\nwant %v", leftEye.Parent(), other)
	}
	if n := len(head.Children()); n != 1 {
		t.Errorf("old parent children\nhave %d\nwant 1", n)
	}

	other.RemoveChild(leftEye)
	if leftEye.Parent() != nil {
		t.Error("Parent after RemoveChild is not nil")
	}
}

func TestGazeOrientsChildInParentSpace(t *testing.T) {
	_, leftEye, _ := buildFace(t)

	var view, proj [16]float32
	common.LookAt(view[:], 5, 1.2, 0.3, 0, 1.2, 0.3, 0, 1, 0)
	common.Perspective(proj[:], float32(60*math.Pi/180), 1, 0.1, 100)
	cam := &fixedCamera{pos: [3]float32{5, 1.2, 0.3}}
	common.Mul4(cam.vp[:], proj[:], view[:])

	// A plane through the eye facing the camera: the hit point is straight ahead.
	plane := common.NewPlane([3]float32{1, 0, 0}, [3]float32{4, 0, 0})
	tr, err := gaze.NewTracker(plane, 1, gaze.WithForwardAxis(gaze.ForwardPosZ))
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	for _, cmd := range tr.Tick(cam, []gaze.TrackedNode{leftEye}) {
		cmd.Apply()
	}

	// The target lies at world +X of the eye, which is local +Z of the yawed head.
	world := leftEye.WorldMatrix()
	fwd := common.Normalize3([3]float32{world[8], world[9], world[10]})
	if !nearV3(fwd, [3]float32{1, 0, 0}, 1e-3) {
		t.Errorf("eye forward\nhave %v\nwant (1, 0, 0)", fwd)
	}
	if _, _, rz := leftEye.Rotation(); rz != 0 {
		t.Errorf("roll\nhave %v\nwant 0", rz)
	}
}

type fixedCamera struct {
	pos [3]float32
	vp  [16]float32
}

func (c *fixedCamera) Position() (x, y, z float32)       { return c.pos[0], c.pos[1], c.pos[2] }
func (c *fixedCamera) ViewProjectionMatrix() [16]float32 { return c.vp }
