package pack

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewOctreeLinks(t *testing.T) {
	valid, err := Build(gradientSamples(4))
	test.That(t, err, test.ShouldBeNil)

	tree, err := NewOctree(valid, mgl32.Vec3{}, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Len(), test.ShouldEqual, 73)

	for name, corrupt := range map[string]func([]Node){
		"root without children": func(n []Node) { n[0].FirstChild = NoChildren },
		"root links to itself":  func(n []Node) { n[0].FirstChild = 0 },
		"unaligned child block": func(n []Node) { n[1].FirstChild++ },
		"link past next level":  func(n []Node) { n[8].FirstChild = uint32(TotalNodes(2)) },
		"shared child block":    func(n []Node) { n[2].FirstChild = n[1].FirstChild },
		"leaf with children":    func(n []Node) { n[72].FirstChild = 9 },
	} {
		t.Run(name, func(t *testing.T) {
			nodes := append([]Node(nil), valid...)
			corrupt(nodes)

			tree, err := NewOctree(nodes, mgl32.Vec3{}, 1)
			test.That(t, errors.Is(err, ErrInvalidFile), test.ShouldBeTrue)
			test.That(t, tree, test.ShouldBeNil)
		})
	}

	_, err = NewOctree(valid[:72], mgl32.Vec3{}, 1)
	test.That(t, errors.Is(err, ErrInvalidFile), test.ShouldBeTrue)
}

func TestOctreeEqual(t *testing.T) {
	a := buildTree(t, gradientSamples(4))
	b := buildTree(t, gradientSamples(4))
	test.That(t, a.Equal(b), test.ShouldBeTrue)
	test.That(t, a.Equal(nil), test.ShouldBeFalse)

	other := buildTree(t, gradientSamples(2))
	test.That(t, a.Equal(other), test.ShouldBeFalse)
}
