// Package tree reconstructs the forest of containment relationships implied
// by a flat collection of designated objects.
package tree

import (
	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
)

// Node is a designated object placed in the forest. It owns its children
// exclusively and holds no pointer back to its parent; use Result.Parent for
// upward lookups.
type Node struct {
	domain.Object
	Aspect      designation.Aspect `json:"aspect"`
	Level       int                `json:"level"`
	Designation designation.Code   `json:"-"`
	Children    []*Node            `json:"children"`
}

func newNode(obj *domain.Object) *Node {
	code := designation.ParseLenient(obj.Code)
	return &Node{
		Object:      obj.Clone(),
		Aspect:      code.Aspect,
		Level:       code.Level(),
		Designation: code,
		Children:    []*Node{},
	}
}

// shallowCopy returns n with an empty, independent child slice.
func (n *Node) shallowCopy() *Node {
	c := *n
	c.Children = make([]*Node, 0, len(n.Children))
	return &c
}
