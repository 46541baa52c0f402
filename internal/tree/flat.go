package tree

import "github.com/johnwards/rdstree/internal/designation"

// MaxNestedDepth is the deepest level a nested forest is rendered to. Deeper
// nodes are only reachable through the flat form.
const MaxNestedDepth = 64

// FlatNode is a forest node without its children. ParentCode is the code the
// node was attached under, empty for roots, so the forest can be rebuilt
// from the list without recursion.
type FlatNode struct {
	RecordID   int64              `json:"recordId,omitempty"`
	ID         int64              `json:"id"`
	Code       string             `json:"code"`
	ParentCode string             `json:"parentCode,omitempty"`
	Name       string             `json:"name"`
	ObjectType string             `json:"objectType"`
	Aspect     designation.Aspect `json:"aspect"`
	Level      int                `json:"level"`
	Depth      int                `json:"depth"`
}

// Flatten lists the forest in pre-order.
func Flatten(roots []*Node) []FlatNode {
	type item struct {
		node   *Node
		parent string
		depth  int
	}

	out := []FlatNode{}
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], "", 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := it.node
		out = append(out, FlatNode{
			RecordID:   n.RecordID,
			ID:         n.ID,
			Code:       n.Code,
			ParentCode: it.parent,
			Name:       n.Name,
			ObjectType: n.ObjectType,
			Aspect:     n.Aspect,
			Level:      n.Level,
			Depth:      it.depth,
		})
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{n.Children[i], n.Code, it.depth + 1})
		}
	}
	return out
}

// Depth returns the depth of the deepest node, with roots at 0, or -1 for an
// empty forest.
func Depth(roots []*Node) int {
	deepest := -1
	_ = Walk(roots, func(_ *Node, depth int) error {
		deepest = max(deepest, depth)
		return nil
	})
	return deepest
}

// Nested caps depth at MaxNestedDepth, treating a negative depth as
// unlimited, and filters the forest to it. The second result reports whether
// nodes below the cap were cut.
func Nested(roots []*Node, aspect designation.Aspect, depth int) ([]*Node, bool) {
	if depth < 0 || depth > MaxNestedDepth {
		filtered := Filter(roots, aspect, -1)
		if Depth(filtered) <= MaxNestedDepth {
			return filtered, false
		}
		return Filter(filtered, "", MaxNestedDepth), true
	}
	return Filter(roots, aspect, depth), false
}
