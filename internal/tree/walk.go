package tree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/johnwards/rdstree/internal/designation"
)

// ErrSkipChildren may be returned by a WalkFunc to skip the children of the
// current node.
var ErrSkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk. Depth is 0 for roots.
type WalkFunc func(n *Node, depth int) error

type frame struct {
	node  *Node
	depth int
}

// Walk visits the forest in pre-order using an explicit stack, so deep
// hierarchies do not grow the call stack.
func Walk(roots []*Node, fn WalkFunc) error {
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(f.node, f.depth); err != nil {
			if errors.Is(err, ErrSkipChildren) {
				continue
			}
			return err
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
	return nil
}

// Prune returns a copy of the forest holding only the nodes keep accepts. A
// rejected node is dropped together with its subtree. The input is not
// modified.
func Prune(roots []*Node, keep func(n *Node, depth int) bool) []*Node {
	type pair struct {
		src, dst *Node
		depth    int
	}

	out := make([]*Node, 0, len(roots))
	var stack []pair
	for _, r := range roots {
		if !keep(r, 0) {
			continue
		}
		c := r.shallowCopy()
		out = append(out, c)
		stack = append(stack, pair{r, c, 0})
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range p.src.Children {
			if !keep(child, p.depth+1) {
				continue
			}
			c := child.shallowCopy()
			p.dst.Children = append(p.dst.Children, c)
			stack = append(stack, pair{child, c, p.depth + 1})
		}
	}
	return out
}

// ByAspect keeps nodes of the given aspect.
func ByAspect(a designation.Aspect) func(*Node, int) bool {
	return func(n *Node, _ int) bool { return n.Aspect == a }
}

// MaxDepth keeps nodes no deeper than d (roots are depth 0).
func MaxDepth(d int) func(*Node, int) bool {
	return func(_ *Node, depth int) bool { return depth <= d }
}

// All combines predicates; a node is kept only if every predicate keeps it.
func All(preds ...func(*Node, int) bool) func(*Node, int) bool {
	return func(n *Node, depth int) bool {
		for _, p := range preds {
			if !p(n, depth) {
				return false
			}
		}
		return true
	}
}

// Print writes an indented rendering of the forest to w.
func Print(w io.Writer, roots []*Node) error {
	return Walk(roots, func(n *Node, depth int) error {
		name := n.Name
		if name == "" {
			name = "(unnamed)"
		}
		_, err := fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", depth), name, n.Code)
		return err
	})
}

// Filter narrows the forest to one aspect and a maximum depth. An empty
// aspect keeps all aspects and a negative depth keeps all levels. The input
// is returned as is when nothing is filtered.
func Filter(roots []*Node, aspect designation.Aspect, depth int) []*Node {
	var preds []func(*Node, int) bool
	if aspect != "" {
		preds = append(preds, ByAspect(aspect))
	}
	if depth >= 0 {
		preds = append(preds, MaxDepth(depth))
	}
	if len(preds) == 0 {
		return roots
	}
	return Prune(roots, All(preds...))
}
