package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
)

// ErrInvalidInput is returned when Build is handed no collection at all.
var ErrInvalidInput = errors.New("invalid input")

// Build constructs the forest for objects. Input order is authoritative for
// duplicate and orphan decisions. Malformed or conflicting records never
// cause an error; they are reported in the Result.
func Build(objects []domain.Object) (*Result, error) {
	return BuildContext(context.Background(), objects)
}

// BuildContext is Build with a cancellation check between the index and link
// passes. A cancelled build returns no partial result.
func BuildContext(ctx context.Context, objects []domain.Object) (*Result, error) {
	if objects == nil {
		return nil, fmt.Errorf("build forest: nil object collection: %w", ErrInvalidInput)
	}

	b := &builder{
		nodes:    make([]*Node, len(objects)),
		byCode:   make(map[string]*Node, len(objects)),
		parentOf: make(map[*Node]*Node, len(objects)),
		resolver: NewResolver(),
		roots:    []*Node{},
	}

	b.index(objects)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build forest: %w", err)
	}
	b.link(objects)

	return b.result(), nil
}

// builder holds the state of a single build. Nothing in it outlives the call.
type builder struct {
	nodes        []*Node
	byCode       map[string]*Node
	parentOf     map[*Node]*Node
	resolver     *Resolver
	roots        []*Node
	unrecognized []string
	seenBad      map[string]bool
}

// index creates a node per object and keys it by raw code. A later object
// with the same code replaces the earlier node as lookup target.
func (b *builder) index(objects []domain.Object) {
	for i := range objects {
		obj := &objects[i]
		n := newNode(obj)
		b.nodes[i] = n

		if !n.Designation.Known() {
			b.noteUnrecognized(obj.Code)
		}

		if prev, ok := b.byCode[obj.Code]; ok {
			b.resolver.Duplicate(obj.Code, &prev.Object, obj)
		}
		b.byCode[obj.Code] = n
	}
}

// link attaches every surviving node to its declared parent. Nodes evicted by
// a duplicate are skipped entirely.
func (b *builder) link(objects []domain.Object) {
	for i := range objects {
		obj := &objects[i]
		n := b.nodes[i]
		if b.byCode[obj.Code] != n {
			continue
		}

		if obj.ParentCode == nil {
			b.roots = append(b.roots, n)
			continue
		}

		parent, ok := b.byCode[*obj.ParentCode]
		if !ok {
			b.resolver.Missing(obj, n, b.suggestParent(n))
			continue
		}
		if b.within(parent, n) {
			b.resolver.Cyclic(obj, n, b.suggestParent(n))
			continue
		}

		parent.Children = append(parent.Children, n)
		b.parentOf[n] = parent
	}
}

// within reports whether candidate is n itself or one of n's descendants, by
// walking upward from candidate through the parents assigned so far.
func (b *builder) within(candidate, n *Node) bool {
	for p := candidate; p != nil; p = b.parentOf[p] {
		if p == n {
			return true
		}
	}
	return false
}

// suggestParent looks for an indexed code close to what n probably meant:
// the declared parent without its trailing separator, then the parent derived
// from n's own code text.
func (b *builder) suggestParent(n *Node) string {
	var candidates []string
	if declared := n.Parent(); strings.HasSuffix(declared, designation.Separator) {
		candidates = append(candidates, strings.TrimSuffix(declared, designation.Separator))
	}
	if derived, ok := n.Designation.DerivedParent(); ok {
		candidates = append(candidates, derived, strings.TrimSuffix(derived, designation.Separator))
	}

	for _, c := range candidates {
		if c == "" || c == n.Parent() {
			continue
		}
		if p, ok := b.byCode[c]; ok && !b.within(p, n) {
			return c
		}
	}
	return ""
}

func (b *builder) noteUnrecognized(code string) {
	if b.seenBad == nil {
		b.seenBad = make(map[string]bool)
	}
	if b.seenBad[code] {
		return
	}
	b.seenBad[code] = true
	b.unrecognized = append(b.unrecognized, code)
}

func (b *builder) result() *Result {
	parents := make(map[string]string, len(b.parentOf))
	for child, parent := range b.parentOf {
		parents[child.Code] = parent.Code
	}

	unrecognized := b.unrecognized
	if unrecognized == nil {
		unrecognized = []string{}
	}

	return &Result{
		Roots:        b.roots,
		Duplicates:   b.resolver.Duplicates(),
		Orphans:      b.resolver.Orphans(),
		Unrecognized: unrecognized,
		byCode:       b.byCode,
		parents:      parents,
	}
}
