package tree

// Result is the output of a build: the forest plus diagnostics. It is not
// modified after Build returns and is safe for concurrent reads.
type Result struct {
	Roots        []*Node          `json:"roots"`
	Duplicates   []DuplicateGroup `json:"duplicates"`
	Orphans      []Orphan         `json:"orphans"`
	Unrecognized []string         `json:"unrecognized"`

	byCode  map[string]*Node
	parents map[string]string
}

// Lookup returns the retained node for code. Orphaned nodes are found too.
func (r *Result) Lookup(code string) (*Node, bool) {
	n, ok := r.byCode[code]
	return n, ok
}

// Parent returns the code of the node that code was attached under.
func (r *Result) Parent(code string) (string, bool) {
	p, ok := r.parents[code]
	return p, ok
}

// Ancestors returns the chain of nodes above code, nearest first.
func (r *Result) Ancestors(code string) []*Node {
	var chain []*Node
	for p, ok := r.parents[code]; ok; p, ok = r.parents[p] {
		chain = append(chain, r.byCode[p])
	}
	return chain
}

// Descendants returns every node below code in pre-order.
func (r *Result) Descendants(code string) []*Node {
	n, ok := r.byCode[code]
	if !ok {
		return nil
	}
	var out []*Node
	_ = Walk(n.Children, func(d *Node, _ int) error {
		out = append(out, d)
		return nil
	})
	return out
}

// Count returns the number of nodes reachable from Roots.
func (r *Result) Count() int {
	count := 0
	_ = Walk(r.Roots, func(*Node, int) error {
		count++
		return nil
	})
	return count
}

// IsOrphan reports whether code was recorded as an orphan.
func (r *Result) IsOrphan(code string) bool {
	for i := range r.Orphans {
		if r.Orphans[i].Object.Code == code {
			return true
		}
	}
	return false
}
