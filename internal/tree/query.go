package tree

import (
	"errors"
	"fmt"
	"slices"
)

// Path lookup errors.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNoPath       = errors.New("no path")
)

// Collect returns the distinct, non-empty values of attribute key held by the
// node at code, and by its whole subtree when withDescendants is set. Values
// keep the pre-order in which they were first seen. The second result is
// false when code is not in the forest.
func (r *Result) Collect(code, key string, withDescendants bool) ([]string, bool) {
	n, ok := r.byCode[code]
	if !ok {
		return nil, false
	}

	nodes := []*Node{n}
	if withDescendants {
		nodes = append(nodes, r.Descendants(code)...)
	}

	values := []string{}
	seen := make(map[string]bool)
	for _, d := range nodes {
		v := d.Attributes[key]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values, true
}

// Path returns the nodes leading from source down to target, source first at
// level 0. Only containment is followed, so target must sit in the subtree of
// source within MaxTraceDepth levels. ErrNodeNotFound is returned when either
// code is not in the forest and ErrNoPath when target cannot be reached.
func (r *Result) Path(source, target string) ([]TraceStep, error) {
	if _, ok := r.byCode[source]; !ok {
		return nil, fmt.Errorf("%s: %w", source, ErrNodeNotFound)
	}
	end, ok := r.byCode[target]
	if !ok {
		return nil, fmt.Errorf("%s: %w", target, ErrNodeNotFound)
	}

	chain := []*Node{end}
	for code := target; code != source; {
		if len(chain) > MaxTraceDepth {
			return nil, fmt.Errorf("%s to %s: %w", source, target, ErrNoPath)
		}
		p, ok := r.parents[code]
		if !ok {
			return nil, fmt.Errorf("%s to %s: %w", source, target, ErrNoPath)
		}
		chain = append(chain, r.byCode[p])
		code = p
	}

	slices.Reverse(chain)
	steps := make([]TraceStep, len(chain))
	for i, n := range chain {
		steps[i] = step(n, i)
	}
	return steps, nil
}
