package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxTraceDepth bounds how far a trace walks from its start node.
const MaxTraceDepth = 20

// ErrUnknownDirection is returned by ParseDirection for unsupported values.
var ErrUnknownDirection = errors.New("unknown trace direction")

// Direction selects which way a trace walks the containment hierarchy.
type Direction string

// Trace directions.
const (
	Upstream   Direction = "upstream"
	Downstream Direction = "downstream"
)

// ParseDirection converts s into a Direction. An empty string means Upstream.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Upstream):
		return Upstream, nil
	case string(Downstream):
		return Downstream, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownDirection)
	}
}

// TraceStep is one node on a trace. Level is the distance from the start.
type TraceStep struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func step(n *Node, level int) TraceStep {
	return TraceStep{ID: n.ID, Code: n.Code, Name: n.Name, Level: level}
}

// Trace walks from code towards the roots (Upstream) or the leaves
// (Downstream), at most MaxTraceDepth levels. The start node is included at
// level 0. Upstream steps are ordered from the farthest ancestor down to the
// start; downstream steps are in breadth-first order. The second result is
// false when code is not in the forest.
func (r *Result) Trace(code string, dir Direction) ([]TraceStep, bool) {
	start, ok := r.byCode[code]
	if !ok {
		return nil, false
	}

	if dir == Upstream {
		steps := []TraceStep{step(start, 0)}
		for i, a := range r.Ancestors(code) {
			if i == MaxTraceDepth {
				break
			}
			steps = append(steps, step(a, i+1))
		}
		slices.Reverse(steps)
		return steps, true
	}

	steps := []TraceStep{}
	queue := []frame{{start, 0}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		steps = append(steps, step(f.node, f.depth))
		if f.depth == MaxTraceDepth {
			continue
		}
		for _, c := range f.node.Children {
			queue = append(queue, frame{c, f.depth + 1})
		}
	}
	return steps, true
}
