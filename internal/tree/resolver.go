package tree

import "github.com/johnwards/rdstree/internal/domain"

// Reason explains why an object could not be attached to the forest.
type Reason string

// Orphan reasons.
const (
	ReasonMissingParent Reason = "missing_parent"
	ReasonCyclicParent  Reason = "cyclic_parent"
)

// DuplicateGroup lists every object that claimed the same code, in input
// order, and the one whose node was kept.
type DuplicateGroup struct {
	Code        string  `json:"code"`
	ObjectIDs   []int64 `json:"objectIds"`
	SurvivingID int64   `json:"survivingId"`
}

// Orphan is an object whose declared parent could not be linked. Node is the
// object's own unattached node; anything that resolved beneath it is still
// reachable through Node.Children.
type Orphan struct {
	Object          domain.Object `json:"object"`
	Reason          Reason        `json:"reason"`
	Node            *Node         `json:"node,omitempty"`
	SuggestedParent string        `json:"suggestedParent,omitempty"`
}

// Resolver records the duplicate and orphan decisions made during a build.
//
// Duplicates are last-write-wins: the object met last in input order keeps
// the code. Orphans are never attached to a default root.
type Resolver struct {
	groups  []DuplicateGroup
	byCode  map[string]int
	orphans []Orphan
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{byCode: make(map[string]int)}
}

// Duplicate records that survivor replaced evicted as the holder of code.
func (r *Resolver) Duplicate(code string, evicted, survivor *domain.Object) {
	if i, ok := r.byCode[code]; ok {
		g := &r.groups[i]
		g.ObjectIDs = append(g.ObjectIDs, survivor.ID)
		g.SurvivingID = survivor.ID
		return
	}
	r.byCode[code] = len(r.groups)
	r.groups = append(r.groups, DuplicateGroup{
		Code:        code,
		ObjectIDs:   []int64{evicted.ID, survivor.ID},
		SurvivingID: survivor.ID,
	})
}

// Missing records obj as an orphan whose parent code is not in the set.
func (r *Resolver) Missing(obj *domain.Object, n *Node, suggested string) {
	r.orphan(obj, n, ReasonMissingParent, suggested)
}

// Cyclic records obj as an orphan whose attachment would close a cycle.
func (r *Resolver) Cyclic(obj *domain.Object, n *Node, suggested string) {
	r.orphan(obj, n, ReasonCyclicParent, suggested)
}

func (r *Resolver) orphan(obj *domain.Object, n *Node, reason Reason, suggested string) {
	r.orphans = append(r.orphans, Orphan{
		Object:          obj.Clone(),
		Reason:          reason,
		Node:            n,
		SuggestedParent: suggested,
	})
}

// Duplicates returns the recorded duplicate groups in order of first
// collision.
func (r *Resolver) Duplicates() []DuplicateGroup {
	if r.groups == nil {
		return []DuplicateGroup{}
	}
	return r.groups
}

// Orphans returns the recorded orphans in input order.
func (r *Resolver) Orphans() []Orphan {
	if r.orphans == nil {
		return []Orphan{}
	}
	return r.orphans
}
