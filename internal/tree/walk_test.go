package tree_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/tree"
)

func sampleForest(t *testing.T) *tree.Result {
	t.Helper()
	res, err := tree.Build([]domain.Object{
		obj(1, "===P", "", "10KV"),
		obj(2, "===P.AH5", "===P", "AH5"),
		obj(3, "===P.AH5.Q1", "===P.AH5", "Q1"),
		obj(4, "=TA001", "", "Process"),
		obj(5, "=TA001.BJ01", "=TA001", "Pump group"),
		obj(6, "++B1", "", "Building 1"),
	})
	require.NoError(t, err)
	return res
}

func TestWalk_PreOrderWithDepth(t *testing.T) {
	res := sampleForest(t)

	var visited []string
	var depths []int
	err := tree.Walk(res.Roots, func(n *tree.Node, depth int) error {
		visited = append(visited, n.Code)
		depths = append(depths, depth)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"===P", "===P.AH5", "===P.AH5.Q1", "=TA001", "=TA001.BJ01", "++B1"}, visited)
	assert.Equal(t, []int{0, 1, 2, 0, 1, 0}, depths)
}

func TestWalk_SkipChildrenAndStop(t *testing.T) {
	res := sampleForest(t)

	var visited []string
	err := tree.Walk(res.Roots, func(n *tree.Node, _ int) error {
		visited = append(visited, n.Code)
		if n.Code == "===P" {
			return tree.ErrSkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"===P", "=TA001", "=TA001.BJ01", "++B1"}, visited)

	stop := errors.New("stop")
	count := 0
	err = tree.Walk(res.Roots, func(*tree.Node, int) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestWalk_DeepChainDoesNotRecurse(t *testing.T) {
	const depth = 5000
	objects := make([]domain.Object, 0, depth)
	code := "=N0"
	objects = append(objects, obj(1, code, "", "n0"))
	for i := 1; i < depth; i++ {
		child := "=N" + strconv.Itoa(i)
		objects = append(objects, obj(int64(i+1), child, code, "n"))
		code = child
	}

	res, err := tree.Build(objects)
	require.NoError(t, err)
	assert.Equal(t, depth, res.Count())
	assert.Len(t, res.Ancestors(code), depth-1)
}

func TestPrune(t *testing.T) {
	res := sampleForest(t)

	power := tree.Prune(res.Roots, tree.ByAspect(designation.AspectPower))
	assert.Equal(t, []string{"===P"}, codes(power))
	assert.Equal(t, []string{"===P.AH5"}, codes(power[0].Children))

	shallow := tree.Prune(res.Roots, tree.MaxDepth(0))
	assert.Equal(t, []string{"===P", "=TA001", "++B1"}, codes(shallow))
	for _, n := range shallow {
		assert.Empty(t, n.Children)
	}

	both := tree.Prune(res.Roots, tree.All(tree.ByAspect(designation.AspectPower), tree.MaxDepth(1)))
	require.Len(t, both, 1)
	require.Len(t, both[0].Children, 1)
	assert.Empty(t, both[0].Children[0].Children)

	// The source forest is untouched.
	assert.Len(t, res.Roots, 3)
	assert.Len(t, res.Roots[0].Children[0].Children, 1)
}

func TestFilter(t *testing.T) {
	res := sampleForest(t)

	assert.Equal(t, res.Roots, tree.Filter(res.Roots, "", -1))

	power := tree.Filter(res.Roots, designation.AspectPower, -1)
	require.Len(t, power, 1)
	assert.Equal(t, "===P", power[0].Code)
	require.Len(t, power[0].Children, 1)
	assert.Len(t, power[0].Children[0].Children, 1)

	shallow := tree.Filter(res.Roots, "", 0)
	require.Len(t, shallow, 3)
	for _, r := range shallow {
		assert.Empty(t, r.Children)
	}

	both := tree.Filter(res.Roots, designation.AspectPower, 1)
	require.Len(t, both, 1)
	require.Len(t, both[0].Children, 1)
	assert.Empty(t, both[0].Children[0].Children)

	// The source forest is untouched.
	assert.Len(t, res.Roots[0].Children[0].Children, 1)
}
