// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"cmp"
	"slices"

	"github.com/serg-kovalev/go-dbscan-filter/spatial"
)

// nilNode marks a missing child in the node arena.
const nilNode = -1

// KDTree is a 2-D tree over a PointList, splitting on longitude at even
// depths and on latitude at odd depths.
//
// Nodes hold only indices into the tree's PointList and live in a single
// arena slice; children are referenced by their arena position. Distances
// are measured with spatial.DistanceSphericalFast, so radii given to InRange
// must be in the units returned by spatial.KmToUnits.
type KDTree struct {
	points spatial.PointList
	nodes  []kdNode
	root   int
}

type kdNode struct {
	pointID  int   // index of the point associated with this node
	equalIDs []int // indices of points with the exact same coordinates
	split    int   // 0 (longitude) or 1 (latitude)
	left     int
	right    int
}

// NewKDTree builds a balanced tree over points. The tree keeps points as
// its canonical list; callers must not modify it afterwards.
func NewKDTree(points spatial.PointList) *KDTree {
	t := &KDTree{
		points: points,
		nodes:  make([]kdNode, 0, len(points)),
		root:   nilNode,
	}

	if len(points) > 0 {
		t.root = t.build(0, preSort(points))
	}

	return t
}

// Points returns the canonical list the tree indexes.
func (t *KDTree) Points() spatial.PointList {
	return t.points
}

// Len returns the number of indexed points, duplicates included.
func (t *KDTree) Len() int {
	return len(t.points)
}

func (t *KDTree) newNode(n kdNode) int {
	t.nodes = append(t.nodes, n)

	return len(t.nodes) - 1
}

// build creates the node for the median point on depth's split dimension
// and recursively builds both subtrees.
func (t *KDTree) build(depth int, ps *preSorted) int {
	split := depth % 2

	switch len(ps.cur[split]) {
	case 0:
		return nilNode
	case 1:
		return t.newNode(kdNode{
			pointID: ps.cur[split][0],
			split:   split,
			left:    nilNode,
			right:   nilNode,
		})
	}

	med, equal, left, right := ps.splitMed(split)
	id := t.newNode(kdNode{
		pointID:  med,
		equalIDs: equal,
		split:    split,
	})
	l := t.build(depth+1, left)
	r := t.build(depth+1, right)
	t.nodes[id].left = l
	t.nodes[id].right = r

	return id
}

// Insert appends p to the tree's point list and links it as a new leaf.
//
// Inserting a point whose coordinates are already present in the tree
// invalidates the tree. This is not checked.
func (t *KDTree) Insert(p spatial.Point) {
	t.points = append(t.points, p)
	id := t.newNode(kdNode{
		pointID: len(t.points) - 1,
		left:    nilNode,
		right:   nilNode,
	})

	if t.root == nilNode {
		t.root = id

		return
	}

	cur := t.root
	for depth := 1; ; depth++ {
		n := &t.nodes[cur]

		next := &n.right
		if p[n.split] < t.points[n.pointID][n.split] {
			next = &n.left
		}

		if *next == nilNode {
			*next = id
			t.nodes[id].split = depth % 2

			return
		}

		cur = *next
	}
}

// InRange appends to nodes the indices of all points whose distance to pt
// is less than dist, and returns the extended slice.
//
// dist is a linear distance in spatial.KmToUnits units. A negative dist
// returns nodes unchanged. nodes may be a reused buffer.
func (t *KDTree) InRange(pt spatial.Point, dist float64, nodes []int) []int {
	if dist < 0 {
		return nodes
	}

	return t.inRange(t.root, pt, dist, nodes)
}

func (t *KDTree) inRange(id int, pt spatial.Point, r float64, nodes []int) []int {
	if id == nilNode {
		return nodes
	}

	n := &t.nodes[id]
	np := t.points[n.pointID]

	thisSide, otherSide := n.right, n.left
	if pt[n.split]-np[n.split] < 0 {
		thisSide, otherSide = n.left, n.right
	}

	// Distance from pt to the splitting line, measured with the same metric:
	// both probes share the mid value of the other dimension so the
	// latitude-dependent longitude scaling is accounted for.
	other := 1 - n.split

	var p1, p2 spatial.Point
	p1[other] = (pt[other] + np[other]) / 2
	p1[n.split] = pt[n.split]
	p2[other] = p1[other]
	p2[n.split] = np[n.split]

	bound := p1.SqDist(p2)

	nodes = t.inRange(thisSide, pt, r, nodes)
	if bound <= r*r {
		if np.SqDist(pt) < r*r {
			nodes = append(nodes, n.pointID)
			nodes = append(nodes, n.equalIDs...)
		}

		nodes = t.inRange(otherSide, pt, r, nodes)
	}

	return nodes
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *KDTree) Height() int {
	return t.height(t.root)
}

func (t *KDTree) height(id int) int {
	if id == nilNode {
		return 0
	}

	n := &t.nodes[id]

	return max(t.height(n.left), t.height(n.right)) + 1
}

// preSorted holds point indices sorted on each dimension.
type preSorted struct {
	points spatial.PointList
	cur    [2][]int
}

func preSort(points spatial.PointList) *preSorted {
	ps := &preSorted{points: points}

	for d := range 2 {
		ids := make([]int, len(points))
		for i := range ids {
			ids[i] = i
		}

		slices.SortStableFunc(ids, func(a, b int) int {
			if c := cmp.Compare(points[a][d], points[b][d]); c != 0 {
				return c
			}

			return cmp.Compare(points[a][1-d], points[b][1-d])
		})

		ps.cur[d] = ids
	}

	return ps
}

// splitMed returns the median point on dim, the points with exactly the same
// coordinates as the median, and the remaining points split into those less
// than and those greater than or equal to the median on dim. Both halves
// stay sorted on every dimension.
func (ps *preSorted) splitMed(dim int) (int, []int, *preSorted, *preSorted) {
	sorted := ps.cur[dim]

	m := len(sorted) / 2
	for m > 0 && ps.points[sorted[m-1]][dim] == ps.points[sorted[m]][dim] {
		m--
	}

	mh := m
	for mh < len(sorted)-1 && ps.points[sorted[mh+1]] == ps.points[sorted[m]] {
		mh++
	}

	med := sorted[m]
	medPt := ps.points[med]
	pivot := medPt[dim]

	var equal []int
	if mh > m {
		equal = slices.Clone(sorted[m+1 : mh+1])
	}

	left := &preSorted{points: ps.points}
	right := &preSorted{points: ps.points}
	left.cur[dim] = sorted[:m]
	right.cur[dim] = sorted[mh+1:]

	// Duplicates of the median are contiguous in sorted, so med plus equal
	// are exactly the points equal to medPt.
	other := 1 - dim
	left.cur[other] = make([]int, 0, m)
	right.cur[other] = make([]int, 0, len(sorted)-mh-1)

	for _, n := range ps.cur[other] {
		p := ps.points[n]
		if p == medPt {
			continue
		}

		if p[dim] < pivot {
			left.cur[other] = append(left.cur[other], n)
		} else {
			right.cur[other] = append(right.cur[other], n)
		}
	}

	return med, equal, left, right
}
