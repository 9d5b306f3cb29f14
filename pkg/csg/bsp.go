package csg

import (
	"context"
)

// ctxCheckInterval is how many split operations run between context polls
const ctxCheckInterval = 1024

// engine carries the tolerance and the resource budget of one boolean
// operation. It is not shared between operations.
type engine struct {
	ctx         context.Context
	eps         float64
	maxPolygons int
	polygons    int
	ops         int
}

func (e *engine) split(pl plane, poly polygon, coplanarFront, coplanarBack, frontList, backList *[]polygon) error {
	e.ops++
	if e.ops%ctxCheckInterval == 0 {
		if err := e.ctx.Err(); err != nil {
			return err
		}
	}
	if created := pl.split(poly, e.eps, coplanarFront, coplanarBack, frontList, backList); created > 0 {
		e.polygons += created
		if e.maxPolygons > 0 && e.polygons > e.maxPolygons {
			return ErrLimitExceeded
		}
	}
	return nil
}

// node is a BSP tree node. Polygons coplanar with the node plane live in the
// node itself; front and back subtrees hold the rest.
type node struct {
	plane    plane
	hasPlane bool
	front    *node
	back     *node
	polygons []polygon
}

func (e *engine) newTree(polygons []polygon) (*node, error) {
	n := &node{}
	if err := e.build(n, polygons); err != nil {
		return nil, err
	}
	return n, nil
}

// build adds polygons to the tree, choosing the plane of the first polygon
// for nodes that have none yet.
func (e *engine) build(n *node, polygons []polygon) error {
	for len(polygons) > 0 {
		if !n.hasPlane {
			n.plane = polygons[0].plane
			n.hasPlane = true
		}
		var frontList, backList []polygon
		for _, p := range polygons {
			if err := e.split(n.plane, p, &n.polygons, &n.polygons, &frontList, &backList); err != nil {
				return err
			}
		}
		if len(frontList) > 0 {
			if n.front == nil {
				n.front = &node{}
			}
			if err := e.build(n.front, frontList); err != nil {
				return err
			}
		}
		// Continue down the back side iteratively: closed solids produce long
		// back chains.
		if len(backList) == 0 {
			return nil
		}
		if n.back == nil {
			n.back = &node{}
		}
		n, polygons = n.back, backList
	}
	return nil
}

// invert swaps solid and empty space
func (n *node) invert() {
	if n == nil {
		return
	}
	for i := range n.polygons {
		n.polygons[i].flip()
	}
	n.plane = n.plane.flipped()
	n.front.invert()
	n.back.invert()
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polygons that are inside the solid
// bounded by this tree.
func (e *engine) clipPolygons(n *node, polygons []polygon) ([]polygon, error) {
	if !n.hasPlane {
		return append([]polygon(nil), polygons...), nil
	}
	var frontList, backList []polygon
	for _, p := range polygons {
		if err := e.split(n.plane, p, &frontList, &backList, &frontList, &backList); err != nil {
			return nil, err
		}
	}
	var err error
	if n.front != nil {
		if frontList, err = e.clipPolygons(n.front, frontList); err != nil {
			return nil, err
		}
	}
	if n.back != nil {
		if backList, err = e.clipPolygons(n.back, backList); err != nil {
			return nil, err
		}
	} else {
		backList = nil
	}
	return append(frontList, backList...), nil
}

// clipTo removes the parts of this tree's polygons inside other
func (e *engine) clipTo(n, other *node) error {
	if n == nil {
		return nil
	}
	clipped, err := e.clipPolygons(other, n.polygons)
	if err != nil {
		return err
	}
	n.polygons = clipped
	if err := e.clipTo(n.front, other); err != nil {
		return err
	}
	return e.clipTo(n.back, other)
}

// allPolygons returns copies of every polygon in the tree
func (n *node) allPolygons() []polygon {
	var out []polygon
	var walk func(*node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		for _, p := range n.polygons {
			out = append(out, p.clone())
		}
		walk(n.front)
		walk(n.back)
	}
	walk(n)
	return out
}
