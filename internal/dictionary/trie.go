package dictionary

import (
	"strings"

	"github.com/writerslogic/stenod/internal/chord"
)

// noParent marks the root node's parent slot, mirroring the teacher's
// convention (internal/mmr) of an index-addressed node store where a
// missing reference is a sentinel index rather than a nil pointer.
const noParent = -1

// node is one trie node living in a Dictionary's arena. Children are
// keyed by chord; Value is nil until a path terminates here.
type node struct {
	parent   int
	children map[chord.Chord]int
	value    *Value
}

// Dictionary is a trie keyed by chords, whose terminal nodes carry a
// parsed Value. Nodes are stored in a flat slice addressed by index
// instead of linked via pointers, so the translator can hold stable
// NodeRef values across repeated in-place mutation of its branch list
// without aliasing a node it has already invalidated.
type Dictionary struct {
	nodes []node
}

// NodeRef is a stable reference to a trie node.
type NodeRef int

// RootRef is the reference to the dictionary's root node.
const RootRef NodeRef = 0

// New returns an empty Dictionary containing just the root node.
func New() *Dictionary {
	d := &Dictionary{nodes: make([]node, 1, 64)}
	d.nodes[0] = node{parent: noParent, children: make(map[chord.Chord]int)}
	return d
}

// Parent returns the parent of ref and whether ref has one (the root
// does not).
func (d *Dictionary) Parent(ref NodeRef) (NodeRef, bool) {
	p := d.nodes[ref].parent
	if p == noParent {
		return 0, false
	}
	return NodeRef(p), true
}

// Depth returns the distance of ref from the root.
func (d *Dictionary) Depth(ref NodeRef) int {
	depth := 0
	for {
		p, ok := d.Parent(ref)
		if !ok {
			return depth
		}
		ref = p
		depth++
	}
}

// Child looks up the child of ref along the edge labelled c.
func (d *Dictionary) Child(ref NodeRef, c chord.Chord) (NodeRef, bool) {
	idx, ok := d.nodes[ref].children[c]
	if !ok {
		return 0, false
	}
	return NodeRef(idx), true
}

// Value returns the parsed value at ref, or nil if ref is not terminal.
func (d *Dictionary) Value(ref NodeRef) *Value {
	return d.nodes[ref].value
}

// childOrCreate returns the child of ref along c, creating it (with the
// correct parent back-reference) if absent.
func (d *Dictionary) childOrCreate(ref NodeRef, c chord.Chord) NodeRef {
	if idx, ok := d.nodes[ref].children[c]; ok {
		return NodeRef(idx)
	}
	newIdx := len(d.nodes)
	d.nodes = append(d.nodes, node{parent: int(ref), children: make(map[chord.Chord]int)})
	d.nodes[ref].children[c] = newIdx
	return NodeRef(newIdx)
}

// Insert splits path on '/', walks or creates a trie node per chord, and
// assigns value to the terminal node. Re-inserting the same path silently
// replaces any existing value there: the old *Value becomes unreferenced
// and is reclaimed by the garbage collector (see SPEC_FULL.md §9 for why this
// rewrite doesn't need an explicit free, unlike the arena's source
// language).
func (d *Dictionary) Insert(path string, value *Value) error {
	cur := RootRef
	for _, part := range strings.Split(path, "/") {
		c, err := chord.Parse(part)
		if err != nil {
			return err
		}
		cur = d.childOrCreate(cur, c)
	}
	d.nodes[cur].value = value
	return nil
}
