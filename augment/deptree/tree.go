// Package deptree simplifies sentences by pruning their dependency tree: a random phrase hanging
// from the root is dropped, together with its whole subtree.
package deptree

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"github.com/pkg/errors"
)

// ErrInvalidTree is returned by Build when the annotations don't form a tree.
var ErrInvalidTree = errors.New("invalid dependency tree")

// Annotation is one word of a dependency parse, as returned by the parsing service.
type Annotation struct {
	Form     string `json:"form"`
	Index    int    `json:"index"`
	Head     int    `json:"head"`
	DepLabel string `json:"depLabel"`
}

// Node of a dependency Tree. Children are not stored: they are the nodes whose Head is Index.
type Node struct {
	Text     string
	Index    int
	Head     int
	DepLabel string
}

// Tree is a dependency tree, with nodes kept in an arena keyed by index.
type Tree struct {
	nodes map[int]*Node
	root  int
}

// Build creates the tree for the annotations. It fails with ErrInvalidTree if there isn't exactly one
// root (head 0), if an index is repeated, if a head is unknown or if there is a cycle.
func Build(annotations []Annotation) (*Tree, error) {
	t := &Tree{nodes: make(map[int]*Node, len(annotations))}
	for _, a := range annotations {
		if a.Index <= 0 {
			return nil, errors.Wrapf(ErrInvalidTree, "index %d of %q must be positive", a.Index, a.Form)
		}
		if _, found := t.nodes[a.Index]; found {
			return nil, errors.Wrapf(ErrInvalidTree, "index %d repeated", a.Index)
		}
		t.nodes[a.Index] = &Node{Text: a.Form, Index: a.Index, Head: a.Head, DepLabel: a.DepLabel}
		if a.Head == 0 {
			if t.root != 0 {
				return nil, errors.Wrapf(ErrInvalidTree, "two roots, %d and %d", t.root, a.Index)
			}
			t.root = a.Index
		}
	}
	if t.root == 0 {
		return nil, errors.Wrapf(ErrInvalidTree, "no root in %d annotations", len(annotations))
	}
	for _, n := range t.nodes {
		if n.Head != 0 && t.nodes[n.Head] == nil {
			return nil, errors.Wrapf(ErrInvalidTree, "node %d has unknown head %d", n.Index, n.Head)
		}
	}
	// With a single root and known heads, every node reaches the root unless it is in a cycle.
	for _, n := range t.nodes {
		steps := 0
		for cur := n; cur.Head != 0; cur = t.nodes[cur.Head] {
			steps++
			if steps > len(t.nodes) {
				return nil, errors.Wrapf(ErrInvalidTree, "cycle through node %d", n.Index)
			}
		}
	}
	return t, nil
}

// Len returns the number of nodes left in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[t.root] }

// Node returns the node with the given index, or nil if it is not (or no longer) in the tree.
func (t *Tree) Node(index int) *Node { return t.nodes[index] }

// Children returns the children of the node at index, in index order.
func (t *Tree) Children(index int) []*Node {
	var children []*Node
	for _, n := range t.nodes {
		if n.Head == index && n.Index != index {
			children = append(children, n)
		}
	}
	slices.SortFunc(children, func(a, b *Node) int { return a.Index - b.Index })
	return children
}

// RandomDropPhrase removes a random child of the root that has children of its own, together with
// its subtree. It returns false, leaving the tree untouched, if the root has no such child.
func (t *Tree) RandomDropPhrase(rng *rand.Rand) bool {
	var phrases []*Node
	for _, child := range t.Children(t.root) {
		if len(t.Children(child.Index)) > 0 {
			phrases = append(phrases, child)
		}
	}
	if len(phrases) == 0 {
		return false
	}
	t.removeSubtree(augment.Choice(phrases, rng).Index)
	return true
}

// removeSubtree removes the node at index and all its descendants, breadth first.
func (t *Tree) removeSubtree(index int) {
	queue := []int{index}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range t.Children(current) {
			queue = append(queue, child.Index)
		}
		delete(t.nodes, current)
	}
}

// Text returns the space joined text of the remaining nodes, in index order. Multi-syllable words
// have their "_" separators replaced by spaces.
func (t *Tree) Text() string {
	parts := make([]string, 0, len(t.nodes))
	for _, index := range slices.Sorted(maps.Keys(t.nodes)) {
		text := t.nodes[index].Text
		if utf8.RuneCountInString(text) > 1 {
			text = strings.ReplaceAll(text, words.SegmentSeparator, " ")
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// String implements fmt.Stringer, printing one "index:text(label)->head" per node.
func (t *Tree) String() string {
	var sb strings.Builder
	for ii, index := range slices.Sorted(maps.Keys(t.nodes)) {
		if ii > 0 {
			sb.WriteByte(' ')
		}
		n := t.nodes[index]
		_, _ = fmt.Fprintf(&sb, "%d:%s(%s)->%d", n.Index, n.Text, n.DepLabel, n.Head)
	}
	return sb.String()
}
