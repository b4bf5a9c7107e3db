package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tree owns native memory; callers must Close it.
type Tree struct {
	inner  *sitter.Tree
	source []byte
}

func (t *Tree) RootNode() *Node {
	return wrap(t.inner.RootNode(), t.source)
}

func (t *Tree) Close() {
	t.inner.Close()
}

func (t *Tree) Source() []byte {
	return t.source
}

type Node struct {
	inner  *sitter.Node
	source []byte
}

func wrap(inner *sitter.Node, source []byte) *Node {
	if inner == nil {
		return nil
	}
	return &Node{inner: inner, source: source}
}

func (n *Node) Type() string {
	return n.inner.Kind()
}

func (n *Node) StartByte() uint {
	return n.inner.StartByte()
}

func (n *Node) EndByte() uint {
	return n.inner.EndByte()
}

func (n *Node) StartPosition() Point {
	p := n.inner.StartPosition()
	return Point{Row: uint32(p.Row), Column: uint32(p.Column)}
}

func (n *Node) ChildCount() uint {
	return uint(n.inner.ChildCount())
}

func (n *Node) Child(index uint) *Node {
	return wrap(n.inner.Child(index), n.source)
}

func (n *Node) NamedChildCount() uint {
	return uint(n.inner.NamedChildCount())
}

func (n *Node) NamedChild(index uint) *Node {
	return wrap(n.inner.NamedChild(index), n.source)
}

// NamedChildren returns the named children, skipping comments.
func (n *Node) NamedChildren() []*Node {
	count := n.NamedChildCount()
	children := make([]*Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func (n *Node) Parent() *Node {
	return wrap(n.inner.Parent(), n.source)
}

func (n *Node) NextNamedSibling() *Node {
	return wrap(n.inner.NextNamedSibling(), n.source)
}

func (n *Node) ChildByFieldName(name string) *Node {
	return wrap(n.inner.ChildByFieldName(name), n.source)
}

func (n *Node) IsNamed() bool {
	return n.inner.IsNamed()
}

func (n *Node) HasError() bool {
	return n.inner.HasError()
}

// Same reports whether both wrappers point at the same syntax node.
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.inner.Id() == other.inner.Id()
}

func (n *Node) Content() string {
	start := n.StartByte()
	end := n.EndByte()
	if end > uint(len(n.source)) {
		end = uint(len(n.source))
	}
	if start >= end {
		return ""
	}
	return string(n.source[start:end])
}

func (n *Node) String() string {
	return n.inner.ToSexp()
}

// Walk visits n and its descendants in depth-first pre-order using an
// explicit stack. Returning false from visit skips the node's subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(node) {
			continue
		}
		for i := node.ChildCount(); i > 0; i-- {
			if child := node.Child(i - 1); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// Find returns the first node in pre-order whose type is one of kinds.
func (n *Node) Find(kinds ...string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		for _, kind := range kinds {
			if node.Type() == kind {
				found = node
				return false
			}
		}
		return true
	})
	return found
}

type Point struct {
	Row    uint32
	Column uint32
}
