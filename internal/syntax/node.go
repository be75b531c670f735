package syntax

import "strings"

// Node is an element of the syntax tree. A leaf carries literal source text;
// a container carries one or more children and no text of its own.
// Trees returned by Parse are never mutated afterwards.
type Node struct {
	Kind     Kind
	Text     string
	Children []*Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Source reconstructs the source text covered by the node by concatenating
// its leaves in order. For a tree returned by Parse, Source of the root is
// byte-identical to the parsed input.
func (n *Node) Source() string {
	var b strings.Builder
	n.Walk(func(leaf *Node) {
		b.WriteString(leaf.Text)
	})
	return b.String()
}

// Walk calls fn for every leaf under n in source order.
// It uses an explicit stack, so arbitrarily deep trees are safe.
func (n *Node) Walk(fn func(leaf *Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.IsLeaf() {
			fn(top)
			continue
		}
		for i := len(top.Children) - 1; i >= 0; i-- {
			stack = append(stack, top.Children[i])
		}
	}
}

// Find returns the first direct child of the given kind, or nil.
func (n *Node) Find(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

func leaf(kind Kind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

func container(kind Kind, children []*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// mergeText joins runs of adjacent Text leaves into a single leaf.
func mergeText(nodes []*Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == Text && n.IsLeaf() && len(out) > 0 {
			prev := out[len(out)-1]
			if prev.Kind == Text && prev.IsLeaf() {
				out[len(out)-1] = leaf(Text, prev.Text+n.Text)
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
