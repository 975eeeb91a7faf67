package criteria

// Children returns the node-valued operands of n in operand order. Literal
// operands and absent range bounds are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(op any) {
		if child, ok := op.(Node); ok && !missing(child) {
			out = append(out, child)
		}
	}
	switch v := n.(type) {
	case *Not:
		add(v.operand)
	case *Comparison:
		add(v.left)
		add(v.right)
	case *Logical:
		for _, op := range v.operands {
			add(op)
		}
	case *DecimalEquals:
		add(v.target)
	case *DecimalInRange:
		add(v.min)
		add(v.max)
	case *DateEquals:
		add(v.target)
	case *DateInRange:
		add(v.min)
		add(v.max)
	case *Unary:
		add(v.operand)
	case *Binary:
		add(v.left)
		add(v.right)
	}
	return out
}

// Walk visits n and its descendants depth-first, parents before children,
// preserving operand order. Returning false from fn skips n's subtree.
func Walk(n Node, fn func(Node) bool) {
	if missing(n) || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Fields collects the distinct field names referenced anywhere under n, in
// first-seen order.
func Fields(n Node) []string {
	seen := make(map[string]bool)
	var out []string
	Walk(n, func(node Node) bool {
		if f, ok := node.(interface{ Field() string }); ok {
			if name := f.Field(); !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		return true
	})
	return out
}
