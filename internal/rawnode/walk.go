package rawnode

// Walk visits n and every reachable subschema in declaration order.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, p := range n.Properties {
		Walk(p.Schema, fn)
	}
	for _, p := range n.Defs {
		Walk(p.Schema, fn)
	}
	Walk(n.AdditionalSchema, fn)
	for _, it := range n.Items {
		Walk(it, fn)
	}
	for _, c := range n.AllOf {
		Walk(c, fn)
	}
	for _, c := range n.OneOf {
		Walk(c, fn)
	}
	for _, c := range n.AnyOf {
		Walk(c, fn)
	}
}
