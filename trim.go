package graphqljit

// trim post-processes the synchronously-built tree after all deferred work
// has landed: each propagating error nulls out the nearest nullable ancestor
// of its path, discarding sibling data beneath it. Propagation that reaches
// the root nulls the whole data tree. One error is reported per violation;
// nothing is deduplicated.
func (inv *invocation) trim() {
	for _, ne := range inv.nullErrors {
		inv.trimOne(ne.Path)
	}
	inv.errors = append(inv.errors, inv.nullErrors...)
}

func (inv *invocation) trimOne(path []any) {
	if inv.dataNull {
		return
	}
	// Deepest nullable proper prefix of the path; prefix length 0 is the root.
	best := 0
	node := planNode(inv.q.root)
	for i, seg := range path {
		child := childNode(node, seg)
		if child == nil {
			break
		}
		node = child
		if i == len(path)-1 {
			// The violating position itself; never a propagation target.
			break
		}
		if !child.nonNull() {
			best = i + 1
		}
	}
	if best == 0 {
		inv.dataNull = true
		return
	}
	setNullAt(inv.data, path[:best])
}

// childNode descends one response-path segment through the plan. Field
// wrappers (resolver, inline) are transparent: a field position's nullability
// lives on its sub-plan.
func childNode(node planNode, seg any) planNode {
	switch n := node.(type) {
	case *objectPlan:
		key, ok := seg.(string)
		if !ok {
			return nil
		}
		for i := range n.fields {
			if n.fields[i].key == key {
				return effective(n.fields[i].node)
			}
		}
	case *listPlan:
		if _, ok := seg.(int); ok {
			return effective(n.elem)
		}
	case *abstractPlan:
		key, ok := seg.(string)
		if !ok {
			return nil
		}
		for _, branch := range n.branches {
			for i := range branch.fields {
				if branch.fields[i].key == key {
					return effective(branch.fields[i].node)
				}
			}
		}
	}
	return nil
}

// setNullAt zeroes the value at a response-path prefix, walking maps by key
// and lists by index. Positions already discarded by an earlier trim are left
// alone.
func setNullAt(data *ResultMap, prefix []any) {
	var cur any = data
	for i, seg := range prefix {
		last := i == len(prefix)-1
		switch s := seg.(type) {
		case string:
			m, ok := cur.(*ResultMap)
			if !ok || m == nil {
				return
			}
			if last {
				m.set(s, nil)
				return
			}
			v, ok := m.Get(s)
			if !ok {
				return
			}
			cur = v
		case int:
			list, ok := cur.([]any)
			if !ok || s < 0 || s >= len(list) {
				return
			}
			if last {
				list[s] = nil
				return
			}
			cur = list[s]
		default:
			return
		}
	}
}
