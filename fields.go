package graphqljit

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

// collectedField groups the AST field nodes that share one response key, in
// source order.
type collectedField struct {
	key   string
	nodes []fieldNode
}

// collectedFieldMap preserves field order from the original query.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(key string, node fieldNode) {
	if idx, exists := cfm.index[key]; exists {
		cfm.fields[idx].nodes = append(cfm.fields[idx].nodes, node)
		return
	}
	cfm.index[key] = len(cfm.fields)
	cfm.fields = append(cfm.fields, collectedField{key: key, nodes: []fieldNode{node}})
}

// collectFields expands fragment spreads and inline fragments whose type
// condition matches objectType, merging same-response-key fields into single
// entries. Literal @skip/@include conditions are folded here; variable-bound
// ones are attached to the node for evaluation per run.
func collectFields(cc *compileContext, objectType *schema.Type, selectionSet ast.SelectionSet) []collectedField {
	cfm := newCollectedFieldMap()
	visited := make(map[string]bool)
	collectFieldsImpl(cc, objectType, selectionSet, cfm, visited, nil)
	return cfm.fields
}

func collectFieldsImpl(cc *compileContext, objectType *schema.Type, selectionSet ast.SelectionSet, cfm *collectedFieldMap, visited map[string]bool, conds []inclusionCond) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *ast.Field:
			include, selConds := directiveConditions(sel.Directives, conds)
			if !include {
				continue
			}
			key := sel.Alias
			if key == "" {
				key = sel.Name
			}
			cfm.add(key, fieldNode{field: sel, conds: selConds})

		case *ast.InlineFragment:
			include, selConds := directiveConditions(sel.Directives, conds)
			if !include {
				continue
			}
			if !fragmentConditionMatches(cc, objectType, sel.TypeCondition) {
				continue
			}
			collectFieldsImpl(cc, objectType, sel.SelectionSet, cfm, visited, selConds)

		case *ast.FragmentSpread:
			include, selConds := directiveConditions(sel.Directives, conds)
			if !include {
				continue
			}
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true

			def := cc.fragments[sel.Name]
			if def == nil {
				continue
			}
			if !fragmentConditionMatches(cc, objectType, def.TypeCondition) {
				continue
			}
			include, selConds = directiveConditions(def.Directives, selConds)
			if !include {
				continue
			}
			collectFieldsImpl(cc, objectType, def.SelectionSet, cfm, visited, selConds)
		}
	}
}

// directiveConditions folds literal @skip/@include directives and accumulates
// variable-bound ones. The first return is false when a literal condition
// statically excludes the node.
func directiveConditions(directives ast.DirectiveList, parent []inclusionCond) (bool, []inclusionCond) {
	conds := parent
	for _, name := range [...]string{"skip", "include"} {
		d := directives.ForName(name)
		if d == nil {
			continue
		}
		arg := d.Arguments.ForName("if")
		if arg == nil || arg.Value == nil {
			continue
		}
		want := name == "include"
		switch arg.Value.Kind {
		case ast.BooleanValue:
			if (arg.Value.Raw == "true") != want {
				return false, nil
			}
		case ast.Variable:
			// Copy-on-append so sibling selections don't share tails.
			next := make([]inclusionCond, len(conds), len(conds)+1)
			copy(next, conds)
			conds = append(next, inclusionCond{varName: arg.Value.Raw, want: want})
		}
	}
	return true, conds
}

// fragmentConditionMatches reports whether a fragment with the given type
// condition applies to objectType: the condition names the type itself, an
// interface it implements, or a union it belongs to.
func fragmentConditionMatches(cc *compileContext, objectType *schema.Type, condition string) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	if objectType.Implements(condition) {
		return true
	}
	if cond := cc.schema.Types[condition]; cond != nil && cond.Kind.IsAbstract() {
		return cond.HasPossibleType(objectType.Name)
	}
	return false
}
