package graphqljit

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

// planNode is the closed set of compiled plan variants. Non-null wrappers are
// never nodes of their own: each node carries the nullability of its response
// position, which decides whether its errors are contained or propagate.
type planNode interface {
	nonNull() bool
	pos() position
}

// position carries per-node response-position data shared by all variants:
// the nullability policy, the schema coordinate for messages ("Type.field"),
// and the AST field nodes for error locations.
type position struct {
	nn    bool
	owner string
	nodes []*ast.Field
}

func (p position) nonNull() bool { return p.nn }

func (p position) pos() position { return p }

// objectPlan assembles a response object field by field, in selection order.
type objectPlan struct {
	position
	typ    *schema.Type
	fields []objectField
}

// objectField is one response key of an object plan.
type objectField struct {
	key   string
	nodes []fieldNode
	node  planNode // typenamePlan, inlinePlan or resolverPlan
}

// fieldNode is one collected AST field together with the runtime inclusion
// conditions accumulated from @skip/@include on the field and its enclosing
// fragments.
type fieldNode struct {
	field *ast.Field
	conds []inclusionCond
}

// inclusionCond is a variable-bound @skip/@include check. The field node is
// included when the variable equals want.
type inclusionCond struct {
	varName string
	want    bool
}

// typenamePlan yields the statically known concrete type name.
type typenamePlan struct {
	position
	name string
}

// inlinePlan reads a resolverless field straight off the parent value.
type inlinePlan struct {
	position
	fieldName string
	sub       planNode
}

// leafPlan terminates a branch through a bound serializer.
type leafPlan struct {
	position
	typ       *schema.Type
	serialize schema.SerializeFn
}

// listPlan iterates a value, running the element plan per index. depth is the
// list's compile-time nesting counter; the runtime does not read it. Nested
// lists keep distinct indices because each element extends the response path
// with its own index.
type listPlan struct {
	position
	elem  planNode
	depth int
}

// abstractPlan dispatches to a precompiled branch per possible concrete type.
type abstractPlan struct {
	position
	typ      *schema.Type
	branches map[string]*objectPlan
}

// resolverPlan is a deferred call site. Its slot is reserved by the
// synchronous pass and filled in when the resolver completes; sub is the plan
// its return value continues through.
type resolverPlan struct {
	position
	id         int
	name       string
	parentType *schema.Type
	field      *schema.Field
	resolve    schema.ResolveFn // nil means the default property resolver
	args       *argumentPlan
	sub        planNode
}

// compileContext is the transient state of one compilation. Sub-contexts
// (resolver subtrees, abstract branches) share the dependency map and options
// but isolate nothing else; deferred work is a per-invocation concern in the
// interpreter.
type compileContext struct {
	schema    *schema.Schema
	fragments map[string]*ast.FragmentDefinition
	operation *ast.OperationDefinition
	opts      *compileOptions

	deps   map[string]any
	depth  int
	nextID int
}

// getResolverName derives the stable dependency key for a resolver call site.
func getResolverName(parentType, fieldName string) string {
	return parentType + "." + fieldName
}

// compileError aborts compilation with a plain (unlocated) error.
type compileError struct{ msg string }

func (e *compileError) Error() string { return e.msg }

func compileErrorf(format string, args ...any) error {
	return &compileError{msg: fmt.Sprintf(format, args...)}
}

// compileObject compiles a selection set against a concrete object type.
// topLevel forces every field through a resolver site, which gives uniform
// handling of null root values and consistent top-level error framing.
func (cc *compileContext) compileObject(typ *schema.Type, selections ast.SelectionSet, topLevel bool, nonNull bool, owner string) (*objectPlan, error) {
	collected := collectFields(cc, typ, selections)
	plan := &objectPlan{
		position: position{nn: nonNull, owner: owner},
		typ:      typ,
		fields:   make([]objectField, 0, len(collected)),
	}
	for _, cf := range collected {
		nodes := astNodes(cf.nodes)
		first := cf.nodes[0].field

		if first.Name == "__typename" {
			plan.fields = append(plan.fields, objectField{
				key:   cf.key,
				nodes: cf.nodes,
				node:  &typenamePlan{position: position{owner: typ.Name, nodes: nodes}, name: typ.Name},
			})
			continue
		}

		fieldDef := typ.Field(first.Name)
		if fieldDef == nil {
			// Unknown field; validation is presumed to have rejected this
			// already. Kept for compatibility.
			continue
		}

		fieldOwner := typ.Name + "." + fieldDef.Name
		sub, err := cc.compileType(fieldDef.Type, mergeSubSelections(cf.nodes), nodes, false, fieldOwner)
		if err != nil {
			return nil, err
		}

		var node planNode
		if topLevel || fieldDef.Resolve != nil {
			args, err := cc.compileArguments(fieldDef, first.Arguments)
			if err != nil {
				return nil, err
			}
			rp := &resolverPlan{
				position:   position{nn: fieldDef.Type.IsNonNull(), owner: fieldOwner, nodes: nodes},
				id:         cc.nextID,
				name:       getResolverName(typ.Name, fieldDef.Name),
				parentType: typ,
				field:      fieldDef,
				resolve:    fieldDef.Resolve,
				args:       args,
				sub:        sub,
			}
			cc.nextID++
			cc.deps[rp.name] = fieldDef.Resolve
			node = rp
		} else {
			node = &inlinePlan{
				position:  position{nn: fieldDef.Type.IsNonNull(), owner: fieldOwner, nodes: nodes},
				fieldName: fieldDef.Name,
				sub:       sub,
			}
		}
		plan.fields = append(plan.fields, objectField{key: cf.key, nodes: cf.nodes, node: node})
	}
	return plan, nil
}

// compileType compiles the plan for one output type position.
func (cc *compileContext) compileType(t *schema.TypeRef, selections ast.SelectionSet, nodes []*ast.Field, nonNull bool, owner string) (planNode, error) {
	if t == nil {
		return nil, compileErrorf("missing type for field %s", owner)
	}
	switch t.Kind {
	case schema.TypeRefKindNonNull:
		return cc.compileType(t.OfType, selections, nodes, true, owner)
	case schema.TypeRefKindList:
		depth := cc.depth
		cc.depth++
		elem, err := cc.compileType(t.OfType, selections, nodes, false, owner)
		if err != nil {
			return nil, err
		}
		return &listPlan{
			position: position{nn: nonNull, owner: owner, nodes: nodes},
			elem:     elem,
			depth:    depth,
		}, nil
	}

	typeObj := cc.schema.Types[t.Named]
	if typeObj == nil {
		return nil, compileErrorf("Unknown type %q.", t.Named)
	}

	switch {
	case typeObj.Kind.IsLeaf():
		lp := &leafPlan{
			position:  position{nn: nonNull, owner: owner, nodes: nodes},
			typ:       typeObj,
			serialize: cc.bindLeafSerializer(typeObj),
		}
		cc.deps[typeObj.Name+".serialize"] = lp.serialize
		return lp, nil

	case typeObj.Kind == schema.TypeKindObject:
		return cc.compileObject(typeObj, selections, false, nonNull, owner)

	case typeObj.Kind.IsAbstract():
		branches := make(map[string]*objectPlan, len(typeObj.PossibleTypes))
		for _, possible := range typeObj.PossibleTypes {
			concrete := cc.schema.Types[possible]
			if concrete == nil || concrete.Kind != schema.TypeKindObject {
				return nil, compileErrorf("Possible type %q of %q is not an Object type.", possible, typeObj.Name)
			}
			// Branches compile independently; resolver continuations below
			// one branch never leak into a sibling branch.
			branch, err := cc.compileObject(concrete, selections, false, nonNull, owner)
			if err != nil {
				return nil, err
			}
			branches[possible] = branch
		}
		if typeObj.ResolveType != nil {
			cc.deps[typeObj.Name+".__resolveType"] = typeObj.ResolveType
		}
		return &abstractPlan{
			position: position{nn: nonNull, owner: owner, nodes: nodes},
			typ:      typeObj,
			branches: branches,
		}, nil

	default:
		return nil, compileErrorf("Type %q cannot be used as an output type.", typeObj.Name)
	}
}

// bindLeafSerializer binds the serialization step for a scalar or enum. With
// leaf serialization disabled, built-in scalars and enums become pass-through
// while custom scalar serializers still run.
func (cc *compileContext) bindLeafSerializer(t *schema.Type) schema.SerializeFn {
	if cc.opts.disableLeafSerialization {
		if t.Kind == schema.TypeKindEnum || schema.IsBuiltinScalar(t.Name) {
			return passthroughSerializer
		}
	}
	if t.Serialize != nil {
		return t.Serialize
	}
	if t.Kind == schema.TypeKindEnum {
		return schema.SerializeEnum(t)
	}
	return passthroughSerializer
}

func passthroughSerializer(v any) (any, error) { return v, nil }

func astNodes(nodes []fieldNode) []*ast.Field {
	out := make([]*ast.Field, len(nodes))
	for i, n := range nodes {
		out[i] = n.field
	}
	return out
}

// mergeSubSelections concatenates the sub-selections of all field nodes that
// share a response key, preserving source order.
func mergeSubSelections(nodes []fieldNode) ast.SelectionSet {
	var merged ast.SelectionSet
	for _, n := range nodes {
		merged = append(merged, n.field.SelectionSet...)
	}
	return merged
}

// effective strips field wrappers for nullability and trimming walks: a field
// position's behavior lives in the sub-plan of its resolver or inline node.
func effective(node planNode) planNode {
	switch n := node.(type) {
	case *resolverPlan:
		return n.sub
	case *inlinePlan:
		return n.sub
	default:
		return node
	}
}
