package graphqljit

// ShapeKind names a response-shape node variant.
type ShapeKind string

const (
	ShapeObject   ShapeKind = "OBJECT"
	ShapeLeaf     ShapeKind = "LEAF"
	ShapeList     ShapeKind = "LIST"
	ShapeAbstract ShapeKind = "ABSTRACT"
	ShapeResolver ShapeKind = "RESOLVER"
	ShapeTypeName ShapeKind = "TYPENAME"
)

// ShapeNode is a read-only view of the compiled plan, enough structure for an
// external serializer builder to construct a schema-directed encoder.
type ShapeNode struct {
	Kind         ShapeKind
	Key          string // response key; set on object fields
	TypeName     string
	NonNull      bool
	ResolverName string                // resolver dependency key; RESOLVER only
	Fields       []*ShapeNode          // OBJECT
	Element      *ShapeNode            // LIST
	Branches     map[string]*ShapeNode // ABSTRACT
	Sub          *ShapeNode            // RESOLVER continuation
}

// ResponseShape exports the compiled plan's response structure.
func (q *CompiledQuery) ResponseShape() *ShapeNode {
	return shapeOf(q.root)
}

func shapeOf(node planNode) *ShapeNode {
	switch n := node.(type) {
	case *objectPlan:
		s := &ShapeNode{Kind: ShapeObject, TypeName: n.typ.Name, NonNull: n.nn}
		for _, f := range n.fields {
			child := shapeOf(f.node)
			child.Key = f.key
			s.Fields = append(s.Fields, child)
		}
		return s
	case *leafPlan:
		return &ShapeNode{Kind: ShapeLeaf, TypeName: n.typ.Name, NonNull: n.nn}
	case *listPlan:
		return &ShapeNode{Kind: ShapeList, NonNull: n.nn, Element: shapeOf(n.elem)}
	case *abstractPlan:
		s := &ShapeNode{Kind: ShapeAbstract, TypeName: n.typ.Name, NonNull: n.nn}
		s.Branches = make(map[string]*ShapeNode, len(n.branches))
		for name, branch := range n.branches {
			s.Branches[name] = shapeOf(branch)
		}
		return s
	case *resolverPlan:
		return &ShapeNode{
			Kind:         ShapeResolver,
			TypeName:     n.field.Type.GetNamedType(),
			NonNull:      n.nn,
			ResolverName: n.name,
			Sub:          shapeOf(n.sub),
		}
	case *typenamePlan:
		return &ShapeNode{Kind: ShapeTypeName, TypeName: n.name}
	case *inlinePlan:
		return shapeOf(n.sub)
	default:
		return &ShapeNode{}
	}
}
