package graphqljit

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

// slot is a reserved position in the result tree, allocated by the
// synchronous pass and filled in when a resolver completes.
type slot struct {
	m   *ResultMap
	key string
}

// invocation is the per-Run frame. The compiled plan is shared and read-only;
// everything here is owned by a single call.
type invocation struct {
	q    *CompiledQuery
	ctx  context.Context
	root any
	vars map[string]any

	mu         sync.Mutex
	data       *ResultMap
	dataNull   bool
	errors     []*GraphQLError
	nullErrors []*GraphQLError

	result *ExecutionResult
	done   chan struct{}
}

// Run executes the compiled plan against a root value, an ambient context and
// coerced-on-entry variable bindings. It blocks until every deferred resolver
// has drained or ctx is cancelled.
func (q *CompiledQuery) Run(ctx context.Context, root any, variables map[string]any) *ExecutionResult {
	vars, verrs := q.coerceVariables(variables)
	if len(verrs) > 0 {
		return errorResult(verrs...)
	}

	inv := &invocation{
		q:    q,
		ctx:  ctx,
		root: root,
		vars: vars,
		done: make(chan struct{}),
	}

	var ex completer
	if q.operation.Operation == ast.Mutation {
		ex = newSerialExecutor(inv.finish)
	} else {
		ex = newParallelExecutor(inv.finish)
	}

	inv.data = inv.walkObject(ex, q.root, root, nil)
	ex.signalSyncDone()

	select {
	case <-inv.done:
		return inv.result
	case <-ctx.Done():
		// Stragglers still drain internally; the completion callback fires
		// exactly once regardless.
		return &ExecutionResult{Errors: []*GraphQLError{{Message: ctx.Err().Error()}}}
	}
}

// finish runs once, when the outstanding-work counter of the root executor
// drains. No other goroutine touches the invocation past this point.
func (inv *invocation) finish() {
	inv.trim()
	res := &ExecutionResult{Errors: inv.errors}
	if !inv.dataNull {
		res.Data = inv.data
	}
	inv.result = res
	close(inv.done)
}

// walkObject assembles a response object in selection order. Resolver sites
// reserve their slot with a null placeholder before dispatching.
func (inv *invocation) walkObject(ex completer, plan *objectPlan, value any, path *ResponsePath) *ResultMap {
	rm := newResultMap(len(plan.fields))
	for i := range plan.fields {
		f := &plan.fields[i]
		if !inv.includeField(f.nodes) {
			continue
		}
		fieldPath := path.Literal(f.key)
		s := slot{m: rm, key: f.key}
		switch node := f.node.(type) {
		case *typenamePlan:
			inv.setSlot(s, node.name)
		case *resolverPlan:
			inv.setSlot(s, nil)
			inv.dispatch(ex, node, value, s, fieldPath)
		case *inlinePlan:
			v := defaultFieldValue(value, node.fieldName)
			inv.setSlot(s, inv.complete(ex, node.sub, v, fieldPath))
		}
	}
	return rm
}

// includeField applies @skip/@include conditions: the response key appears
// when at least one of its field nodes passes all of its conditions.
func (inv *invocation) includeField(nodes []fieldNode) bool {
	for _, n := range nodes {
		ok := true
		for _, c := range n.conds {
			v, _ := inv.vars[c.varName].(bool)
			if v != c.want {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// complete continues a plan node against a resolved value. Null handling is a
// policy decision per node: errors at non-null positions push to nullErrors
// and bubble later; errors at nullable positions are contained.
func (inv *invocation) complete(ex completer, node planNode, value any, path *ResponsePath) any {
	if err, ok := value.(error); ok && err != nil {
		inv.sinkError(node.nonNull(), wrapError(err, node.pos().nodes, path))
		return nil
	}
	if isNullish(value) {
		if node.nonNull() {
			inv.sinkError(true, locatedError(
				fmt.Sprintf("Cannot return null for non-nullable field %s.", node.pos().owner),
				node.pos().nodes, path))
		}
		return nil
	}

	switch n := node.(type) {
	case *leafPlan:
		out, err := n.serialize(value)
		if err != nil {
			inv.sinkError(n.nonNull(), wrapError(err, n.nodes, path))
			return nil
		}
		return out
	case *objectPlan:
		return inv.walkObject(ex, n, value, path)
	case *listPlan:
		return inv.walkList(ex, n, value, path)
	case *abstractPlan:
		return inv.walkAbstract(ex, n, value, path)
	default:
		inv.sinkError(node.nonNull(), locatedError(
			fmt.Sprintf("Cannot complete value for field %s.", node.pos().owner),
			node.pos().nodes, path))
		return nil
	}
}

func (inv *invocation) walkList(ex completer, plan *listPlan, value any, path *ResponsePath) any {
	items, ok := iterate(value)
	if !ok {
		inv.sinkError(plan.nonNull(), locatedError(
			fmt.Sprintf("Expected Iterable, but did not find one for field %s.", plan.owner),
			plan.nodes, path))
		return nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = inv.complete(ex, plan.elem, item, path.Index(i))
	}
	return out
}

func (inv *invocation) walkAbstract(ex completer, plan *abstractPlan, value any, path *ResponsePath) any {
	name, err := inv.resolveConcreteType(plan, value, path)
	if err != nil {
		inv.sinkError(plan.nonNull(), wrapError(err, plan.nodes, path))
		return nil
	}
	branch, ok := plan.branches[name]
	if !ok {
		inv.sinkError(plan.nonNull(), locatedError(
			fmt.Sprintf("Runtime Object type %q is not a possible type for %q.", name, plan.typ.Name),
			plan.nodes, path))
		return nil
	}
	return inv.walkObject(ex, branch, value, path)
}

// resolveConcreteType picks the concrete object type for an abstract value:
// the type's own resolver if present, else a non-empty __typename on the
// value, else the first possible type whose IsTypeOf accepts it. Resolution
// is always synchronous.
func (inv *invocation) resolveConcreteType(plan *abstractPlan, value any, path *ResponsePath) (string, error) {
	if plan.typ.ResolveType != nil {
		info := &schema.ResolveInfo{
			FieldName:      plan.typ.Name,
			ReturnType:     schema.NamedType(plan.typ.Name),
			Path:           path.Slice(),
			Schema:         inv.q.schema,
			Fragments:      inv.q.fragments,
			RootValue:      inv.root,
			Operation:      inv.q.operation,
			VariableValues: inv.vars,
		}
		name, err := plan.typ.ResolveType(inv.ctx, value, info)
		if err != nil {
			return "", err
		}
		if name != "" {
			return name, nil
		}
	} else {
		if tn, ok := defaultFieldValue(value, "__typename").(string); ok && tn != "" {
			return tn, nil
		}
		for _, possible := range plan.typ.PossibleTypes {
			t := inv.q.schema.Types[possible]
			if t != nil && t.IsTypeOf != nil && t.IsTypeOf(value) {
				return possible, nil
			}
		}
	}
	return "", fmt.Errorf(
		"Abstract type %q must resolve to an Object type at runtime for field %s. Either the %q type should provide a ResolveType function or each possible type should provide an IsTypeOf function.",
		plan.typ.Name, plan.owner, plan.typ.Name)
}

// dispatch hands a resolver call site to the executor. The task runs the
// resolver, bridges its result through the value-or-future adapter, and
// splices the continued subtree into the reserved slot.
func (inv *invocation) dispatch(ex completer, rp *resolverPlan, source any, s slot, path *ResponsePath) {
	ex.enqueue(func(sub completer, done func()) {
		args, err := rp.args.bind(inv.vars)
		if err != nil {
			inv.sinkError(rp.nonNull(), wrapError(err, rp.nodes, path))
			done()
			return
		}
		value, rerr := inv.invokeResolver(rp, source, args, path)
		inv.deliver(sub, rp, s, path, value, rerr, done)
	})
}

// deliver is the value-or-future adapter: a plain value settles synchronously,
// a Future settles when it resolves, and a list whose elements may
// individually be futures is awaited with rejections materialized in-band.
func (inv *invocation) deliver(sub completer, rp *resolverPlan, s slot, path *ResponsePath, value any, err error, done func()) {
	if err == nil {
		switch v := value.(type) {
		case Future:
			v.Subscribe(func(val any, ferr error) {
				inv.settle(sub, rp, s, path, val, ferr)
				done()
			})
			return
		case []any:
			if containsFuture(v) {
				awaitList(v, func(list []any) {
					inv.settle(sub, rp, s, path, list, nil)
					done()
				})
				return
			}
		}
	}
	inv.settle(sub, rp, s, path, value, err)
	done()
}

func (inv *invocation) settle(sub completer, rp *resolverPlan, s slot, path *ResponsePath, value any, err error) {
	if err == nil {
		// A returned error value and a returned error converge here.
		if ev, ok := value.(error); ok {
			err = ev
		}
	}
	if err != nil {
		inv.sinkError(rp.nonNull(), wrapError(err, rp.nodes, path))
		inv.setSlot(s, nil)
		return
	}
	inv.setSlot(s, inv.complete(sub, rp.sub, value, path))
}

// invokeResolver calls the user resolver (or the default property resolver),
// converging panics with returned errors.
func (inv *invocation) invokeResolver(rp *resolverPlan, source any, args map[string]any, path *ResponsePath) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	if rp.resolve == nil {
		return defaultFieldValue(source, rp.field.Name), nil
	}
	return rp.resolve(inv.ctx, source, args, inv.resolveInfo(rp, path))
}

// resolveInfo is built only for call sites with a user resolver; default
// property resolution never pays for it.
func (inv *invocation) resolveInfo(rp *resolverPlan, path *ResponsePath) *schema.ResolveInfo {
	return &schema.ResolveInfo{
		FieldName:      rp.field.Name,
		FieldNodes:     rp.nodes,
		ReturnType:     rp.field.Type,
		ParentType:     rp.parentType,
		Path:           path.Slice(),
		Schema:         inv.q.schema,
		Fragments:      inv.q.fragments,
		RootValue:      inv.root,
		Operation:      inv.q.operation,
		VariableValues: inv.vars,
	}
}

func (inv *invocation) setSlot(s slot, v any) {
	inv.mu.Lock()
	s.m.set(s.key, v)
	inv.mu.Unlock()
}

func (inv *invocation) sinkError(nonNull bool, err *GraphQLError) {
	inv.mu.Lock()
	if nonNull {
		inv.nullErrors = append(inv.nullErrors, err)
	} else {
		inv.errors = append(inv.errors, err)
	}
	inv.mu.Unlock()
}

// iterate materializes a list value. Strings and maps are not iterable here.
func iterate(value any) ([]any, bool) {
	if direct, ok := value.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	}
	return nil, false
}

// defaultFieldValue reads a field off a parent value: map lookup first, then
// an exported struct field or niladic method with a matching name.
func defaultFieldValue(source any, name string) any {
	if source == nil {
		return nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[name]
	}
	rv := reflect.ValueOf(source)
	if mv := rv.MethodByName(exportedName(name)); mv.IsValid() {
		return callAccessor(mv)
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			v := rv.MapIndex(reflect.ValueOf(name))
			if v.IsValid() {
				return v.Interface()
			}
		}
	case reflect.Struct:
		f := rv.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
		if mv := rv.MethodByName(exportedName(name)); mv.IsValid() {
			return callAccessor(mv)
		}
	}
	return nil
}

func callAccessor(mv reflect.Value) any {
	t := mv.Type()
	if t.NumIn() != 0 {
		return nil
	}
	switch t.NumOut() {
	case 1:
		return mv.Call(nil)[0].Interface()
	case 2:
		out := mv.Call(nil)
		if err, ok := out[1].Interface().(error); ok && err != nil {
			return err
		}
		return out[0].Interface()
	}
	return nil
}

func exportedName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr,
// interface, func, chan)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
