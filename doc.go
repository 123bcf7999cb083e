// Package graphqljit compiles a typed graph query against a schema into a
// specialized plan that executes without re-walking the query AST.
//
// # Overview
//
// Compile consumes an already-parsed, already-validated query document
// (a gqlparser AST) plus a schema view carrying resolver and serializer
// callables, and produces a CompiledQuery. The compiled plan is a tree of
// tagged nodes, one per response position:
//   - object nodes shape response objects in selection order,
//   - leaf nodes run a bound scalar/enum serializer,
//   - list nodes iterate, extending the response path with each index,
//   - abstract nodes dispatch to a precompiled branch per concrete type,
//   - resolver nodes are deferred call sites reaching out to user functions.
//
// # Execution model
//
// Run interleaves two phases. The synchronous phase assembles the response
// skeleton: every reachable resolver site reserves its slot with a null
// placeholder and hands a task to the executor. The asynchronous phase drains
// those tasks: each invokes its resolver, bridges the result through the
// value-or-future adapter, and continues compiling the resolver's subtree
// into the reserved slot, possibly scheduling further resolver sites.
//
// The executor counts outstanding work and fires one completion callback when
// the counter drains. Queries use a single parallel executor for the whole
// tree. Mutations linearize their top-level fields through a serial executor:
// each top-level field runs to full drain under its own parallel executor
// before the next starts, while its subtree still parallelizes.
//
// # Errors and null propagation
//
// Field errors are contained at the field: the slot becomes null, a located
// error with the field's response path is recorded, execution continues.
// Errors at non-null positions are tracked separately; after all deferred
// work has landed, a trimming pass walks each such error's path and nulls the
// nearest nullable ancestor, or the whole data tree when none exists.
//
// The compiled plan holds no per-call state and may be shared freely across
// concurrent invocations.
package graphqljit
