package events

import "time"

// GraphQLStart is emitted after a GraphQL operation has been compiled (or
// taken from the cache) and before it runs. Operations that fail to parse or
// compile emit no GraphQLStart.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	CacheHit      bool
	Errors        []error
	Duration      time.Duration
}
