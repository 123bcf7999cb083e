// Command server runs a small GraphQL endpoint over a compiled-query handler:
// an in-memory counter with synchronous reads and asynchronous increments.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	graphqljit "github.com/nabeelbukhari/graphql-jit"
	"github.com/nabeelbukhari/graphql-jit/internal/eventbus"
	"github.com/nabeelbukhari/graphql-jit/internal/otel"
	"github.com/nabeelbukhari/graphql-jit/internal/server"
	"github.com/nabeelbukhari/graphql-jit/schema"
)

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func (c *counter) snap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newSchema(c *counter) *schema.Schema {
	s := &schema.Schema{
		QueryType:    "Query",
		MutationType: "Mutation",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{
						Name: "value",
						Type: schema.NonNullType(schema.NamedType("Int")),
						Resolve: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
							return c.snap(), nil
						},
					},
					{
						Name: "greet",
						Type: schema.NamedType("String"),
						Arguments: []*schema.InputValue{
							{Name: "name", Type: schema.NamedType("String"), DefaultValue: "anon"},
						},
						Resolve: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
							name, _ := args["name"].(string)
							return "hello " + name, nil
						},
					},
				},
			},
			"Mutation": {
				Name: "Mutation",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{
						Name: "inc",
						Type: schema.NamedType("Int"),
						Resolve: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
							return graphqljit.Go(func() (any, error) {
								time.Sleep(10 * time.Millisecond)
								return c.inc(), nil
							}), nil
						},
					},
					{
						Name: "snap",
						Type: schema.NamedType("Int"),
						Resolve: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
							return c.snap(), nil
						},
					},
				},
			},
		},
	}
	return s.WithBuiltins()
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	otlp := flag.String("otlp", "", "OTLP trace endpoint (empty disables tracing)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otlp, "graphql-jit-demo")
	if err != nil {
		log.Fatal(err)
	}
	defer shutdown(context.Background())

	h, err := server.New(newSchema(&counter{}),
		server.WithPretty(),
		server.WithLogger(logger),
		server.WithTimeout(5*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}

	logger.Info("listening", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, h); err != nil {
		log.Fatal(err)
	}
}
