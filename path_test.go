package graphqljit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResponsePath_SliceElidesMeta(t *testing.T) {
	var root *ResponsePath
	p := root.Literal("a").Meta("branch:Dog").Index(3).Literal("b")
	if diff := cmp.Diff([]any{"a", 3, "b"}, p.Slice()); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestResponsePath_Persistence(t *testing.T) {
	var root *ResponsePath
	base := root.Literal("xs")
	p0 := base.Index(0)
	p1 := base.Index(1)
	if diff := cmp.Diff([]any{"xs", 0}, p0.Slice()); diff != "" {
		t.Fatalf("p0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"xs", 1}, p1.Slice()); diff != "" {
		t.Fatalf("p1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"xs"}, base.Slice()); diff != "" {
		t.Fatalf("base mutated (-want +got):\n%s", diff)
	}
}

func TestResponsePath_NilRoot(t *testing.T) {
	var root *ResponsePath
	if got := root.Slice(); got != nil {
		t.Fatalf("nil root should serialize to nil, got %v", got)
	}
}
