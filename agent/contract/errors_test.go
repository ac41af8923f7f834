package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "invalid input", err: fmt.Errorf("%w: date is required", ErrInvalidInput), want: KindInvalidInput},
		{name: "validation", err: fmt.Errorf("%w: message is empty", ErrValidation), want: KindInvalidInput},
		{name: "not found", err: fmt.Errorf("lookup: %w", ErrNotFound), want: KindNotFound},
		{name: "conflict", err: ErrConflict, want: KindConflict},
		{name: "ambiguous is a conflict", err: fmt.Errorf("%w: 2 providers", ErrAmbiguous), want: KindConflict},
		{name: "timeout", err: fmt.Errorf("%w: store.get_provider", ErrTimeout), want: KindTimeout},
		{name: "unavailable", err: fmt.Errorf("%w: after 3 attempts", ErrUnavailable), want: KindUnavailable},
		{name: "unknown", err: errors.New("connection reset by peer"), want: KindUnavailable},
		{name: "context", err: context.Canceled, want: KindUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTaxonomy(t *testing.T) {
	t.Parallel()

	if !IsTaxonomy(fmt.Errorf("wrap: %w", ErrNotFound)) {
		t.Fatal("wrapped ErrNotFound should be taxonomy")
	}
	if !IsTaxonomy(ErrAmbiguous) {
		t.Fatal("ErrAmbiguous should be taxonomy")
	}
	if IsTaxonomy(errors.New("dial tcp: i/o timeout")) {
		t.Fatal("raw network error should not be taxonomy")
	}
	if IsTaxonomy(nil) {
		t.Fatal("nil should not be taxonomy")
	}
}

func TestDecisionHasCalls(t *testing.T) {
	t.Parallel()

	if (Decision{Text: "hi"}).HasCalls() {
		t.Fatal("text decision should have no calls")
	}
	if !(Decision{Calls: []ToolCall{{ID: "1", Tool: "find_provider"}}}).HasCalls() {
		t.Fatal("decision with calls should report them")
	}
}
