package httpapi

import (
	"context"
	"testing"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	cases := map[string]bool{
		"httpapi.Handler.GetLeagueTable":       true,
		"httpapi.Handler.EnqueueRecalculation": true,
		"httpapi.Handler.RestoreSnapshot":      true,
		"httpapi.RequestLogging":               false,
		"httpapi.writeJSON":                    false,
		"usecase.Recalculate":                  false,
	}

	for name, want := range cases {
		if got := shouldCreateHTTPAPISpan(name); got != want {
			t.Errorf("shouldCreateHTTPAPISpan(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStartSpan_NoRecordingParentKeepsContext(t *testing.T) {
	ctx := context.Background()

	got, span := startSpan(ctx, "httpapi.Handler.GetLeagueTable")
	if got != ctx {
		t.Fatal("expected the original context back when no parent span is recording")
	}
	if span.SpanContext().IsValid() {
		t.Fatal("expected a non-recording span without a recording parent")
	}
}

func TestStartSpan_SkipsNonHandlerNames(t *testing.T) {
	ctx := context.Background()

	got, span := startSpan(ctx, "httpapi.writeError")
	if got != ctx {
		t.Fatal("expected the original context back for a non-handler span name")
	}
	if span.SpanContext().IsValid() {
		t.Fatal("expected a non-recording span for a non-handler name")
	}
}
