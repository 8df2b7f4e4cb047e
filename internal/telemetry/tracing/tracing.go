package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// GlobalTracer resolves the global tracer provider lazily, so spans started
// after HoneycombSetup are exported.
var GlobalTracer trace.Tracer = otel.Tracer("guestbook")
