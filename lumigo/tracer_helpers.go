package lumigo

import (
	"context"

	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

type tracerKey string

const tracerKeyValue tracerKey = "tracer"

// ContextWithTracer creates a context with given tracer
func ContextWithTracer(t tracer.Tracer, ctx ...context.Context) context.Context {
	if len(ctx) == 1 {
		return context.WithValue(ctx[0], tracerKeyValue, t)
	}
	return context.WithValue(context.Background(), tracerKeyValue, t)
}

// ExtractTracer extracts the tracer from given contexts (using first context),
// returns the global tracer if no context is given and the global tracer is
// valid (= non nil, not stopped). A context without a tracer yields nil:
// that is the untraced invocation path (sampled out or warm-up), not an
// error.
func ExtractTracer(ctx []context.Context) tracer.Tracer {
	if len(ctx) == 0 {
		if tracer.GlobalTracer == nil || tracer.GlobalTracer.Stopped() {
			return nil
		}
		return tracer.GlobalTracer
	}
	rawValue := ctx[0].Value(tracerKeyValue)
	if rawValue == nil {
		return nil
	}
	tracerValue, ok := rawValue.(tracer.Tracer)
	if !ok {
		panic("Invalid context value, pass a context created with ContextWithTracer")
	}
	if tracerValue == nil || tracerValue.Stopped() {
		return nil
	}
	return tracerValue
}

// MergeTracerContext merges the provided tracer context with the given context.
func MergeTracerContext(ctx context.Context, tracerCtx context.Context) context.Context {
	currentTracer := ExtractTracer([]context.Context{tracerCtx})
	if currentTracer != nil {
		return context.WithValue(ctx, tracerKeyValue, currentTracer)
	}
	return ctx
}
