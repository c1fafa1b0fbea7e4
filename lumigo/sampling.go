package lumigo

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

var defaultRandomDraw = rand.Float64

// randomDraw is swapped in tests for a deterministic source
var randomDraw = defaultRandomDraw

// shouldTrace combines the explicit condition rule, warm-up suppression and
// probabilistic sampling into the per-invocation trace decision. First
// matching rule wins: an explicit condition overrides both warm-up and
// sampling; warm-up invocations are never traced.
func shouldTrace(payload json.RawMessage, ctx context.Context, config *Config, condition *TraceCondition) bool {
	if condition != nil {
		var event map[string]interface{}
		if err := json.Unmarshal(payload, &event); err != nil {
			DebugLog(config.Debug, "trace condition set but event is not an object, not tracing:", err)
			return false
		}
		fieldValue, found := resolveEventField(event, condition.Field)
		if !found {
			DebugLog(config.Debug, "trace condition field not found, not tracing:", condition.Field)
			return false
		}
		matched := applyOperator(condition.Operator, stringifyFieldValue(fieldValue), condition.Value, config.Debug)
		DebugLog(config.Debug, "trace condition", condition.Field, condition.Operator, condition.Value,
			"resolved to", stringifyFieldValue(fieldValue), "decision:", matched)
		return matched
	}

	if len(config.WarmupSource) > 0 && warmupSource(ctx) == config.WarmupSource {
		DebugLog(config.Debug, "warm-up invocation, not tracing")
		return false
	}

	draw := randomDraw()
	decision := draw <= config.SamplingRate
	DebugLog(config.Debug, "sampling draw", draw, "rate", config.SamplingRate, "decision:", decision)
	return decision
}

// warmupSource extracts the client context marker used by keep warm tooling
func warmupSource(ctx context.Context) string {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok || lc.ClientContext.Custom == nil {
		return ""
	}
	return lc.ClientContext.Custom["source"]
}
