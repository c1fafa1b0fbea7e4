package lumigo

import (
	"os"
	"strconv"
	"strings"

	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// DefaultHandlerName is the handler looked up when no name is configured
const DefaultHandlerName = "myHandler"

// DefaultWarmupSource marks keep warm invocations issued by the
// serverless-plugin-warmup tooling
const DefaultWarmupSource = "serverless-plugin-warmup"

// Config is the configuration for the dispatch wrapper
type Config struct {
	tracer.Config

	// Handler is a direct business handler reference. When set it takes
	// precedence over HandlerName.
	Handler interface{}

	// HandlerName is the registry name of the business handler
	HandlerName string

	// SamplingRate is the probability in [0,1] that an invocation is traced
	SamplingRate float64

	// WarmupSource identifies synthetic warm-up invocations, which are
	// never traced
	WarmupSource string

	// TraceConditions is the raw JSON trace condition rule,
	// e.g. {"field":"path","operator":"contains","value":"/api/trace"}
	TraceConditions string
}

// NewConfig creates a dispatch Config with the given handler name and token
func NewConfig(handlerName, token string) *Config {
	return &Config{
		Config: tracer.Config{
			Token:        token,
			MetadataOnly: true,
			Debug:        false,
			SendTimeout:  "1s",
		},
		HandlerName:  handlerName,
		SamplingRate: 1.0,
		WarmupSource: DefaultWarmupSource,
	}
}

// NewConfigFromEnv resolves the dispatch configuration from the environment,
// once, at cold start. The returned Config is never mutated afterwards and is
// safe to share across warm invocations.
func NewConfigFromEnv() *Config {
	debug := strings.ToLower(os.Getenv("LUMIGO_DEBUG")) == "true"

	handlerName := os.Getenv("LUMIGO_ORIGINAL_HANDLER")
	if len(handlerName) == 0 {
		handlerName = DefaultHandlerName
	}

	warmupSource := os.Getenv("LUMIGO_WARMUP_SOURCE")
	if len(warmupSource) == 0 {
		warmupSource = DefaultWarmupSource
	}

	traceConditions := os.Getenv("LUMIGO_TRACE_CONDITIONS")
	if len(traceConditions) == 0 {
		traceConditions = "{}"
	}

	return &Config{
		Config: tracer.Config{
			MetadataOnly: true,
			Debug:        debug,
			SendTimeout:  "1s",
		},
		HandlerName:     handlerName,
		SamplingRate:    samplingRateFromEnv(debug),
		WarmupSource:    warmupSource,
		TraceConditions: traceConditions,
	}
}

func samplingRateFromEnv(debug bool) float64 {
	rawRate := os.Getenv("LUMIGO_TRACE_SAMPLING_RATE")
	if len(rawRate) == 0 {
		return 1.0
	}
	rate, err := strconv.ParseFloat(rawRate, 64)
	if err != nil {
		DebugLog(debug, "invalid LUMIGO_TRACE_SAMPLING_RATE, using 1.0:", rawRate)
		return 1.0
	}
	if rate < 0.0 {
		return 0.0
	}
	if rate > 1.0 {
		return 1.0
	}
	return rate
}
