package tracer

import (
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
)

// DefaultLambdaTimeoutThresholdMs is how long before the lambda deadline
// the trace is flushed when no threshold is configured
const DefaultLambdaTimeoutThresholdMs = 500

// GetTimestamp returns the current time in epoch milliseconds
func GetTimestamp() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// GetLambdaTimeoutThresholdMs returns the configured timeout flush threshold
func GetLambdaTimeoutThresholdMs() int64 {
	rawThreshold := os.Getenv("LUMIGO_TIMEOUT_THRESHOLD_MS")
	if len(rawThreshold) == 0 {
		return DefaultLambdaTimeoutThresholdMs
	}
	threshold, err := strconv.ParseInt(rawThreshold, 10, 64)
	if err != nil || threshold <= 0 {
		return DefaultLambdaTimeoutThresholdMs
	}
	return threshold
}

func newStackError(errorType, msg string) *telemetry.SpanError {
	return &telemetry.SpanError{
		Type:       errorType,
		Message:    msg,
		Stacktrace: string(debug.Stack()),
	}
}

// AddErrorTypeAndMessage adds an error to the current global tracer with
// the current stack.
// errorType, msg are strings that will be added to the error
func AddErrorTypeAndMessage(errorType, msg string) {
	AddError(newStackError(errorType, msg))
}
