package tracer

import (
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
)

// MockedLumigoTracer will not send spans if closed
type MockedLumigoTracer struct {
	Spans         *[]*telemetry.Span
	Errors        *[]*telemetry.SpanError
	Tags          map[string]interface{}
	RunnerError   *telemetry.SpanError
	Config        *Config
	LastStartTime int64

	PanicStart    bool
	PanicAddSpan  bool
	PanicAddError bool
	PanicStop     bool
}

// Start implements mocked Start
func (t *MockedLumigoTracer) Start() {
	t.LastStartTime = GetTimestamp()
	if t.PanicStart {
		panic("panic in Start()")
	}
}

// Running implements mocked Running
func (t *MockedLumigoTracer) Running() bool {
	return false
}

// SendStopSignal implements mocked SendStopSignal
func (t *MockedLumigoTracer) SendStopSignal() {
}

// Stop implements mocked Stop
func (t *MockedLumigoTracer) Stop() {
	if t.PanicStop {
		panic("panic in Stop()")
	}
}

// Stopped implements mocked Stopped
func (t *MockedLumigoTracer) Stopped() bool {
	return false
}

// AddSpan implements mocked AddSpan
func (t *MockedLumigoTracer) AddSpan(span *telemetry.Span) {
	if t.PanicAddSpan {
		panic("panic in AddSpan()")
	}
	*t.Spans = append(*t.Spans, span)
}

// AddError implements mocked AddError
func (t *MockedLumigoTracer) AddError(spanError *telemetry.SpanError) {
	if t.PanicAddError {
		panic("panic in AddError()")
	}
	*t.Errors = append(*t.Errors, spanError)
}

// AddExecutionTag implements mocked AddExecutionTag
func (t *MockedLumigoTracer) AddExecutionTag(key string, value interface{}) {
	if t.Tags == nil {
		t.Tags = make(map[string]interface{})
	}
	t.Tags[key] = value
}

// SetRunnerError implements mocked SetRunnerError
func (t *MockedLumigoTracer) SetRunnerError(spanError *telemetry.SpanError) {
	t.RunnerError = spanError
}

// GetRunnerSpan implements mocked GetRunnerSpan
func (t *MockedLumigoTracer) GetRunnerSpan() *telemetry.Span {
	for _, span := range *t.Spans {
		if span.LambdaType == telemetry.FunctionSpanType {
			return span
		}
	}
	return nil
}

// GetConfig implements mocked GetConfig
func (t *MockedLumigoTracer) GetConfig() *Config {
	if t.Config == nil {
		return &Config{}
	}
	return t.Config
}

// AddErrorTypeAndMessage implements AddErrorTypeAndMessage
func (t *MockedLumigoTracer) AddErrorTypeAndMessage(errorType, msg string) {
	t.AddError(&telemetry.SpanError{
		Type:    errorType,
		Message: msg,
	})
}
