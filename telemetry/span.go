package telemetry

// SpanTraceRoot the amazon X-Trace-ID
type SpanTraceRoot struct {
	Root string `json:"Root"`
}

// TracerVersion the version info for the tracer
// which captured the spans
type TracerVersion struct {
	Version string `json:"version"`
}

// SpanError holds error information captured on a span
type SpanError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

// TriggeredBy describes the event source that triggered the invocation
type TriggeredBy struct {
	TriggeredBy string `json:"triggeredBy"`
	API         string `json:"api,omitempty"`
	Method      string `json:"httpMethod,omitempty"`
	Resource    string `json:"resource,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
	Arn         string `json:"arn,omitempty"`
	Region      string `json:"region,omitempty"`

	// Extra holds source specific details (stage, object key, stream
	// sequence number and so on)
	Extra map[string]string `json:"extra,omitempty"`
}

// HTTPRequestInfo data recorded about an outgoing HTTP request
type HTTPRequestInfo struct {
	URI     string `json:"uri"`
	Method  string `json:"method"`
	Headers string `json:"headers,omitempty"`
	Body    string `json:"body,omitempty"`
}

// HTTPResponseInfo data recorded about an HTTP response
type HTTPResponseInfo struct {
	StatusCode int    `json:"statusCode"`
	Headers    string `json:"headers,omitempty"`
	Body       string `json:"body,omitempty"`
}

// HTTPInfo groups request and response data on an HTTP span
type HTTPInfo struct {
	Host     string            `json:"host"`
	Request  *HTTPRequestInfo  `json:"request,omitempty"`
	Response *HTTPResponseInfo `json:"response,omitempty"`
}

// SpanInfo extra info for span
type SpanInfo struct {
	LogStreamName string        `json:"logStreamName,omitempty"`
	LogGroupName  string        `json:"logGroupName,omitempty"`
	TraceID       SpanTraceRoot `json:"traceId"`
	TracerVersion TracerVersion `json:"tracer"`
	TriggeredBy   *TriggeredBy  `json:"triggeredBy,omitempty"`
	HTTPInfo      *HTTPInfo     `json:"httpInfo,omitempty"`
}

// Span is a distributed tracing span.
type Span struct {
	// ID is a unique identifier for this span.
	ID string `json:"id"`

	// ParentID is the span id of the previous caller of this span.  This
	// can be empty if this is the first span.
	ParentID string `json:"parentId,omitempty"`

	// TransactionID is the ID generated for this span transaction
	TransactionID string `json:"transactionId"`

	// Runtime the runtime which lambda runs on
	Runtime string `json:"runtime,omitempty"`

	// Region the region which lambda runs
	Region string `json:"region,omitempty"`

	// Event is the lambda event triggered the lambda
	Event string `json:"event,omitempty"`

	// Token is the lumigo token needed to send the spans later
	Token string `json:"token"`

	// MemoryAllocated the requested memory for this lambda
	MemoryAllocated string `json:"memoryAllocated,omitempty"`

	// Account represents the AWS Account ID
	Account string `json:"account,omitempty"`

	// LambdaEnvVars the environment variables of the lambda
	LambdaEnvVars string `json:"envs,omitempty"`

	// LambdaType the type of the span: "function", "http", "awsSdk"
	LambdaType string `json:"type"`

	// LambdaName the name of the lambda
	LambdaName string `json:"name,omitempty"`

	// LambdaReadiness is if lambda is cold or warmed already
	LambdaReadiness string `json:"readiness,omitempty"`

	// LambdaResponse the response of the lambda
	LambdaResponse *string `json:"return_value"`

	// LambdaContainerID the id of the lambda container
	LambdaContainerID string `json:"lambda_container_id,omitempty"`

	// Service is the remote service name for awsSdk spans
	Service string `json:"service,omitempty"`

	// Operation is the remote operation name for awsSdk spans
	Operation string `json:"operation,omitempty"`

	// Metadata free form remote call details for awsSdk spans
	Metadata map[string]string `json:"metadata,omitempty"`

	// SpanInfo extra info for span
	SpanInfo SpanInfo `json:"info"`

	// Error the error captured during this span, if any
	Error *SpanError `json:"error,omitempty"`

	// ExecutionTags user defined tags attached to the runner span
	ExecutionTags map[string]interface{} `json:"execution_tags,omitempty"`

	// StartedTimestamp when this span started (epoch milliseconds)
	StartedTimestamp int64 `json:"started"`

	// EndedTimestamp when this span ended (epoch milliseconds)
	EndedTimestamp int64 `json:"ended"`

	// MaxFinishTime the max finish time of the lambda
	MaxFinishTime int64 `json:"maxFinishTime,omitempty"`
}

// FunctionSpanType marks the runner span of an invocation
const FunctionSpanType = "function"

// HTTPSpanType marks spans for outgoing HTTP calls
const HTTPSpanType = "http"

// AwsSdkSpanType marks spans for AWS SDK calls
const AwsSdkSpanType = "awsSdk"
