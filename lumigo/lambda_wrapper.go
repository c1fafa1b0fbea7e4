package lumigo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

var (
	coldStart = true
)

// dispatchWrapper runs one traced invocation
type dispatchWrapper struct {
	handler  genericLambdaHandler
	config   *Config
	tracer   tracer.Tracer
	invoked  bool
	invoking bool
	timeout  bool
}

type preInvokeData struct {
	LambdaContext *lambdacontext.LambdaContext
	RunnerSpan    *telemetry.Span
}

type invocationData struct {
	spanError   *telemetry.SpanError
	result      interface{}
	err         error
	thrownError interface{}
}

func getAWSAccount(lc *lambdacontext.LambdaContext) string {
	arnParts := strings.Split(lc.InvokedFunctionArn, ":")
	if len(arnParts) >= 5 {
		return arnParts[4]
	}
	return ""
}

// amznTraceRoot parses the X-Ray trace header the runtime exposes through
// the environment. The transaction id is the third section of the root.
func amznTraceRoot() (string, string) {
	rawHeader := os.Getenv("_X_AMZN_TRACE_ID")
	for _, headerPart := range strings.Split(rawHeader, ";") {
		if strings.HasPrefix(headerPart, "Root=") {
			root := strings.TrimPrefix(headerPart, "Root=")
			rootParts := strings.Split(root, "-")
			if len(rootParts) == 3 {
				return root, rootParts[2]
			}
			return root, ""
		}
	}
	return "", ""
}

func (wrapper *dispatchWrapper) createRunnerSpan(
	ctx context.Context, payload json.RawMessage, lc *lambdacontext.LambdaContext) *telemetry.Span {
	root, transactionID := amznTraceRoot()
	if len(transactionID) == 0 {
		transactionID = uuid.New().String()
	}
	runnerSpan := &telemetry.Span{
		ID:               lc.AwsRequestID,
		TransactionID:    transactionID,
		StartedTimestamp: tracer.GetTimestamp(),
		LambdaType:       telemetry.FunctionSpanType,
		LambdaName:       lambdacontext.FunctionName,
		LambdaReadiness:  readiness(),
		MemoryAllocated:  strconv.Itoa(lambdacontext.MemoryLimitInMB),
		Account:          getAWSAccount(lc),
		Region:           os.Getenv("AWS_REGION"),
		SpanInfo: telemetry.SpanInfo{
			LogStreamName: lambdacontext.LogStreamName,
			LogGroupName:  lambdacontext.LogGroupName,
			TraceID:       telemetry.SpanTraceRoot{Root: root},
		},
	}
	if !wrapper.config.MetadataOnly {
		runnerSpan.Event = string(payload)
	}
	if deadline, hasDeadline := ctx.Deadline(); hasDeadline {
		runnerSpan.MaxFinishTime = deadline.UnixNano() / int64(time.Millisecond)
	}
	return runnerSpan
}

func readiness() string {
	if coldStart {
		return "cold"
	}
	return "warm"
}

func (wrapper *dispatchWrapper) preInvokeOps(
	ctx context.Context, payload json.RawMessage) (info *preInvokeData) {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		lc = &lambdacontext.LambdaContext{}
	}
	defer func() {
		if r := recover(); r != nil {
			wrapper.tracer.AddErrorTypeAndMessage("DispatchWrapper",
				fmt.Sprintf("preInvokeOps:%+v", r))
			info = &preInvokeData{
				LambdaContext: lc,
				RunnerSpan:    &telemetry.Span{LambdaType: telemetry.FunctionSpanType},
			}
		}
	}()

	runnerSpan := wrapper.createRunnerSpan(ctx, payload, lc)
	coldStart = false

	addInvocationTrigger(payload, runnerSpan, triggerFactories)

	return &preInvokeData{
		LambdaContext: lc,
		RunnerSpan:    runnerSpan,
	}
}

func (wrapper *dispatchWrapper) postInvokeOps(
	preInvokeInfo *preInvokeData,
	invokeInfo *invocationData) {
	defer func() {
		if r := recover(); r != nil {
			wrapper.tracer.AddErrorTypeAndMessage("DispatchWrapper", fmt.Sprintf("postInvokeOps:%+v", r))
		}
	}()

	runnerSpan := preInvokeInfo.RunnerSpan
	runnerSpan.EndedTimestamp = tracer.GetTimestamp()
	runnerSpan.Error = invokeInfo.spanError

	if !wrapper.config.MetadataOnly {
		result, err := json.Marshal(invokeInfo.result)
		returnValue := ""
		if err == nil {
			returnValue = string(result)
		} else {
			returnValue = fmt.Sprintf("%+v", invokeInfo.result)
		}
		runnerSpan.LambdaResponse = &returnValue
	}

	wrapper.tracer.AddSpan(runnerSpan)
}

// Invoke calls the business handler, recording the invocation on the tracer.
func (wrapper *dispatchWrapper) Invoke(ctx context.Context, payload json.RawMessage) (result interface{}, err error) {
	invokeInfo := &invocationData{}
	wrapper.invoked = false
	wrapper.invoking = false
	defer func() {
		if !wrapper.invoking {
			recover()
		}
		if !wrapper.invoked {
			result, err = wrapper.handler(ctx, payload)
		}
		if invokeInfo.thrownError != nil {
			panic(invokeInfo.thrownError)
		}
	}()

	preInvokeInfo := wrapper.preInvokeOps(ctx, payload)
	go wrapper.trackTimeout(ctx, preInvokeInfo)
	wrapper.invokeClientHandler(ctx, payload, invokeInfo)
	if !wrapper.timeout {
		wrapper.postInvokeOps(preInvokeInfo, invokeInfo)
	}

	return invokeInfo.result, invokeInfo.err
}

func (wrapper *dispatchWrapper) trackTimeout(ctx context.Context, preInvokeInfo *preInvokeData) {
	deadline, isDeadlineSet := ctx.Deadline()
	if isDeadlineSet {
		thresholdDuration := time.Duration(tracer.GetLambdaTimeoutThresholdMs()) * time.Millisecond
		deadline = deadline.Add(-thresholdDuration)
		timeoutChannel := time.After(time.Until(deadline))

		for range timeoutChannel {
			if wrapper.invoking {
				wrapper.timeout = true

				runnerSpan := preInvokeInfo.RunnerSpan
				runnerSpan.EndedTimestamp = tracer.GetTimestamp()
				runnerSpan.Error = &telemetry.SpanError{
					Type:    "Timeout",
					Message: "Lambda invocation reached its timeout",
				}

				wrapper.tracer.AddSpan(runnerSpan)
				wrapper.tracer.Stop()
			}
		}
	}
}

func (wrapper *dispatchWrapper) invokeClientHandler(
	ctx context.Context, payload json.RawMessage, invokeInfo *invocationData) {
	defer func() {
		invokeInfo.thrownError = recover()
		if invokeInfo.thrownError != nil {
			invokeInfo.spanError = &telemetry.SpanError{
				Type:       "Runtime Error",
				Message:    fmt.Sprintf("%v", invokeInfo.thrownError),
				Stacktrace: string(debug.Stack()),
			}
		}
	}()

	// calling the actual function:
	wrapper.invoked = true
	wrapper.invoking = true
	result, err := wrapper.handler(ContextWithTracer(wrapper.tracer, ctx), payload)
	wrapper.invoking = false
	if err != nil {
		invokeInfo.spanError = &telemetry.SpanError{
			Type:    "Error Result",
			Message: err.Error(),
		}
	}
	invokeInfo.result = result
	invokeInfo.err = err
}

// WrapLambdaHandler wraps the configured business handler with the trace
// sampling dispatch pipeline. The returned function is passed to
// lambda.Start. Handler results and errors pass through unchanged whether or
// not the invocation is traced.
func WrapLambdaHandler(config *Config) interface{} {
	if config == nil {
		config = NewConfigFromEnv()
	}
	return func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		condition := parseTraceCondition(config.TraceConditions, config.Debug)

		resolved, err := resolveHandler(config)
		if err != nil {
			return nil, err
		}
		handler := makeGenericHandler(resolved)

		if !shouldTrace(payload, ctx, config, condition) {
			return handler(ctx, payload)
		}

		wrapperTracer := tracer.CreateGlobalTracer(&config.Config)
		wrapperTracer.Start()

		wrapper := &dispatchWrapper{
			config:  config,
			handler: handler,
			tracer:  wrapperTracer,
		}

		defer func() {
			if !wrapper.timeout {
				wrapperTracer.Stop()
			}
		}()

		return wrapper.Invoke(ctx, payload)
	}
}
