package lumigoaws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// WrapSession instruments an aws-sdk-go (v1) session.Session. Every SDK
// operation issued through clients built from it records an awsSdk span.
//
// Sessions are usually created at cold start while a tracer only exists
// during traced invocations, so the tracer is resolved again on every SDK
// call. Calls made during untraced invocations pass through without
// recording a span.
func WrapSession(s *session.Session, args ...context.Context) *session.Session {
	if s == nil {
		return s
	}
	s.Handlers.Complete.PushFrontNamed(
		request.NamedHandler{
			Name: "lumigoComplete",
			Fn: func(r *request.Request) {
				currentTracer := lumigo.ExtractTracer(args)
				if currentTracer == nil {
					return
				}
				completeCall(r, currentTracer)
			},
		})
	return s
}

func requestStartTimestamp(r *request.Request) int64 {
	return r.Time.UTC().UnixNano() / int64(time.Millisecond)
}

func completeCall(r *request.Request, currentTracer tracer.Tracer) {
	defer lumigo.GeneralRecover("aws-sdk-go wrapper", "completeCall", currentTracer)

	config := currentTracer.GetConfig()
	lumigo.DebugLog(config.Debug, "completing aws call", r.ClientInfo.ServiceName, r.Operation.Name)

	span := &telemetry.Span{
		ID:               r.RequestID,
		LambdaType:       telemetry.AwsSdkSpanType,
		Service:          r.ClientInfo.ServiceName,
		Operation:        r.Operation.Name,
		Region:           r.ClientInfo.SigningRegion,
		StartedTimestamp: requestStartTimestamp(r),
		EndedTimestamp:   tracer.GetTimestamp(),
		Metadata:         make(map[string]string),
	}
	if runnerSpan := currentTracer.GetRunnerSpan(); runnerSpan != nil {
		span.ParentID = runnerSpan.ID
		span.TransactionID = runnerSpan.TransactionID
	}
	if r.Error != nil {
		span.Error = &telemetry.SpanError{
			Type:    "aws-sdk-go",
			Message: r.Error.Error(),
		}
	}

	factory := callDataFactories[span.Service]
	if factory != nil {
		factory(r, span, config.MetadataOnly, currentTracer)
	} else {
		defaultCallDataFactory(r, span, config.MetadataOnly, currentTracer)
	}
	currentTracer.AddSpan(span)
}

type callDataFactory func(*request.Request, *telemetry.Span, bool, tracer.Tracer)

var callDataFactories = map[string]callDataFactory{
	"kinesis": kinesisCallDataFactory,
	"ses":     sesCallDataFactory,
	"sns":     snsCallDataFactory,
}

func defaultCallDataFactory(
	r *request.Request, span *telemetry.Span, metadataOnly bool, currentTracer tracer.Tracer) {
	if currentTracer.GetConfig().Debug {
		log.Println("[LUMIGO] entering defaultCallDataFactory")
	}
	if !metadataOnly {
		extractInterfaceToMetadata(r.Data, span)
		extractInterfaceToMetadata(r.Params, span)
	}
}

func extractInterfaceToMetadata(input interface{}, span *telemetry.Span) {
	var data map[string]interface{}
	rawJSON, err := json.Marshal(input)
	if err != nil {
		log.Printf("[LUMIGO] Failed to marshal input: %+v\n", input)
		return
	}
	err = json.Unmarshal(rawJSON, &data)
	if err != nil {
		log.Printf("[LUMIGO] Failed to unmarshal input: %+v\n", rawJSON)
		return
	}
	for key, value := range data {
		span.Metadata[key] = fmt.Sprintf("%v", value)
	}
}
