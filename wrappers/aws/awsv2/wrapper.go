package lumigoawsv2

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// WrapConfig instruments an aws.Config before clients are built from it.
// Every SDK operation issued through those clients records an awsSdk span.
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	lumigoawsv2.WrapConfig(&cfg)
//	svc := dynamodb.NewFromConfig(cfg)
//
// The config is usually wrapped once at cold start while a tracer only
// exists during traced invocations, so the tracer is resolved again on
// every SDK call. Calls made during untraced invocations pass through
// without recording a span.
func WrapConfig(cfg *aws.Config, args ...context.Context) {
	resolveTracer := func() tracer.Tracer { return lumigo.ExtractTracer(args) }
	awsCall := &AWSCall{}
	cfg.APIOptions = append(cfg.APIOptions,
		initializeMiddleware(awsCall, resolveTracer, completeCall),
		finalizeMiddleware(awsCall, resolveTracer),
	)
}

type callDataFactory func(*AWSCall, *telemetry.Span, bool, tracer.Tracer)

var callDataFactories = map[string]callDataFactory{
	"s3":       s3CallDataFactory,
	"dynamodb": dynamodbCallDataFactory,
	"lambda":   lambdaCallDataFactory,
}

func completeCall(awsCall *AWSCall, currentTracer tracer.Tracer) {
	defer lumigo.GeneralRecover("aws-sdk-go-v2 wrapper", "completeCall", currentTracer)

	config := currentTracer.GetConfig()
	lumigo.DebugLog(config.Debug, "completing aws call", awsCall.Service, awsCall.Operation)

	span := &telemetry.Span{
		ID:               awsCall.RequestID,
		LambdaType:       telemetry.AwsSdkSpanType,
		Service:          awsCall.Service,
		Operation:        awsCall.Operation,
		Region:           awsCall.Region,
		StartedTimestamp: awsCall.StartTime,
		EndedTimestamp:   tracer.GetTimestamp(),
		Metadata:         make(map[string]string),
	}
	if runnerSpan := currentTracer.GetRunnerSpan(); runnerSpan != nil {
		span.ParentID = runnerSpan.ID
		span.TransactionID = runnerSpan.TransactionID
	}

	factory := callDataFactories[awsCall.Service]
	if factory != nil {
		factory(awsCall, span, config.MetadataOnly, currentTracer)
	} else {
		defaultCallDataFactory(awsCall, span, config.MetadataOnly, currentTracer)
	}
	currentTracer.AddSpan(span)
}

func defaultCallDataFactory(
	awsCall *AWSCall, span *telemetry.Span, metadataOnly bool, currentTracer tracer.Tracer) {
	if metadataOnly {
		return
	}
	extractInterfaceToMetadata(awsCall.Input, span, currentTracer)
	extractInterfaceToMetadata(awsCall.Output, span, currentTracer)
}

func extractInterfaceToMetadata(input interface{}, span *telemetry.Span, currentTracer tracer.Tracer) {
	var data map[string]interface{}
	rawJSON, err := json.Marshal(input)
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2",
			fmt.Sprintf("failed to marshal input: %v", err))
		return
	}
	err = json.Unmarshal(rawJSON, &data)
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2",
			fmt.Sprintf("failed to unmarshal input: %v", err))
		return
	}
	for key, value := range data {
		span.Metadata[key] = fmt.Sprintf("%v", value)
	}
}
