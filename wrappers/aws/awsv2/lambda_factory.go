package lumigoawsv2

import (
	"reflect"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

func lambdaCallDataFactory(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	_ tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	setResourceNameFromField(span, inputValue, "FunctionName")
	if metadataOnly {
		return
	}
	updateMetadataFromBytes(inputValue, "Payload", "payload", span.Metadata)
	if awsCall.Output == nil {
		return
	}
	outputValue := reflect.ValueOf(awsCall.Output).Elem()
	updateMetadataFromInt64(outputValue, "StatusCode", "status_code", span.Metadata)
	updateMetadataFromBytes(outputValue, "Payload", "response_payload", span.Metadata)
}
