package lumigoaws

import (
	"reflect"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

func kinesisCallDataFactory(
	r *request.Request,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(r.Params).Elem()
	streamName, ok := getFieldStringPtr(inputValue, "StreamName")
	if !ok {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go",
			"kinesisCallDataFactory: couldn't find StreamName")
	}
	setResourceName(span, streamName)
	updateMetadataFromValue(inputValue, "PartitionKey", "partition_key", span.Metadata)
	if !metadataOnly {
		dataField := inputValue.FieldByName("Data")
		if !isValueZero(dataField) {
			span.Metadata["data"] = string(dataField.Bytes())
		}
	}
	handleSpecificOperation(r, span, metadataOnly,
		map[string]specificOperationHandler{
			"PutRecord": handleKinesisPutRecord,
		}, nil, currentTracer,
	)
}

func handleKinesisPutRecord(
	r *request.Request,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	outputValue := reflect.ValueOf(r.Data).Elem()
	updateMetadataFromValue(outputValue, "ShardId", "shard_id", span.Metadata)
	updateMetadataFromValue(outputValue, "SequenceNumber", "sequence_number", span.Metadata)
}
