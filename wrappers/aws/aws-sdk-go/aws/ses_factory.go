package lumigoaws

import (
	"reflect"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

func sesCallDataFactory(
	r *request.Request,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	handleSpecificOperation(r, span, metadataOnly,
		map[string]specificOperationHandler{
			"SendEmail": handleSESSendEmail,
		},
		nil, currentTracer,
	)
}

func handleSESSendEmail(
	r *request.Request,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(r.Params).Elem()
	updateMetadataFromValue(inputValue, "Source", "source", span.Metadata)
	updateMetadataWithFieldToJSON(inputValue, "Destination", "destination", span.Metadata, currentTracer)
	messageField := inputValue.FieldByName("Message")
	if !isValueZero(messageField) {
		messageValue := messageField.Elem()
		updateMetadataWithFieldToJSON(messageValue, "Subject", "subject", span.Metadata, currentTracer)
		if !metadataOnly {
			updateMetadataWithFieldToJSON(messageValue, "Body", "body", span.Metadata, currentTracer)
		}
	}
	outputValue := reflect.ValueOf(r.Data).Elem()
	updateMetadataFromValue(outputValue, "MessageId", "message_id", span.Metadata)
}
