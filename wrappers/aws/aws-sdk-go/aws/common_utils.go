package lumigoaws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

type specificOperationHandler func(r *request.Request, span *telemetry.Span, metadataOnly bool, currentTracer tracer.Tracer)

func handleSpecificOperation(
	r *request.Request,
	span *telemetry.Span,
	metadataOnly bool,
	handlers map[string]specificOperationHandler,
	defaultHandler specificOperationHandler,
	currentTracer tracer.Tracer,
) {
	handler := handlers[span.Operation]
	if handler == nil {
		handler = defaultHandler
	}
	if handler != nil {
		handler(r, span, metadataOnly, currentTracer)
	}
}

func isValueZero(value reflect.Value) bool {
	return !value.IsValid() || value.IsZero()
}

func getFieldStringPtr(value reflect.Value, fieldName string) (string, bool) {
	field := value.FieldByName(fieldName)
	if isValueZero(field) {
		return "", false
	}
	return field.Elem().String(), true
}

func updateMetadataFromBytes(
	value reflect.Value, fieldName string, targetKey string, metadata map[string]string) {
	field := value.FieldByName(fieldName)
	if isValueZero(field) {
		return
	}
	metadata[targetKey] = string(field.Bytes())
}

func updateMetadataFromValue(
	value reflect.Value, fieldName string, targetKey string, metadata map[string]string) {
	fieldValue, ok := getFieldStringPtr(value, fieldName)
	if ok {
		metadata[targetKey] = fieldValue
	}
}

func updateMetadataWithFieldToJSON(
	value reflect.Value,
	fieldName string,
	targetKey string,
	metadata map[string]string,
	currentTracer tracer.Tracer,
) {
	field := value.FieldByName(fieldName)
	if isValueZero(field) {
		return
	}
	stream, err := json.Marshal(field.Interface())
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go", fmt.Sprintf("%v", err))
		return
	}
	metadata[targetKey] = string(stream)
}

func setResourceName(span *telemetry.Span, name string) {
	span.Metadata["resourceName"] = name
}
