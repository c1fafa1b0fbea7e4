package lumigoawsv2

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	smithyHttp "github.com/aws/smithy-go/transport/http"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// AWSCall collects the details of a single SDK operation while it moves
// through the middleware stack
type AWSCall struct {
	RequestID string
	Service   string
	Region    string
	Operation string

	Req       *smithyHttp.Request
	Res       *smithyHttp.Response
	Input     interface{}
	Output    interface{}
	StartTime int64
}

type specificOperationHandler func(
	call *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
)

func handleSpecificOperation(
	call *AWSCall,
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
		handler(call, span, metadataOnly, currentTracer)
	}
}

func getFieldStringPtr(value reflect.Value, fieldName string) (string, bool) {
	field := value.FieldByName(fieldName)
	if field == (reflect.Value{}) || field.IsNil() {
		return "", false
	}
	return field.Elem().String(), true
}

func updateMetadataFromBytes(
	value reflect.Value, fieldName string, targetKey string, metadata map[string]string) {
	field := value.FieldByName(fieldName)
	if field == (reflect.Value{}) || field.IsNil() {
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

func updateMetadataFromInt64(
	value reflect.Value, fieldName string, targetKey string, metadata map[string]string) {
	field := value.FieldByName(fieldName)
	if field == (reflect.Value{}) {
		return
	}
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return
		}
		field = field.Elem()
	}
	metadata[targetKey] = strconv.FormatInt(field.Int(), 10)
}

func updateMetadataWithFieldToJSON(
	value reflect.Value,
	fieldName string,
	targetKey string,
	metadata map[string]string,
	currentTracer tracer.Tracer,
) {
	field := value.FieldByName(fieldName)
	if field == (reflect.Value{}) {
		return
	}
	stream, err := json.Marshal(field.Interface())
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2", fmt.Sprintf("%v", err))
		return
	}
	metadata[targetKey] = string(stream)
}

func setResourceNameFromField(span *telemetry.Span, value reflect.Value, fieldName string) {
	fieldValue, ok := getFieldStringPtr(value, fieldName)
	if ok {
		span.Metadata["resourceName"] = fieldValue
	}
}
