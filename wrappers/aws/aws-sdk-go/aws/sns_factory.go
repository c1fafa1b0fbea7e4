package lumigoaws

import (
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

const invalidFieldValue = "<invalid Value>"

func snsCallDataFactory(
	r *request.Request,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	if !metadataOnly {
		inputValue := reflect.ValueOf(r.Params).Elem()
		updateMetadataFromValue(inputValue, "Message", "message", span.Metadata)
	}
	handleSpecificOperation(r, span, metadataOnly,
		map[string]specificOperationHandler{
			"CreateTopic": handleSNSCreateTopic,
			"Publish":     handleSNSPublish,
		},
		handleSNSDefault, currentTracer,
	)
}

// resolves the topic or target name from its arn
func snsTargetName(inputValue reflect.Value, targetKey string) (string, bool) {
	arnString, ok := getFieldStringPtr(inputValue, targetKey)
	if !ok {
		return "", false
	}
	arnSplit := strings.Split(arnString, ":")
	targetName := arnSplit[len(arnSplit)-1]
	return targetName, targetName != invalidFieldValue
}

func handleSNSDefault(r *request.Request, span *telemetry.Span, metadataOnly bool, _ tracer.Tracer) {
	inputValue := reflect.ValueOf(r.Params).Elem()
	targetName, ok := snsTargetName(inputValue, "TopicArn")
	if ok {
		setResourceName(span, targetName)
		return
	}
	targetName, ok = snsTargetName(inputValue, "TargetArn")
	if ok {
		setResourceName(span, targetName)
	}
}

func handleSNSCreateTopic(r *request.Request, span *telemetry.Span, metadataOnly bool, _ tracer.Tracer) {
	inputValue := reflect.ValueOf(r.Params).Elem()
	name, ok := getFieldStringPtr(inputValue, "Name")
	if ok {
		setResourceName(span, name)
	}
}

func handleSNSPublish(r *request.Request, span *telemetry.Span, metadataOnly bool, currentTracer tracer.Tracer) {
	handleSNSDefault(r, span, metadataOnly, currentTracer)
	outputValue := reflect.ValueOf(r.Data).Elem()
	updateMetadataFromValue(outputValue, "MessageId", "message_id", span.Metadata)
}
