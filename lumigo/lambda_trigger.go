package lumigo

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

type triggerFactory func(event interface{}) *telemetry.TriggeredBy

func mapParametersToString(params map[string]string) string {
	buf, err := json.Marshal(params)
	if err != nil {
		tracer.AddErrorTypeAndMessage("trigger-creation",
			fmt.Sprintf("Failed to serialize %v", params))
		return ""
	}
	return string(buf)
}

func triggerTypeAssertionFailed(rawEvent interface{}, assertedType string) {
	tracer.AddErrorTypeAndMessage("trigger-creation",
		fmt.Sprintf("failed to convert rawEvent to %s. %v", assertedType, rawEvent))
}

func triggerAPIGatewayProxyRequest(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.APIGatewayProxyRequest)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.APIGatewayProxyRequest")
		return nil
	}
	return &telemetry.TriggeredBy{
		TriggeredBy: "apigw",
		API:         event.Headers["Host"],
		Method:      event.HTTPMethod,
		Resource:    event.Resource,
		MessageID:   event.RequestContext.RequestID,
		Extra: map[string]string{
			"stage":                 event.RequestContext.Stage,
			"queryStringParameters": mapParametersToString(event.QueryStringParameters),
			"pathParameters":        mapParametersToString(event.PathParameters),
		},
	}
}

func triggerAPIGatewayV2HTTPRequest(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.APIGatewayV2HTTPRequest)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.APIGatewayV2HTTPRequest")
		return nil
	}
	return &telemetry.TriggeredBy{
		TriggeredBy: "apigw",
		API:         event.Headers["host"],
		Method:      event.RequestContext.HTTP.Method,
		Resource:    event.RawPath,
		MessageID:   event.RequestContext.RequestID,
		Extra: map[string]string{
			"stage":                 event.RequestContext.Stage,
			"queryStringParameters": mapParametersToString(event.QueryStringParameters),
			"pathParameters":        mapParametersToString(event.PathParameters),
		},
	}
}

func triggerS3Event(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.S3Event)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.S3Event")
		return nil
	}
	record := event.Records[0]
	return &telemetry.TriggeredBy{
		TriggeredBy: "s3",
		Arn:         record.S3.Bucket.Arn,
		Region:      record.AWSRegion,
		MessageID:   record.ResponseElements["x-amz-request-id"],
		Resource:    record.S3.Bucket.Name,
		Extra: map[string]string{
			"eventName":       record.EventName,
			"objectKey":       record.S3.Object.Key,
			"objectSize":      strconv.FormatInt(record.S3.Object.Size, 10),
			"objectSequencer": record.S3.Object.Sequencer,
		},
	}
}

func triggerKinesisEvent(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.KinesisEvent)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.KinesisEvent")
		return nil
	}
	record := event.Records[0]
	arnSlice := strings.Split(record.EventSourceArn, "/")
	return &telemetry.TriggeredBy{
		TriggeredBy: "kinesis",
		Arn:         record.EventSourceArn,
		Region:      record.AwsRegion,
		MessageID:   record.EventID,
		Resource:    arnSlice[len(arnSlice)-1],
		Extra: map[string]string{
			"sequenceNumber": record.Kinesis.SequenceNumber,
			"partitionKey":   record.Kinesis.PartitionKey,
		},
	}
}

func triggerSNSEvent(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.SNSEvent)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.SNSEvent")
		return nil
	}
	record := event.Records[0]
	arnSlice := strings.Split(record.EventSubscriptionArn, ":")
	return &telemetry.TriggeredBy{
		TriggeredBy: "sns",
		Arn:         record.SNS.TopicArn,
		MessageID:   record.SNS.MessageID,
		Resource:    arnSlice[len(arnSlice)-2],
		Extra: map[string]string{
			"subject": record.SNS.Subject,
		},
	}
}

func triggerSQSEvent(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.SQSEvent)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.SQSEvent")
		return nil
	}
	record := event.Records[0]
	arnSlice := strings.Split(record.EventSourceARN, ":")
	return &telemetry.TriggeredBy{
		TriggeredBy: "sqs",
		Arn:         record.EventSourceARN,
		MessageID:   record.MessageId,
		Resource:    arnSlice[len(arnSlice)-1],
		Extra: map[string]string{
			"md5OfBody":               record.Md5OfBody,
			"senderId":                record.Attributes["SenderId"],
			"approximateReceiveCount": record.Attributes["ApproximateReceiveCount"],
			"sentTimestamp":           record.Attributes["SentTimestamp"],
		},
	}
}

func unmarshalToStringMap(dav map[string]lambdaEvents.DynamoDBAttributeValue) (map[string]string, error) {
	dbAttrMap := make(map[string]*dynamodb.AttributeValue)
	for k, v := range dav {
		var dbAttr dynamodb.AttributeValue
		attrBytes, marshalErr := v.MarshalJSON()
		if marshalErr != nil {
			return nil, marshalErr
		}
		json.Unmarshal(attrBytes, &dbAttr)
		dbAttrMap[k] = &dbAttr
	}
	serializedItems := make(map[string]string)
	for k, v := range dbAttrMap {
		serializedItems[k] = v.String()
	}
	return serializedItems, nil
}

func getImageHash(imageMap map[string]lambdaEvents.DynamoDBAttributeValue) string {
	itemMap, err := unmarshalToStringMap(imageMap)
	if err != nil {
		return ""
	}
	itemBytes, jsonError := json.Marshal(itemMap)
	if jsonError != nil {
		return ""
	}
	h := md5.New()
	h.Write(itemBytes)
	return hex.EncodeToString(h.Sum(nil))
}

func triggerDynamoDBEvent(rawEvent interface{}) *telemetry.TriggeredBy {
	event, ok := rawEvent.(lambdaEvents.DynamoDBEvent)
	if !ok {
		triggerTypeAssertionFailed(rawEvent, "lambdaEvents.DynamoDBEvent")
		return nil
	}
	record := event.Records[0]
	arnSlice := strings.Split(record.EventSourceArn, "/")
	tableName := ""
	if len(arnSlice) >= 3 {
		tableName = arnSlice[len(arnSlice)-3]
	}
	return &telemetry.TriggeredBy{
		TriggeredBy: "dynamodb",
		Arn:         record.EventSourceArn,
		Region:      record.AWSRegion,
		MessageID:   getImageHash(record.Change.NewImage),
		Resource:    tableName,
		Extra: map[string]string{
			"eventName":      record.EventName,
			"sequenceNumber": record.Change.SequenceNumber,
		},
	}
}

type factoryAndType struct {
	EventType reflect.Type
	Factory   triggerFactory
}

var (
	triggerFactories = map[string]factoryAndType{
		"api_gateway": {
			EventType: reflect.TypeOf(lambdaEvents.APIGatewayProxyRequest{}),
			Factory:   triggerAPIGatewayProxyRequest,
		},
		"api_gateway_http2": {
			EventType: reflect.TypeOf(lambdaEvents.APIGatewayV2HTTPRequest{}),
			Factory:   triggerAPIGatewayV2HTTPRequest,
		},
		"aws:s3": {
			EventType: reflect.TypeOf(lambdaEvents.S3Event{}),
			Factory:   triggerS3Event,
		},
		"aws:kinesis": {
			EventType: reflect.TypeOf(lambdaEvents.KinesisEvent{}),
			Factory:   triggerKinesisEvent,
		},
		"aws:sns": {
			EventType: reflect.TypeOf(lambdaEvents.SNSEvent{}),
			Factory:   triggerSNSEvent,
		},
		"aws:sqs": {
			EventType: reflect.TypeOf(lambdaEvents.SQSEvent{}),
			Factory:   triggerSQSEvent,
		},
		"aws:dynamodb": {
			EventType: reflect.TypeOf(lambdaEvents.DynamoDBEvent{}),
			Factory:   triggerDynamoDBEvent,
		},
	}
)

func decodeAndUnpackEvent(
	payload json.RawMessage,
	eventType reflect.Type,
	factory triggerFactory,
) *telemetry.TriggeredBy {

	event := reflect.New(eventType)
	decoder := json.NewDecoder(bytes.NewReader(payload))

	if err := decoder.Decode(event.Interface()); err != nil {
		return nil
	}
	return factory(event.Elem().Interface())
}

type recordField struct {
	EventSource string
}

type httpDescription struct {
	Method string
}

type requestContext struct {
	APIID string
	HTTP  httpDescription
}

type interestingFields struct {
	Records        []recordField
	HTTPMethod     string
	Context        map[string]interface{}
	MethodArn      string
	Source         string
	RequestContext requestContext
}

func guessTriggerSource(payload json.RawMessage) string {
	var rawEvent interestingFields
	err := json.Unmarshal(payload, &rawEvent)
	if err != nil {
		tracer.AddErrorTypeAndMessage("trigger-identification",
			fmt.Sprintf("Failed to unmarshal json %v", err))
		return ""
	}
	triggerSource := "invoke_api"
	if len(rawEvent.Records) > 0 {
		triggerSource = rawEvent.Records[0].EventSource
	} else if len(rawEvent.HTTPMethod) > 0 {
		triggerSource = "api_gateway"
	} else if _, ok := rawEvent.Context["http-method"]; ok {
		triggerSource = "api_gateway_no_proxy"
	} else if len(rawEvent.RequestContext.APIID) > 0 && len(rawEvent.RequestContext.HTTP.Method) > 0 {
		triggerSource = "api_gateway_http2"
	} else if len(rawEvent.Source) > 0 {
		sourceSlice := strings.Split(rawEvent.Source, ".")
		triggerSource = sourceSlice[len(sourceSlice)-1]
	}
	return triggerSource
}

func addInvocationTrigger(
	payload json.RawMessage,
	runnerSpan *telemetry.Span,
	triggerFactories map[string]factoryAndType,
) {
	var triggeredBy *telemetry.TriggeredBy

	triggerSource := guessTriggerSource(payload)

	if triggerSource == "invoke_api" {
		triggeredBy = &telemetry.TriggeredBy{TriggeredBy: "invocation"}
	} else if triggerSource == "api_gateway_no_proxy" {
		// currently not supported, needs to extract data from json
	} else {
		factoryStruct, found := triggerFactories[triggerSource]
		if found {
			triggeredBy = decodeAndUnpackEvent(
				payload, factoryStruct.EventType, factoryStruct.Factory)
		}
	}

	if triggeredBy != nil {
		runnerSpan.SpanInfo.TriggeredBy = triggeredBy
	}
}
