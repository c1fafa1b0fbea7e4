package lumigoawsv2

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

func dynamodbCallDataFactory(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {

	commonDynamoOperationHandler(awsCall, span, metadataOnly)

	handleSpecificOperations := map[string]specificOperationHandler{
		"PutItem":        handleDynamoDBPutItem,
		"GetItem":        handleDynamoDBGetItem,
		"DeleteItem":     handleDynamoDBDeleteItem,
		"UpdateItem":     handleDynamoDBUpdateItem,
		"Scan":           handleDynamoDBScan,
		"BatchWriteItem": handleDynamoDBBatchWriteItem,
	}
	handleSpecificOperation(awsCall, span, metadataOnly, handleSpecificOperations, nil, currentTracer)
}

func commonDynamoOperationHandler(awsCall *AWSCall, span *telemetry.Span, metadataOnly bool) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	setResourceNameFromField(span, inputValue, "TableName")
	if awsCall.Res != nil && awsCall.Res.Response != nil {
		span.Metadata["status_code"] = fmt.Sprintf("%d", awsCall.Res.StatusCode)
	}
}

func deserializeAttributeMap(inputField reflect.Value) map[string]string {
	formattedItem := make(map[string]string)
	input, ok := inputField.Interface().(map[string]types.AttributeValue)
	if !ok {
		return formattedItem
	}
	for k, v := range input {
		if member, isString := v.(*types.AttributeValueMemberS); isString {
			formattedItem[k] = member.Value
		} else {
			formattedItem[k] = fmt.Sprintf("%v", v)
		}
	}
	return formattedItem
}

func jsonAttributeMap(inputField reflect.Value, currentTracer tracer.Tracer) string {
	if inputField == (reflect.Value{}) {
		return ""
	}
	formattedMap := deserializeAttributeMap(inputField)
	stream, err := json.Marshal(formattedMap)
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2", fmt.Sprintf("%v", err))
		return ""
	}
	return string(stream)
}

func handleDynamoDBPutItem(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	itemField := inputValue.FieldByName("Item")
	if itemField == (reflect.Value{}) {
		return
	}
	formattedItem := deserializeAttributeMap(itemField)
	formattedItemStream, err := json.Marshal(formattedItem)
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("put-item",
			fmt.Sprintf("failed to serialize item to put %v", formattedItem))
		return
	}
	if !metadataOnly {
		span.Metadata["item"] = string(formattedItemStream)
	}
	h := md5.New()
	h.Write(formattedItemStream)
	span.Metadata["item_hash"] = hex.EncodeToString(h.Sum(nil))
}

func handleDynamoDBGetItem(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	span.Metadata["key"] = jsonAttributeMap(inputValue.FieldByName("Key"), currentTracer)

	if !metadataOnly && awsCall.Output != nil {
		outputValue := reflect.ValueOf(awsCall.Output).Elem()
		span.Metadata["item"] = jsonAttributeMap(outputValue.FieldByName("Item"), currentTracer)
	}
}

func handleDynamoDBDeleteItem(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	span.Metadata["key"] = jsonAttributeMap(inputValue.FieldByName("Key"), currentTracer)
}

func handleDynamoDBUpdateItem(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	eav := deserializeAttributeMap(inputValue.FieldByName("ExpressionAttributeValues"))
	eavStream, err := json.Marshal(eav)
	if err != nil {
		return
	}
	updateParameters := map[string]string{
		"expression_attribute_values": string(eavStream),
		"key": jsonAttributeMap(inputValue.FieldByName("Key"), currentTracer),
	}
	updateMetadataFromValue(inputValue,
		"UpdateExpression", "update_expression", updateParameters)
	updateParamsStream, err := json.Marshal(updateParameters)
	if err != nil {
		return
	}
	span.Metadata["update_parameters"] = string(updateParamsStream)
}

func deserializeItems(itemsField reflect.Value, currentTracer tracer.Tracer) string {
	if itemsField == (reflect.Value{}) {
		return ""
	}
	formattedItems := make([]map[string]string, 0, itemsField.Len())
	for ind := 0; ind < itemsField.Len(); ind++ {
		formattedItems = append(formattedItems,
			deserializeAttributeMap(itemsField.Index(ind)))
	}
	formattedItemsStream, err := json.Marshal(formattedItems)
	if err != nil {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2",
			fmt.Sprintf("deserializeItems: %v", err))
	}
	return string(formattedItemsStream)
}

func handleDynamoDBScan(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	if awsCall.Output == nil {
		return
	}
	outputValue := reflect.ValueOf(awsCall.Output).Elem()
	updateMetadataFromInt64(outputValue, "Count", "items_count", span.Metadata)
	updateMetadataFromInt64(outputValue, "ScannedCount", "scanned_items_count", span.Metadata)
	if !metadataOnly {
		span.Metadata["items"] = deserializeItems(outputValue.FieldByName("Items"), currentTracer)
	}
}

func handleDynamoDBBatchWriteItem(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	requestItemsField := inputValue.FieldByName("RequestItems")
	if requestItemsField == (reflect.Value{}) {
		return
	}
	requestItems, ok := requestItemsField.Interface().(map[string][]types.WriteRequest)
	if !ok {
		currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2",
			"handleDynamoDBBatchWriteItem: failed to cast RequestItems")
		return
	}
	var tableName string
	for k := range requestItems {
		tableName = k
		break
	}
	span.Metadata["resourceName"] = tableName
	// TODO trace request items of all tables, not only the first
	if !metadataOnly {
		items := make([]map[string]types.AttributeValue, 0, len(requestItems[tableName]))
		for _, writeRequest := range requestItems[tableName] {
			if writeRequest.PutRequest != nil {
				items = append(items, writeRequest.PutRequest.Item)
			}
		}
		span.Metadata["items"] = deserializeItems(reflect.ValueOf(items), currentTracer)
	}
}
