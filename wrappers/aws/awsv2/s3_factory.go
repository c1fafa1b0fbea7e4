package lumigoawsv2

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

func s3CallDataFactory(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	currentTracer tracer.Tracer,
) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	setResourceNameFromField(span, inputValue, "Bucket")
	handleSpecificOperations := map[string]specificOperationHandler{
		"HeadObject":  handleS3GetOrHeadObject,
		"GetObject":   handleS3GetOrHeadObject,
		"PutObject":   handleS3PutObject,
		"ListObjects": handleS3ListObjects,
	}
	handleSpecificOperation(awsCall, span, metadataOnly, handleSpecificOperations, nil, currentTracer)
}

func commonS3OperationHandler(awsCall *AWSCall, span *telemetry.Span) {
	inputValue := reflect.ValueOf(awsCall.Input).Elem()
	updateMetadataFromValue(inputValue, "Key", "key", span.Metadata)
	if awsCall.Output == nil {
		return
	}
	outputValue := reflect.ValueOf(awsCall.Output).Elem()
	etag, ok := getFieldStringPtr(outputValue, "ETag")
	if ok {
		span.Metadata["etag"] = strings.Trim(etag, "\"")
	}
}

func handleS3GetOrHeadObject(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	_ tracer.Tracer,
) {
	commonS3OperationHandler(awsCall, span)
	if awsCall.Output == nil {
		return
	}
	outputValue := reflect.ValueOf(awsCall.Output).Elem()
	updateMetadataFromInt64(outputValue, "ContentLength", "file_size", span.Metadata)

	lastModifiedField := outputValue.FieldByName("LastModified")
	if lastModifiedField == (reflect.Value{}) || lastModifiedField.IsNil() {
		return
	}
	lastModified := lastModifiedField.Elem().Interface().(time.Time)
	span.Metadata["last_modified"] = lastModified.String()
}

func handleS3PutObject(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	_ tracer.Tracer,
) {
	commonS3OperationHandler(awsCall, span)
}

type s3File struct {
	key  string
	size int64
	etag string
}

func handleS3ListObjects(
	awsCall *AWSCall,
	span *telemetry.Span,
	metadataOnly bool,
	_ tracer.Tracer,
) {
	if metadataOnly || awsCall.Output == nil {
		return
	}

	outputValue := reflect.ValueOf(awsCall.Output).Elem()
	contentsField := outputValue.FieldByName("Contents")
	if contentsField == (reflect.Value{}) {
		return
	}
	length := contentsField.Len()
	files := make([]s3File, 0, length)
	for i := 0; i < length; i++ {
		fileObject := contentsField.Index(i)
		etag, _ := getFieldStringPtr(fileObject, "ETag")
		key, _ := getFieldStringPtr(fileObject, "Key")
		size := fileObject.FieldByName("Size").Int()

		files = append(files, s3File{key, size, etag})
	}
	span.Metadata["files"] = fmt.Sprintf("%+v", files)
}
