package lumigo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// DefaultErrorType Default custom error type
const DefaultErrorType = "Error"

// MaxMetadataSize Maximum size of span metadata
const MaxMetadataSize = 10 * 1024

// GeneralRecover recover function that will send the recovered error to the tracer.
// errorType, msg are strings that will be added to the error
func GeneralRecover(errorType, msg string, currentTracer tracer.Tracer) {
	if r := recover(); r != nil && currentTracer != nil {
		currentTracer.AddErrorTypeAndMessage(errorType, fmt.Sprintf("%s:%+v", msg, r))
	}
}

// AddExecutionTag adds an execution tag to the sent runner span
func AddExecutionTag(key string, value interface{}, args ...context.Context) {
	currentTracer := ExtractTracer(args)
	if currentTracer != nil {
		currentTracer.AddExecutionTag(key, value)
	}
}

// Error adds an error to the sent runner span
func Error(value interface{}, args ...context.Context) {
	currentTracer := ExtractTracer(args)
	if currentTracer != nil {
		if spanError := buildSpanError(DefaultErrorType, value, currentTracer); spanError != nil {
			currentTracer.SetRunnerError(spanError)
		}
	}
}

// TypeError adds an error to the sent runner span with specific error type
func TypeError(value interface{}, errorType string, args ...context.Context) {
	currentTracer := ExtractTracer(args)
	if currentTracer != nil {
		if spanError := buildSpanError(errorType, value, currentTracer); spanError != nil {
			currentTracer.SetRunnerError(spanError)
		}
	}
}

func buildSpanError(errorType string, value interface{}, currentTracer tracer.Tracer) *telemetry.SpanError {
	var message string
	switch typedValue := value.(type) {
	case string:
		message = typedValue
	case error:
		message = typedValue.Error()
	default:
		DebugLog(currentTracer.GetConfig().Debug, "Supported error types are: string, error")
		return nil
	}
	return &telemetry.SpanError{
		Type:    errorType,
		Message: message,
	}
}

// FormatHeaders format HTTP headers to string - using first header value, ignoring the rest
func FormatHeaders(headers http.Header) (string, error) {
	headersToFormat := make(map[string]string)
	for headerKey, headerValues := range headers {
		if len(headerValues) > 0 {
			headersToFormat[headerKey] = headerValues[0]
		}
	}
	headersJSON, err := json.Marshal(headersToFormat)
	if err != nil {
		return "", err
	}
	return string(headersJSON), nil
}

// ExtractRequestData extracts headers and body from http.Request
func ExtractRequestData(req *http.Request) (headers string, body string) {
	headers, err := FormatHeaders(req.Header)
	if err != nil {
		headers = ""
	}

	if req.Body == nil {
		return
	}

	buf, err := ioutil.ReadAll(req.Body)
	req.Body = NewReadCloser(buf, err)
	if err != nil {
		return
	}
	// truncates request body to the first 10KB
	trimmed := buf
	if len(buf) > MaxMetadataSize {
		trimmed = buf[0:MaxMetadataSize]
	}
	body = string(trimmed)
	return
}

// NewReadCloser returns an io.ReadCloser
// will mimick read from body depending on given error
func NewReadCloser(body []byte, err error) io.ReadCloser {
	if err != nil {
		return &errorReader{err: err}
	}
	return ioutil.NopCloser(bytes.NewReader(body))
}

// DebugLog logs helpful debugging messages
func DebugLog(debugMode bool, args ...interface{}) {
	if debugMode {
		log.Println("[LUMIGO]", args)
	}
}

type errorReader struct {
	err error
}

func (er *errorReader) Read([]byte) (int, error) {
	return 0, er.err
}
func (er *errorReader) Close() error {
	return er.err
}
