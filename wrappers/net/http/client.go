package lumigohttp

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// TraceIDHeaderKey is injected into outgoing requests so downstream
// instrumented services can join the same transaction
const TraceIDHeaderKey = "lumigo-trace-id"

type ValidationFunction func(string, string) bool

var hasSuffix ValidationFunction = strings.HasSuffix
var contains ValidationFunction = strings.Contains

var blacklistURLs = map[*ValidationFunction][]string{
	&hasSuffix: {
		"lumigo.io",
		"golumigo.com",
		".amazonaws.com",
	},
	&contains: {
		"accounts.google.com",
		"documents.azure.com",
		"169.254.170.2", // AWS Task Metadata Endpoint
	},
}
var whitelistURLs = map[*ValidationFunction][]string{
	&contains: {
		".execute-api.",
		".elb.amazonaws.com",
		".appsync-api.",
	},
}

// ClientWrapper instruments http.Client, recording an HTTP span per call
type ClientWrapper struct {
	http.Client

	// MetadataOnly flag overriding the configuration
	MetadataOnly bool
	tracer       tracer.Tracer
}

// Wrap wraps an http.Client into a ClientWrapper. When the invocation is
// not traced (sampled out, warm-up) the wrapper passes calls straight
// through to the underlying client.
func Wrap(c http.Client, args ...context.Context) ClientWrapper {
	currentTracer := lumigo.ExtractTracer(args)
	return ClientWrapper{c, false, currentTracer}
}

func (c *ClientWrapper) getMetadataOnly() bool {
	return c.MetadataOnly || c.tracer.GetConfig().MetadataOnly
}

func isBlacklistedURL(parsedURL *url.URL) bool {
	hostname := parsedURL.Hostname()
	for method, urls := range whitelistURLs {
		for _, whitelistURL := range urls {
			if (*method)(hostname, whitelistURL) {
				return false
			}
		}
	}
	for method, urls := range blacklistURLs {
		for _, blacklistURL := range urls {
			if (*method)(hostname, blacklistURL) {
				return true
			}
		}
	}
	return false
}

func generateTraceID() string {
	traceID := hex.EncodeToString(uuid.New().NodeID())
	spanID := uuid.New().String()
	return traceID + ":" + spanID + ":1"
}

// Do wraps http.Client's Do
func (c *ClientWrapper) Do(req *http.Request) (resp *http.Response, err error) {
	if c.tracer == nil {
		return c.Client.Do(req)
	}
	defer lumigo.GeneralRecover("net.http.Client", "Client.Do", c.tracer)

	startTime := tracer.GetTimestamp()
	if !isBlacklistedURL(req.URL) {
		req.Header.Set(TraceIDHeaderKey, generateTraceID())
	}
	resp, err = c.Client.Do(req)
	span := postSuperCall(startTime, req.URL, req.Method, resp, err, c.getMetadataOnly())
	if !c.getMetadataOnly() {
		updateRequestData(req, span.SpanInfo.HTTPInfo)
	}
	c.tracer.AddSpan(span)
	return
}

// Get wraps http.Client.Get
func (c *ClientWrapper) Get(rawURL string) (resp *http.Response, err error) {
	if c.tracer == nil {
		return c.Client.Get(rawURL)
	}
	defer lumigo.GeneralRecover("net.http.Client", "Client.Get", c.tracer)
	startTime := tracer.GetTimestamp()
	resp, err = c.Client.Get(rawURL)
	span := postSuperCall(startTime, parseURL(rawURL, resp), http.MethodGet, resp, err, c.getMetadataOnly())
	if resp != nil && !c.getMetadataOnly() {
		updateRequestData(resp.Request, span.SpanInfo.HTTPInfo)
	}
	c.tracer.AddSpan(span)
	return
}

// Post wraps http.Client.Post
func (c *ClientWrapper) Post(
	rawURL string, contentType string, body io.Reader) (resp *http.Response, err error) {

	if c.tracer == nil {
		return c.Client.Post(rawURL, contentType, body)
	}
	defer lumigo.GeneralRecover("net.http.Client", "Client.Post", c.tracer)
	startTime := tracer.GetTimestamp()
	resp, err = c.Client.Post(rawURL, contentType, body)
	span := postSuperCall(startTime, parseURL(rawURL, resp), http.MethodPost, resp, err, c.getMetadataOnly())
	if resp != nil && !c.getMetadataOnly() {
		updateRequestData(resp.Request, span.SpanInfo.HTTPInfo)
	}
	c.tracer.AddSpan(span)
	return
}

// PostForm wraps http.Client.PostForm
func (c *ClientWrapper) PostForm(
	rawURL string, data url.Values) (resp *http.Response, err error) {

	if c.tracer == nil {
		return c.Client.PostForm(rawURL, data)
	}
	defer lumigo.GeneralRecover("net.http.Client", "Client.PostForm", c.tracer)
	startTime := tracer.GetTimestamp()
	resp, err = c.Client.PostForm(rawURL, data)
	span := postSuperCall(startTime, parseURL(rawURL, resp), http.MethodPost, resp, err, c.getMetadataOnly())
	if resp != nil && !c.getMetadataOnly() {
		updateRequestData(resp.Request, span.SpanInfo.HTTPInfo)
		dataBytes, marshalErr := json.Marshal(data)
		if marshalErr == nil && span.SpanInfo.HTTPInfo.Request != nil {
			span.SpanInfo.HTTPInfo.Request.Body = string(dataBytes)
		}
	}
	c.tracer.AddSpan(span)
	return
}

// Head wraps http.Client.Head
func (c *ClientWrapper) Head(rawURL string) (resp *http.Response, err error) {
	if c.tracer == nil {
		return c.Client.Head(rawURL)
	}
	defer lumigo.GeneralRecover("net.http.Client", "Client.Head", c.tracer)
	startTime := tracer.GetTimestamp()
	resp, err = c.Client.Head(rawURL)
	span := postSuperCall(startTime, parseURL(rawURL, resp), http.MethodHead, resp, err, c.getMetadataOnly())
	if resp != nil && !c.getMetadataOnly() {
		updateRequestData(resp.Request, span.SpanInfo.HTTPInfo)
	}
	c.tracer.AddSpan(span)
	return
}

func parseURL(rawURL string, resp *http.Response) *url.URL {
	if resp != nil && resp.Request != nil {
		return resp.Request.URL
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &url.URL{}
	}
	return parsedURL
}

func postSuperCall(
	startTime int64,
	reqURL *url.URL,
	method string,
	resp *http.Response,
	err error,
	metadataOnly bool) *telemetry.Span {

	span := createHTTPSpan(reqURL, method, err)
	span.StartedTimestamp = startTime
	span.EndedTimestamp = tracer.GetTimestamp()
	if resp != nil {
		updateResponseData(resp, span, metadataOnly)
	}
	return span
}

func createHTTPSpan(reqURL *url.URL, method string, err error) *telemetry.Span {
	span := &telemetry.Span{
		ID:               "http-" + uuid.New().String(),
		LambdaType:       telemetry.HTTPSpanType,
		StartedTimestamp: tracer.GetTimestamp(),
		SpanInfo: telemetry.SpanInfo{
			HTTPInfo: &telemetry.HTTPInfo{
				Host: reqURL.Hostname(),
				Request: &telemetry.HTTPRequestInfo{
					URI:    reqURL.String(),
					Method: method,
				},
			},
		},
	}
	if err != nil {
		span.Error = &telemetry.SpanError{
			Type:    "http.Client",
			Message: err.Error(),
		}
	}
	return span
}

func updateResponseData(resp *http.Response, span *telemetry.Span, metadataOnly bool) {
	responseInfo := &telemetry.HTTPResponseInfo{
		StatusCode: resp.StatusCode,
	}
	span.SpanInfo.HTTPInfo.Response = responseInfo
	if metadataOnly {
		return
	}
	headers, err := lumigo.FormatHeaders(resp.Header)
	if err == nil {
		responseInfo.Headers = headers
	}
	body, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if err == nil {
		responseInfo.Body = string(body)
	}
	resp.Body = lumigo.NewReadCloser(body, err)
}

func updateRequestData(req *http.Request, httpInfo *telemetry.HTTPInfo) {
	if req == nil || httpInfo == nil || httpInfo.Request == nil {
		return
	}
	headers, err := lumigo.FormatHeaders(req.Header)
	if err == nil {
		httpInfo.Request.Headers = headers
	}
	if req.Body == nil {
		return
	}
	if req.GetBody != nil {
		bodyReader, err := req.GetBody()
		if err == nil {
			bodyBytes, readErr := ioutil.ReadAll(bodyReader)
			if readErr == nil {
				httpInfo.Request.Body = string(bodyBytes)
			}
		}
	}
}
