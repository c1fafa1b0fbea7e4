package tracer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
)

var (
	mutex sync.Mutex
	// GlobalTracer A global Tracer for all internal uses
	GlobalTracer Tracer
)

// VERSION is the tracer version reported on every span
const VERSION = "1.0.0"

// MaxSpanFieldSize is the maximum allowed size (in bytes) of a single
// payload field on a span (event, envs, return value, metadata values)
const MaxSpanFieldSize = 2048

// MaxExecutionTagsSize is the maximum allowed total execution tags size (in bytes)
const MaxExecutionTagsSize = 10 * 1024

// Tracer is what a dispatch tracer has to provide
type Tracer interface {
	AddSpan(*telemetry.Span)
	AddError(*telemetry.SpanError)
	AddErrorTypeAndMessage(string, string)
	// AddExecutionTag Adds an execution tag to the runner span that will be sent
	AddExecutionTag(string, interface{})
	// SetRunnerError Set an error on the runner span that will be sent
	SetRunnerError(*telemetry.SpanError)
	// GetRunnerSpan Returns the first span with "function" as its type
	GetRunnerSpan() *telemetry.Span
	// Starts the tracer span collection
	Start()
	Running() bool
	// Stop the tracer collecting spans and send them
	SendStopSignal()
	// Stop the tracer collecting spans and send them, waiting
	// for the tracer to finish running
	Stop()
	Stopped() bool
	GetConfig() *Config
}

// Config is the configuration for the dispatch tracer
type Config struct {
	Token             string   // Lumigo token used to authenticate the span batch
	CollectorURL      string   // Edge collector url
	MetadataOnly      bool     // Only send metadata about the invocation
	Debug             bool     // Print tracer debug information
	SendTimeout       string   // Timeout for sending spans to the collector
	Disable           bool     // Disable sending spans
	TestMode          bool     // TestMode reuses the current global tracer
	MaskedKeyPatterns []string // Key regexes whose values are masked on sent spans
}

type executionTag struct {
	key   string
	value interface{}
}

type lumigoTracer struct {
	Config *Config

	spansPipe       chan *telemetry.Span
	spans           []*telemetry.Span
	errorsPipe      chan *telemetry.SpanError
	runnerErrorPipe chan *telemetry.SpanError
	errors          []*telemetry.SpanError
	runnerError     *telemetry.SpanError
	tagsPipe        chan executionTag
	tags            map[string]interface{}
	tagsSize        int

	closeCmd chan struct{}
	stopped  chan struct{}
	running  chan struct{}
}

// Start starts running the tracer in another goroutine and returns
// when it is ready, or after 1 second timeout
func (tracer *lumigoTracer) Start() {
	go tracer.Run()
	timer := time.NewTimer(time.Second)
	select {
	case <-tracer.running:
		return
	case <-timer.C:
		log.Println("Lumigo tracer couldn't start after one second timeout")
	}
}

func (tracer *lumigoTracer) sendSpans() {
	tracer.maskSpanSecrets()
	spansReader, err := tracer.getSpansReader()
	if err != nil {
		log.Printf("Lumigo: Encountered an error while marshaling the spans: %v\n", err)
		return
	}
	sendTimeout, err := time.ParseDuration(tracer.Config.SendTimeout)
	if err != nil {
		if tracer.Config.Debug {
			log.Printf("Lumigo: Encountered an error while parsing send timeout: %v, using '1s'\n", err)
		}
		sendTimeout, _ = time.ParseDuration("1s")
	}

	client := &http.Client{Timeout: sendTimeout}

	if !tracer.Config.Disable {
		if len(tracer.Config.Token) == 0 {
			if tracer.Config.Debug {
				log.Printf("Lumigo: empty token, not sending spans\n")
			}
			return
		}
		req, err := http.NewRequest(http.MethodPost, tracer.Config.CollectorURL, spansReader)
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", fmt.Sprintf("LumigoToken %s", tracer.Config.Token))
			HandleSendSpansResponse(client.Do(req))
		} else {
			if tracer.Config.Debug {
				log.Printf("Lumigo: Encountered an error while trying to send spans: %v\n", err)
			}
		}
	}
}

// HandleSendSpansResponse handles responses from the edge collector
func HandleSendSpansResponse(resp *http.Response, err error) {
	if err != nil {
		log.Printf("Error while sending spans \n%v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		//safe to ignore the error here
		respBody, _ := ioutil.ReadAll(resp.Body)
		log.Printf("Error while sending spans \n%v", string(respBody))
	}
}

// GetRunnerSpan Gets the runner span, nil if not found
func (tracer *lumigoTracer) GetRunnerSpan() *telemetry.Span {
	for _, span := range tracer.spans {
		if span.LambdaType == telemetry.FunctionSpanType {
			return span
		}
	}
	return nil
}

func (tracer *lumigoTracer) addRunnerExecutionTags(span *telemetry.Span) {
	if len(tracer.tags) == 0 {
		return
	}
	span.ExecutionTags = tracer.tags
}

func (tracer *lumigoTracer) addRunnerError(span *telemetry.Span) {
	if tracer.runnerError != nil {
		span.Error = tracer.runnerError
	}
}

func truncateField(value string) string {
	if len(value) > MaxSpanFieldSize {
		return value[:MaxSpanFieldSize]
	}
	return value
}

// trimSpanPayloads caps every payload field so a single span cannot
// blow past the collector request limit
func trimSpanPayloads(span *telemetry.Span) {
	span.Event = truncateField(span.Event)
	span.LambdaEnvVars = truncateField(span.LambdaEnvVars)
	if span.LambdaResponse != nil {
		trimmed := truncateField(*span.LambdaResponse)
		span.LambdaResponse = &trimmed
	}
	for key, value := range span.Metadata {
		span.Metadata[key] = truncateField(value)
	}
}

func (tracer *lumigoTracer) getSpansReader() (*bytes.Buffer, error) {
	version := "go " + runtime.Version()
	runnerSpan := tracer.GetRunnerSpan()
	if runnerSpan != nil {
		tracer.addRunnerExecutionTags(runnerSpan)
		tracer.addRunnerError(runnerSpan)
		runnerSpan.Runtime = version
	}
	for _, span := range tracer.spans {
		span.Token = tracer.Config.Token
		span.SpanInfo.TracerVersion = telemetry.TracerVersion{Version: VERSION}
		trimSpanPayloads(span)
	}
	if tracer.Config.Debug {
		log.Printf("LUMIGO DEBUG sending %d spans\n", len(tracer.spans))
		for _, sdkError := range tracer.errors {
			log.Printf("LUMIGO DEBUG tracer error: %s: %s\n", sdkError.Type, sdkError.Message)
		}
	}
	spansJSON, err := json.Marshal(tracer.spans)
	if err != nil {
		return nil, err
	}
	if tracer.Config.Debug {
		log.Printf("Final spans: %s ", string(spansJSON))
	}
	return bytes.NewBuffer(spansJSON), nil
}

func isChannelPinged(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Running return true iff the tracer has been running
func (tracer *lumigoTracer) Running() bool {
	return isChannelPinged(tracer.running)
}

// Stopped return true iff the tracer has been closed
func (tracer *lumigoTracer) Stopped() bool {
	return isChannelPinged(tracer.stopped)
}

func fillConfigDefaults(config *Config) {
	if !config.Debug {
		if strings.ToUpper(os.Getenv("LUMIGO_DEBUG")) == "TRUE" {
			config.Debug = true
		}
	}
	if len(config.Token) == 0 {
		config.Token = os.Getenv("LUMIGO_TRACER_TOKEN")
		if config.Debug {
			log.Println("LUMIGO DEBUG: setting token from environment variable")
		}
	}
	if config.MetadataOnly {
		if strings.ToUpper(os.Getenv("LUMIGO_METADATA_ONLY")) == "FALSE" {
			config.MetadataOnly = false
		}
	}
	if len(config.CollectorURL) == 0 {
		envURL := os.Getenv("LUMIGO_TRACER_HOST")
		if len(envURL) != 0 {
			config.CollectorURL = envURL
		} else {
			region := os.Getenv("AWS_REGION")
			if len(region) != 0 {
				config.CollectorURL = fmt.Sprintf("https://%s.lumigo-tracer-edge.golumigo.com/api/spans", region)
			} else {
				config.CollectorURL = "https://us-east-1.lumigo-tracer-edge.golumigo.com/api/spans"
			}
		}
		if config.Debug {
			log.Printf("LUMIGO DEBUG: setting collector url to %s\n", config.CollectorURL)
		}
	}
	sendTimeout := os.Getenv("LUMIGO_SEND_TIMEOUT_SEC")
	if len(sendTimeout) != 0 {
		if _, err := strconv.Atoi(sendTimeout); err == nil {
			sendTimeout = sendTimeout + "s"
		}
		config.SendTimeout = sendTimeout
		if config.Debug {
			log.Println("LUMIGO DEBUG: setting send timeout from environment variable")
		}
	}
	if len(config.SendTimeout) == 0 {
		config.SendTimeout = "1s"
	}
	if len(config.MaskedKeyPatterns) == 0 {
		config.MaskedKeyPatterns = maskedKeyPatternsFromEnv(config.Debug)
	}
}

// CreateTracer will initialize a new dispatch tracer
func CreateTracer(config *Config) Tracer {
	if config != nil && config.TestMode {
		return GlobalTracer
	}
	if config == nil {
		config = &Config{}
	}
	fillConfigDefaults(config)
	tracer := &lumigoTracer{
		Config:          config,
		spansPipe:       make(chan *telemetry.Span),
		spans:           make([]*telemetry.Span, 0),
		errorsPipe:      make(chan *telemetry.SpanError),
		runnerErrorPipe: make(chan *telemetry.SpanError),
		errors:          make([]*telemetry.SpanError, 0),
		tagsPipe:        make(chan executionTag),
		tags:            make(map[string]interface{}),
		closeCmd:        make(chan struct{}),
		stopped:         make(chan struct{}),
		running:         make(chan struct{}),
	}
	if config.Debug {
		log.Println("LUMIGO DEBUG: Created a new tracer")
	}
	return tracer
}

// CreateGlobalTracer will initialize a global dispatch tracer
func CreateGlobalTracer(config *Config) Tracer {
	mutex.Lock()
	defer mutex.Unlock()
	if GlobalTracer != nil && !GlobalTracer.Stopped() {
		log.Println("The tracer is already created, Closing and Creating.")
		GlobalTracer.Stop()
	}
	GlobalTracer = CreateTracer(config)
	return GlobalTracer
}

// AddError adds a tracer error to the tracer
func (tracer *lumigoTracer) AddError(spanError *telemetry.SpanError) {
	defer func() {
		recover()
	}()
	tracer.errorsPipe <- spanError
}

// AddSpan adds a span to the tracer
func (tracer *lumigoTracer) AddSpan(span *telemetry.Span) {
	if tracer.Config.Debug {
		log.Println("LUMIGO DEBUG: Adding span: ", span)
	}
	tracer.spansPipe <- span
}

// AddSpan adds a span to the global tracer
func AddSpan(span *telemetry.Span) {
	if GlobalTracer == nil || GlobalTracer.Stopped() {
		log.Println("The tracer is not initialized!")
		return
	}
	GlobalTracer.AddSpan(span)
}

func (tracer *lumigoTracer) verifyTag(tag executionTag) bool {
	var valueSize = 0
	switch tag.value.(type) {
	case int, float64, bool:
		valueSize = strconv.IntSize
	case string:
		valueSize = len(tag.value.(string))
	default:
		if tracer.Config.Debug {
			log.Println("LUMIGO DEBUG: Supported execution tag types are: int, float, string, bool")
		}
		return false
	}
	if len(tag.key)+valueSize+tracer.tagsSize > MaxExecutionTagsSize {
		return false
	}

	tracer.tagsSize += len(tag.key) + valueSize
	return true
}

// AddExecutionTag adds an execution tag to the tracer
func (tracer *lumigoTracer) AddExecutionTag(key string, value interface{}) {
	if tracer.Config.Debug {
		log.Println("LUMIGO DEBUG: Adding execution tag: ", key, value)
	}
	tag := executionTag{key, value}
	tracer.tagsPipe <- tag
}

// AddExecutionTag adds an execution tag to the global tracer
func AddExecutionTag(key string, value interface{}) {
	if GlobalTracer == nil || GlobalTracer.Stopped() {
		log.Println("The tracer is not initialized!")
		return
	}
	GlobalTracer.AddExecutionTag(key, value)
}

// AddError adds a tracer error to the global tracer
func AddError(spanError *telemetry.SpanError) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Lumigo: Failed to add error")
		}
	}()
	if GlobalTracer == nil || GlobalTracer.Stopped() {
		log.Println("The tracer is not initialized!")
		return
	}
	GlobalTracer.AddError(spanError)
}

// SendStopSignal stops the tracer running routine
func (tracer *lumigoTracer) SendStopSignal() {
	tracer.closeCmd <- struct{}{}
}

// Stop stops the tracer running routine, waiting for the tracer to finish
func (tracer *lumigoTracer) Stop() {
	select {
	case <-tracer.stopped:
		return
	default:
		tracer.SendStopSignal()
		<-tracer.stopped
	}
}

// StopGlobalTracer will close the tracer and send all the spans to the collector
func StopGlobalTracer() {
	if GlobalTracer == nil || GlobalTracer.Stopped() {
		log.Println("The tracer is not initialized!")
		return
	}
	GlobalTracer.Stop()
}

// Run starts the collection routine that will run until stopped
func (tracer *lumigoTracer) Run() {
	if tracer.Config.Debug {
		log.Println("LUMIGO DEBUG: tracer started running")
	}
	if tracer.Running() {
		return
	}
	close(tracer.running)
	defer func() { tracer.running = make(chan struct{}) }()
	defer close(tracer.stopped)

	for {
		select {
		case span := <-tracer.spansPipe:
			tracer.spans = append(tracer.spans, span)
		case spanError := <-tracer.errorsPipe:
			tracer.errors = append(tracer.errors, spanError)
		case spanError := <-tracer.runnerErrorPipe:
			tracer.runnerError = spanError
		case tag := <-tracer.tagsPipe:
			if tracer.verifyTag(tag) {
				tracer.tags[tag.key] = tag.value
			}
		case <-tracer.closeCmd:
			if tracer.Config.Debug {
				log.Println("LUMIGO DEBUG: tracer stops running, sending spans")
			}
			tracer.sendSpans()
			return
		}
	}
}

func (tracer *lumigoTracer) GetConfig() *Config {
	return tracer.Config
}

// GetGlobalTracerConfig returns the configuration of the global tracer
func GetGlobalTracerConfig() *Config {
	if GlobalTracer == nil || GlobalTracer.Stopped() {
		return &Config{}
	}
	return GlobalTracer.GetConfig()
}

// AddErrorTypeAndMessage adds a tracer error to the current tracer with
// the current stack and time.
// errorType, msg are strings that will be added to the error
func (tracer *lumigoTracer) AddErrorTypeAndMessage(errorType, msg string) {
	tracer.AddError(newStackError(errorType, msg))
}

// SetRunnerError sets the error reported on the runner span
func (tracer *lumigoTracer) SetRunnerError(spanError *telemetry.SpanError) {
	defer func() {
		recover()
	}()
	tracer.runnerErrorPipe <- spanError
}
