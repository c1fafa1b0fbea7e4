package lumigo

import (
	"encoding/json"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const apiGatewayPayload = `{
	"resource": "/hello",
	"httpMethod": "POST",
	"headers": {"Host": "abc123.execute-api.us-east-1.amazonaws.com"},
	"queryStringParameters": {"q": "1"},
	"requestContext": {"requestId": "req-1", "stage": "prod"},
	"body": "{\"hello\":\"world\"}"
}`

const sqsPayload = `{
	"Records": [{
		"messageId": "msg-1",
		"body": "hello",
		"md5OfBody": "abc",
		"attributes": {"SenderId": "sender-1", "SentTimestamp": "15"},
		"eventSource": "aws:sqs",
		"eventSourceARN": "arn:aws:sqs:us-east-1:123456789012:my-queue"
	}]
}`

const snsPayload = `{
	"Records": [{
		"EventSource": "aws:sns",
		"eventSource": "aws:sns",
		"EventSubscriptionArn": "arn:aws:sns:us-east-1:123456789012:my-topic:subscription-id",
		"Sns": {
			"MessageId": "sns-msg-1",
			"TopicArn": "arn:aws:sns:us-east-1:123456789012:my-topic",
			"Subject": "greeting",
			"Message": "hello"
		}
	}]
}`

var _ = Describe("lambda_trigger", func() {
	var (
		spans      []*telemetry.Span
		spanErrors []*telemetry.SpanError
		runnerSpan *telemetry.Span
	)
	BeforeEach(func() {
		spans = make([]*telemetry.Span, 0)
		spanErrors = make([]*telemetry.SpanError, 0)
		tracer.GlobalTracer = &tracer.MockedLumigoTracer{
			Spans:  &spans,
			Errors: &spanErrors,
		}
		runnerSpan = &telemetry.Span{LambdaType: telemetry.FunctionSpanType}
	})

	Describe("guessTriggerSource", func() {
		It("identifies records by their event source", func() {
			Expect(guessTriggerSource(json.RawMessage(sqsPayload))).To(Equal("aws:sqs"))
		})
		It("identifies API gateway proxy requests", func() {
			Expect(guessTriggerSource(json.RawMessage(apiGatewayPayload))).To(Equal("api_gateway"))
		})
		It("identifies HTTP API requests", func() {
			payload := `{"requestContext":{"apiId":"api1","http":{"method":"GET"}}}`
			Expect(guessTriggerSource(json.RawMessage(payload))).To(Equal("api_gateway_http2"))
		})
		It("identifies event bridge style sources by their last segment", func() {
			payload := `{"source":"aws.events"}`
			Expect(guessTriggerSource(json.RawMessage(payload))).To(Equal("events"))
		})
		It("falls back to a direct invocation", func() {
			Expect(guessTriggerSource(json.RawMessage("{}"))).To(Equal("invoke_api"))
		})
	})

	Describe("addInvocationTrigger", func() {
		Context("api gateway event", func() {
			It("enriches the runner span with the http trigger", func() {
				addInvocationTrigger(json.RawMessage(apiGatewayPayload), runnerSpan, triggerFactories)
				triggeredBy := runnerSpan.SpanInfo.TriggeredBy
				Expect(triggeredBy).NotTo(BeNil())
				Expect(triggeredBy.TriggeredBy).To(Equal("apigw"))
				Expect(triggeredBy.API).To(Equal("abc123.execute-api.us-east-1.amazonaws.com"))
				Expect(triggeredBy.Method).To(Equal("POST"))
				Expect(triggeredBy.Resource).To(Equal("/hello"))
				Expect(triggeredBy.MessageID).To(Equal("req-1"))
				Expect(triggeredBy.Extra["stage"]).To(Equal("prod"))
			})
		})
		Context("sqs event", func() {
			It("enriches the runner span with the queue trigger", func() {
				addInvocationTrigger(json.RawMessage(sqsPayload), runnerSpan, triggerFactories)
				triggeredBy := runnerSpan.SpanInfo.TriggeredBy
				Expect(triggeredBy).NotTo(BeNil())
				Expect(triggeredBy.TriggeredBy).To(Equal("sqs"))
				Expect(triggeredBy.Resource).To(Equal("my-queue"))
				Expect(triggeredBy.MessageID).To(Equal("msg-1"))
				Expect(triggeredBy.Arn).To(Equal("arn:aws:sqs:us-east-1:123456789012:my-queue"))
			})
		})
		Context("sns event", func() {
			It("enriches the runner span with the topic trigger", func() {
				addInvocationTrigger(json.RawMessage(snsPayload), runnerSpan, triggerFactories)
				triggeredBy := runnerSpan.SpanInfo.TriggeredBy
				Expect(triggeredBy).NotTo(BeNil())
				Expect(triggeredBy.TriggeredBy).To(Equal("sns"))
				Expect(triggeredBy.Resource).To(Equal("my-topic"))
				Expect(triggeredBy.MessageID).To(Equal("sns-msg-1"))
			})
		})
		Context("direct invocation", func() {
			It("marks the trigger as a plain invocation", func() {
				addInvocationTrigger(json.RawMessage(`{"hello":"world"}`), runnerSpan, triggerFactories)
				Expect(runnerSpan.SpanInfo.TriggeredBy).NotTo(BeNil())
				Expect(runnerSpan.SpanInfo.TriggeredBy.TriggeredBy).To(Equal("invocation"))
			})
		})
		Context("undecodable typed event", func() {
			It("leaves the runner span without trigger info", func() {
				payload := `{"Records":[{"eventSource":"aws:s3","s3":"not-an-object"}]}`
				addInvocationTrigger(json.RawMessage(payload), runnerSpan, triggerFactories)
				Expect(runnerSpan.SpanInfo.TriggeredBy).To(BeNil())
			})
		})
	})
})
