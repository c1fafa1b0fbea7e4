package lumigo

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func warmupContext(source string) context.Context {
	return lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		ClientContext: lambdacontext.ClientContext{
			Custom: map[string]string{"source": source},
		},
	})
}

var _ = Describe("sampling", func() {
	var (
		config *Config
	)
	BeforeEach(func() {
		config = NewConfig("myHandler", "t_token")
		randomDraw = func() float64 { return 0.5 }
	})
	AfterEach(func() {
		randomDraw = defaultRandomDraw
	})

	Describe("shouldTrace", func() {
		Context("no condition, no warm-up marker", func() {
			It("traces when the draw is within the rate", func() {
				config.SamplingRate = 0.6
				Expect(shouldTrace(json.RawMessage("{}"), context.Background(), config, nil)).To(BeTrue())
			})
			It("does not trace when the draw is above the rate", func() {
				config.SamplingRate = 0.4
				Expect(shouldTrace(json.RawMessage("{}"), context.Background(), config, nil)).To(BeFalse())
			})
			It("traces a draw equal to the rate", func() {
				config.SamplingRate = 0.5
				Expect(shouldTrace(json.RawMessage("{}"), context.Background(), config, nil)).To(BeTrue())
			})
			It("treats the rate as an inclusive bound", func() {
				config.SamplingRate = 0.0
				randomDraw = func() float64 { return 0.0 }
				Expect(shouldTrace(json.RawMessage("{}"), context.Background(), config, nil)).To(BeTrue())
				randomDraw = func() float64 { return 0.0000001 }
				Expect(shouldTrace(json.RawMessage("{}"), context.Background(), config, nil)).To(BeFalse())
			})
		})

		Context("warm-up invocation", func() {
			It("is never traced", func() {
				config.SamplingRate = 1.0
				ctx := warmupContext(DefaultWarmupSource)
				Expect(shouldTrace(json.RawMessage("{}"), ctx, config, nil)).To(BeFalse())
			})
			It("ignores warm-up markers from other tooling", func() {
				config.SamplingRate = 1.0
				ctx := warmupContext("other-plugin")
				Expect(shouldTrace(json.RawMessage("{}"), ctx, config, nil)).To(BeTrue())
			})
			It("honors a custom warm-up source", func() {
				config.WarmupSource = "keep-warm"
				ctx := warmupContext("keep-warm")
				Expect(shouldTrace(json.RawMessage("{}"), ctx, config, nil)).To(BeFalse())
			})
		})

		Context("condition rule", func() {
			payload := json.RawMessage(`{"path":"/api/trace/me"}`)
			It("its match is the decision", func() {
				condition := &TraceCondition{Field: "path", Operator: "contains", Value: "trace"}
				config.SamplingRate = 0.0
				Expect(shouldTrace(payload, context.Background(), config, condition)).To(BeTrue())
			})
			It("a non-match wins over a full sampling rate", func() {
				condition := &TraceCondition{Field: "path", Operator: "contains", Value: "nope"}
				config.SamplingRate = 1.0
				Expect(shouldTrace(payload, context.Background(), config, condition)).To(BeFalse())
			})
			It("overrides warm-up suppression", func() {
				condition := &TraceCondition{Field: "path", Operator: "contains", Value: "trace"}
				ctx := warmupContext(DefaultWarmupSource)
				Expect(shouldTrace(payload, ctx, config, condition)).To(BeTrue())
			})
			It("a missing field never traces", func() {
				condition := &TraceCondition{Field: "missing.field", Operator: "exact", Value: "x"}
				config.SamplingRate = 1.0
				Expect(shouldTrace(payload, context.Background(), config, condition)).To(BeFalse())
			})
			It("a non-object event never traces", func() {
				condition := &TraceCondition{Field: "path", Operator: "exact", Value: "x"}
				Expect(shouldTrace(json.RawMessage(`"scalar"`), context.Background(), config, condition)).To(BeFalse())
			})
		})
	})
})
