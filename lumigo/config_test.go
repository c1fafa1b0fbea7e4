package lumigo

import (
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("config", func() {
	AfterEach(func() {
		os.Unsetenv("LUMIGO_ORIGINAL_HANDLER")
		os.Unsetenv("LUMIGO_TRACE_SAMPLING_RATE")
		os.Unsetenv("LUMIGO_WARMUP_SOURCE")
		os.Unsetenv("LUMIGO_TRACE_CONDITIONS")
		os.Unsetenv("LUMIGO_DEBUG")
	})

	Describe("NewConfigFromEnv", func() {
		Context("empty environment", func() {
			It("applies the documented defaults", func() {
				config := NewConfigFromEnv()
				Expect(config.HandlerName).To(Equal("myHandler"))
				Expect(config.SamplingRate).To(Equal(1.0))
				Expect(config.WarmupSource).To(Equal("serverless-plugin-warmup"))
				Expect(config.TraceConditions).To(Equal("{}"))
				Expect(config.Debug).To(Equal(false))
			})
		})
		Context("fully configured environment", func() {
			It("reads every variable", func() {
				os.Setenv("LUMIGO_ORIGINAL_HANDLER", "paymentsHandler")
				os.Setenv("LUMIGO_TRACE_SAMPLING_RATE", "0.25")
				os.Setenv("LUMIGO_WARMUP_SOURCE", "keep-warm")
				os.Setenv("LUMIGO_TRACE_CONDITIONS",
					`{"field":"path","operator":"contains","value":"/api"}`)
				os.Setenv("LUMIGO_DEBUG", "TRUE")
				config := NewConfigFromEnv()
				Expect(config.HandlerName).To(Equal("paymentsHandler"))
				Expect(config.SamplingRate).To(Equal(0.25))
				Expect(config.WarmupSource).To(Equal("keep-warm"))
				Expect(config.TraceConditions).To(ContainSubstring("contains"))
				Expect(config.Debug).To(Equal(true))
			})
		})
		Context("sampling rate edge cases", func() {
			It("clamps values above one", func() {
				os.Setenv("LUMIGO_TRACE_SAMPLING_RATE", "7")
				Expect(NewConfigFromEnv().SamplingRate).To(Equal(1.0))
			})
			It("clamps negative values", func() {
				os.Setenv("LUMIGO_TRACE_SAMPLING_RATE", "-1")
				Expect(NewConfigFromEnv().SamplingRate).To(Equal(0.0))
			})
			It("falls back to one on garbage", func() {
				os.Setenv("LUMIGO_TRACE_SAMPLING_RATE", "not-a-number")
				Expect(NewConfigFromEnv().SamplingRate).To(Equal(1.0))
			})
		})
	})
})
