package tracer_test

import (
	"os"

	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("masked key patterns configuration", func() {
	AfterEach(func() {
		os.Unsetenv("LUMIGO_SECRET_MASKING_REGEX")
	})
	It("defaults to the built in secret key patterns", func() {
		testTracer := tracer.CreateTracer(&tracer.Config{Disable: true})
		patterns := testTracer.GetConfig().MaskedKeyPatterns
		Expect(patterns).To(ContainElement(".*pass.*"))
		Expect(patterns).To(ContainElement("Authorization"))
	})
	It("reads patterns from LUMIGO_SECRET_MASKING_REGEX", func() {
		os.Setenv("LUMIGO_SECRET_MASKING_REGEX", `["country", ".*order.*"]`)
		testTracer := tracer.CreateTracer(&tracer.Config{Disable: true})
		Expect(testTracer.GetConfig().MaskedKeyPatterns).To(
			Equal([]string{"country", ".*order.*"}))
	})
	It("falls back to the defaults when the env value is not a JSON list", func() {
		os.Setenv("LUMIGO_SECRET_MASKING_REGEX", "country")
		testTracer := tracer.CreateTracer(&tracer.Config{Disable: true})
		Expect(testTracer.GetConfig().MaskedKeyPatterns).To(
			ContainElement(".*pass.*"))
	})
	It("prefers patterns set on the config over the environment", func() {
		os.Setenv("LUMIGO_SECRET_MASKING_REGEX", `["country"]`)
		testTracer := tracer.CreateTracer(&tracer.Config{
			Disable:           true,
			MaskedKeyPatterns: []string{"city"},
		})
		Expect(testTracer.GetConfig().MaskedKeyPatterns).To(
			Equal([]string{"city"}))
	})
})
