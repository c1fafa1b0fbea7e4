package lumigo

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("handler registry", func() {
	Describe("resolveHandler", func() {
		Context("direct handler reference", func() {
			It("returns the function unchanged", func() {
				handler := func() {}
				config := &Config{Handler: handler}
				resolved, err := resolveHandler(config)
				Expect(err).To(BeNil())
				Expect(resolved).NotTo(BeNil())
			})
			It("rejects a non-function reference", func() {
				config := &Config{Handler: "not a function"}
				_, err := resolveHandler(config)
				Expect(err).NotTo(BeNil())
				resolutionErr, ok := err.(*HandlerResolutionError)
				Expect(ok).To(BeTrue())
				Expect(resolutionErr.Identifier).To(Equal("string"))
			})
		})
		Context("registered name", func() {
			It("looks the handler up in the registry", func() {
				RegisterHandler("payments", func() {})
				config := &Config{HandlerName: "payments"}
				resolved, err := resolveHandler(config)
				Expect(err).To(BeNil())
				Expect(resolved).NotTo(BeNil())
			})
			It("falls back to the default name when none is configured", func() {
				RegisterHandler(DefaultHandlerName, func() {})
				config := &Config{}
				resolved, err := resolveHandler(config)
				Expect(err).To(BeNil())
				Expect(resolved).NotTo(BeNil())
			})
			It("fails for an unknown name, naming the identifier", func() {
				config := &Config{HandlerName: "doesNotExist"}
				_, err := resolveHandler(config)
				Expect(err).NotTo(BeNil())
				Expect(err.Error()).To(ContainSubstring("doesNotExist"))
			})
		})
	})
})
