package lumigo

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("trace_condition", func() {
	Describe("parseTraceCondition", func() {
		Context("complete rule", func() {
			It("parses field, operator and value", func() {
				condition := parseTraceCondition(
					`{"field":"path","operator":"contains","value":"/api/trace"}`, false)
				Expect(condition).NotTo(BeNil())
				Expect(condition.Field).To(Equal("path"))
				Expect(condition.Operator).To(Equal("contains"))
				Expect(condition.Value).To(Equal("/api/trace"))
			})
		})
		Context("empty object", func() {
			It("yields no condition", func() {
				Expect(parseTraceCondition("{}", false)).To(BeNil())
			})
		})
		Context("empty string", func() {
			It("yields no condition", func() {
				Expect(parseTraceCondition("", false)).To(BeNil())
			})
		})
		Context("malformed json", func() {
			It("recovers silently to no condition", func() {
				Expect(parseTraceCondition(`{"field":`, false)).To(BeNil())
			})
		})
		Context("rule missing a subfield", func() {
			It("yields no condition", func() {
				Expect(parseTraceCondition(
					`{"field":"path","operator":"contains"}`, false)).To(BeNil())
			})
		})
	})

	Describe("resolveEventField", func() {
		event := map[string]interface{}{
			"path": "/api/trace/me",
			"requestContext": map[string]interface{}{
				"stage": "prod",
				"identity": map[string]interface{}{
					"sourceIp": "10.0.0.1",
				},
			},
			"count": float64(3),
		}
		Context("top level key", func() {
			It("resolves", func() {
				value, found := resolveEventField(event, "path")
				Expect(found).To(BeTrue())
				Expect(value).To(Equal("/api/trace/me"))
			})
		})
		Context("nested key", func() {
			It("descends one dot separated key at a time", func() {
				value, found := resolveEventField(event, "requestContext.identity.sourceIp")
				Expect(found).To(BeTrue())
				Expect(value).To(Equal("10.0.0.1"))
			})
		})
		Context("missing key", func() {
			It("fails the resolution", func() {
				_, found := resolveEventField(event, "requestContext.missing.sourceIp")
				Expect(found).To(BeFalse())
			})
		})
		Context("path through a non object", func() {
			It("fails the resolution", func() {
				_, found := resolveEventField(event, "path.deeper")
				Expect(found).To(BeFalse())
			})
		})
		Context("non string leaf", func() {
			It("resolves and stringifies for comparison", func() {
				value, found := resolveEventField(event, "count")
				Expect(found).To(BeTrue())
				Expect(stringifyFieldValue(value)).To(Equal("3"))
			})
		})
	})

	Describe("applyOperator", func() {
		type operatorCase struct {
			operator string
			field    string
			value    string
			expected bool
		}
		cases := []operatorCase{
			{"exact", "/api/trace", "/api/trace", true},
			{"exact", "/api/trace/me", "/api/trace", false},
			{"notexact", "/api/trace/me", "/api/trace", true},
			{"startswith", "/api/trace/me", "/api", true},
			{"startswith", "/other", "/api", false},
			{"notstartswith", "/other", "/api", true},
			{"endswith", "/api/trace", "trace", true},
			{"endswith", "/api/trace", "api", false},
			{"notendswith", "/api/trace", "api", true},
			{"includes", "/api/trace/me", "trace", true},
			{"contains", "/api/trace/me", "trace", true},
			{"contains", "/api/trace/me", "nope", false},
			{"notincludes", "/api/trace/me", "nope", true},
			{"notcontains", "/api/trace/me", "trace", false},
		}
		It("evaluates each string operator", func() {
			for _, c := range cases {
				Expect(applyOperator(c.operator, c.field, c.value, false)).To(
					Equal(c.expected), "%s(%q, %q)", c.operator, c.field, c.value)
			}
		})
		Context("regex operator", func() {
			It("matches a bare pattern", func() {
				Expect(applyOperator("regex", "/api/trace/42", `trace/\d+`, false)).To(BeTrue())
			})
			It("matches a /pattern/flags literal", func() {
				Expect(applyOperator("regex", "/API/TRACE", "/api/trace/i", false)).To(BeTrue())
			})
			It("does not apply flags outside the literal form", func() {
				Expect(applyOperator("regex", "/API/TRACE", "api/trace", false)).To(BeFalse())
			})
			It("fails closed on an invalid pattern", func() {
				Expect(applyOperator("regex", "anything", "(", false)).To(BeFalse())
			})
		})
		Context("unknown operator", func() {
			It("never matches", func() {
				Expect(applyOperator("superset", "a", "a", false)).To(BeFalse())
			})
		})
	})
})
