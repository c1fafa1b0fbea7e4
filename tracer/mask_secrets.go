package tracer

import (
	"encoding/json"
	"log"
	"os"
	"regexp"

	"github.com/lumigo-io/lumigo-go-dispatch/telemetry"
)

const maskedValue = "****"

var defaultMaskedKeyPatterns = []string{
	".*pass.*",
	".*key.*",
	".*secret.*",
	".*credential.*",
	".*token.*",
	"SessionToken",
	"x-amz-security-token",
	"Signature",
	"Authorization",
}

func maskedKeyPatternsFromEnv(debug bool) []string {
	rawPatterns := os.Getenv("LUMIGO_SECRET_MASKING_REGEX")
	if len(rawPatterns) == 0 {
		return defaultMaskedKeyPatterns
	}
	var patterns []string
	if err := json.Unmarshal([]byte(rawPatterns), &patterns); err != nil {
		if debug {
			log.Printf("LUMIGO DEBUG: invalid LUMIGO_SECRET_MASKING_REGEX, using defaults: %v\n", err)
		}
		return defaultMaskedKeyPatterns
	}
	return patterns
}

func compileMaskedKeyPatterns(rawPatterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(rawPatterns))
	for _, rawPattern := range rawPatterns {
		pattern, err := regexp.Compile("(?i)^" + rawPattern + "$")
		if err != nil {
			continue
		}
		compiled = append(compiled, pattern)
	}
	return compiled
}

func isMaskedKey(key string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(key) {
			return true
		}
	}
	return false
}

func maskNestedJSONKeys(decodedJSON interface{}, patterns []*regexp.Regexp) interface{} {
	switch decoded := decodedJSON.(type) {
	case []interface{}:
		for i, nestedValue := range decoded {
			decoded[i] = maskNestedJSONKeys(nestedValue, patterns)
		}
		return decoded
	case map[string]interface{}:
		for key, nestedValue := range decoded {
			if isMaskedKey(key, patterns) {
				decoded[key] = maskedValue
			} else {
				decoded[key] = maskNestedJSONKeys(nestedValue, patterns)
			}
		}
		return decoded
	default:
		return decodedJSON
	}
}

// maskJSONString masks every nested key matching the patterns inside a
// JSON encoded string, returning the string unchanged when it is not JSON
func maskJSONString(value string, patterns []*regexp.Regexp) string {
	var decodedJSON interface{}
	if err := json.Unmarshal([]byte(value), &decodedJSON); err != nil {
		return value
	}
	masked := maskNestedJSONKeys(decodedJSON, patterns)
	encoded, err := json.Marshal(masked)
	if err != nil {
		return value
	}
	return string(encoded)
}

// maskSpanSecrets masks all the keys on the collected spans' payload fields
// that match the configured key patterns, swapping their values with '****'.
// Payload fields that are json decodable have their nested keys masked as well.
func (tracer *lumigoTracer) maskSpanSecrets() {
	patterns := compileMaskedKeyPatterns(tracer.Config.MaskedKeyPatterns)
	for _, span := range tracer.spans {
		maskSpan(span, patterns)
	}
}

func maskSpan(span *telemetry.Span, patterns []*regexp.Regexp) {
	span.Event = maskJSONString(span.Event, patterns)
	span.LambdaEnvVars = maskJSONString(span.LambdaEnvVars, patterns)
	if span.LambdaResponse != nil {
		masked := maskJSONString(*span.LambdaResponse, patterns)
		span.LambdaResponse = &masked
	}
	for key, value := range span.Metadata {
		if isMaskedKey(key, patterns) {
			span.Metadata[key] = maskedValue
		} else {
			span.Metadata[key] = maskJSONString(value, patterns)
		}
	}
	if span.SpanInfo.HTTPInfo != nil {
		if span.SpanInfo.HTTPInfo.Request != nil {
			span.SpanInfo.HTTPInfo.Request.Headers = maskJSONString(span.SpanInfo.HTTPInfo.Request.Headers, patterns)
			span.SpanInfo.HTTPInfo.Request.Body = maskJSONString(span.SpanInfo.HTTPInfo.Request.Body, patterns)
		}
		if span.SpanInfo.HTTPInfo.Response != nil {
			span.SpanInfo.HTTPInfo.Response.Headers = maskJSONString(span.SpanInfo.HTTPInfo.Response.Headers, patterns)
			span.SpanInfo.HTTPInfo.Response.Body = maskJSONString(span.SpanInfo.HTTPInfo.Response.Body, patterns)
		}
	}
}
