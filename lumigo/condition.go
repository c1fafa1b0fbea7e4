package lumigo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// TraceCondition is a declarative rule deciding tracing deterministically,
// matched against a field of the invocation event
type TraceCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// parseTraceCondition parses the raw JSON condition rule. Malformed JSON or
// a rule missing any of field/operator/value yields no condition, never an
// error - the invocation falls through to warm-up and sampling checks.
func parseTraceCondition(rawCondition string, debug bool) *TraceCondition {
	if len(rawCondition) == 0 {
		return nil
	}
	var parsed struct {
		Field    *string `json:"field"`
		Operator *string `json:"operator"`
		Value    *string `json:"value"`
	}
	if err := json.Unmarshal([]byte(rawCondition), &parsed); err != nil {
		DebugLog(debug, "ignoring malformed trace conditions:", err)
		return nil
	}
	if parsed.Field == nil || parsed.Operator == nil || parsed.Value == nil {
		if rawCondition != "{}" {
			DebugLog(debug, "ignoring incomplete trace conditions:", rawCondition)
		}
		return nil
	}
	return &TraceCondition{
		Field:    *parsed.Field,
		Operator: *parsed.Operator,
		Value:    *parsed.Value,
	}
}

// resolveEventField descends into the event one dot-separated key at a time.
// A missing intermediate key fails the resolution.
func resolveEventField(event map[string]interface{}, fieldPath string) (interface{}, bool) {
	var current interface{} = event
	for _, key := range strings.Split(fieldPath, ".") {
		mapping, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = mapping[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringifyFieldValue(fieldValue interface{}) string {
	if stringValue, ok := fieldValue.(string); ok {
		return stringValue
	}
	return fmt.Sprintf("%v", fieldValue)
}

func applyOperator(operator, fieldValue, conditionValue string, debug bool) bool {
	switch operator {
	case "exact":
		return fieldValue == conditionValue
	case "notexact":
		return fieldValue != conditionValue
	case "startswith":
		return strings.HasPrefix(fieldValue, conditionValue)
	case "notstartswith":
		return !strings.HasPrefix(fieldValue, conditionValue)
	case "endswith":
		return strings.HasSuffix(fieldValue, conditionValue)
	case "notendswith":
		return !strings.HasSuffix(fieldValue, conditionValue)
	case "includes", "contains":
		return strings.Contains(fieldValue, conditionValue)
	case "notincludes", "notcontains":
		return !strings.Contains(fieldValue, conditionValue)
	case "regex":
		return matchRegexValue(conditionValue, fieldValue, debug)
	default:
		DebugLog(debug, "unknown trace condition operator:", operator)
		return false
	}
}

// matchRegexValue matches against a /pattern/flags literal when the condition
// value is formatted as one, otherwise against the raw pattern with no flags
func matchRegexValue(conditionValue, fieldValue string, debug bool) bool {
	pattern := conditionValue
	if strings.HasPrefix(conditionValue, "/") {
		if closing := strings.LastIndex(conditionValue, "/"); closing > 0 {
			pattern = conditionValue[1:closing]
			if flags := regexFlags(conditionValue[closing+1:]); len(flags) > 0 {
				pattern = "(?" + flags + ")" + pattern
			}
		}
	}
	matcher, err := regexp.Compile(pattern)
	if err != nil {
		DebugLog(debug, "invalid trace condition regex:", conditionValue, err)
		return false
	}
	return matcher.MatchString(fieldValue)
}

func regexFlags(rawFlags string) string {
	var flags strings.Builder
	for _, flag := range rawFlags {
		switch flag {
		case 'i', 'm', 's':
			flags.WriteRune(flag)
		}
	}
	return flags.String()
}
