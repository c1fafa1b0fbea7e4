package lumigo

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

type genericLambdaHandler func(context.Context, json.RawMessage) (interface{}, error)

func errorHandler(err error) genericLambdaHandler {
	return func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		tracer.AddErrorTypeAndMessage("generic_handler", err.Error())
		return nil, err
	}
}

func validateArguments(handlerType reflect.Type) (bool, error) {
	takesContext := false
	if handlerType.NumIn() > 2 {
		return false, fmt.Errorf(
			"handlers may not take more than two arguments, but handler takes %d", handlerType.NumIn())
	}
	if handlerType.NumIn() > 0 {
		contextType := reflect.TypeOf((*context.Context)(nil)).Elem()
		firstArgumentType := handlerType.In(0)
		takesContext = firstArgumentType.Implements(contextType)
		if handlerType.NumIn() > 1 && !takesContext {
			return false, fmt.Errorf(
				"handler takes two arguments, but the first is not Context. got %s", firstArgumentType.Kind())
		}
	}
	return takesContext, nil
}

func validateReturns(handlerType reflect.Type) error {
	errorType := reflect.TypeOf((*error)(nil)).Elem()
	switch handlerType.NumOut() {
	case 0:
		return nil
	case 1:
		if !handlerType.Out(0).Implements(errorType) {
			return fmt.Errorf("handler returns a single value, but it does not implement error")
		}
		return nil
	case 2:
		if !handlerType.Out(1).Implements(errorType) {
			return fmt.Errorf("handler returns two values, but the second does not implement error")
		}
		return nil
	default:
		return fmt.Errorf("handler may not return more than two values")
	}
}

// makeGenericHandler adapts any valid lambda handler signature to the
// uniform (context, json payload) -> (result, error) form the dispatch
// wrapper invokes
func makeGenericHandler(handler interface{}) genericLambdaHandler {
	if handler == nil {
		return errorHandler(fmt.Errorf("handler is nil"))
	}
	handlerType := reflect.TypeOf(handler)
	if handlerType.Kind() != reflect.Func {
		return errorHandler(fmt.Errorf("handler kind %s is not %s", handlerType.Kind(), reflect.Func))
	}
	takesContext, err := validateArguments(handlerType)
	if err != nil {
		return errorHandler(err)
	}
	if err := validateReturns(handlerType); err != nil {
		return errorHandler(err)
	}

	handlerValue := reflect.ValueOf(handler)
	return func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args []reflect.Value
		if takesContext {
			args = append(args, reflect.ValueOf(ctx))
		}
		if handlerType.NumIn() == len(args)+1 {
			eventType := handlerType.In(handlerType.NumIn() - 1)
			event := reflect.New(eventType)
			if err := json.Unmarshal(payload, event.Interface()); err != nil {
				tracer.AddErrorTypeAndMessage("generic_handler", err.Error())
				return nil, err
			}
			args = append(args, event.Elem())
		}

		response := handlerValue.Call(args)

		var handlerError error
		if len(response) > 0 {
			if errValue, ok := response[len(response)-1].Interface().(error); ok {
				handlerError = errValue
			}
		}
		var result interface{}
		if len(response) > 1 {
			result = response[0].Interface()
		}
		return result, handlerError
	}
}
