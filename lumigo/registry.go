package lumigo

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	handlersMutex sync.RWMutex
	handlers      = make(map[string]interface{})
)

// HandlerResolutionError is returned when the configured handler identifier
// cannot be resolved to an invocable function. It is fatal for the
// invocation: the business handler never runs.
type HandlerResolutionError struct {
	Identifier string
}

func (e *HandlerResolutionError) Error() string {
	return fmt.Sprintf("lumigo: cannot resolve handler %q", e.Identifier)
}

// RegisterHandler makes a business handler resolvable by name. Meant to be
// called at cold start, before the lambda runtime starts dispatching.
func RegisterHandler(name string, handler interface{}) {
	handlersMutex.Lock()
	defer handlersMutex.Unlock()
	handlers[name] = handler
}

// resolveHandler maps the configured handler identifier to the function that
// will be invoked. A direct function reference is returned unchanged; a name
// is looked up in the registry.
func resolveHandler(config *Config) (interface{}, error) {
	if config.Handler != nil {
		if reflect.TypeOf(config.Handler).Kind() != reflect.Func {
			return nil, &HandlerResolutionError{Identifier: fmt.Sprintf("%T", config.Handler)}
		}
		return config.Handler, nil
	}

	handlerName := config.HandlerName
	if len(handlerName) == 0 {
		handlerName = DefaultHandlerName
	}

	handlersMutex.RLock()
	defer handlersMutex.RUnlock()
	if handler, ok := handlers[handlerName]; ok {
		return handler, nil
	}
	return nil, &HandlerResolutionError{Identifier: handlerName}
}
