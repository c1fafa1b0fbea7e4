// Package warmer keeps Lambda instances warm. A scheduled rule (or the
// serverless-plugin-warmup plugin) invokes the function with a warm-up
// payload; the handler answers without running business logic and can fan
// out to additional instances.
package warmer

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const (
	// DefaultSource identifies warm-up events emitted by serverless-plugin-warmup
	DefaultSource = "serverless-plugin-warmup"

	// overlapDelay keeps instances busy long enough to force true concurrency
	overlapDelay = 75 * time.Millisecond
)

// Event is the warm-up payload
type Event struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// Response is returned for warm-up invocations
type Response struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent checks whether the raw payload is a warm-up event with the
// given source marker
func IsWarmupEvent(payload json.RawMessage, source string) (*Event, bool) {
	var eventMap map[string]interface{}
	if err := json.Unmarshal(payload, &eventMap); err != nil {
		return nil, false
	}

	eventSource, ok := eventMap["source"].(string)
	if !ok || eventSource != source {
		return nil, false
	}

	warmup := &Event{
		Source:      eventSource,
		Concurrency: 0,
	}

	if concurrency, ok := eventMap["concurrency"].(float64); ok {
		warmup.Concurrency = int(concurrency)
	}

	return warmup, true
}

// Handle answers a warm-up event, fanning out to keep extra instances warm
// when the event requests concurrency
func Handle(ctx context.Context, warmup *Event) (*Response, error) {
	instancesWarmed := 1

	if warmup.Concurrency > 0 {
		if err := selfInvoke(ctx, warmup.Source, warmup.Concurrency); err == nil {
			instancesWarmed += warmup.Concurrency
		}
	}

	time.Sleep(overlapDelay)

	return &Response{
		Status:          "warm",
		InstancesWarmed: instancesWarmed,
	}, nil
}

// selfInvoke invokes this function count times asynchronously. Child payloads
// carry concurrency zero so they cannot fan out again.
func selfInvoke(ctx context.Context, source string, count int) error {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}

	client := lambdasdk.NewFromConfig(cfg)
	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	payload, err := json.Marshal(Event{
		Source:      source,
		Concurrency: 0,
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var invokeErr error
	var errMu sync.Mutex

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})

			if err != nil {
				errMu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				errMu.Unlock()
			}
		}()
	}

	wg.Wait()
	return invokeErr
}
