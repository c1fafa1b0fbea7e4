package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
	"github.com/lumigo-io/lumigo-go-dispatch/warmer"
)

// myHandler answers warm-up probes without running any business logic.
// Warm-up invocations are also never traced by the wrapper.
func myHandler(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	if warmup, ok := warmer.IsWarmupEvent(payload, warmer.DefaultSource); ok {
		log.Println("warm-up invocation, concurrency: ", warmup.Concurrency)
		return warmer.Handle(ctx, warmup)
	}
	return "real work done", nil
}

func main() {
	config := lumigo.NewConfig("", "t_10faa5e13e7844aaa1234")
	config.Handler = myHandler
	lambda.Start(lumigo.WrapLambdaHandler(config))
}
