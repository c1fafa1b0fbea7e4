package lumigoawsv2

import (
	"context"
	"strings"

	awsMiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	smithyMiddleware "github.com/aws/smithy-go/middleware"
	smithyHttp "github.com/aws/smithy-go/transport/http"
	"github.com/lumigo-io/lumigo-go-dispatch/tracer"
)

// MiddlewareFunc mutates a smithy middleware stack
type MiddlewareFunc func(stack *smithyMiddleware.Stack) error

// tracerResolver returns the tracer active for the current invocation, or
// nil when the invocation is not traced
type tracerResolver func() tracer.Tracer

func initializeMiddleware(
	awsCall *AWSCall, resolveTracer tracerResolver, completeCall func(*AWSCall, tracer.Tracer),
) MiddlewareFunc {

	return func(stack *smithyMiddleware.Stack) error {
		return stack.Initialize.Add(
			smithyMiddleware.InitializeMiddlewareFunc(
				"lumigoInitialize",
				func(
					ctx context.Context, in smithyMiddleware.InitializeInput, next smithyMiddleware.InitializeHandler,
				) (
					out smithyMiddleware.InitializeOutput, metadata smithyMiddleware.Metadata, err error,
				) {

					currentTracer := resolveTracer()
					if currentTracer == nil {
						return next.HandleInitialize(ctx, in)
					}

					awsCall.StartTime = tracer.GetTimestamp()
					awsCall.Input = in.Parameters

					out, metadata, err = next.HandleInitialize(ctx, in)
					if err != nil {
						currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2", err.Error())
						return out, metadata, err
					}

					if out != (smithyMiddleware.InitializeOutput{}) {
						awsCall.Output = out.Result
					}

					completeCall(awsCall, currentTracer)

					return out, metadata, nil
				},
			),
			smithyMiddleware.After,
		)
	}
}

func finalizeMiddleware(awsCall *AWSCall, resolveTracer tracerResolver) MiddlewareFunc {
	return func(stack *smithyMiddleware.Stack) error {
		return stack.Finalize.Add(
			smithyMiddleware.FinalizeMiddlewareFunc(
				"lumigoFinalize",
				func(
					ctx context.Context, in smithyMiddleware.FinalizeInput, next smithyMiddleware.FinalizeHandler,
				) (
					out smithyMiddleware.FinalizeOutput, metadata smithyMiddleware.Metadata, err error,
				) {
					out, metadata, err = next.HandleFinalize(ctx, in)

					currentTracer := resolveTracer()
					if currentTracer == nil {
						return out, metadata, err
					}
					if err != nil {
						currentTracer.AddErrorTypeAndMessage("aws-sdk-go-v2", err.Error())
					}

					requestID, ok := awsMiddleware.GetRequestIDMetadata(metadata)
					if ok {
						awsCall.RequestID = requestID
					}

					awsCall.Region = awsMiddleware.GetRegion(ctx)
					awsCall.Operation = awsMiddleware.GetOperationName(ctx)

					service := awsMiddleware.GetSigningName(ctx)
					if len(service) == 0 {
						service = awsMiddleware.GetServiceID(ctx)
					}
					awsCall.Service = strings.ToLower(service)

					if httpReq, reqOk := in.Request.(*smithyHttp.Request); reqOk {
						awsCall.Req = httpReq
					}
					if httpRes, resOk := awsMiddleware.GetRawResponse(metadata).(*smithyHttp.Response); resOk {
						awsCall.Res = httpRes
					}

					return out, metadata, err
				},
			),
			smithyMiddleware.After,
		)
	}
}
