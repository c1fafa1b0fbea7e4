package main

import (
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
)

func ordersHandler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Println("In ordersHandler, path: ", request.Path)
	return events.APIGatewayProxyResponse{Body: request.Body, StatusCode: 200}, nil
}

func main() {
	lumigo.RegisterHandler("ordersHandler", ordersHandler)

	config := lumigo.NewConfig("ordersHandler", "t_10faa5e13e7844aaa1234")
	// Trace one invocation in ten, except that requests hitting the
	// checkout path are always traced
	config.SamplingRate = 0.1
	config.TraceConditions = `{"field":"path","operator":"startswith","value":"/checkout"}`
	lambda.Start(lumigo.WrapLambdaHandler(config))
}
