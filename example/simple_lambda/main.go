package main

import (
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
)

func myHandler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Println("In myHandler, received body: ", request.Body)
	return events.APIGatewayProxyResponse{Body: request.Body, StatusCode: 200}, nil
}

func main() {
	log.Println("enter main")
	config := lumigo.NewConfig("", "t_10faa5e13e7844aaa1234")
	config.Handler = myHandler
	lambda.Start(lumigo.WrapLambdaHandler(config))
}
