package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
	lumigohttp "github.com/lumigo-io/lumigo-go-dispatch/wrappers/net/http"
)

func myHandler(ctx context.Context) (string, error) {
	client := lumigohttp.Wrap(http.Client{}, ctx)
	resp, err := client.Get("https://httpbin.org/get")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	log.Println("httpbin responded with status: ", resp.StatusCode)
	return resp.Status, nil
}

func main() {
	config := lumigo.NewConfig("", "t_10faa5e13e7844aaa1234")
	config.Handler = myHandler
	lambda.Start(lumigo.WrapLambdaHandler(config))
}
