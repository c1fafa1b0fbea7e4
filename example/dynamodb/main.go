package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/lumigo-io/lumigo-go-dispatch/lumigo"
	lumigoawsv2 "github.com/lumigo-io/lumigo-go-dispatch/wrappers/aws/awsv2"
)

var dynamodbClient *dynamodb.Client

func myHandler(ctx context.Context, orderID string) (string, error) {
	item, err := dynamodbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String("orders"),
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return "", err
	}
	log.Println("fetched order: ", item.Item)
	return orderID, nil
}

func main() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	lumigoawsv2.WrapConfig(&cfg)
	dynamodbClient = dynamodb.NewFromConfig(cfg)

	wrapperConfig := lumigo.NewConfig("", "t_10faa5e13e7844aaa1234")
	wrapperConfig.Handler = myHandler
	lambda.Start(lumigo.WrapLambdaHandler(wrapperConfig))
}
