package dbtask

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

const DefaultSettingId = "default"

// BridgeSetting is the settings item the bridge reads at start up. Empty
// attributes leave the corresponding configuration value untouched.
type BridgeSetting struct {
	SettingId          string `dynamodbav:"settingId"`
	ChannelSecret      string `dynamodbav:"channelSecret"`
	ChannelAccessToken string `dynamodbav:"channelAccessToken"`
	AppId              string `dynamodbav:"appId"`
	WorkflowEndpoint   string `dynamodbav:"workflowEndpoint"`
	WorkflowApiKey     string `dynamodbav:"workflowApiKey"`
}

var ErrSettingNotFound = fmt.Errorf("dbtask: bridge setting not found")

func GetBridgeSetting(ctx context.Context, db dynamodbiface.DynamoDBAPI, table, ID string, settingItem *BridgeSetting) error {
	if ID == "" {
		ID = DefaultSettingId
	}
	getParam := &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]*dynamodb.AttributeValue{
			"settingId": {
				S: aws.String(ID),
			},
		},
		ConsistentRead: aws.Bool(true),
	}
	dbRes, err := db.GetItemWithContext(ctx, getParam)
	if err != nil {
		return fmt.Errorf("dbtask: get bridge setting %q: %w", ID, err)
	}
	if len(dbRes.Item) == 0 {
		return fmt.Errorf("%w: %s/%s", ErrSettingNotFound, table, ID)
	}
	if err := dynamodbattribute.UnmarshalMap(dbRes.Item, settingItem); err != nil {
		return fmt.Errorf("dbtask: decode bridge setting: %w", err)
	}
	return nil
}

// Values returns the non-empty attributes keyed by configuration name.
func (s BridgeSetting) Values() map[string]any {
	values := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			values[key] = value
		}
	}
	set("channel_secret", s.ChannelSecret)
	set("channel_access_token", s.ChannelAccessToken)
	set("app_id", s.AppId)
	set("workflow_endpoint", s.WorkflowEndpoint)
	set("workflow_api_key", s.WorkflowApiKey)
	return values
}
