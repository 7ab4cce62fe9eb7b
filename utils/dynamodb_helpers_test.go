package utils

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	item := map[string]types.AttributeValue{
		"status": &types.AttributeValueMemberS{Value: "pending"},
		"count":  &types.AttributeValueMemberN{Value: "3"},
	}

	assert.Equal(t, "pending", ExtractString(item, "status"))
	assert.Equal(t, "", ExtractString(item, "missing"))
	assert.Equal(t, "", ExtractString(item, "count"), "non-string attributes read as empty")
}
