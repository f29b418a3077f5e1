package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mongosink/pkg/models"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		raw  string
		want Operation
	}{
		{"insert", OperationInsert},
		{"i", OperationInsert},
		{"INSERT", OperationInsert},
		{"update", OperationUpdate},
		{"u", OperationUpdate},
		{"Update", OperationUpdate},
		{"delete", OperationDelete},
		{"d", OperationDelete},
		{"D", OperationDelete},
		{"", OperationInsert},
		{"upsert", OperationInsert},
		{"remove", OperationInsert},
		{" u", OperationInsert},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOperation(tt.raw))
		})
	}
}

func TestOperationOf(t *testing.T) {
	absent := models.NewMessageBuilder().WithPayload("{}").Build()
	assert.Equal(t, OperationInsert, OperationOf(absent))

	bytesHeader := models.NewMessageBuilder().WithHeader(models.HeaderOperationType, []byte("d")).Build()
	assert.Equal(t, OperationDelete, OperationOf(bytesHeader))

	numeric := models.NewMessageBuilder().WithHeader(models.HeaderOperationType, 7).Build()
	assert.Equal(t, OperationInsert, OperationOf(numeric))
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "insert", OperationInsert.String())
	assert.Equal(t, "update", OperationUpdate.String())
	assert.Equal(t, "delete", OperationDelete.String())
}

func TestIsKnownOperation(t *testing.T) {
	assert.True(t, IsKnownOperation("U"))
	assert.False(t, IsKnownOperation("merge"))
}
