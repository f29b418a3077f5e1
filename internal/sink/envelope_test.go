package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"mongosink/pkg/errors"
	"mongosink/pkg/models"
)

func TestEnvelopeDocument(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	msg := models.NewMessageBuilder().
		WithPayload([]byte(`{"id": 1}`)).
		WithCollection("orders").
		WithOperation("i").
		WithKey([]byte("k")).
		WithSource("events", 1, 9).
		WithTimestamp(at).
		Build()

	doc := EnvelopeDocument(msg)

	assert.Equal(t, bson.D{
		{Key: "payload", Value: bson.D{{Key: "id", Value: int32(1)}}},
		{Key: "headers", Value: bson.D{
			{Key: "collection", Value: "orders"},
			{Key: "op_type", Value: "i"},
		}},
		{Key: "topic", Value: "events"},
		{Key: "partition", Value: 1},
		{Key: "offset", Value: int64(9)},
		{Key: "key", Value: "k"},
		{Key: "timestamp", Value: at},
	}, doc)
}

func TestEnvelopeDocument_NonJSONPayloadKeptAsText(t *testing.T) {
	msg := &models.Message{Payload: []byte("plain text")}

	doc := EnvelopeDocument(msg)

	assert.Equal(t, bson.D{
		{Key: "payload", Value: "plain text"},
		{Key: "headers", Value: bson.D{}},
	}, doc)
}

func TestExtJSONConverter(t *testing.T) {
	conv := ExtJSONConverter{}

	doc, err := conv.ToDocument(`{"a": "b"}`)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "a", Value: "b"}}, doc)

	structured := bson.M{"a": 1}
	passed, err := conv.ToDocument(structured)
	require.NoError(t, err)
	assert.Equal(t, structured, passed)

	_, err = conv.ToDocument([]byte("nope"))
	assert.True(t, errors.IsParse(err))

	_, err = conv.ToDocument(nil)
	assert.True(t, errors.IsParse(err))
}
