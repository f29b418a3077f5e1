package sink

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mongosink/pkg/errors"
)

func TestNormalize_Text(t *testing.T) {
	want := bson.D{
		{Key: "id", Value: int32(1)},
		{Key: "name", Value: "a"},
		{Key: "nested", Value: bson.D{{Key: "ok", Value: true}}},
		{Key: "none", Value: nil},
	}
	text := `{"id": 1, "name": "a", "nested": {"ok": true}, "none": null}`

	for name, payload := range map[string]interface{}{
		"string":      text,
		"bytes":       []byte(text),
		"raw message": json.RawMessage(text),
		"padded":      "  \n" + text + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Normalize(payload)
			require.NoError(t, err)
			assert.Equal(t, want, doc)
		})
	}
}

func TestNormalize_ExtendedJSON(t *testing.T) {
	doc, err := Normalize(`{"_id": {"$oid": "507f1f77bcf86cd799439011"}, "n": {"$numberLong": "5"}}`)
	require.NoError(t, err)

	oid, _ := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	assert.Equal(t, bson.D{{Key: "_id", Value: oid}, {Key: "n", Value: int64(5)}}, doc)
}

func TestNormalize_PreservesFieldOrder(t *testing.T) {
	doc, err := Normalize(`{"z": 1, "a": 2, "m": 3}`)
	require.NoError(t, err)

	keys := make([]string, 0, len(doc))
	for _, elem := range doc {
		keys = append(keys, elem.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestNormalize_Structured(t *testing.T) {
	type order struct {
		ID      string    `bson:"id"`
		Total   float64   `bson:"total"`
		Created time.Time `bson:"created"`
	}
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	doc, err := Normalize(order{ID: "o1", Total: 9.5, Created: created})
	require.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: "id", Value: "o1"},
		{Key: "total", Value: 9.5},
		{Key: "created", Value: primitive.NewDateTimeFromTime(created)},
	}, doc)

	given := bson.D{{Key: "id", Value: 1}}
	same, err := Normalize(given)
	require.NoError(t, err)
	assert.Equal(t, given, same)

	fromMap, err := Normalize(bson.M{"id": "x"})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "id", Value: "x"}}, fromMap)
}

func TestNormalize_Errors(t *testing.T) {
	for name, payload := range map[string]interface{}{
		"nil":          nil,
		"empty string": "",
		"invalid":      "{not json",
		"array":        `[1, 2]`,
		"scalar":       `42`,
		"int":          42,
		"invalid utf8": "{\"a\": \"\xff\"}",
		"utf8 bytes":   []byte("{\"a\": \"\xfe\"}"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(payload)
			require.Error(t, err)
			assert.True(t, errors.IsParse(err))
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestNormalize_DuplicateFieldsLastWins(t *testing.T) {
	doc, err := Normalize(`{"a": 1, "a": 2, "k": 3}`)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "a", Value: int32(2)}, {Key: "k", Value: int32(3)}}, doc)

	structured, err := Normalize(bson.D{{Key: "k", Value: 1}, {Key: "a", Value: "x"}, {Key: "k", Value: 9}})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "k", Value: 9}, {Key: "a", Value: "x"}}, structured)
}

func TestNormalize_DuplicateFieldsGiveSingleSet(t *testing.T) {
	doc, err := Normalize(`{"a": 1, "a": 2, "k": 3}`)
	require.NoError(t, err)

	mutation := BuildUpdate("data", doc, ParseKeySet("k"))
	assert.Equal(t, bson.D{{Key: "k", Value: int32(3)}}, mutation.Filter)
	assert.Equal(t, bson.D{{Key: "a", Value: int32(2)}}, mutation.ChangeSet)
}
