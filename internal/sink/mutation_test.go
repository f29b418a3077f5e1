package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func sampleDoc() bson.D {
	return bson.D{
		{Key: "name", Value: "widget"},
		{Key: "id", Value: int32(7)},
		{Key: "price", Value: 9.5},
		{Key: "region", Value: "eu"},
	}
}

func TestBuildUpdate(t *testing.T) {
	m := BuildUpdate("products", sampleDoc(), ParseKeySet("region,id"))

	assert.Equal(t, OperationUpdate, m.Operation)
	assert.Equal(t, "products", m.Collection)
	assert.Equal(t, bson.D{
		{Key: "region", Value: "eu"},
		{Key: "id", Value: int32(7)},
	}, m.Filter)
	assert.Equal(t, bson.D{
		{Key: "name", Value: "widget"},
		{Key: "price", Value: 9.5},
	}, m.ChangeSet)
	assert.Equal(t, bson.D{{Key: "$set", Value: m.ChangeSet}}, m.UpdateDocument())
}

func TestBuildUpdate_PartitionsEveryField(t *testing.T) {
	doc := sampleDoc()
	keys := ParseKeySet("id")
	m := BuildUpdate("products", doc, keys)

	assert.Len(t, m.Filter, keys.Len())
	assert.Len(t, m.ChangeSet, len(doc)-keys.Len())
	for _, elem := range m.ChangeSet {
		assert.False(t, keys.Contains(elem.Key), elem.Key)
	}
}

func TestBuildUpdate_MissingKeyMatchesNull(t *testing.T) {
	m := BuildUpdate("products", bson.D{{Key: "name", Value: "x"}}, ParseKeySet("id"))

	assert.Equal(t, bson.D{{Key: "id", Value: nil}}, m.Filter)
	assert.Equal(t, bson.D{{Key: "name", Value: "x"}}, m.ChangeSet)
}

func TestBuildUpdate_OnlyKeysGivesEmptySet(t *testing.T) {
	m := BuildUpdate("products", bson.D{{Key: "id", Value: 1}}, ParseKeySet("id"))

	assert.Empty(t, m.ChangeSet)
	assert.Equal(t, bson.D{{Key: "$set", Value: bson.D{}}}, m.UpdateDocument())
}

func TestBuildDelete(t *testing.T) {
	m := BuildDelete("products", sampleDoc(), ParseKeySet("id"))

	assert.Equal(t, OperationDelete, m.Operation)
	assert.Equal(t, bson.D{{Key: "id", Value: int32(7)}}, m.Filter)
	assert.Nil(t, m.ChangeSet)
}

func TestBuildFilter_EmptyKeySetIsVacuous(t *testing.T) {
	assert.Empty(t, BuildFilter(sampleDoc(), ParseKeySet("")))
}

func TestBuildInsert(t *testing.T) {
	m := BuildInsert("data", "raw")

	assert.Equal(t, OperationInsert, m.Operation)
	assert.Equal(t, "raw", m.Document)
	assert.Nil(t, m.Filter)
}
