package sink

import (
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Mutation is the write derived from one message.
type Mutation struct {
	Operation  Operation
	Collection string
	Filter     bson.D
	ChangeSet  bson.D
	Document   interface{}
}

func BuildInsert(collection string, document interface{}) Mutation {
	return Mutation{
		Operation:  OperationInsert,
		Collection: collection,
		Document:   document,
	}
}

// BuildUpdate splits doc into an equality filter on the key fields and a
// change-set holding every other field in document order.
func BuildUpdate(collection string, doc bson.D, keys KeySet) Mutation {
	changeSet := lo.Reject(doc, func(elem bson.E, _ int) bool {
		return keys.Contains(elem.Key)
	})

	return Mutation{
		Operation:  OperationUpdate,
		Collection: collection,
		Filter:     BuildFilter(doc, keys),
		ChangeSet:  bson.D(changeSet),
	}
}

// BuildDelete keeps only the key fields of doc.
func BuildDelete(collection string, doc bson.D, keys KeySet) Mutation {
	return Mutation{
		Operation:  OperationDelete,
		Collection: collection,
		Filter:     BuildFilter(doc, keys),
	}
}

// BuildFilter requires equality on every key, in key order. A key missing
// from doc matches null.
func BuildFilter(doc bson.D, keys KeySet) bson.D {
	values := make(map[string]interface{}, len(doc))
	for _, elem := range doc {
		if _, seen := values[elem.Key]; !seen {
			values[elem.Key] = elem.Value
		}
	}

	filter := lo.Map(keys.Names(), func(name string, _ int) bson.E {
		return bson.E{Key: name, Value: values[name]}
	})
	return bson.D(filter)
}

// UpdateDocument wraps the change-set in a $set operator.
func (m Mutation) UpdateDocument() bson.D {
	changeSet := m.ChangeSet
	if changeSet == nil {
		changeSet = bson.D{}
	}
	return bson.D{{Key: "$set", Value: changeSet}}
}
