package sink

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"

	"mongosink/pkg/errors"
)

// DocumentConverter turns the value handed to Store.Save into something the
// driver can persist.
type DocumentConverter interface {
	ToDocument(value interface{}) (interface{}, error)
}

// ExtJSONConverter parses text and bytes as relaxed Extended JSON and passes
// structured values through to the driver unchanged.
type ExtJSONConverter struct{}

func (ExtJSONConverter) ToDocument(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, errors.ErrParse.WithMessage("document is empty")
	case string, []byte, json.RawMessage, bson.Raw:
		return Normalize(v)
	default:
		return v, nil
	}
}
