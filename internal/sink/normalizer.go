package sink

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"

	"mongosink/pkg/errors"
)

// Normalize turns a payload into an ordered document. Text payloads are parsed
// as relaxed MongoDB Extended JSON; structured values are round-tripped
// through BSON so their field types are kept. A repeated top-level field keeps
// its last value at the position of its first occurrence.
func Normalize(payload interface{}) (bson.D, error) {
	doc, err := normalize(payload)
	if err != nil {
		return nil, err
	}
	return collapseDuplicates(doc), nil
}

func normalize(payload interface{}) (bson.D, error) {
	switch v := payload.(type) {
	case nil:
		return nil, errors.ErrParse.WithMessage("payload is empty")
	case bson.D:
		return v, nil
	case bson.Raw:
		return unmarshalRaw(v)
	case string:
		return parseText([]byte(v))
	case []byte:
		return parseText(v)
	case json.RawMessage:
		return parseText(v)
	default:
		raw, err := bson.Marshal(v)
		if err != nil {
			return nil, errors.ErrParse.
				WithCause(err).
				WithMessage("payload of type %T is not a document", payload)
		}
		return unmarshalRaw(raw)
	}
}

func parseText(data []byte) (bson.D, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.ErrParse.WithMessage("payload is empty")
	}

	if !utf8.Valid(data) {
		return nil, errors.ErrParse.WithMessage("payload is not valid UTF-8")
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.ErrParse.WithMessage("payload is not valid JSON")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, errors.ErrParse.WithMessage("payload is not a JSON object")
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, errors.ErrParse.WithCause(err)
	}
	return doc, nil
}

func unmarshalRaw(raw []byte) (bson.D, error) {
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, errors.ErrParse.WithCause(err)
	}
	return doc, nil
}

func collapseDuplicates(doc bson.D) bson.D {
	positions := make(map[string]int, len(doc))
	out := make(bson.D, 0, len(doc))
	for _, elem := range doc {
		if i, seen := positions[elem.Key]; seen {
			out[i].Value = elem.Value
			continue
		}
		positions[elem.Key] = len(out)
		out = append(out, elem)
	}
	return out
}
