package sink

import (
	"sort"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"

	"mongosink/pkg/models"
)

// EnvelopeDocument stores the whole message: its payload, headers and
// transport coordinates. JSON object payloads are embedded as documents,
// anything else is kept as received.
func EnvelopeDocument(msg *models.Message) bson.D {
	names := lo.Keys(msg.Headers)
	sort.Strings(names)

	headers := make(bson.D, 0, len(names))
	for _, name := range names {
		value, _ := msg.HeaderString(name)
		headers = append(headers, bson.E{Key: name, Value: value})
	}

	doc := bson.D{
		{Key: "payload", Value: envelopePayload(msg.Payload)},
		{Key: "headers", Value: headers},
	}

	if msg.Topic != "" {
		doc = append(doc,
			bson.E{Key: "topic", Value: msg.Topic},
			bson.E{Key: "partition", Value: msg.Partition},
			bson.E{Key: "offset", Value: msg.Offset},
		)
	}

	if len(msg.Key) > 0 {
		doc = append(doc, bson.E{Key: "key", Value: string(msg.Key)})
	}

	if !msg.Timestamp.IsZero() {
		doc = append(doc, bson.E{Key: "timestamp", Value: msg.Timestamp})
	}

	return doc
}

func envelopePayload(payload interface{}) interface{} {
	var text string
	switch v := payload.(type) {
	case []byte:
		text = string(v)
	case string:
		text = v
	default:
		return payload
	}

	if gjson.Valid(text) && gjson.Parse(text).IsObject() {
		if doc, err := Normalize(text); err == nil {
			return doc
		}
	}
	return text
}
