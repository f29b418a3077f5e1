package broker

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson"

	"mongosink/pkg/models"
)

// FromKafkaMessage exposes a record as a models.Message. Header values are
// kept as strings; an empty value becomes a nil payload.
func FromKafkaMessage(m kafka.Message) *models.Message {
	headers := make(map[string]interface{}, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}

	var payload interface{}
	if len(m.Value) > 0 {
		payload = m.Value
	}

	return &models.Message{
		Payload:   payload,
		Headers:   headers,
		Key:       m.Key,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
	}
}

// ToKafkaMessage encodes msg for topic. Text payloads are written verbatim,
// documents as relaxed Extended JSON and any other value as JSON.
func ToKafkaMessage(topic string, msg *models.Message) (kafka.Message, error) {
	value, err := encodePayload(msg.Payload)
	if err != nil {
		return kafka.Message{}, err
	}

	names := lo.Keys(msg.Headers)
	sort.Strings(names)

	headers := make([]kafka.Header, 0, len(names))
	for _, name := range names {
		str, _ := msg.HeaderString(name)
		headers = append(headers, kafka.Header{Key: name, Value: []byte(str)})
	}

	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   value,
		Headers: headers,
		Time:    timestamp,
	}, nil
}

func encodePayload(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case bson.D, bson.M:
		data, err := bson.MarshalExtJSON(v, false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to encode document payload: %w", err)
		}
		return data, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload of type %T: %w", v, err)
		}
		return data, nil
	}
}
