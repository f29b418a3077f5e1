package models

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Message is a single inbound change event. Payload is whatever the transport
// delivered: raw bytes, text, or an already structured value.
type Message struct {
	Payload   interface{}
	Headers   map[string]interface{}
	Key       []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// ID identifies the message by its transport coordinates for logging.
func (msg *Message) ID() string {
	if msg.Topic == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

func (msg *Message) Header(name string) (interface{}, bool) {
	if msg.Headers == nil {
		return nil, false
	}
	value, ok := msg.Headers[name]
	return value, ok
}

// HeaderString returns the header coerced to a string. Byte slices, numbers
// and fmt.Stringer values are all accepted.
func (msg *Message) HeaderString(name string) (string, bool) {
	value, ok := msg.Header(name)
	if !ok {
		return "", false
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprintf("%v", value), true
	}
	return str, true
}
