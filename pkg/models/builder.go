package models

import "time"

type MessageBuilder struct {
	msg *Message
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		msg: &Message{
			Headers: make(map[string]interface{}),
		},
	}
}

func (b *MessageBuilder) WithPayload(payload interface{}) *MessageBuilder {
	b.msg.Payload = payload
	return b
}

func (b *MessageBuilder) WithHeader(name string, value interface{}) *MessageBuilder {
	b.msg.Headers[name] = value
	return b
}

func (b *MessageBuilder) WithOperation(op string) *MessageBuilder {
	return b.WithHeader(HeaderOperationType, op)
}

func (b *MessageBuilder) WithCollection(collection string) *MessageBuilder {
	return b.WithHeader(HeaderCollection, collection)
}

func (b *MessageBuilder) WithKey(key []byte) *MessageBuilder {
	b.msg.Key = key
	return b
}

func (b *MessageBuilder) WithSource(topic string, partition int, offset int64) *MessageBuilder {
	b.msg.Topic = topic
	b.msg.Partition = partition
	b.msg.Offset = offset
	return b
}

func (b *MessageBuilder) WithTimestamp(timestamp time.Time) *MessageBuilder {
	b.msg.Timestamp = timestamp
	return b
}

func (b *MessageBuilder) Build() *Message {
	if b.msg.Timestamp.IsZero() {
		b.msg.Timestamp = time.Now()
	}
	return b.msg
}
