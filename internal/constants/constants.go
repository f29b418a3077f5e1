package constants

import "time"

const (
	ServiceName = "mongodb-sink"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	DefaultInputTopic = "change_events"
)

const (
	DefaultMongoDBName    = "sink"
	DefaultConnectTimeout = 10 * time.Second
	HealthCheckTimeout    = 5 * time.Second
)

// DefaultCollection receives messages when no collection is configured.
const DefaultCollection = "data"

const (
	ConverterExtJSON  = "extjson"
	ConverterEnvelope = "envelope"
)

const (
	ShutdownTimeout = 5 * time.Second
)

// DefaultTruncateLen bounds filter documents rendered into log lines.
const DefaultTruncateLen = 100

