package models

// Header names shared by the broker and the sink core.
const (
	HeaderOperationType    = "op_type"
	HeaderUniqueFieldName  = "unique_field_name"
	HeaderUniqueFieldValue = "unique_field_value"
	HeaderCollection       = "collection"
	HeaderTraceParent      = "traceparent"
)

// DLQ headers appended to a message that could not be written.
const (
	HeaderDLQReason      = "dlq_reason"
	HeaderDLQSourceTopic = "dlq_source_topic"
	HeaderDLQTimestamp   = "dlq_timestamp"
)
