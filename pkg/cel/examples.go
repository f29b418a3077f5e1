package cel

// CollectionExpressionExamples lists routing expressions accepted by the sink.
var CollectionExpressionExamples = map[string]string{
	"literal":           `"events"`,
	"header":            `headers.collection`,
	"header_default":    `has(headers.collection) ? headers.collection : "data"`,
	"payload_field":     `payload.tenant + "_orders"`,
	"topic_suffix":      `topic + "_sink"`,
	"operation_routing": `has(headers.op_type) && headers.op_type.lowerAscii() == "d" ? "tombstones" : "data"`,
}
