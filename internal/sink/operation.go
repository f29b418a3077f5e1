package sink

import (
	"strings"

	"mongosink/pkg/models"
)

// Operation is the mutation requested by a message's op_type header.
type Operation int

const (
	OperationInsert Operation = iota
	OperationUpdate
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	default:
		return "insert"
	}
}

var operationAliases = map[string]Operation{
	"insert": OperationInsert,
	"i":      OperationInsert,
	"update": OperationUpdate,
	"u":      OperationUpdate,
	"delete": OperationDelete,
	"d":      OperationDelete,
}

// ParseOperation decodes an op_type value case-insensitively. Unknown values
// decode to OperationInsert so that no change event is dropped.
func ParseOperation(raw string) Operation {
	if op, ok := operationAliases[strings.ToLower(raw)]; ok {
		return op
	}
	return OperationInsert
}

// OperationOf reads the op_type header of msg. A message without the header
// is an insert.
func OperationOf(msg *models.Message) Operation {
	raw, ok := msg.HeaderString(models.HeaderOperationType)
	if !ok {
		return OperationInsert
	}
	return ParseOperation(raw)
}

// IsKnownOperation reports whether raw names one of the operation aliases.
func IsKnownOperation(raw string) bool {
	_, ok := operationAliases[strings.ToLower(raw)]
	return ok
}
