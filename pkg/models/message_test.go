package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_HeaderString(t *testing.T) {
	msg := NewMessageBuilder().
		WithHeader("bytes", []byte("U")).
		WithHeader("text", "delete").
		WithHeader("number", 42).
		Build()

	tests := []struct {
		name    string
		header  string
		want    string
		present bool
	}{
		{name: "bytes", header: "bytes", want: "U", present: true},
		{name: "string", header: "text", want: "delete", present: true},
		{name: "number", header: "number", want: "42", present: true},
		{name: "missing", header: "op_type", want: "", present: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := msg.HeaderString(tt.header)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessage_ID(t *testing.T) {
	msg := NewMessageBuilder().WithSource("changes", 2, 17).Build()
	assert.Equal(t, "changes/2/17", msg.ID())

	local := NewMessageBuilder().Build()
	assert.Empty(t, local.ID())
}

func TestValidateMessage(t *testing.T) {
	require.Error(t, ValidateMessage(nil))
	require.Error(t, ValidateMessage(&Message{}))

	msg := NewMessageBuilder().WithPayload(`{"a":1}`).Build()
	assert.NoError(t, ValidateMessage(msg))

	msg.Headers[""] = "x"
	var vErr *ValidationError
	require.ErrorAs(t, ValidateMessage(msg), &vErr)
	assert.Equal(t, "headers", vErr.Field)
}
