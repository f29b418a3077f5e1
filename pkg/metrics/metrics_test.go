package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterAll_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterAll()
		RegisterAll()
	})
}

func TestAddSinkDocumentsAffected(t *testing.T) {
	before := testutil.ToFloat64(SinkDocumentsAffected.WithLabelValues("delete"))

	AddSinkDocumentsAffected("delete", 3)
	AddSinkDocumentsAffected("delete", 0)
	AddSinkDocumentsAffected("delete", -1)

	after := testutil.ToFloat64(SinkDocumentsAffected.WithLabelValues("delete"))
	assert.Equal(t, 3.0, after-before)
}

func TestIncSinkMessage(t *testing.T) {
	before := testutil.ToFloat64(SinkMessagesTotal.WithLabelValues("update", "success"))
	IncSinkMessage("update", "success")
	after := testutil.ToFloat64(SinkMessagesTotal.WithLabelValues("update", "success"))
	assert.Equal(t, 1.0, after-before)
}
