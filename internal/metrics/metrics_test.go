package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(cycles.WithLabelValues("oceanic"))
	ObserveCycle("oceanic", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(cycles.WithLabelValues("oceanic")))

	before = testutil.ToFloat64(tagWrites.WithLabelValues("gate", "stand"))
	RecordTagWrite("gate", "stand")
	assert.Equal(t, before+1, testutil.ToFloat64(tagWrites.WithLabelValues("gate", "stand")))

	before = testutil.ToFloat64(gatewayRequests.WithLabelValues("nattrak", "clearances", "server_error"))
	RecordGatewayRequest("nattrak", "clearances", "server_error", time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(gatewayRequests.WithLabelValues("nattrak", "clearances", "server_error")))
}
