package prom

import (
	"testing"

	xhttp "github.com/nimasrn/time-capsule/pkg/http"
	"github.com/valyala/fasthttp"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndObserve(t *testing.T) {
	require.NoError(t, Create("test-host", "test", "tc_test"))
	require.NoError(t, Create("test-host", "test", "tc_test"))

	ObserveSweep(0.2, 3, 1)
	IncTickSkipped("overlap")
	IncTickSkipped("overlap")

	messages := MetricCollectionCounterVec[SystemDelivery+MetricMessagesTotal]
	assert.Equal(t, float64(3), testutil.ToFloat64(messages.WithLabelValues("delivered")))
	assert.Equal(t, float64(1), testutil.ToFloat64(messages.WithLabelValues("failed")))

	skipped := MetricCollectionCounterVec[SystemDelivery+MetricTicksSkipped]
	assert.Equal(t, float64(2), testutil.ToFloat64(skipped.WithLabelValues("overlap")))

	assert.Equal(t, float64(1), testutil.ToFloat64(MetricCollectionCounters[SystemDelivery+MetricSweepsTotal]))
}

func TestCreateMetric_UnknownType(t *testing.T) {
	assert.Error(t, CreateMetric("summary", "x", "y"))
}

func TestMiddleware(t *testing.T) {
	require.NoError(t, CreateHTTP("test-host", "test", "tc_test"))

	h := Middleware(func(ctx *xhttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusTeapot)
	})
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	h(ctx)

	requests := MetricCollectionCounterVec[SystemHTTP+MetricRequestsTotal]
	assert.Equal(t, float64(1), testutil.ToFloat64(requests.WithLabelValues("GET", "418")))

	inFlight := MetricCollectionGaugeVec[SystemHTTP+MetricRequestsInFlight]
	assert.Equal(t, float64(0), testutil.ToFloat64(inFlight.WithLabelValues("GET")))
}
