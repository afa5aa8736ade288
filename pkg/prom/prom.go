package prom

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	xhttp "github.com/nimasrn/time-capsule/pkg/http"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemDelivery = "delivery"
	SystemHTTP     = "http"
)

const (
	MetricSweepDuration  = "sweep_duration_seconds"
	MetricMessagesTotal  = "messages_total"
	MetricTicksSkipped   = "ticks_skipped_total"
	MetricSweepsTotal    = "sweeps_total"
	MetricNotifierErrors = "notifier_errors_total"

	MetricRequestsTotal    = "requests_total"
	MetricRequestDuration  = "request_duration_seconds"
	MetricRequestsInFlight = "requests_in_flight"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeHistogram    = "histogram"
	TypeHistogramVec = "histogramVec"
	TypeGaugeVec     = "gaugeVec"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers the delivery metrics. Calling it again is harmless.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	MetricSystemEnabled = true

	return errors.Join(
		createHistogram(SystemDelivery, MetricSweepDuration),
		createCounter(SystemDelivery, MetricSweepsTotal),
		createCounterVec(SystemDelivery, MetricMessagesTotal, []string{"outcome"}),
		createCounterVec(SystemDelivery, MetricTicksSkipped, []string{"reason"}),
		createCounterVec(SystemDelivery, MetricNotifierErrors, []string{"notifier"}),
	)
}

func CreateMetric(metricType, metricSubsystem, metricName string, labelsValues ...string) error {
	switch metricType {
	case TypeCounter:
		return createCounter(metricSubsystem, metricName)
	case TypeCounterVec:
		return createCounterVec(metricSubsystem, metricName, labelsValues)
	case TypeHistogram:
		return createHistogram(metricSubsystem, metricName)
	case TypeHistogramVec:
		return createHistogramVec(metricSubsystem, metricName, labelsValues)
	case TypeGaugeVec:
		return createGaugeVec(metricSubsystem, metricName, labelsValues)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[T prometheus.Collector](c T) (T, error) {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func createCounter(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	c, err := register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}))
	MetricCollectionCounters[subsystem+name] = c
	return err
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	c, err := register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels))
	MetricCollectionCounterVec[subsystem+name] = c
	return err
}

func createHistogram(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	h, err := register(prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}))
	MetricCollectionHistogram[subsystem+name] = h
	return err
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	h, err := register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels))
	MetricCollectionHistogramVec[subsystem+name] = h
	return err
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	g, err := register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels))
	MetricCollectionGaugeVec[subsystem+name] = g
	return err
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogram(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogram[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func ObserveSweep(seconds float64, delivered, failed int) {
	AddHistogram(SystemDelivery, MetricSweepDuration, seconds)
	IncCounter(SystemDelivery, MetricSweepsTotal)
	if delivered > 0 {
		AddCounterVec(SystemDelivery, MetricMessagesTotal, float64(delivered), "delivered")
	}
	if failed > 0 {
		AddCounterVec(SystemDelivery, MetricMessagesTotal, float64(failed), "failed")
	}
}

func IncTickSkipped(reason string) {
	IncCounterVec(SystemDelivery, MetricTicksSkipped, reason)
}

func IncNotifierError(notifier string) {
	IncCounterVec(SystemDelivery, MetricNotifierErrors, notifier)
}

// CreateHTTP registers the request metrics used by Middleware.
func CreateHTTP(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	MetricSystemEnabled = true

	return errors.Join(
		CreateMetric(TypeCounterVec, SystemHTTP, MetricRequestsTotal, "method", "status"),
		CreateMetric(TypeHistogramVec, SystemHTTP, MetricRequestDuration, "method"),
		CreateMetric(TypeGaugeVec, SystemHTTP, MetricRequestsInFlight, "method"),
	)
}

func Middleware(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		method := string(ctx.Method())
		start := time.Now()
		AddGaugeVec(SystemHTTP, MetricRequestsInFlight, 1, method)
		defer func() {
			AddGaugeVec(SystemHTTP, MetricRequestsInFlight, -1, method)
			IncCounterVec(SystemHTTP, MetricRequestsTotal, method, strconv.Itoa(ctx.Response.StatusCode()))
			AddHistogramVec(SystemHTTP, MetricRequestDuration, time.Since(start).Seconds(), method)
		}()
		next(ctx)
	}
}
