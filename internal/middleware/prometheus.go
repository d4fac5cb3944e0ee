package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus instruments every request passing through a listener. The
// collectors are named after label and registered with registerer.
func Prometheus(label string, registerer prometheus.Registerer) (func(http.Handler) http.Handler, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: `dirindex_` + label + `_requests`,
		Help: `A counter of total requests`,
	}, []string{`code`, `method`})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    `dirindex_` + label + `_duration`,
		Help:    `A histogram of request duration`,
		Buckets: []float64{.01, .05, .25, .5, 1, 2.5, 5, 10},
	}, []string{`code`, `method`})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: `dirindex_` + label + `_in_flight`,
		Help: `A gauge of requests currently in flight`,
	})
	requestSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    `dirindex_` + label + `_request_size`,
		Help:    `A histogram of request size`,
		Buckets: []float64{200, 500, 900, 1500},
	}, []string{})
	responseSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    `dirindex_` + label + `_response_size`,
		Help:    `A histogram of response size`,
		Buckets: prometheus.ExponentialBuckets(256, 4, 10),
	}, []string{})
	for _, collector := range []prometheus.Collector{counter, duration, inFlight, requestSize, responseSize} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return func(next http.Handler) http.Handler {
		return promhttp.InstrumentHandlerInFlight(inFlight,
			promhttp.InstrumentHandlerDuration(duration,
				promhttp.InstrumentHandlerCounter(counter,
					promhttp.InstrumentHandlerResponseSize(responseSize,
						promhttp.InstrumentHandlerRequestSize(requestSize, next),
					))))
	}, nil
}
