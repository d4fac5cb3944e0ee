package browse

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"dirindex/internal/model"
)

// Metrics counts listings, served files and failures. A nil *Metrics records
// nothing.
type Metrics struct {
	listings *prometheus.CounterVec
	served   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: `dirindex_listings_total`,
			Help: `A counter of rendered directory listings`,
		}, []string{`lang`, `format`}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: `dirindex_files_served_total`,
			Help: `A counter of served files by file type`,
		}, []string{`type`, `mode`}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: `dirindex_failures_total`,
			Help: `A counter of failed requests by status`,
		}, []string{`code`}),
	}
	for _, collector := range []prometheus.Collector{metrics.listings, metrics.served, metrics.failures} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func (metrics *Metrics) listed(lang string, format string) {
	if metrics == nil {
		return
	}
	metrics.listings.WithLabelValues(lang, format).Inc()
}

func (metrics *Metrics) servedFile(kind model.FileType, mode string) {
	if metrics == nil {
		return
	}
	metrics.served.WithLabelValues(string(kind), mode).Inc()
}

func (metrics *Metrics) failed(code int) {
	if metrics == nil {
		return
	}
	metrics.failures.WithLabelValues(strconv.Itoa(code)).Inc()
}
