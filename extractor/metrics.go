package extractor

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"

	"github.com/borges12matheus/pipeline-aws-price/extractor/aws"
)

const namespace = "aws_pricing"

// Metrics tracks pipeline runs. The extractor is a batch job, so the values
// are exported once at the end instead of being scraped.
type Metrics struct {
	pagesFetched *prometheus.CounterVec
	itemsFetched *prometheus.CounterVec
	rowsWritten  *prometheus.GaugeVec
	rowsExcluded *prometheus.CounterVec
	duplicates   *prometheus.CounterVec
	duration     *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec
	runErrors    *prometheus.CounterVec
}

// NewMetrics creates the run metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Price List API pages fetched.",
		}, []string{"mode", "region"}),
		itemsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_fetched_total",
			Help:      "Raw catalog items fetched.",
		}, []string{"mode"}),
		rowsWritten: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_written",
			Help:      "Rows persisted by the last run.",
		}, []string{"mode"}),
		rowsExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_excluded_total",
			Help:      "Catalog items that produced no normalized row.",
		}, []string{"reason"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_duplicate_total",
			Help:      "Rows dropped as duplicates.",
		}, []string{"mode"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "The run duration.",
		}, []string{"mode"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"mode"}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_errors_total",
			Help:      "Runs aborted by an error.",
		}, []string{"mode"}),
	}
	reg.MustRegister(
		m.pagesFetched,
		m.itemsFetched,
		m.rowsWritten,
		m.rowsExcluded,
		m.duplicates,
		m.duration,
		m.lastSuccess,
		m.runErrors,
	)
	return m
}

func (m *Metrics) observePage(mode Mode) func(aws.Page) {
	return func(p aws.Page) {
		region := p.Region
		if region == "" {
			region = "all"
		}
		m.pagesFetched.WithLabelValues(string(mode), region).Inc()
		m.itemsFetched.WithLabelValues(string(mode)).Add(float64(p.Items))
	}
}

func (m *Metrics) observeReport(r Report) {
	mode := string(r.Mode)
	m.rowsWritten.WithLabelValues(mode).Set(float64(r.Rows))
	m.duplicates.WithLabelValues(mode).Add(float64(r.Duplicates))
	for reason, n := range r.Excluded {
		m.rowsExcluded.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.duration.WithLabelValues(mode).Set(r.Duration.Seconds())
	m.lastSuccess.WithLabelValues(mode).SetToCurrentTime()
}

func (m *Metrics) observeError(mode Mode) {
	m.runErrors.WithLabelValues(string(mode)).Inc()
}

// ExportMetrics writes the gathered metrics to a node_exporter textfile
// and/or pushes them to a Pushgateway. Empty arguments skip that target.
func (e *Extractor) ExportMetrics(ctx context.Context, textfile, pushgatewayURL, job string) error {
	if textfile != "" {
		if err := prometheus.WriteToTextfile(textfile, e.registry); err != nil {
			return fmt.Errorf("failed to write metrics textfile %s: %w", textfile, err)
		}
		log.Debugf("wrote metrics textfile [path=%s]", textfile)
	}
	if pushgatewayURL != "" {
		if err := push.New(pushgatewayURL, job).Gatherer(e.registry).PushContext(ctx); err != nil {
			return fmt.Errorf("failed to push metrics [url=%s, job=%s]: %w", pushgatewayURL, job, err)
		}
		log.Debugf("pushed metrics [url=%s, job=%s]", pushgatewayURL, job)
	}
	return nil
}
