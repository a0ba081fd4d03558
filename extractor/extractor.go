// Package extractor runs the compute-pricing and raw-capture pipelines over
// the AWS Price List API and records run metrics.
package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/borges12matheus/pipeline-aws-price/extractor/aws"
	"github.com/borges12matheus/pipeline-aws-price/extractor/provider"
	"github.com/borges12matheus/pipeline-aws-price/extractor/sink"
)

// Mode names a pipeline shape.
type Mode string

const (
	ModeCompute Mode = "compute"
	ModeRaw     Mode = "raw"
)

const (
	DefaultComputeMaxPages = 200
	DefaultRawMaxPages     = 500

	ComputeTable = "compute_prices"
	RawTable     = "raw_price_list"
)

// DefaultRegions are queried by the compute pipeline when none are given.
var DefaultRegions = []string{"us-east-1", "sa-east-1", "eu-west-1"}

// ComputeConfig configures a compute-pricing run.
type ComputeConfig struct {
	// Regions shards the query; empty means no region filter.
	Regions []string
	// AllRegions replaces Regions with every region enabled for the account.
	AllRegions      bool
	OperatingSystem string
	InstanceRegexes []*regexp.Regexp
	// MaxPages bounds pages per region; zero means DefaultComputeMaxPages
	// and a negative value means no bound.
	MaxPages    int
	Destination sink.Destination
}

// RawConfig configures a raw capture run.
type RawConfig struct {
	ServiceCode string
	Regions     []string
	AllRegions  bool
	Filters     []aws.Filter
	// MaxPages bounds pages per region; zero means DefaultRawMaxPages
	// and a negative value means no bound.
	MaxPages    int
	Destination sink.Destination
}

// Report summarizes a finished run.
type Report struct {
	RunID       string
	Mode        Mode
	Regions     []string
	RawItems    int
	Rows        int
	Excluded    map[aws.Exclusion]int
	Duplicates  int
	Destination sink.Destination
	// Empty is set when no row survived; the destination then holds an
	// empty table.
	Empty    bool
	Duration time.Duration
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRegistry registers the run metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(e *Extractor) {
		e.registry = reg
	}
}

// Extractor runs the fetch, normalize and persist pipelines.
type Extractor struct {
	clientFactory aws.ClientFactory
	registry      *prometheus.Registry
	metrics       *Metrics
}

// New returns an Extractor that builds its AWS clients with clientFactory.
func New(clientFactory aws.ClientFactory, opts ...Option) *Extractor {
	e := &Extractor{clientFactory: clientFactory}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = prometheus.NewRegistry()
	}
	e.metrics = NewMetrics(e.registry)
	return e
}

// ComputeFilters is the fixed offer shape of the compute pipeline: shared
// tenancy, no pre-installed software, used capacity, one operating system.
func ComputeFilters(operatingSystem string) []aws.Filter {
	if operatingSystem == "" {
		operatingSystem = "Linux"
	}
	return []aws.Filter{
		{Field: "operatingSystem", Value: operatingSystem},
		{Field: "tenancy", Value: "Shared"},
		{Field: "preInstalledSw", Value: "NA"},
		{Field: "capacitystatus", Value: "Used"},
	}
}

// RunCompute fetches EC2 on-demand prices, normalizes them and writes the
// resulting rows to cfg.Destination.
func (e *Extractor) RunCompute(ctx context.Context, cfg ComputeConfig) (Report, error) {
	start := time.Now()
	report := newReport(ModeCompute, cfg.Destination)
	logger := runLogger(report)

	regions, err := e.resolveRegions(ctx, cfg.Regions, cfg.AllRegions)
	if err != nil {
		return e.fail(report, err)
	}
	report.Regions = regions

	filters := ComputeFilters(cfg.OperatingSystem)
	logger.Infof("Collecting EC2 On-Demand prices [os=%s, tenancy=Shared, regions=%s]", filters[0].Value, regionsLabel(regions))

	raws, err := e.fetch(ctx, ModeCompute, aws.Query{
		ServiceCode: aws.ServiceCodeEC2,
		Filters:     filters,
		Regions:     regions,
		MaxPages:    maxPages(cfg.MaxPages, DefaultComputeMaxPages),
	})
	if err != nil {
		return e.fail(report, err)
	}
	report.RawItems = len(raws)
	logger.Infof("Raw items: %d", report.RawItems)

	rows, stats := aws.Normalize(aws.DecodeItems(raws), cfg.InstanceRegexes)
	report.Rows = len(rows)
	report.Excluded = stats.Excluded
	report.Duplicates = stats.Duplicates
	logger.Infof("Rows after normalization: %d [excluded=%s, duplicates=%d]", report.Rows, exclusionsLabel(stats.Excluded), stats.Duplicates)

	if err := persist(ctx, &report, ComputeTable, rows); err != nil {
		return e.fail(report, err)
	}
	return e.finish(report, start), nil
}

// RunRaw fetches catalog items and stores each one verbatim with its sku
// and region, without any filtering by completeness.
func (e *Extractor) RunRaw(ctx context.Context, cfg RawConfig) (Report, error) {
	start := time.Now()
	report := newReport(ModeRaw, cfg.Destination)
	logger := runLogger(report)

	regions, err := e.resolveRegions(ctx, cfg.Regions, cfg.AllRegions)
	if err != nil {
		return e.fail(report, err)
	}
	report.Regions = regions

	serviceCode := cfg.ServiceCode
	if serviceCode == "" {
		serviceCode = aws.ServiceCodeEC2
	}
	logger.Infof("Collecting raw price list [service=%s, filters=%d, regions=%s]", serviceCode, len(cfg.Filters), regionsLabel(regions))

	raws, err := e.fetch(ctx, ModeRaw, aws.Query{
		ServiceCode: serviceCode,
		Filters:     cfg.Filters,
		Regions:     regions,
		MaxPages:    maxPages(cfg.MaxPages, DefaultRawMaxPages),
	})
	if err != nil {
		return e.fail(report, err)
	}
	report.RawItems = len(raws)

	rows := aws.ToRawRows(raws)
	report.Rows = len(rows)
	report.Duplicates = report.RawItems - report.Rows
	logger.Infof("Raw items: %d, unique rows: %d", report.RawItems, report.Rows)

	if err := persist(ctx, &report, RawTable, rows); err != nil {
		return e.fail(report, err)
	}
	return e.finish(report, start), nil
}

func (e *Extractor) resolveRegions(ctx context.Context, regions []string, all bool) ([]string, error) {
	if !all {
		return regions, nil
	}
	client, err := e.clientFactory.NewEC2Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create EC2 client: %w", err)
	}
	resolved, err := aws.ListRegions(ctx, client)
	if err != nil {
		return nil, err
	}
	log.Debugf("resolved enabled regions [count=%d]", len(resolved))
	return resolved, nil
}

func (e *Extractor) fetch(ctx context.Context, mode Mode, q aws.Query) ([]string, error) {
	client, err := e.clientFactory.NewPricingClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pricing client: %w", err)
	}
	return aws.FetchAll(ctx, client, q, e.metrics.observePage(mode))
}

func persist[T provider.Record](ctx context.Context, report *Report, table string, rows []T) error {
	if len(rows) == 0 {
		report.Empty = true
		runLogger(*report).Warn("No data collected. Check permissions/filters.")
	}
	if err := sink.Write(ctx, report.Destination, table, rows); err != nil {
		return err
	}
	runLogger(*report).Infof("Saved %d rows [destination=%s]", len(rows), report.Destination)
	return nil
}

func (e *Extractor) fail(report Report, err error) (Report, error) {
	e.metrics.observeError(report.Mode)
	runLogger(report).WithError(err).Errorf("%s run failed", report.Mode)
	return report, err
}

func (e *Extractor) finish(report Report, start time.Time) Report {
	report.Duration = time.Since(start)
	e.metrics.observeReport(report)
	return report
}

func newReport(mode Mode, dst sink.Destination) Report {
	return Report{
		RunID:       uuid.NewString(),
		Mode:        mode,
		Destination: dst,
		Excluded:    map[aws.Exclusion]int{},
	}
}

func runLogger(r Report) *log.Entry {
	return log.WithFields(log.Fields{"run_id": r.RunID, "mode": r.Mode})
}

func maxPages(configured, fallback int) int {
	if configured == 0 {
		return fallback
	}
	return configured
}

func regionsLabel(regions []string) string {
	if len(regions) == 0 {
		return "all"
	}
	return strings.Join(regions, ",")
}

func exclusionsLabel(excluded map[aws.Exclusion]int) string {
	if len(excluded) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(excluded))
	for _, reason := range []aws.Exclusion{aws.ExcludedMissingInstanceType, aws.ExcludedInstanceTypeFiltered, aws.ExcludedMissingHourlyPrice} {
		if n := excluded[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", reason, n))
		}
	}
	return strings.Join(parts, ",")
}
