package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/borges12matheus/pipeline-aws-price/extractor"
	"github.com/borges12matheus/pipeline-aws-price/extractor/aws"
	"github.com/borges12matheus/pipeline-aws-price/extractor/provider"
	"github.com/borges12matheus/pipeline-aws-price/extractor/sink"
)

const (
	appName           = "aws-price-extract"
	defaultEnvFile    = ".env"
	defaultComputeOut = "data/custos_aws_ec2_on_demand.csv"
	defaultRawOut     = "data/raw_aws_pricing.parquet"
)

var operatingSystems = []string{"Linux", "RHEL", "SUSE", "Windows"}

func main() {
	// .env has to be in the environment before the flags read their EnvVars.
	if err := loadEnvFile(envFileFromArgs(os.Args[1:])); err != nil {
		log.WithError(err).Warn("Couldn't load env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "Extract AWS Price List catalog data into CSV, Parquet or SQL tables",
		// filter values may contain commas
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "pricing-region",
				Value:   aws.DefaultPricingRegion,
				Usage:   "Region of the Price List API endpoint",
				EnvVars: []string{"AWS_DEFAULT_REGION", "AWS_REGION"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: defaultEnvFile,
				Usage: "File with KEY=value lines loaded into the environment (a missing file is ignored)",
			},
			&cli.StringFlag{
				Name:    "metrics-textfile",
				Usage:   "Write run metrics to this node_exporter textfile",
				EnvVars: []string{"METRICS_TEXTFILE"},
			},
			&cli.StringFlag{
				Name:    "pushgateway-url",
				Usage:   "Push run metrics to this Prometheus Pushgateway",
				EnvVars: []string{"PUSHGATEWAY_URL"},
			},
		},
		Before: func(c *cli.Context) error {
			setLogLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			computeCommand(),
			rawCommand(),
		},
	}
}

func computeCommand() *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "Collect EC2 On-Demand hourly prices and derived per-vCPU and per-GiB metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "regions",
				Value: strings.Join(extractor.DefaultRegions, ","),
				Usage: "Comma separated list of AWS regions (an empty value disables the region filter)",
			},
			&cli.BoolFlag{
				Name:  "all-regions",
				Usage: "Query every region enabled for the account",
			},
			&cli.StringFlag{
				Name:  "operating-system",
				Value: "Linux",
				Usage: "Operating system of the offers. Accepted values: Linux, RHEL, SUSE, Windows",
			},
			&cli.StringFlag{
				Name:  "instance-regexes",
				Usage: "Comma separated list of instance types regexes (defaults to *all*)",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Value: extractor.DefaultComputeMaxPages,
				Usage: "Maximum pages read per region (0 or less means no limit)",
			},
			&cli.StringFlag{
				Name:  "out",
				Value: defaultComputeOut,
				Usage: "Output file, or a postgres:// connection string",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv, parquet, sqlite, postgres (inferred from --out when empty)",
			},
		},
		Action: runCompute,
	}
}

func rawCommand() *cli.Command {
	return &cli.Command{
		Name:  "raw",
		Usage: "Capture unprocessed Price List entries of a service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "service",
				Value: aws.ServiceCodeEC2,
				Usage: "Service code, e.g. AmazonEC2, AmazonRDS",
			},
			&cli.StringFlag{
				Name:  "regions",
				Usage: "Comma separated list of AWS regions (defaults to *all*)",
			},
			&cli.BoolFlag{
				Name:  "all-regions",
				Usage: "Query every region enabled for the account, one region at a time",
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Extra TERM_MATCH filter as field=value, can be repeated",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Value: extractor.DefaultRawMaxPages,
				Usage: "Maximum pages read per region (0 or less means no limit)",
			},
			&cli.StringFlag{
				Name:  "out",
				Value: defaultRawOut,
				Usage: "Output file, or a postgres:// connection string",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv, parquet, sqlite, postgres (inferred from --out when empty)",
			},
		},
		Action: runRaw,
	}
}

func runCompute(c *cli.Context) error {
	operatingSystem := c.String("operating-system")
	if err := validateOperatingSystems([]string{operatingSystem}); err != nil {
		return cli.Exit(err, 2)
	}
	instRegCompiled, err := compileRegexes(splitAndTrim(c.String("instance-regexes")))
	if err != nil {
		return cli.Exit(err, 2)
	}
	dst, err := resolveDestination(c.String("out"), c.String("format"))
	if err != nil {
		return cli.Exit(err, 2)
	}

	log.Infof("Starting compute extraction [pricing-region=%s, regions=%s, all-regions=%v, os=%s, destination=%s]",
		c.String("pricing-region"), c.String("regions"), c.Bool("all-regions"), operatingSystem, dst)

	e := newExtractor(c)
	report, err := e.RunCompute(c.Context, extractor.ComputeConfig{
		Regions:         splitAndTrim(c.String("regions")),
		AllRegions:      c.Bool("all-regions"),
		OperatingSystem: operatingSystem,
		InstanceRegexes: instRegCompiled,
		MaxPages:        pageLimit(c.Int("max-pages")),
		Destination:     dst,
	})
	exportMetrics(c, e)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "Raw items: %d\n", report.RawItems)
	fmt.Fprintf(c.App.Writer, "Rows after normalization: %d\n", report.Rows)
	fmt.Fprintf(c.App.Writer, "Saved to: %s\n", report.Destination)
	return nil
}

func runRaw(c *cli.Context) error {
	filters, err := parseFilters(c.StringSlice("filter"))
	if err != nil {
		return cli.Exit(err, 2)
	}
	dst, err := resolveDestination(c.String("out"), c.String("format"))
	if err != nil {
		return cli.Exit(err, 2)
	}

	log.Infof("Starting raw extraction [pricing-region=%s, service=%s, regions=%s, all-regions=%v, destination=%s]",
		c.String("pricing-region"), c.String("service"), c.String("regions"), c.Bool("all-regions"), dst)

	e := newExtractor(c)
	report, err := e.RunRaw(c.Context, extractor.RawConfig{
		ServiceCode: c.String("service"),
		Regions:     splitAndTrim(c.String("regions")),
		AllRegions:  c.Bool("all-regions"),
		Filters:     filters,
		MaxPages:    pageLimit(c.Int("max-pages")),
		Destination: dst,
	})
	exportMetrics(c, e)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "Raw items: %d\n", report.RawItems)
	fmt.Fprintf(c.App.Writer, "Unique rows: %d\n", report.Rows)
	fmt.Fprintf(c.App.Writer, "Saved to: %s\n", report.Destination)
	return nil
}

func newExtractor(c *cli.Context) *extractor.Extractor {
	return extractor.New(&aws.SDKClientFactory{Region: c.String("pricing-region")})
}

// exportMetrics runs after failed runs too, so the error counter reaches
// the textfile or Pushgateway.
func exportMetrics(c *cli.Context, e *extractor.Extractor) {
	err := e.ExportMetrics(c.Context, c.String("metrics-textfile"), c.String("pushgateway-url"), appName)
	if err != nil {
		log.WithError(err).Warn("Couldn't export run metrics")
	}
}

func setLogLevel(rawLevel string) {
	parsedLevel, err := log.ParseLevel(rawLevel)
	if err != nil {
		log.WithError(err).Warnf("Couldn't parse log level, using default: %s", log.GetLevel())
		return
	}
	log.SetLevel(parsedLevel)
	log.Debugf("Set log level to %s", parsedLevel)
}

// envFileFromArgs finds the --env-file value among the global arguments.
// Every global flag takes a value, so a flag without "=" consumes the next
// argument.
func envFileFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || !strings.HasPrefix(arg, "-") {
			// global flags end at the command name
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !hasValue {
			if i+1 >= len(args) {
				break
			}
			i++
			value = args[i]
		}
		if name == "env-file" {
			return value
		}
	}
	return defaultEnvFile
}

// loadEnvFile loads KEY=value lines without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no env file found [path=%s]", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	log.Debugf("loaded env file [path=%s]", path)
	return nil
}

// pageLimit maps a non-positive --max-pages to an unbounded fetch.
func pageLimit(maxPages int) int {
	if maxPages <= 0 {
		return -1
	}
	return maxPages
}

func resolveDestination(out, format string) (sink.Destination, error) {
	if out == "" {
		return sink.Destination{}, errors.New("an output destination is required")
	}
	if format == "" {
		return sink.Destination{Format: sink.InferFormat(out), Path: out}, nil
	}
	f, err := sink.ParseFormat(format)
	if err != nil {
		return sink.Destination{}, err
	}
	return sink.Destination{Format: f, Path: out}, nil
}

// parseFilters turns field=value pairs into exact-match filters.
func parseFilters(pairs []string) ([]aws.Filter, error) {
	filters := make([]aws.Filter, 0, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("filter '%s' is not of the form field=value", pair)
		}
		filters = append(filters, aws.Filter{Field: field, Value: strings.TrimSpace(value)})
	}
	return filters, nil
}

func splitAndTrim(str string) []string {
	if str == "" {
		return []string{}
	}
	parts := strings.Split(str, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateOperatingSystems(oss []string) error {
	for _, os := range oss {
		if !provider.Contains(operatingSystems, os) {
			return fmt.Errorf("operating System '%s' is not recognized. Available operating system: %s", os, strings.Join(operatingSystems, ", "))
		}
	}
	return nil
}

func compileRegexes(regexes []string) ([]*regexp.Regexp, error) {
	compiledRegexes := make([]*regexp.Regexp, len(regexes))
	for i, r := range regexes {
		re, err := regexp.Compile(r)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %s: %s", r, err)
		}
		compiledRegexes[i] = re
	}
	return compiledRegexes, nil
}
